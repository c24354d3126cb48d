package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/metalagman/donna/internal/dates"
	"github.com/metalagman/donna/internal/task"
)

// UnknownToolError marks an invocation naming a tool outside the closed set.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Invocation is one structured tool request emitted by the model.
type Invocation struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Dispatcher routes tool invocations to the six task operations. The owner
// identity is a parameter of every call and is taken from the authenticated
// session, never from the invocation arguments.
type Dispatcher struct {
	store task.Store
	now   func() time.Time
}

// NewDispatcher creates a dispatcher over the given task store.
func NewDispatcher(store task.Store) *Dispatcher {
	return &Dispatcher{store: store, now: time.Now}
}

// WithClock overrides the dispatcher clock; used by tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch executes one invocation for the given owner. A non-nil error is
// returned only for invocations outside the tool catalog; every in-catalog
// failure, including storage errors, is reported as a failure Result so the
// model always receives a well-formed payload.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, inv Invocation) (Result, error) {
	args, err := decodeArguments(inv)
	if err != nil {
		var unknown *UnknownToolError
		if errors.As(err, &unknown) {
			return Result{}, unknown
		}
		return failure(err.Error()), nil
	}

	switch inv.Name {
	case NameCreateTask:
		return d.createTask(ctx, userID, args.create), nil
	case NameListTasks:
		return d.listTasks(ctx, userID, args.list), nil
	case NameSearchTasks:
		return d.searchTasks(ctx, userID, args.search), nil
	case NameCompleteTask:
		return d.completeTask(ctx, userID, args.target), nil
	case NameUpdateTask:
		return d.updateTask(ctx, userID, args.update), nil
	case NameDeleteTask:
		return d.deleteTask(ctx, userID, args.target), nil
	default:
		// decodeArguments already rejected unknown names.
		return Result{}, &UnknownToolError{Name: inv.Name}
	}
}

// --- argument decoding ---

type createArgs struct {
	Description string   `mapstructure:"description"`
	Priority    string   `mapstructure:"priority"`
	DueDate     string   `mapstructure:"due_date"`
	DueTime     string   `mapstructure:"due_time"`
	Tags        []string `mapstructure:"tags"`
}

type listArgs struct {
	Completed *bool  `mapstructure:"completed"`
	Priority  string `mapstructure:"priority"`
	DueDate   string `mapstructure:"due_date"`
}

type searchArgs struct {
	Query string `mapstructure:"query"`
}

// targetArgs identify the task a complete/update/delete acts on.
type targetArgs struct {
	TaskID           string `mapstructure:"task_id"`
	DescriptionMatch string `mapstructure:"description_match"`
}

type updateArgs struct {
	targetArgs     `mapstructure:",squash"`
	NewDescription string   `mapstructure:"new_description"`
	Priority       string   `mapstructure:"priority"`
	DueDate        string   `mapstructure:"due_date"`
	Tags           []string `mapstructure:"tags"`
}

type decodedArgs struct {
	create createArgs
	list   listArgs
	search searchArgs
	target targetArgs
	update updateArgs
}

var catalogSchemas = buildSchemas()

func buildSchemas() map[string]*gojsonschema.Schema {
	out := make(map[string]*gojsonschema.Schema)
	for _, def := range Catalog() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.Parameters))
		if err != nil {
			panic(fmt.Sprintf("tool %s has an invalid schema: %v", def.Name, err))
		}
		out[def.Name] = schema
	}
	return out
}

func decodeArguments(inv Invocation) (decodedArgs, error) {
	schema, ok := catalogSchemas[inv.Name]
	if !ok {
		return decodedArgs{}, &UnknownToolError{Name: inv.Name}
	}

	raw := map[string]any{}
	if len(inv.Arguments) > 0 {
		if err := json.Unmarshal(inv.Arguments, &raw); err != nil {
			return decodedArgs{}, fmt.Errorf("arguments are not a JSON object: %v", err)
		}
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return decodedArgs{}, fmt.Errorf("validate arguments: %v", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		sort.Strings(msgs)
		return decodedArgs{}, fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
	}

	var out decodedArgs
	var target any
	switch inv.Name {
	case NameCreateTask:
		target = &out.create
	case NameListTasks:
		target = &out.list
	case NameSearchTasks:
		target = &out.search
	case NameCompleteTask, NameDeleteTask:
		target = &out.target
	case NameUpdateTask:
		target = &out.update
	}
	if err := mapstructure.Decode(raw, target); err != nil {
		return decodedArgs{}, fmt.Errorf("decode arguments: %v", err)
	}
	return out, nil
}

// --- handlers ---

var dueTimeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

func (d *Dispatcher) createTask(ctx context.Context, userID string, args createArgs) Result {
	description := task.TruncateDescription(args.Description)
	if description == "" {
		return failure("Task description cannot be empty")
	}

	priority := task.PriorityMedium
	if args.Priority != "" {
		p, ok := task.ParsePriority(args.Priority)
		if !ok {
			return failure(fmt.Sprintf("Invalid priority %q: valid values are high, medium, low", args.Priority))
		}
		priority = p
	}

	if args.DueTime != "" && !dueTimeRe.MatchString(args.DueTime) {
		return failure(fmt.Sprintf("Invalid due time %q: expected HH:MM", args.DueTime))
	}

	now := d.now()
	t := task.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: description,
		Priority:    priority,
		Tags:        task.NormalizeTags(args.Tags),
		DueTime:     args.DueTime,
		Recurrence:  task.RecurNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// An unparseable date phrase means no due date, not a failed create.
	if args.DueDate != "" {
		if due, ok := dates.Parse(args.DueDate, now); ok {
			t.DueDate = due.Format("2006-01-02")
		}
	}

	if err := d.store.Create(ctx, &t); err != nil {
		return d.storeFailure("create task", err)
	}

	r := Result{
		Success: true,
		TaskID:  t.ID,
		Message: fmt.Sprintf("Created task: %s", t.Description),
	}
	return r
}

func (d *Dispatcher) listTasks(ctx context.Context, userID string, args listArgs) Result {
	filter := task.Filter{Completed: args.Completed}
	if args.Priority != "" {
		p, ok := task.ParsePriority(args.Priority)
		if !ok {
			return failure(fmt.Sprintf("Invalid priority %q: valid values are high, medium, low", args.Priority))
		}
		filter.Priority = &p
	}
	if args.DueDate != "" {
		if due, ok := dates.Parse(args.DueDate, d.now()); ok {
			filter.DueDate = due.Format("2006-01-02")
		}
	}

	items, err := d.store.List(ctx, userID, filter)
	if err != nil {
		return d.storeFailure("list tasks", err)
	}

	views := make([]TaskView, len(items))
	for i, t := range items {
		views[i] = viewOf(t)
	}
	return Result{
		Success:   true,
		Count:     intPtr(len(items)),
		Tasks:     views,
		Formatted: formatList(items),
	}
}

func formatList(items []task.Task) string {
	if len(items) == 0 {
		return "No tasks found."
	}
	lines := make([]string, len(items))
	for i, t := range items {
		status := "[ ]"
		if t.Completed {
			status = "[x]"
		}
		due := ""
		if t.DueDate != "" {
			due = fmt.Sprintf(" (due: %s)", t.DueDate)
		}
		lines[i] = fmt.Sprintf("%s (%s) %s%s", status, t.Priority, t.Description, due)
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) searchTasks(ctx context.Context, userID string, args searchArgs) Result {
	all, err := d.store.List(ctx, userID, task.Filter{})
	if err != nil {
		return d.storeFailure("search tasks", err)
	}

	res := task.Resolve(args.Query, all)
	views := make([]TaskView, len(res.Candidates))
	for i, t := range res.Candidates {
		views[i] = viewOf(t)
	}
	return Result{
		Success: true,
		Count:   intPtr(len(views)),
		Tasks:   views,
	}
}

// resolveTarget finds the task a mutation acts on, by id or by phrase.
// openOnly restricts phrase matching to incomplete tasks.
func (d *Dispatcher) resolveTarget(ctx context.Context, userID string, args targetArgs, openOnly bool) (task.Task, *Result) {
	if args.TaskID != "" {
		t, err := d.store.Get(ctx, userID, args.TaskID)
		if errors.Is(err, task.ErrNotFound) {
			r := failure("Task not found")
			return task.Task{}, &r
		}
		if err != nil {
			r := d.storeFailure("load task", err)
			return task.Task{}, &r
		}
		return t, nil
	}

	if args.DescriptionMatch == "" {
		r := failure("Task not found")
		return task.Task{}, &r
	}

	filter := task.Filter{}
	if openOnly {
		open := false
		filter.Completed = &open
	}
	candidates, err := d.store.List(ctx, userID, filter)
	if err != nil {
		r := d.storeFailure("load tasks", err)
		return task.Task{}, &r
	}

	res := task.Resolve(args.DescriptionMatch, candidates)
	switch {
	case res.NotFound():
		r := notFound(args.DescriptionMatch)
		return task.Task{}, &r
	case res.Ambiguous():
		r := ambiguous(res.Candidates)
		return task.Task{}, &r
	}
	t, _ := res.Resolved()
	return t, nil
}

func (d *Dispatcher) completeTask(ctx context.Context, userID string, args targetArgs) Result {
	t, fail := d.resolveTarget(ctx, userID, args, true)
	if fail != nil {
		return *fail
	}

	now := d.now()
	t.Completed = true
	t.UpdatedAt = now
	if err := d.store.Update(ctx, &t); err != nil {
		return d.storeFailure("complete task", err)
	}

	message := fmt.Sprintf("Marked '%s' as complete!", t.Description)

	// Completing a recurring task with a due date materializes the next
	// occurrence; this is part of the operation's contract.
	if t.Recurrence != task.RecurNone && t.DueDate != "" {
		next, err := task.NextOccurrence(t, now)
		if err != nil {
			return d.storeFailure("schedule next occurrence", err)
		}
		if err := d.store.Create(ctx, &next); err != nil {
			return d.storeFailure("schedule next occurrence", err)
		}
		message += fmt.Sprintf(" Next occurrence scheduled for %s.", next.DueDate)
	}

	return Result{Success: true, TaskID: t.ID, Message: message}
}

func (d *Dispatcher) updateTask(ctx context.Context, userID string, args updateArgs) Result {
	t, fail := d.resolveTarget(ctx, userID, args.targetArgs, false)
	if fail != nil {
		return *fail
	}

	var changes []string

	if args.NewDescription != "" {
		t.Description = task.TruncateDescription(args.NewDescription)
		changes = append(changes, fmt.Sprintf("description to '%s'", t.Description))
	}
	if args.Priority != "" {
		p, ok := task.ParsePriority(args.Priority)
		if !ok {
			return failure(fmt.Sprintf("Invalid priority %q: valid values are high, medium, low", args.Priority))
		}
		t.Priority = p
		changes = append(changes, "priority to "+string(p))
	}
	if args.DueDate != "" {
		if due, ok := dates.Parse(args.DueDate, d.now()); ok {
			t.DueDate = due.Format("2006-01-02")
			changes = append(changes, "due date to "+t.DueDate)
		}
	}
	if args.Tags != nil {
		t.Tags = task.NormalizeTags(args.Tags)
		changes = append(changes, fmt.Sprintf("tags to %v", t.Tags))
	}

	t.UpdatedAt = d.now()
	if err := d.store.Update(ctx, &t); err != nil {
		return d.storeFailure("update task", err)
	}

	message := "No changes made"
	if len(changes) > 0 {
		message = fmt.Sprintf("Updated '%s': %s", t.Description, strings.Join(changes, ", "))
	}
	return Result{Success: true, TaskID: t.ID, Changes: changes, Message: message}
}

func (d *Dispatcher) deleteTask(ctx context.Context, userID string, args targetArgs) Result {
	t, fail := d.resolveTarget(ctx, userID, args, false)
	if fail != nil {
		return *fail
	}

	if err := d.store.Delete(ctx, userID, t.ID); err != nil {
		return d.storeFailure("delete task", err)
	}

	return Result{
		Success:            true,
		DeletedDescription: t.Description,
		Message:            fmt.Sprintf("Deleted task: %s", t.Description),
	}
}

// storeFailure logs the underlying error and returns a generic failure so
// low-level storage details never reach the model.
func (d *Dispatcher) storeFailure(op string, err error) Result {
	log.Error().Err(err).Str("op", op).Msg("tool operation failed")
	return failure("Something went wrong while accessing your tasks. Please try again.")
}
