// Package tools implements the six task operations the model can invoke and
// the dispatcher that routes validated invocations to them.
package tools

import "github.com/metalagman/donna/internal/task"

// TaskView is the task shape exposed to the model and API clients.
type TaskView struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Candidate identifies one task in an ambiguous match set.
type Candidate struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Result is the tagged outcome of one dispatched tool invocation. Success
// and failure are distinguished by the Success flag, never by the shape of a
// string. The JSON form is the wire contract fed back to the model.
type Result struct {
	Success            bool        `json:"success"`
	TaskID             string      `json:"task_id,omitempty"`
	Count              *int        `json:"count,omitempty"`
	Tasks              []TaskView  `json:"tasks,omitempty"`
	Formatted          string      `json:"formatted,omitempty"`
	Message            string      `json:"message,omitempty"`
	Changes            []string    `json:"changes,omitempty"`
	DeletedDescription string      `json:"deleted_description,omitempty"`
	Error              string      `json:"error,omitempty"`
	Matches            []Candidate `json:"matches,omitempty"`
	Suggestion         string      `json:"suggestion,omitempty"`
}

func failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

func notFound(phrase string) Result {
	r := failure("No task found matching '" + phrase + "'")
	r.Suggestion = "Would you like to see your current tasks?"
	return r
}

func ambiguous(candidates []task.Task) Result {
	r := failure("Multiple tasks match that description")
	r.Suggestion = "Please be more specific or use the task ID."
	r.Matches = make([]Candidate, len(candidates))
	for i, t := range candidates {
		r.Matches[i] = Candidate{ID: t.ID, Description: t.Description}
	}
	return r
}

func viewOf(t task.Task) TaskView {
	return TaskView{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Tags:        t.Tags,
	}
}

func intPtr(n int) *int { return &n }
