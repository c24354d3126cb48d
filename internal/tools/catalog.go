package tools

// Tool names form a closed set; the dispatcher rejects anything else.
const (
	NameCreateTask   = "create_task"
	NameListTasks    = "list_tasks"
	NameSearchTasks  = "search_tasks"
	NameCompleteTask = "complete_task"
	NameUpdateTask   = "update_task"
	NameDeleteTask   = "delete_task"
)

// Def describes one tool to the model: its name, when to use it, and the
// JSON schema of its arguments.
type Def struct {
	Name        string
	Description string
	Parameters  map[string]any
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func enumProp(desc string, values ...string) map[string]any {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return map[string]any{"type": "string", "enum": vals, "description": desc}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}

// Catalog returns the tool definitions exposed to the model capability.
// This is a stable contract; argument names and semantics must not drift
// from the dispatcher's handlers.
func Catalog() []Def {
	return []Def{
		{
			Name:        NameCreateTask,
			Description: "Create a new task for the user. Use this when the user wants to add, create, or make a new task.",
			Parameters: objectSchema(map[string]any{
				"description": prop("string", "The task description (what needs to be done)"),
				"priority":    enumProp("Task priority level", "high", "medium", "low"),
				"due_date":    prop("string", "Due date - can be YYYY-MM-DD or natural language like 'tomorrow' or 'friday'"),
				"due_time":    prop("string", "Due time in HH:MM format"),
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tags for organizing the task",
				},
			}, "description"),
		},
		{
			Name:        NameListTasks,
			Description: "List the user's tasks. Use this when the user wants to see, view, or show their tasks.",
			Parameters: objectSchema(map[string]any{
				"completed": prop("boolean", "Filter by completion status. True for completed tasks, false for incomplete."),
				"priority":  enumProp("Filter by priority level", "high", "medium", "low"),
				"due_date":  prop("string", "Filter by due date - can be 'today', 'tomorrow', or YYYY-MM-DD"),
			}),
		},
		{
			Name:        NameSearchTasks,
			Description: "Search for tasks by description. Use this when the user is looking for a specific task.",
			Parameters: objectSchema(map[string]any{
				"query": prop("string", "Search query to find matching tasks"),
			}, "query"),
		},
		{
			Name:        NameCompleteTask,
			Description: "Mark a task as complete. Use this when the user wants to mark, complete, finish, or check off a task.",
			Parameters: objectSchema(map[string]any{
				"task_id":           prop("string", "The ID of the task to complete (if known)"),
				"description_match": prop("string", "Part of the task description to match (for finding the task)"),
			}),
		},
		{
			Name:        NameUpdateTask,
			Description: "Update a task's details. Use this when the user wants to change, modify, edit, or update a task.",
			Parameters: objectSchema(map[string]any{
				"task_id":           prop("string", "The ID of the task to update (if known)"),
				"description_match": prop("string", "Part of the task description to match (for finding the task)"),
				"new_description":   prop("string", "New description for the task"),
				"priority":          enumProp("New priority level", "high", "medium", "low"),
				"due_date":          prop("string", "New due date"),
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "New tags list",
				},
			}),
		},
		{
			Name:        NameDeleteTask,
			Description: "Delete a task. Use this when the user wants to remove, delete, or discard a task.",
			Parameters: objectSchema(map[string]any{
				"task_id":           prop("string", "The ID of the task to delete (if known)"),
				"description_match": prop("string", "Part of the task description to match (for finding the task)"),
			}),
		},
	}
}
