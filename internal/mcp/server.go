// Package mcp exposes the assistant's task tools as an MCP (Model Context
// Protocol) server for AI coding assistants and other MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/metalagman/donna/internal/tools"
)

// Server exposes the task tools of one user over MCP. The owner is fixed at
// construction; MCP clients never pick whose tasks they operate on.
type Server struct {
	server     *gomcp.Server
	dispatcher *tools.Dispatcher
	userID     string
}

// NewServer creates an MCP server dispatching tools on behalf of userID.
func NewServer(dispatcher *tools.Dispatcher, userID, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		dispatcher: dispatcher,
		userID:     userID,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "donna", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input types ---

type createTaskInput struct {
	Description string   `json:"description" jsonschema:"required,the task description"`
	Priority    string   `json:"priority,omitempty" jsonschema:"task priority (high, medium, low)"`
	DueDate     string   `json:"due_date,omitempty" jsonschema:"due date as YYYY-MM-DD or a natural phrase like tomorrow or friday"`
	DueTime     string   `json:"due_time,omitempty" jsonschema:"due time as HH:MM"`
	Tags        []string `json:"tags,omitempty" jsonschema:"tags to attach to the task"`
}

type listTasksInput struct {
	Completed *bool  `json:"completed,omitempty" jsonschema:"filter by completion state"`
	Priority  string `json:"priority,omitempty" jsonschema:"filter by priority (high, medium, low)"`
	DueDate   string `json:"due_date,omitempty" jsonschema:"filter by due date, YYYY-MM-DD or natural phrase"`
}

type searchTasksInput struct {
	Query string `json:"query" jsonschema:"required,text to search task descriptions for"`
}

type targetTaskInput struct {
	TaskID           string `json:"task_id,omitempty" jsonschema:"exact task id when known"`
	DescriptionMatch string `json:"description_match,omitempty" jsonschema:"part of the task description to match"`
}

type updateTaskInput struct {
	TaskID           string   `json:"task_id,omitempty" jsonschema:"exact task id when known"`
	DescriptionMatch string   `json:"description_match,omitempty" jsonschema:"part of the task description to match"`
	NewDescription   string   `json:"new_description,omitempty" jsonschema:"replacement description"`
	Priority         string   `json:"priority,omitempty" jsonschema:"new priority (high, medium, low)"`
	DueDate          string   `json:"due_date,omitempty" jsonschema:"new due date, YYYY-MM-DD or natural phrase"`
	Tags             []string `json:"tags,omitempty" jsonschema:"replacement tag list"`
}

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.NameCreateTask,
		Description: "Create a new task with optional priority, due date, time and tags.",
	}, dispatch[createTaskInput](s, tools.NameCreateTask))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.NameListTasks,
		Description: "List tasks with optional completion, priority and due date filters.",
	}, dispatch[listTasksInput](s, tools.NameListTasks))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.NameSearchTasks,
		Description: "Search tasks by matching the query against task descriptions.",
	}, dispatch[searchTasksInput](s, tools.NameSearchTasks))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.NameCompleteTask,
		Description: "Mark a task complete by id or fuzzy description. Recurring tasks schedule their next occurrence.",
	}, dispatch[targetTaskInput](s, tools.NameCompleteTask))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.NameUpdateTask,
		Description: "Update fields of a task found by id or fuzzy description.",
	}, dispatch[updateTaskInput](s, tools.NameUpdateTask))

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.NameDeleteTask,
		Description: "Delete a task found by id or fuzzy description.",
	}, dispatch[targetTaskInput](s, tools.NameDeleteTask))
}

// dispatch adapts one dispatcher tool to a typed MCP handler. The typed input
// is round-tripped through JSON so the dispatcher applies the same argument
// validation as the chat loop.
func dispatch[T any](s *Server, name string) func(context.Context, *gomcp.CallToolRequest, T) (*gomcp.CallToolResult, tools.Result, error) {
	return func(ctx context.Context, _ *gomcp.CallToolRequest, input T) (*gomcp.CallToolResult, tools.Result, error) {
		args, err := json.Marshal(input)
		if err != nil {
			return errorResult(fmt.Sprintf("encoding %s arguments: %s", name, err)), tools.Result{}, nil
		}

		result, err := s.dispatcher.Dispatch(ctx, s.userID, tools.Invocation{
			Name:      name,
			Arguments: args,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("dispatching %s: %s", name, err)), tools.Result{}, nil
		}
		if !result.Success {
			return errorResult(result.Error), result, nil
		}
		return nil, result, nil
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
