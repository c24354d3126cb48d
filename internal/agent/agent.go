// Package agent drives the conversational loop between the model capability
// and the tool dispatcher.
package agent

import (
	"context"
	"strings"

	"github.com/metalagman/donna/internal/tools"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation transcript.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []tools.Invocation // assistant messages requesting tools
	ToolCallID string             // tool messages answering one invocation
}

// Reply is what the model capability produces for a transcript: either a
// final text answer or a batch of tool invocations to execute first.
type Reply struct {
	Text      string
	ToolCalls []tools.Invocation
}

// ModelClient is the opaque model capability: transcript and tool catalog
// in, reply out.
type ModelClient interface {
	Complete(ctx context.Context, messages []Message, catalog []tools.Def) (Reply, error)
}

// ToolInvocationResult pairs a dispatched tool's outcome with the tool that
// produced it, in invocation order.
type ToolInvocationResult struct {
	Tool string `json:"tool"`
	tools.Result
}

const (
	fallbackReply = "I wasn't able to finish that request. Could you rephrase it?"
	emptyReply    = "I'm sorry, I couldn't process that request."
)

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a helpful todo task assistant. Your job is to help users manage their tasks through natural conversation.\n\n")
	b.WriteString("You can:\n")
	b.WriteString("- Create new tasks (with optional priority, due date, time, and tags)\n")
	b.WriteString("- List and view tasks (with optional filters)\n")
	b.WriteString("- Search for specific tasks\n")
	b.WriteString("- Mark tasks as complete\n")
	b.WriteString("- Update task details (description, priority, due date, tags)\n")
	b.WriteString("- Delete tasks\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("1. Be friendly and conversational\n")
	b.WriteString("2. Confirm actions clearly (e.g., \"I've added 'buy groceries' to your list\")\n")
	b.WriteString("3. When listing tasks, format them nicely and ask if the user wants to take action\n")
	b.WriteString("4. When a task isn't found, offer to show the task list or suggest alternatives\n")
	b.WriteString("5. For ambiguous references like \"it\" or \"that one\", use context from the conversation\n")
	b.WriteString("6. If the user's message isn't about tasks, politely redirect them\n\n")
	b.WriteString("Prefer natural language dates (today, tomorrow, Friday) over asking for specific formats.")
	return b.String()
}
