package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/donna/internal/agent"
)

// apologyReply is returned to the user when the model backend fails. The
// failure is logged but never shown to the user.
const apologyReply = "I'm having trouble processing your request right now. Please try again in a moment."

// ErrEmptyMessage is returned when a turn is attempted with a blank message.
var ErrEmptyMessage = errors.New("message must not be empty")

// Runner produces one assistant turn. *agent.Orchestrator satisfies it.
type Runner interface {
	RunTurn(ctx context.Context, userID, userMessage string, history []agent.Message) (string, []agent.ToolInvocationResult, error)
}

// Service ties conversation persistence to the agent loop.
type Service struct {
	store         *Store
	runner        Runner
	historyWindow int
}

// NewService creates a chat service. historyWindow caps how many stored
// messages are replayed to the model each turn.
func NewService(store *Store, runner Runner, historyWindow int) *Service {
	if historyWindow <= 0 {
		historyWindow = agent.DefaultHistoryWindow
	}
	return &Service{store: store, runner: runner, historyWindow: historyWindow}
}

// Response is the outcome of one chat turn.
type Response struct {
	ConversationID string                       `json:"conversation_id"`
	Reply          string                       `json:"response"`
	ToolResults    []agent.ToolInvocationResult `json:"tool_results,omitempty"`
}

// RunTurn processes one user message: it resolves the conversation, replays
// recent history, runs the agent and persists both sides of the exchange.
// Model failures degrade to an apology instead of an error.
func (s *Service) RunTurn(ctx context.Context, userID, conversationID, message string) (Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Response{}, ErrEmptyMessage
	}

	conv, err := s.store.GetOrCreate(ctx, userID, conversationID)
	if err != nil {
		return Response{}, err
	}

	stored, err := s.store.History(ctx, conv.ID, s.historyWindow)
	if err != nil {
		return Response{}, err
	}
	history := toAgentHistory(stored)

	if _, err := s.store.SaveMessage(ctx, conv.ID, string(agent.RoleUser), message, nil); err != nil {
		return Response{}, err
	}

	reply, results, err := s.runner.RunTurn(ctx, userID, message, history)
	if err != nil {
		log.Error().Err(err).Str("conversation", conv.ID).Msg("agent turn failed")
		reply = apologyReply
		results = nil
	}

	var toolResults any
	if len(results) > 0 {
		toolResults = results
	}
	if _, err := s.store.SaveMessage(ctx, conv.ID, string(agent.RoleAssistant), reply, toolResults); err != nil {
		return Response{}, err
	}

	return Response{ConversationID: conv.ID, Reply: reply, ToolResults: results}, nil
}

// toAgentHistory keeps only plain user and assistant turns; tool payloads are
// not replayed across turns.
func toAgentHistory(stored []StoredMessage) []agent.Message {
	var out []agent.Message
	for _, msg := range stored {
		switch role := agent.Role(msg.Role); role {
		case agent.RoleUser, agent.RoleAssistant:
			out = append(out, agent.Message{Role: role, Content: msg.Content})
		}
	}
	return out
}
