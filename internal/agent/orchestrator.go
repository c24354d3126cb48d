package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/donna/internal/tools"
)

// Orchestrator turns one user message into tool dispatches and a final
// textual reply. One orchestrator is safe for concurrent use; all per-turn
// state lives on the stack of RunTurn.
type Orchestrator struct {
	client        ModelClient
	dispatcher    *tools.Dispatcher
	catalog       []tools.Def
	historyWindow int
	maxRounds     int
}

// Defaults applied by New when Options fields are unset.
const (
	DefaultHistoryWindow = 10
	DefaultMaxRounds     = 8
)

// Options bound the conversational loop.
type Options struct {
	// HistoryWindow is how many trailing history messages are given to the
	// model. Older history is dropped, not summarized.
	HistoryWindow int
	// MaxRounds caps the number of model round trips in one turn. The model
	// keeps requesting tools until it answers in text; a misbehaving model
	// would otherwise loop forever.
	MaxRounds int
}

// New creates an orchestrator over the given model capability and dispatcher.
func New(client ModelClient, dispatcher *tools.Dispatcher, opts Options) *Orchestrator {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	return &Orchestrator{
		client:        client,
		dispatcher:    dispatcher,
		catalog:       tools.Catalog(),
		historyWindow: opts.HistoryWindow,
		maxRounds:     opts.MaxRounds,
	}
}

// RunTurn processes one user message for the given owner. It returns the
// final reply text and the tool results in the exact order the model
// requested the invocations. A non-nil error means the model capability
// itself failed; any tool effects already applied are not rolled back.
func (o *Orchestrator) RunTurn(ctx context.Context, userID, userMessage string, history []Message) (string, []ToolInvocationResult, error) {
	transcript := make([]Message, 0, o.historyWindow+2)
	transcript = append(transcript, Message{Role: RoleSystem, Content: systemPrompt()})
	transcript = append(transcript, boundHistory(history, o.historyWindow)...)
	transcript = append(transcript, Message{Role: RoleUser, Content: userMessage})

	var results []ToolInvocationResult

	for round := 0; round < o.maxRounds; round++ {
		reply, err := o.client.Complete(ctx, transcript, o.catalog)
		if err != nil {
			return "", results, fmt.Errorf("model completion: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			text := reply.Text
			if text == "" {
				text = emptyReply
			}
			return text, results, nil
		}

		transcript = append(transcript, Message{
			Role:      RoleAssistant,
			Content:   reply.Text,
			ToolCalls: reply.ToolCalls,
		})

		// Sequential on purpose: later invocations may act on state the
		// earlier ones just changed.
		for _, inv := range reply.ToolCalls {
			result := o.dispatchOne(ctx, userID, inv)
			results = append(results, ToolInvocationResult{Tool: inv.Name, Result: result})

			payload, err := json.Marshal(result)
			if err != nil {
				return "", results, fmt.Errorf("marshal tool result: %w", err)
			}
			transcript = append(transcript, Message{
				Role:       RoleTool,
				Content:    string(payload),
				ToolCallID: inv.ID,
			})
		}
	}

	log.Warn().Int("max_rounds", o.maxRounds).Msg("tool round limit reached, ending turn")
	return fallbackReply, results, nil
}

func (o *Orchestrator) dispatchOne(ctx context.Context, userID string, inv tools.Invocation) tools.Result {
	result, err := o.dispatcher.Dispatch(ctx, userID, inv)
	if err == nil {
		return result
	}

	var unknown *tools.UnknownToolError
	if errors.As(err, &unknown) {
		return tools.Result{Success: false, Error: unknown.Error()}
	}
	log.Error().Err(err).Str("tool", inv.Name).Msg("tool dispatch failed")
	return tools.Result{Success: false, Error: "tool execution failed"}
}

func boundHistory(history []Message, window int) []Message {
	if len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
