package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/donna/internal/agent"
	"github.com/metalagman/donna/internal/tools"
)

type fakeRunner struct {
	reply   string
	results []agent.ToolInvocationResult
	err     error

	gotUser    string
	gotMessage string
	gotHistory []agent.Message
}

func (f *fakeRunner) RunTurn(_ context.Context, userID, userMessage string, history []agent.Message) (string, []agent.ToolInvocationResult, error) {
	f.gotUser = userID
	f.gotMessage = userMessage
	f.gotHistory = history
	return f.reply, f.results, f.err
}

func TestRunTurnPersistsBothSides(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)
	runner := &fakeRunner{
		reply: "I've added 'buy milk' to your list.",
		results: []agent.ToolInvocationResult{
			{Tool: "create_task", Result: tools.Result{Success: true, TaskID: "t1"}},
		},
	}
	svc := NewService(store, runner, 10)

	resp, err := svc.RunTurn(context.Background(), userID, "", "add buy milk")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "I've added 'buy milk' to your list.", resp.Reply)
	require.Len(t, resp.ToolResults, 1)
	assert.Equal(t, userID, runner.gotUser)

	_, msgs, err := store.Messages(context.Background(), userID, resp.ConversationID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "add buy milk", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Contains(t, string(msgs[1].ToolResults), "create_task")
}

func TestRunTurnReplaysHistoryToRunner(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)
	runner := &fakeRunner{reply: "ok"}
	svc := NewService(store, runner, 10)
	ctx := context.Background()

	first, err := svc.RunTurn(ctx, userID, "", "add buy milk")
	require.NoError(t, err)

	_, err = svc.RunTurn(ctx, userID, first.ConversationID, "what's on my list?")
	require.NoError(t, err)

	require.Len(t, runner.gotHistory, 2)
	assert.Equal(t, agent.RoleUser, runner.gotHistory[0].Role)
	assert.Equal(t, "add buy milk", runner.gotHistory[0].Content)
	assert.Equal(t, agent.RoleAssistant, runner.gotHistory[1].Role)
	assert.Equal(t, "what's on my list?", runner.gotMessage)
}

func TestRunTurnModelFailureDegradesToApology(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)
	runner := &fakeRunner{err: errors.New("model backend down")}
	svc := NewService(store, runner, 10)

	resp, err := svc.RunTurn(context.Background(), userID, "", "add buy milk")
	require.NoError(t, err)
	assert.Equal(t, apologyReply, resp.Reply)
	assert.Empty(t, resp.ToolResults)

	// The apology is persisted so the transcript stays coherent.
	_, msgs, err := store.Messages(context.Background(), userID, resp.ConversationID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, apologyReply, msgs[1].Content)
}

func TestRunTurnRejectsEmptyMessage(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)
	svc := NewService(store, &fakeRunner{reply: "ok"}, 10)

	_, err := svc.RunTurn(context.Background(), userID, "", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
