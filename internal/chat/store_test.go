package chat

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/donna/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func seedUser(t *testing.T, conn *sql.DB) string {
	t.Helper()
	id := uuid.NewString()
	_, err := conn.Exec(`INSERT INTO users(id, email, hashed_password, created_at) VALUES(?, ?, 'x', ?)`,
		id, id+"@example.com", time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)
	return id
}

func TestGetOrCreateNewConversation(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)

	conv, err := store.GetOrCreate(context.Background(), userID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, userID, conv.UserID)

	again, err := store.GetOrCreate(context.Background(), userID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
}

func TestGetOrCreateStaleIDStartsFresh(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)

	conv, err := store.GetOrCreate(context.Background(), userID, "no-such-conversation")
	require.NoError(t, err)
	assert.NotEqual(t, "no-such-conversation", conv.ID)
}

func TestGetOrCreateOwnerIsolation(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	alice := seedUser(t, conn)
	bob := seedUser(t, conn)

	conv, err := store.GetOrCreate(context.Background(), alice, "")
	require.NoError(t, err)

	// Bob asking for Alice's conversation id gets his own fresh thread.
	other, err := store.GetOrCreate(context.Background(), bob, conv.ID)
	require.NoError(t, err)
	assert.NotEqual(t, conv.ID, other.ID)
	assert.Equal(t, bob, other.UserID)
}

func TestHistoryReturnsTrailingWindowInOrder(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	conv, err := store.GetOrCreate(ctx, userID, "")
	require.NoError(t, err)

	for i := 1; i <= 6; i++ {
		_, err := store.SaveMessage(ctx, conv.ID, "user", fmt.Sprintf("message %d", i), nil)
		require.NoError(t, err)
	}

	history, err := store.History(ctx, conv.ID, 4)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "message 3", history[0].Content)
	assert.Equal(t, "message 6", history[3].Content)
}

func TestSaveMessageStoresToolResults(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	conv, err := store.GetOrCreate(ctx, userID, "")
	require.NoError(t, err)

	payload := []map[string]any{{"tool": "create_task", "success": true}}
	_, err = store.SaveMessage(ctx, conv.ID, "assistant", "Done!", payload)
	require.NoError(t, err)

	history, err := store.History(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.JSONEq(t, `[{"tool":"create_task","success":true}]`, string(history[0].ToolResults))
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, userID, "")
	require.NoError(t, err)
	second, err := store.GetOrCreate(ctx, userID, "")
	require.NoError(t, err)

	// Touch the first one so it becomes the most recently updated.
	time.Sleep(1100 * time.Millisecond)
	_, err = store.SaveMessage(ctx, first.ID, "user", "hello", nil)
	require.NoError(t, err)

	list, err := store.ListConversations(ctx, userID, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, 1, list[0].MessageCount)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, 0, list[1].MessageCount)
}

func TestMessagesRequiresOwnership(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	alice := seedUser(t, conn)
	bob := seedUser(t, conn)
	ctx := context.Background()

	conv, err := store.GetOrCreate(ctx, alice, "")
	require.NoError(t, err)
	_, err = store.SaveMessage(ctx, conv.ID, "user", "secret", nil)
	require.NoError(t, err)

	_, _, err = store.Messages(ctx, bob, conv.ID, 10)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	got, msgs, err := store.Messages(ctx, alice, conv.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "secret", msgs[0].Content)
}
