package task_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/donna/internal/db"
	"github.com/metalagman/donna/internal/task"
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

func newStoredTask(userID, description string) task.Task {
	now := time.Now().UTC().Truncate(time.Second)
	return task.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: description,
		Priority:    task.PriorityMedium,
		Recurrence:  task.RecurNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSQLStoreRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	store := task.NewSQLStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	reminder := time.Date(2026, 3, 6, 9, 30, 0, 0, time.UTC)
	created := newStoredTask(userID, "buy groceries")
	created.Priority = task.PriorityHigh
	created.Tags = []string{"errands", "home"}
	created.DueDate = "2026-03-06"
	created.DueTime = "09:30"
	created.ReminderTime = &reminder
	created.Recurrence = task.RecurWeekly
	require.NoError(t, store.Create(ctx, &created))

	got, err := store.Get(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"errands", "home"}, got.Tags)
	assert.Equal(t, "2026-03-06", got.DueDate)
	assert.Equal(t, "09:30", got.DueTime)
	require.NotNil(t, got.ReminderTime)
	assert.True(t, got.ReminderTime.Equal(reminder))
	assert.Equal(t, task.RecurWeekly, got.Recurrence)
	assert.False(t, got.Completed)
}

func TestSQLStoreGetScopedToOwner(t *testing.T) {
	conn := openTestDB(t)
	store := task.NewSQLStore(conn)
	alice := seedUser(t, conn)
	bob := seedUser(t, conn)
	ctx := context.Background()

	created := newStoredTask(alice, "alice's task")
	require.NoError(t, store.Create(ctx, &created))

	_, err := store.Get(ctx, bob, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestSQLStoreListFilters(t *testing.T) {
	conn := openTestDB(t)
	store := task.NewSQLStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	open := newStoredTask(userID, "open high")
	open.Priority = task.PriorityHigh
	open.DueDate = "2026-03-06"
	require.NoError(t, store.Create(ctx, &open))

	done := newStoredTask(userID, "done low")
	done.Priority = task.PriorityLow
	done.Completed = true
	require.NoError(t, store.Create(ctx, &done))

	all, err := store.List(ctx, userID, task.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := true
	doneOnly, err := store.List(ctx, userID, task.Filter{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, doneOnly, 1)
	assert.Equal(t, "done low", doneOnly[0].Description)

	high := task.PriorityHigh
	highOnly, err := store.List(ctx, userID, task.Filter{Priority: &high})
	require.NoError(t, err)
	require.Len(t, highOnly, 1)
	assert.Equal(t, "open high", highOnly[0].Description)

	byDate, err := store.List(ctx, userID, task.Filter{DueDate: "2026-03-06"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "open high", byDate[0].Description)
}

func TestSQLStoreListNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	store := task.NewSQLStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	older := newStoredTask(userID, "older")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt
	require.NoError(t, store.Create(ctx, &older))

	newer := newStoredTask(userID, "newer")
	require.NoError(t, store.Create(ctx, &newer))

	all, err := store.List(ctx, userID, task.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].Description)
	assert.Equal(t, "older", all[1].Description)
}

func TestSQLStoreUpdate(t *testing.T) {
	conn := openTestDB(t)
	store := task.NewSQLStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	created := newStoredTask(userID, "draft report")
	require.NoError(t, store.Create(ctx, &created))

	created.Description = "finish report"
	created.Completed = true
	created.Tags = []string{"work"}
	created.UpdatedAt = created.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.Update(ctx, &created))

	got, err := store.Get(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "finish report", got.Description)
	assert.True(t, got.Completed)
	assert.Equal(t, []string{"work"}, got.Tags)
}

func TestSQLStoreUpdateMissingTask(t *testing.T) {
	conn := openTestDB(t)
	store := task.NewSQLStore(conn)
	userID := seedUser(t, conn)

	ghost := newStoredTask(userID, "never created")
	err := store.Update(context.Background(), &ghost)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestSQLStoreDelete(t *testing.T) {
	conn := openTestDB(t)
	store := task.NewSQLStore(conn)
	userID := seedUser(t, conn)
	ctx := context.Background()

	created := newStoredTask(userID, "temporary")
	require.NoError(t, store.Create(ctx, &created))

	require.NoError(t, store.Delete(ctx, userID, created.ID))
	_, err := store.Get(ctx, userID, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	err = store.Delete(ctx, userID, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}
