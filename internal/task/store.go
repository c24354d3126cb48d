package task

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no task matches an id for the given owner.
var ErrNotFound = errors.New("task not found")

// Filter narrows a List call. Nil/empty fields are ignored.
type Filter struct {
	Completed *bool
	Priority  *Priority
	DueDate   string // YYYY-MM-DD
}

// Store persists tasks. Every read and write is scoped to a single owner;
// implementations must never return another user's tasks.
type Store interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, userID, id string) (Task, error)
	List(ctx context.Context, userID string, f Filter) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, userID, id string) error
}
