package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLStore implements Store on a SQLite database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a task store backed by the given database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const taskColumns = `id, user_id, description, completed, priority, tags, due_date, due_time, reminder_time, recurrence, created_at, updated_at`

// Create inserts the task.
func (s *SQLStore) Create(ctx context.Context, t *Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Description, t.Completed, string(t.Priority), string(tags),
		nullableString(t.DueDate), nullableString(t.DueTime), nullableTime(t.ReminderTime),
		string(t.Recurrence), t.CreatedAt.UTC().Format(time.RFC3339), t.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Get loads one task owned by userID.
func (s *SQLStore) Get(ctx context.Context, userID, id string) (Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=? AND user_id=?`, id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("select task: %w", err)
	}
	return t, nil
}

// List returns the owner's tasks, newest first, applying the filter.
func (s *SQLStore) List(ctx context.Context, userID string, f Filter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id=?`
	args := []any{userID}
	if f.Completed != nil {
		query += ` AND completed=?`
		args = append(args, *f.Completed)
	}
	if f.Priority != nil {
		query += ` AND priority=?`
		args = append(args, string(*f.Priority))
	}
	if f.DueDate != "" {
		query += ` AND due_date=?`
		args = append(args, f.DueDate)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

// Update rewrites all mutable fields of the task.
func (s *SQLStore) Update(ctx context.Context, t *Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET description=?, completed=?, priority=?, tags=?,
		due_date=?, due_time=?, reminder_time=?, recurrence=?, updated_at=?
		WHERE id=? AND user_id=?`,
		t.Description, t.Completed, string(t.Priority), string(tags),
		nullableString(t.DueDate), nullableString(t.DueTime), nullableTime(t.ReminderTime),
		string(t.Recurrence), t.UpdatedAt.UTC().Format(time.RFC3339),
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRow(res)
}

// Delete removes the task owned by userID.
func (s *SQLStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t                          Task
		priority, recur, tagsJSON  string
		dueDate, dueTime, reminder sql.NullString
		createdAt, updatedAt       string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.Completed, &priority, &tagsJSON,
		&dueDate, &dueTime, &reminder, &recur, &createdAt, &updatedAt); err != nil {
		return Task{}, err
	}
	t.Priority = Priority(priority)
	t.Recurrence = Recurrence(recur)
	t.DueDate = dueDate.String
	t.DueTime = dueTime.String
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			return Task{}, fmt.Errorf("parse tags: %w", err)
		}
	}
	if reminder.Valid && reminder.String != "" {
		ts, err := time.Parse(time.RFC3339, reminder.String)
		if err != nil {
			return Task{}, fmt.Errorf("parse reminder time: %w", err)
		}
		t.ReminderTime = &ts
	}
	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Task{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
