// Package chat persists conversations and runs chat turns through the
// conversational agent.
package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrConversationNotFound is returned when a conversation id does not exist
// for the given owner.
var ErrConversationNotFound = errors.New("conversation not found")

// Conversation is one chat thread owned by a single user.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoredMessage is one persisted transcript entry.
type StoredMessage struct {
	ID          string
	Role        string
	Content     string
	ToolResults json.RawMessage
	CreatedAt   time.Time
}

// Summary describes a conversation in list views.
type Summary struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// Store provides persistence for conversations and messages.
type Store struct {
	db *sql.DB
}

// NewStore creates a conversation store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetOrCreate returns the conversation with the given id if it belongs to
// userID, or creates a fresh one (also when id is empty or stale).
func (s *Store) GetOrCreate(ctx context.Context, userID, id string) (Conversation, error) {
	if id != "" {
		conv, err := s.get(ctx, userID, id)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, ErrConversationNotFound) {
			return Conversation{}, err
		}
	}

	now := time.Now().UTC()
	conv := Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO conversations(id, user_id, title, created_at, updated_at)
		VALUES(?, ?, NULL, ?, ?)`,
		conv.ID, conv.UserID, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) get(ctx context.Context, userID, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, COALESCE(title, ''), created_at, updated_at
		FROM conversations WHERE id=? AND user_id=?`, id, userID)
	var conv Conversation
	var createdAt, updatedAt string
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrConversationNotFound
		}
		return Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	var err error
	if conv.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Conversation{}, fmt.Errorf("parse created_at: %w", err)
	}
	if conv.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Conversation{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return conv, nil
}

// History returns the trailing limit messages in chronological order.
func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, role, content, tool_results, created_at FROM (
			SELECT id, seq, role, content, tool_results, created_at FROM messages
			WHERE conversation_id=? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// SaveMessage appends a message to the conversation and bumps its
// updated_at, in one transaction.
func (s *Store) SaveMessage(ctx context.Context, conversationID, role, content string, toolResults any) (string, error) {
	var resultsJSON any
	if toolResults != nil {
		data, err := json.Marshal(toolResults)
		if err != nil {
			return "", fmt.Errorf("marshal tool results: %w", err)
		}
		resultsJSON = string(data)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("begin save message: %w", err)
	}

	var seq int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0)+1 FROM messages WHERE conversation_id=?`,
		conversationID).Scan(&seq); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("next message seq: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `INSERT INTO messages(id, conversation_id, seq, role, content, tool_results, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		id, conversationID, seq, role, content, resultsJSON, now); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at=? WHERE id=?`, now, conversationID); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("touch conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save message: %w", err)
	}
	return id, nil
}

// ListConversations returns the user's conversations, most recently updated
// first, with message counts.
func (s *Store) ListConversations(ctx context.Context, userID string, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, COALESCE(c.title, ''), c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c WHERE c.user_id=? ORDER BY c.updated_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var createdAt, updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Title, &createdAt, &updatedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if sum.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

// Messages returns up to limit messages of a conversation owned by userID,
// oldest first.
func (s *Store) Messages(ctx context.Context, userID, conversationID string, limit int) (Conversation, []StoredMessage, error) {
	conv, err := s.get(ctx, userID, conversationID)
	if err != nil {
		return Conversation{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, role, content, tool_results, created_at FROM messages
		WHERE conversation_id=? ORDER BY seq ASC LIMIT ?`, conversationID, limit)
	if err != nil {
		return Conversation{}, nil, fmt.Errorf("select messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []StoredMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return Conversation{}, nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return Conversation{}, nil, fmt.Errorf("iterate messages: %w", err)
	}
	return conv, msgs, nil
}

func scanMessage(rows *sql.Rows) (StoredMessage, error) {
	var msg StoredMessage
	var toolResults sql.NullString
	var createdAt string
	if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &toolResults, &createdAt); err != nil {
		return StoredMessage{}, fmt.Errorf("scan message: %w", err)
	}
	if toolResults.Valid {
		msg.ToolResults = json.RawMessage(toolResults.String)
	}
	var err error
	if msg.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return StoredMessage{}, fmt.Errorf("parse message created_at: %w", err)
	}
	return msg, nil
}
