package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/metalagman/donna/internal/auth"
	"github.com/metalagman/donna/internal/chat"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if ok, retryAfter := s.limiter.allow(userID); !ok {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
			"too many chat requests, slow down")
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.chat.RunTurn(r.Context(), userID, req.ConversationID, req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "message must not be empty")
		return
	}
	if err != nil {
		s.internalError(w, err, "chat turn")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type conversationView struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	MessageCount int    `json:"message_count"`
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	list, err := s.chatStore.ListConversations(r.Context(), auth.UserID(r.Context()), 50)
	if err != nil {
		s.internalError(w, err, "list conversations")
		return
	}

	views := make([]conversationView, 0, len(list))
	for _, c := range list {
		views = append(views, conversationView{
			ID:           c.ID,
			Title:        c.Title,
			CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:    c.UpdatedAt.UTC().Format(time.RFC3339),
			MessageCount: c.MessageCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": views})
}

type messageView struct {
	ID          string          `json:"id"`
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	ToolResults json.RawMessage `json:"tool_results,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, msgs, err := s.chatStore.Messages(r.Context(), auth.UserID(r.Context()), r.PathValue("id"), 200)
	if errors.Is(err, chat.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "conversation not found")
		return
	}
	if err != nil {
		s.internalError(w, err, "get conversation")
		return
	}

	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{
			ID:          m.ID,
			Role:        m.Role,
			Content:     m.Content,
			ToolResults: m.ToolResults,
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conversationView{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: conv.UpdatedAt.UTC().Format(time.RFC3339),
		},
		"messages": views,
	})
}
