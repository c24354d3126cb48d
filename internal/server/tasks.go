package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/metalagman/donna/internal/auth"
	"github.com/metalagman/donna/internal/task"
)

type taskView struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Completed    bool     `json:"completed"`
	Priority     string   `json:"priority"`
	Tags         []string `json:"tags"`
	DueDate      string   `json:"dueDate,omitempty"`
	DueTime      string   `json:"dueTime,omitempty"`
	ReminderTime string   `json:"reminderTime,omitempty"`
	Recurrence   string   `json:"recurrence"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func viewOfTask(t task.Task) taskView {
	v := taskView{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		Tags:        t.Tags,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		Recurrence:  string(t.Recurrence),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if t.ReminderTime != nil {
		v.ReminderTime = t.ReminderTime.UTC().Format(time.RFC3339)
	}
	return v
}

type taskRequest struct {
	Description  *string   `json:"description"`
	Completed    *bool     `json:"completed"`
	Priority     *string   `json:"priority"`
	Tags         *[]string `json:"tags"`
	DueDate      *string   `json:"dueDate"`
	DueTime      *string   `json:"dueTime"`
	ReminderTime *string   `json:"reminderTime"`
	Recurrence   *string   `json:"recurrence"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var filter task.Filter
	if v := r.URL.Query().Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "completed must be true or false")
			return
		}
		filter.Completed = &completed
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		priority, ok := task.ParsePriority(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "priority must be high, medium or low")
			return
		}
		filter.Priority = &priority
	}
	filter.DueDate = r.URL.Query().Get("dueDate")

	items, err := s.tasks.List(r.Context(), auth.UserID(r.Context()), filter)
	if err != nil {
		s.internalError(w, err, "list tasks")
		return
	}

	views := make([]taskView, 0, len(items))
	for _, t := range items {
		views = append(views, viewOfTask(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": views, "total": len(views)})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	description := ""
	if req.Description != nil {
		description = task.TruncateDescription(*req.Description)
	}
	if description == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "description is required")
		return
	}

	now := time.Now().UTC()
	t := task.Task{
		ID:          uuid.NewString(),
		UserID:      auth.UserID(r.Context()),
		Description: description,
		Priority:    task.PriorityMedium,
		Recurrence:  task.RecurNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !s.applyTaskRequest(w, &t, req) {
		return
	}

	if err := s.tasks.Create(r.Context(), &t); err != nil {
		s.internalError(w, err, "create task")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]taskView{"task": viewOfTask(t)})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if errors.Is(err, task.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "task not found")
		return
	}
	if err != nil {
		s.internalError(w, err, "get task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]taskView{"task": viewOfTask(t)})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := auth.UserID(r.Context())
	t, err := s.tasks.Get(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, task.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "task not found")
		return
	}
	if err != nil {
		s.internalError(w, err, "get task")
		return
	}

	if req.Description != nil {
		description := task.TruncateDescription(*req.Description)
		if description == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "description cannot be empty")
			return
		}
		t.Description = description
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	if !s.applyTaskRequest(w, &t, req) {
		return
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(r.Context(), &t); err != nil {
		s.internalError(w, err, "update task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]taskView{"task": viewOfTask(t)})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := s.tasks.Delete(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if errors.Is(err, task.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "task not found")
		return
	}
	if err != nil {
		s.internalError(w, err, "delete task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleCompleteTask marks the task done. Recurring tasks with a due date
// spawn their next occurrence in the same request.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	t, err := s.tasks.Get(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, task.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "task not found")
		return
	}
	if err != nil {
		s.internalError(w, err, "get task")
		return
	}

	t.Completed = true
	t.UpdatedAt = time.Now().UTC()
	if err := s.tasks.Update(r.Context(), &t); err != nil {
		s.internalError(w, err, "complete task")
		return
	}

	body := map[string]any{"task": viewOfTask(t)}
	if t.Recurrence != task.RecurNone && t.DueDate != "" {
		next, err := task.NextOccurrence(t, time.Now().UTC())
		if err != nil {
			s.internalError(w, err, "next occurrence")
			return
		}
		if err := s.tasks.Create(r.Context(), &next); err != nil {
			s.internalError(w, err, "create next occurrence")
			return
		}
		body["nextOccurrence"] = viewOfTask(next)
	}
	writeJSON(w, http.StatusOK, body)
}

// applyTaskRequest copies the optional scheduling fields onto the task,
// validating enums and formats. It reports false after writing an error.
func (s *Server) applyTaskRequest(w http.ResponseWriter, t *task.Task, req taskRequest) bool {
	if req.Priority != nil {
		priority, ok := task.ParsePriority(*req.Priority)
		if !ok {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "priority must be high, medium or low")
			return false
		}
		t.Priority = priority
	}
	if req.Tags != nil {
		t.Tags = task.NormalizeTags(*req.Tags)
	}
	if req.DueDate != nil {
		if *req.DueDate != "" {
			if _, err := time.Parse("2006-01-02", *req.DueDate); err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "dueDate must be YYYY-MM-DD")
				return false
			}
		}
		t.DueDate = *req.DueDate
	}
	if req.DueTime != nil {
		t.DueTime = *req.DueTime
	}
	if req.ReminderTime != nil {
		if *req.ReminderTime == "" {
			t.ReminderTime = nil
		} else {
			ts, err := time.Parse(time.RFC3339, *req.ReminderTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "reminderTime must be RFC 3339")
				return false
			}
			t.ReminderTime = &ts
		}
	}
	if req.Recurrence != nil {
		recurrence, err := task.ParseRecurrence(*req.Recurrence)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "recurrence must be none, daily, weekly or monthly")
			return false
		}
		t.Recurrence = recurrence
	}
	return true
}
