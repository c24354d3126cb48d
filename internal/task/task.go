// Package task provides the task domain model, fuzzy task resolution, and
// recurrence-driven next-occurrence generation.
package task

import (
	"fmt"
	"strings"
	"time"
)

// MaxDescriptionLen is the stored description limit; longer input is
// truncated, not rejected.
const MaxDescriptionLen = 500

// Priority is the task priority level.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps user- and model-supplied spellings to a priority.
// The aliases ("h", "urgent", "important", ...) match what the assistant
// sees in free-form conversation.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "h", "urgent", "important":
		return PriorityHigh, true
	case "medium", "m":
		return PriorityMedium, true
	case "low", "l":
		return PriorityLow, true
	default:
		return "", false
	}
}

// Recurrence is the repetition pattern of a task.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// ParseRecurrence validates a recurrence value.
func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(strings.ToLower(strings.TrimSpace(s))) {
	case RecurNone:
		return RecurNone, nil
	case RecurDaily:
		return RecurDaily, nil
	case RecurWeekly:
		return RecurWeekly, nil
	case RecurMonthly:
		return RecurMonthly, nil
	default:
		return "", fmt.Errorf("invalid recurrence %q: valid values are none, daily, weekly, monthly", s)
	}
}

// Task is one item on a user's list. A task belongs to exactly one user and
// is never shared.
type Task struct {
	ID           string
	UserID       string
	Description  string
	Completed    bool
	Priority     Priority
	Tags         []string
	DueDate      string // YYYY-MM-DD, empty when unset
	DueTime      string // HH:MM, empty when unset
	ReminderTime *time.Time
	Recurrence   Recurrence
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TruncateDescription trims and caps a description at MaxDescriptionLen runes.
func TruncateDescription(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > MaxDescriptionLen {
		return string(runes[:MaxDescriptionLen])
	}
	return s
}

// NormalizeTags lowercases and trims tags, dropping empties and duplicates.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Validate reports whether the task is storable.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("description must not be empty")
	}
	if len([]rune(t.Description)) > MaxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLen)
	}
	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if _, err := ParseRecurrence(string(t.Recurrence)); err != nil {
		return err
	}
	return nil
}
