package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NextDueDate computes the next occurrence for a recurring due date.
// Monthly advancement clamps the day to the last valid day of the target
// month (Jan 31 -> Feb 28/29), never rolling into the following month.
// Calling this with RecurNone is a programming error and returns an error.
func NextDueDate(due time.Time, recur Recurrence) (time.Time, error) {
	switch recur {
	case RecurDaily:
		return due.AddDate(0, 0, 1), nil
	case RecurWeekly:
		return due.AddDate(0, 0, 7), nil
	case RecurMonthly:
		year, month := due.Year(), int(due.Month())+1
		if month > 12 {
			month = 1
			year++
		}
		day := due.Day()
		if last := daysIn(year, time.Month(month)); day > last {
			day = last
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, due.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("recurrence %q has no next occurrence", recur)
	}
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextOccurrence materializes the follow-up task for a completed recurring
// task: fresh identity, completion reset, dates advanced, everything else
// carried over. The source task is not modified.
func NextOccurrence(src Task, now time.Time) (Task, error) {
	if src.Recurrence == RecurNone {
		return Task{}, fmt.Errorf("task %s is not recurring", src.ID)
	}
	if src.DueDate == "" {
		return Task{}, fmt.Errorf("task %s has no due date to advance", src.ID)
	}

	due, err := time.Parse("2006-01-02", src.DueDate)
	if err != nil {
		return Task{}, fmt.Errorf("parse due date %q: %w", src.DueDate, err)
	}

	nextDue, err := NextDueDate(due, src.Recurrence)
	if err != nil {
		return Task{}, err
	}

	next := Task{
		ID:          uuid.NewString(),
		UserID:      src.UserID,
		Description: src.Description,
		Completed:   false,
		Priority:    src.Priority,
		Tags:        append([]string(nil), src.Tags...),
		DueDate:     nextDue.Format("2006-01-02"),
		DueTime:     src.DueTime,
		Recurrence:  src.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if src.ReminderTime != nil {
		// Reminder keeps its time of day, re-anchored to the new due date.
		r := src.ReminderTime
		anchored := time.Date(nextDue.Year(), nextDue.Month(), nextDue.Day(),
			r.Hour(), r.Minute(), r.Second(), 0, r.Location())
		next.ReminderTime = &anchored
	}

	return next, nil
}
