package models

import (
	"fmt"
	"time"
)

type RepeatMode string

const (
	RepeatNone    RepeatMode = "none"
	RepeatDaily   RepeatMode = "daily"
	RepeatWeekly  RepeatMode = "weekly"
	RepeatMonthly RepeatMode = "monthly"
)

func (m RepeatMode) Valid() bool {
	switch m {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	default:
		return false
	}
}

// ParseRepeatMode maps user input to a RepeatMode. An empty string means RepeatNone.
func ParseRepeatMode(s string) (RepeatMode, error) {
	if s == "" {
		return RepeatNone, nil
	}
	mode := RepeatMode(s)
	if !mode.Valid() {
		return "", fmt.Errorf("unknown repeat mode %q", s)
	}
	return mode, nil
}

type Reminder struct {
	Enabled bool       `json:"enabled"`
	At      *time.Time `json:"at"`
	Repeat  RepeatMode `json:"repeat"`
}

// Active reports whether the reminder is switched on and has a fire time.
func (r *Reminder) Active() bool {
	return r != nil && r.Enabled && r.At != nil
}

func (r *Reminder) Clone() *Reminder {
	if r == nil {
		return nil
	}
	out := *r
	if r.At != nil {
		at := *r.At
		out.At = &at
	}
	return &out
}

type Task struct {
	ID               string    `json:"id"`
	GoalID           *string   `json:"goalId"`
	Title            string    `json:"title"`
	Notes            string    `json:"notes"`
	EstimatedMinutes int       `json:"estimatedMinutes"`
	DueDate          time.Time `json:"dueDate"`
	Completed        bool      `json:"completed"`
	Priority         int       `json:"priority"`
	Tags             []string  `json:"tags"`
	Reminder         *Reminder `json:"reminder"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// GoalRef returns the owning goal id, or "" for a standalone task.
func (t *Task) GoalRef() string {
	if t.GoalID == nil {
		return ""
	}
	return *t.GoalID
}

func (t *Task) BelongsTo(goalID string) bool {
	return goalID != "" && t.GoalRef() == goalID
}

func (t Task) Clone() Task {
	out := t
	if t.GoalID != nil {
		id := *t.GoalID
		out.GoalID = &id
	}
	out.Tags = cloneStrings(t.Tags)
	out.Reminder = t.Reminder.Clone()
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
