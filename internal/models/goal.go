package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for goal timelines.
const DateLayout = "2006-01-02"

const (
	MinPriority = 1
	MaxPriority = 5
)

type Goal struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Color         string    `json:"color"`
	Tags          []string  `json:"tags"`
	Priority      int       `json:"priority"`
	Tasks         []string  `json:"tasks"`
	TimelineStart *string   `json:"timelineStart"`
	TimelineEnd   *string   `json:"timelineEnd"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (g Goal) Clone() Goal {
	out := g
	out.Tags = cloneStrings(g.Tags)
	out.Tasks = cloneStrings(g.Tasks)
	if g.TimelineStart != nil {
		s := *g.TimelineStart
		out.TimelineStart = &s
	}
	if g.TimelineEnd != nil {
		s := *g.TimelineEnd
		out.TimelineEnd = &s
	}
	return out
}

func (g *Goal) HasTask(taskID string) bool {
	for _, id := range g.Tasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AddTask appends taskID unless it is already referenced.
func (g *Goal) AddTask(taskID string) {
	if g.HasTask(taskID) {
		return
	}
	g.Tasks = append(g.Tasks, taskID)
}

func (g *Goal) RemoveTask(taskID string) {
	kept := g.Tasks[:0]
	for _, id := range g.Tasks {
		if id != taskID {
			kept = append(kept, id)
		}
	}
	g.Tasks = kept
}

// Timeline returns the parsed timeline bounds. ok is false unless both dates are set.
func (g *Goal) Timeline(loc *time.Location) (start, end time.Time, ok bool, err error) {
	if g.TimelineStart == nil || g.TimelineEnd == nil {
		return time.Time{}, time.Time{}, false, nil
	}
	start, err = ParseDate(*g.TimelineStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	end, err = ParseDate(*g.TimelineEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return start, end, true, nil
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
