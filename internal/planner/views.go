package planner

import (
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// CalendarCells is six Sunday-first weeks.
const CalendarCells = 42

type CalendarDay struct {
	Date    string   `json:"date"`
	Day     int      `json:"day"`
	InMonth bool     `json:"inMonth"`
	TaskIDs []string `json:"taskIds"`
}

type Calendar struct {
	Year  int           `json:"year"`
	Month time.Month    `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// CalendarMonth lays out month on a 42-cell grid. Leading and trailing cells
// belong to the neighbouring months and carry no tasks.
func (s *Store) CalendarMonth(year int, month time.Month, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	gridStart := first.AddDate(0, 0, -int(first.Weekday()))

	byDate := make(map[string][]string)
	s.mu.RLock()
	for _, t := range s.doc.Tasks {
		due := t.DueDate.In(loc)
		if due.Year() == year && due.Month() == month {
			key := models.FormatDate(due)
			byDate[key] = append(byDate[key], t.ID)
		}
	}
	s.mu.RUnlock()

	cal := Calendar{Year: year, Month: month, Days: make([]CalendarDay, CalendarCells)}
	for i := range cal.Days {
		date := gridStart.AddDate(0, 0, i)
		key := models.FormatDate(date)
		cell := CalendarDay{
			Date:    key,
			Day:     date.Day(),
			InMonth: date.Month() == month,
			TaskIDs: []string{},
		}
		if cell.InMonth && byDate[key] != nil {
			cell.TaskIDs = byDate[key]
		}
		cal.Days[i] = cell
	}
	return cal
}

type TimelineRow struct {
	GoalID       string  `json:"goalId"`
	Title        string  `json:"title"`
	Color        string  `json:"color"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	OffsetDays   int     `json:"offsetDays"`
	DurationDays int     `json:"durationDays"`
	LeftPercent  float64 `json:"leftPercent"`
	WidthPercent float64 `json:"widthPercent"`
}

type Timeline struct {
	Start     string        `json:"start,omitempty"`
	End       string        `json:"end,omitempty"`
	TotalDays int           `json:"totalDays"`
	Rows      []TimelineRow `json:"rows"`
}

const oneDay = 24 * time.Hour

// Timeline places every goal with both timeline dates on a shared day axis
// running from the earliest start to the latest end, both inclusive.
func (s *Store) Timeline() Timeline {
	type span struct {
		goal       models.Goal
		start, end time.Time
	}

	s.mu.RLock()
	spans := make([]span, 0, len(s.doc.Goals))
	for _, g := range s.doc.Goals {
		start, end, ok, err := g.Timeline(time.UTC)
		if err != nil {
			s.logger.WithError(err).WithField("goal_id", g.ID).Debug("skipping goal with unreadable timeline")
			continue
		}
		if !ok {
			continue
		}
		if end.Before(start) {
			s.logger.WithField("goal_id", g.ID).Debug("goal timeline ends before it starts, drawing its start day only")
			end = start
		}
		spans = append(spans, span{goal: g.Clone(), start: start, end: end})
	}
	s.mu.RUnlock()

	tl := Timeline{Rows: []TimelineRow{}}
	if len(spans) == 0 {
		return tl
	}

	minDate, maxDate := spans[0].start, spans[0].end
	for _, sp := range spans {
		for _, d := range []time.Time{sp.start, sp.end} {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
	}
	tl.Start = models.FormatDate(minDate)
	tl.End = models.FormatDate(maxDate)
	tl.TotalDays = int(maxDate.Sub(minDate)/oneDay) + 1

	for _, sp := range spans {
		row := TimelineRow{
			GoalID:       sp.goal.ID,
			Title:        sp.goal.Title,
			Color:        sp.goal.Color,
			Start:        models.FormatDate(sp.start),
			End:          models.FormatDate(sp.end),
			OffsetDays:   int(sp.start.Sub(minDate) / oneDay),
			DurationDays: int(sp.end.Sub(sp.start)/oneDay) + 1,
		}
		row.LeftPercent = float64(row.OffsetDays) / float64(tl.TotalDays) * 100
		row.WidthPercent = float64(row.DurationDays) / float64(tl.TotalDays) * 100
		tl.Rows = append(tl.Rows, row)
	}
	return tl
}
