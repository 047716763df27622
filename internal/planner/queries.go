package planner

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// ReminderWindow is how far ahead UpcomingReminders looks.
const ReminderWindow = 24 * time.Hour

const dashboardGoalLimit = 5

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TasksDueToday returns incomplete tasks due between midnight of now's day
// (in now's location) and the following midnight.
func (s *Store) TasksDueToday(now time.Time) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasksDueTodayLocked(now)
}

func (s *Store) tasksDueTodayLocked(now time.Time) []models.Task {
	start := startOfDay(now)
	end := start.AddDate(0, 0, 1)
	return s.filterTasks(func(t *models.Task) bool {
		return !t.Completed && !t.DueDate.Before(start) && t.DueDate.Before(end)
	})
}

// UpcomingReminders returns incomplete tasks with an enabled reminder firing in
// [now, now+24h], earliest first.
func (s *Store) UpcomingReminders(now time.Time) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upcomingRemindersLocked(now)
}

func (s *Store) upcomingRemindersLocked(now time.Time) []models.Task {
	limit := now.Add(ReminderWindow)
	tasks := s.filterTasks(func(t *models.Task) bool {
		if t.Completed || !t.Reminder.Active() {
			return false
		}
		at := *t.Reminder.At
		return !at.Before(now) && !at.After(limit)
	})

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Reminder.At.Before(*tasks[j].Reminder.At)
	})
	return tasks
}

// CompletionRate is the rounded percentage of completed tasks, 0 with no tasks.
func (s *Store) CompletionRate() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completionRateLocked()
}

func (s *Store) completionRateLocked() int {
	completed := 0
	for _, t := range s.doc.Tasks {
		if t.Completed {
			completed++
		}
	}
	return percent(completed, len(s.doc.Tasks))
}

func (s *Store) TotalRemainingMinutes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remainingMinutesLocked()
}

func (s *Store) remainingMinutesLocked() int {
	total := 0
	for _, t := range s.doc.Tasks {
		if !t.Completed {
			total += t.EstimatedMinutes
		}
	}
	return total
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

const (
	SortByDueDate   = "dueDate"
	SortByPriority  = "priority"
	SortByCreatedAt = "createdAt"
)

type TaskFilter struct {
	Query    string
	Priority int
	GoalID   string
	SortBy   string
}

// SearchTasks matches Query case-insensitively against title and notes. A zero
// Priority or empty GoalID disables that filter; an unknown SortBy keeps
// collection order.
func (s *Store) SearchTasks(f TaskFilter) []models.Task {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	s.mu.RLock()
	tasks := s.filterTasks(func(t *models.Task) bool {
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Notes), query) {
			return false
		}
		if f.Priority != 0 && t.Priority != f.Priority {
			return false
		}
		if f.GoalID != "" && !t.BelongsTo(f.GoalID) {
			return false
		}
		return true
	})
	s.mu.RUnlock()

	switch f.SortBy {
	case SortByDueDate:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	case SortByPriority:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Priority > tasks[j].Priority })
	case SortByCreatedAt:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	}
	return tasks
}

type GoalProgress struct {
	GoalID    string `json:"goalId"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// GoalProgress returns nil when goalID is unknown.
func (s *Store) GoalProgress(goalID string) *GoalProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.goalIndex(goalID)
	if i < 0 {
		return nil
	}
	p := s.progressLocked(&s.doc.Goals[i])
	return &p
}

func (s *Store) progressLocked(g *models.Goal) GoalProgress {
	p := GoalProgress{GoalID: g.ID, Title: g.Title, Color: g.Color}
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].BelongsTo(g.ID) {
			p.Total++
			if s.doc.Tasks[i].Completed {
				p.Completed++
			}
		}
	}
	p.Percent = percent(p.Completed, p.Total)
	return p
}

type Dashboard struct {
	TodayTasks        []models.Task  `json:"todayTasks"`
	UpcomingReminders []models.Task  `json:"upcomingReminders"`
	CompletionRate    int            `json:"completionRate"`
	RemainingMinutes  int            `json:"remainingMinutes"`
	GoalCount         int            `json:"goalCount"`
	TaskCount         int            `json:"taskCount"`
	ActiveGoals       []GoalProgress `json:"activeGoals"`
}

// Dashboard gathers the overview queries from one consistent view of the store.
func (s *Store) Dashboard(now time.Time) Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Dashboard{
		TodayTasks:        s.tasksDueTodayLocked(now),
		UpcomingReminders: s.upcomingRemindersLocked(now),
		CompletionRate:    s.completionRateLocked(),
		RemainingMinutes:  s.remainingMinutesLocked(),
		GoalCount:         len(s.doc.Goals),
		TaskCount:         len(s.doc.Tasks),
		ActiveGoals:       make([]GoalProgress, 0, dashboardGoalLimit),
	}
	for i := range s.doc.Goals {
		if i == dashboardGoalLimit {
			break
		}
		d.ActiveGoals = append(d.ActiveGoals, s.progressLocked(&s.doc.Goals[i]))
	}
	return d
}

// TasksOnDay returns tasks due on day's calendar date in day's location.
func (s *Store) TasksOnDay(day time.Time) []models.Task {
	y, m, d := day.Date()
	loc := day.Location()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterTasks(func(t *models.Task) bool {
		ty, tm, td := t.DueDate.In(loc).Date()
		return ty == y && tm == m && td == d
	})
}
