package planner

import (
	"strings"
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

const (
	defaultPriority  = 3
	defaultGoalColor = "#667eea"
)

type GoalInput struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Color         string   `json:"color"`
	Tags          []string `json:"tags"`
	Priority      int      `json:"priority"`
	TimelineStart *string  `json:"timelineStart"`
	TimelineEnd   *string  `json:"timelineEnd"`
}

// GoalPatch merges non-nil fields into a goal. An empty timeline date clears it.
type GoalPatch struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Color         *string   `json:"color"`
	Tags          *[]string `json:"tags"`
	Priority      *int      `json:"priority"`
	TimelineStart *string   `json:"timelineStart"`
	TimelineEnd   *string   `json:"timelineEnd"`
}

type ReminderInput struct {
	Enabled bool              `json:"enabled"`
	At      *time.Time        `json:"at"`
	Repeat  models.RepeatMode `json:"repeat"`
}

type TaskInput struct {
	GoalID           *string        `json:"goalId"`
	Title            string         `json:"title"`
	Notes            string         `json:"notes"`
	EstimatedMinutes int            `json:"estimatedMinutes"`
	DueDate          time.Time      `json:"dueDate"`
	Completed        bool           `json:"completed"`
	Priority         int            `json:"priority"`
	Tags             []string       `json:"tags"`
	Reminder         *ReminderInput `json:"reminder"`
}

// TaskPatch merges non-nil fields into a task. GoalID pointing at "" detaches
// the task from its goal; Reminder replaces the whole reminder.
type TaskPatch struct {
	GoalID           *string        `json:"goalId"`
	Title            *string        `json:"title"`
	Notes            *string        `json:"notes"`
	EstimatedMinutes *int           `json:"estimatedMinutes"`
	DueDate          *time.Time     `json:"dueDate"`
	Completed        *bool          `json:"completed"`
	Priority         *int           `json:"priority"`
	Tags             *[]string      `json:"tags"`
	Reminder         *ReminderInput `json:"reminder"`
}

type SettingsPatch struct {
	NotificationsAllowed *bool `json:"notificationsAllowed"`
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", "must not be empty")
	}
	return title, nil
}

func validatePriority(p int) error {
	if p < models.MinPriority || p > models.MaxPriority {
		return invalid("priority", "must be between %d and %d, got %d", models.MinPriority, models.MaxPriority, p)
	}
	return nil
}

func validateMinutes(m int) error {
	if m < 0 {
		return invalid("estimatedMinutes", "must not be negative, got %d", m)
	}
	return nil
}

// cleanTags trims entries and drops blanks, keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func optionalDate(field string, s *string) (*string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if _, err := models.ParseDate(v, time.UTC); err != nil {
		return nil, invalid(field, "must be a YYYY-MM-DD date")
	}
	return &v, nil
}

func validateTimeline(start, end *string) error {
	if start == nil || end == nil {
		return nil
	}
	if *start > *end {
		return invalid("timelineEnd", "must not be before timelineStart")
	}
	return nil
}

func (in *ReminderInput) build() (*models.Reminder, error) {
	if in == nil {
		return nil, nil
	}
	mode, err := models.ParseRepeatMode(string(in.Repeat))
	if err != nil {
		return nil, invalid("reminder.repeat", "must be one of none, daily, weekly, monthly")
	}
	if in.Enabled && in.At == nil {
		return nil, invalid("reminder.at", "is required when the reminder is enabled")
	}
	r := &models.Reminder{Enabled: in.Enabled, Repeat: mode}
	if in.At != nil {
		at := *in.At
		r.At = &at
	}
	return r, nil
}

func (in GoalInput) build() (models.Goal, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return models.Goal{}, err
	}
	priority := in.Priority
	if priority == 0 {
		priority = defaultPriority
	}
	if err := validatePriority(priority); err != nil {
		return models.Goal{}, err
	}
	start, err := optionalDate("timelineStart", in.TimelineStart)
	if err != nil {
		return models.Goal{}, err
	}
	end, err := optionalDate("timelineEnd", in.TimelineEnd)
	if err != nil {
		return models.Goal{}, err
	}
	if err := validateTimeline(start, end); err != nil {
		return models.Goal{}, err
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = defaultGoalColor
	}

	return models.Goal{
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		Color:         color,
		Tags:          cleanTags(in.Tags),
		Priority:      priority,
		Tasks:         []string{},
		TimelineStart: start,
		TimelineEnd:   end,
	}, nil
}

// apply merges the patch into a copy of g so a rejected patch leaves g untouched.
func (p GoalPatch) apply(g models.Goal) (models.Goal, error) {
	out := g.Clone()
	if p.Title != nil {
		title, err := validateTitle(*p.Title)
		if err != nil {
			return g, err
		}
		out.Title = title
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Color != nil {
		out.Color = strings.TrimSpace(*p.Color)
	}
	if p.Tags != nil {
		out.Tags = cleanTags(*p.Tags)
	}
	if p.Priority != nil {
		if err := validatePriority(*p.Priority); err != nil {
			return g, err
		}
		out.Priority = *p.Priority
	}
	if p.TimelineStart != nil {
		start, err := optionalDate("timelineStart", p.TimelineStart)
		if err != nil {
			return g, err
		}
		out.TimelineStart = start
	}
	if p.TimelineEnd != nil {
		end, err := optionalDate("timelineEnd", p.TimelineEnd)
		if err != nil {
			return g, err
		}
		out.TimelineEnd = end
	}
	if err := validateTimeline(out.TimelineStart, out.TimelineEnd); err != nil {
		return g, err
	}
	return out, nil
}

func (in TaskInput) build() (models.Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return models.Task{}, err
	}
	if err := validateMinutes(in.EstimatedMinutes); err != nil {
		return models.Task{}, err
	}
	priority := in.Priority
	if priority == 0 {
		priority = defaultPriority
	}
	if err := validatePriority(priority); err != nil {
		return models.Task{}, err
	}
	if in.DueDate.IsZero() {
		return models.Task{}, invalid("dueDate", "is required")
	}
	reminder, err := in.Reminder.build()
	if err != nil {
		return models.Task{}, err
	}

	var goalID *string
	if in.GoalID != nil {
		goalID = models.StringPtr(strings.TrimSpace(*in.GoalID))
	}

	return models.Task{
		GoalID:           goalID,
		Title:            title,
		Notes:            strings.TrimSpace(in.Notes),
		EstimatedMinutes: in.EstimatedMinutes,
		DueDate:          in.DueDate,
		Completed:        in.Completed,
		Priority:         priority,
		Tags:             cleanTags(in.Tags),
		Reminder:         reminder,
	}, nil
}

func (p TaskPatch) apply(t models.Task) (models.Task, error) {
	out := t.Clone()
	if p.GoalID != nil {
		out.GoalID = models.StringPtr(strings.TrimSpace(*p.GoalID))
	}
	if p.Title != nil {
		title, err := validateTitle(*p.Title)
		if err != nil {
			return t, err
		}
		out.Title = title
	}
	if p.Notes != nil {
		out.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.EstimatedMinutes != nil {
		if err := validateMinutes(*p.EstimatedMinutes); err != nil {
			return t, err
		}
		out.EstimatedMinutes = *p.EstimatedMinutes
	}
	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			return t, invalid("dueDate", "is required")
		}
		out.DueDate = *p.DueDate
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.Priority != nil {
		if err := validatePriority(*p.Priority); err != nil {
			return t, err
		}
		out.Priority = *p.Priority
	}
	if p.Tags != nil {
		out.Tags = cleanTags(*p.Tags)
	}
	if p.Reminder != nil {
		reminder, err := p.Reminder.build()
		if err != nil {
			return t, err
		}
		out.Reminder = reminder
	}
	return out, nil
}
