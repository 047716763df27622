package persistence

import (
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// DefaultDocument is the first-run dataset: one exam goal with two tasks,
// dated relative to now.
func DefaultDocument(now time.Time) *models.Document {
	now = now.UTC()
	tomorrow := now.AddDate(0, 0, 1)
	nextWeek := now.AddDate(0, 0, 7)
	reminderAt := tomorrow.Add(-time.Hour)

	return &models.Document{
		Version:  models.DocumentVersion,
		Settings: models.Settings{NotificationsAllowed: false},
		Goals: []models.Goal{
			{
				ID:            "g1",
				Title:         "Mathematics Exam Prep",
				Description:   "Prepare for Calculus and Algebra finals",
				Color:         "#ff8a65",
				Tags:          []string{"exam", "math"},
				Priority:      5,
				Tasks:         []string{"t1", "t2"},
				TimelineStart: models.StringPtr(models.FormatDate(now)),
				TimelineEnd:   models.StringPtr(models.FormatDate(nextWeek)),
				CreatedAt:     now,
				UpdatedAt:     now,
			},
		},
		Tasks: []models.Task{
			{
				ID:               "t1",
				GoalID:           models.StringPtr("g1"),
				Title:            "Review Integration Techniques",
				Notes:            "Focus on integration by parts",
				EstimatedMinutes: 120,
				DueDate:          tomorrow,
				Priority:         5,
				Tags:             []string{"calculus"},
				Reminder: &models.Reminder{
					Enabled: true,
					At:      &reminderAt,
					Repeat:  models.RepeatNone,
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
			{
				ID:               "t2",
				GoalID:           models.StringPtr("g1"),
				Title:            "Practice Algebra Problems",
				Notes:            "Chapter 5 exercises",
				EstimatedMinutes: 90,
				DueDate:          tomorrow,
				Priority:         4,
				Tags:             []string{"algebra"},
				Reminder: &models.Reminder{
					Enabled: false,
					Repeat:  models.RepeatNone,
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
}
