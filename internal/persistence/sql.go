package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
)

// Timestamps are stored as RFC 3339 text so a load returns the exact offset
// that was saved and exports stay byte-identical across backends.
const sqlTimeLayout = time.RFC3339Nano

type settingsRow struct {
	ID                   uint   `gorm:"primaryKey"`
	Version              string `gorm:"size:32;not null"`
	NotificationsAllowed bool   `gorm:"not null"`
}

func (settingsRow) TableName() string { return "settings" }

type goalRow struct {
	ID            string `gorm:"primaryKey;size:64"`
	Position      int    `gorm:"index;not null"`
	Title         string `gorm:"not null"`
	Description   string
	Color         string   `gorm:"size:32"`
	Tags          []string `gorm:"serializer:json"`
	Priority      int
	TaskIDs       []string `gorm:"column:task_ids;serializer:json"`
	TimelineStart *string  `gorm:"size:10"`
	TimelineEnd   *string  `gorm:"size:10"`
	Created       string   `gorm:"column:created_at;size:40"`
	Updated       string   `gorm:"column:updated_at;size:40"`
}

func (goalRow) TableName() string { return "goals" }

type taskRow struct {
	ID               string  `gorm:"primaryKey;size:64"`
	Position         int     `gorm:"index;not null"`
	GoalID           *string `gorm:"index;size:64"`
	Title            string  `gorm:"not null"`
	Notes            string
	EstimatedMinutes int
	DueDate          string `gorm:"size:40"`
	Completed        bool   `gorm:"not null"`
	Priority         int
	Tags             []string         `gorm:"serializer:json"`
	Reminder         *models.Reminder `gorm:"serializer:json"`
	Created          string           `gorm:"column:created_at;size:40"`
	Updated          string           `gorm:"column:updated_at;size:40"`
}

func (taskRow) TableName() string { return "tasks" }

// SQLBackend maps the document onto goals, tasks and settings tables. Every save
// replaces the stored document inside one transaction.
type SQLBackend struct {
	db *gorm.DB
}

func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(&settingsRow{}, &goalRow{}, &taskRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate planner tables: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Name() string { return "sql" }

func (b *SQLBackend) Load(ctx context.Context) (*models.Document, error) {
	db := b.db.WithContext(ctx)

	var settings settingsRow
	if err := db.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var goals []goalRow
	if err := db.Order("position").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	var tasks []taskRow
	if err := db.Order("position").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	doc := &models.Document{
		Version:  settings.Version,
		Settings: models.Settings{NotificationsAllowed: settings.NotificationsAllowed},
		Goals:    make([]models.Goal, 0, len(goals)),
		Tasks:    make([]models.Task, 0, len(tasks)),
	}
	for _, row := range goals {
		g, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("goal %s: %w", row.ID, err)
		}
		doc.Goals = append(doc.Goals, g)
	}
	for _, row := range tasks {
		t, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", row.ID, err)
		}
		doc.Tasks = append(doc.Tasks, t)
	}
	return doc, nil
}

func (b *SQLBackend) Save(ctx context.Context, doc *models.Document) error {
	goals := make([]goalRow, len(doc.Goals))
	for i, g := range doc.Goals {
		goals[i] = newGoalRow(i, g)
	}
	tasks := make([]taskRow, len(doc.Tasks))
	for i, t := range doc.Tasks {
		tasks[i] = newTaskRow(i, t)
	}
	version := doc.Version
	if version == "" {
		version = models.DocumentVersion
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{&taskRow{}, &goalRow{}, &settingsRow{}} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&settingsRow{
			ID:                   1,
			Version:              version,
			NotificationsAllowed: doc.Settings.NotificationsAllowed,
		}).Error; err != nil {
			return err
		}
		if len(goals) > 0 {
			if err := tx.CreateInBatches(goals, 100).Error; err != nil {
				return err
			}
		}
		if len(tasks) > 0 {
			if err := tx.CreateInBatches(tasks, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func newGoalRow(position int, g models.Goal) goalRow {
	return goalRow{
		ID:            g.ID,
		Position:      position,
		Title:         g.Title,
		Description:   g.Description,
		Color:         g.Color,
		Tags:          g.Tags,
		Priority:      g.Priority,
		TaskIDs:       g.Tasks,
		TimelineStart: g.TimelineStart,
		TimelineEnd:   g.TimelineEnd,
		Created:       g.CreatedAt.Format(sqlTimeLayout),
		Updated:       g.UpdatedAt.Format(sqlTimeLayout),
	}
}

func (r goalRow) toModel() (models.Goal, error) {
	created, err := time.Parse(sqlTimeLayout, r.Created)
	if err != nil {
		return models.Goal{}, err
	}
	updated, err := time.Parse(sqlTimeLayout, r.Updated)
	if err != nil {
		return models.Goal{}, err
	}
	return models.Goal{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Color:         r.Color,
		Tags:          r.Tags,
		Priority:      r.Priority,
		Tasks:         r.TaskIDs,
		TimelineStart: r.TimelineStart,
		TimelineEnd:   r.TimelineEnd,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

func newTaskRow(position int, t models.Task) taskRow {
	return taskRow{
		ID:               t.ID,
		Position:         position,
		GoalID:           t.GoalID,
		Title:            t.Title,
		Notes:            t.Notes,
		EstimatedMinutes: t.EstimatedMinutes,
		DueDate:          t.DueDate.Format(sqlTimeLayout),
		Completed:        t.Completed,
		Priority:         t.Priority,
		Tags:             t.Tags,
		Reminder:         t.Reminder,
		Created:          t.CreatedAt.Format(sqlTimeLayout),
		Updated:          t.UpdatedAt.Format(sqlTimeLayout),
	}
}

func (r taskRow) toModel() (models.Task, error) {
	due, err := time.Parse(sqlTimeLayout, r.DueDate)
	if err != nil {
		return models.Task{}, err
	}
	created, err := time.Parse(sqlTimeLayout, r.Created)
	if err != nil {
		return models.Task{}, err
	}
	updated, err := time.Parse(sqlTimeLayout, r.Updated)
	if err != nil {
		return models.Task{}, err
	}
	return models.Task{
		ID:               r.ID,
		GoalID:           r.GoalID,
		Title:            r.Title,
		Notes:            r.Notes,
		EstimatedMinutes: r.EstimatedMinutes,
		DueDate:          due,
		Completed:        r.Completed,
		Priority:         r.Priority,
		Tags:             r.Tags,
		Reminder:         r.Reminder,
		CreatedAt:        created,
		UpdatedAt:        updated,
	}, nil
}
