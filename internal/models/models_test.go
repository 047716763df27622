package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepeatMode_Valid(t *testing.T) {
	tests := []struct {
		mode  models.RepeatMode
		valid bool
	}{
		{models.RepeatNone, true},
		{models.RepeatDaily, true},
		{models.RepeatWeekly, true},
		{models.RepeatMonthly, true},
		{"yearly", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.mode.Valid())
		})
	}
}

func TestParseRepeatMode(t *testing.T) {
	mode, err := models.ParseRepeatMode("")
	require.NoError(t, err)
	assert.Equal(t, models.RepeatNone, mode)

	mode, err = models.ParseRepeatMode("weekly")
	require.NoError(t, err)
	assert.Equal(t, models.RepeatWeekly, mode)

	_, err = models.ParseRepeatMode("hourly")
	assert.Error(t, err)
}

func TestTask_CloneIsDeep(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	task := models.Task{
		ID:       "t1",
		GoalID:   models.StringPtr("g1"),
		Title:    "Review",
		Tags:     []string{"calculus"},
		Reminder: &models.Reminder{Enabled: true, At: &at, Repeat: models.RepeatDaily},
	}

	clone := task.Clone()
	*clone.GoalID = "g2"
	clone.Tags[0] = "algebra"
	*clone.Reminder.At = at.Add(time.Hour)
	clone.Reminder.Enabled = false

	assert.Equal(t, "g1", task.GoalRef())
	assert.Equal(t, "calculus", task.Tags[0])
	assert.True(t, task.Reminder.At.Equal(at))
	assert.True(t, task.Reminder.Enabled)
}

func TestTask_GoalRef(t *testing.T) {
	standalone := models.Task{ID: "t1"}
	assert.Equal(t, "", standalone.GoalRef())
	assert.False(t, standalone.BelongsTo(""))

	owned := models.Task{ID: "t2", GoalID: models.StringPtr("g1")}
	assert.True(t, owned.BelongsTo("g1"))
	assert.False(t, owned.BelongsTo("g2"))
}

func TestGoal_AddRemoveTask(t *testing.T) {
	goal := models.Goal{ID: "g1"}

	goal.AddTask("t1")
	goal.AddTask("t2")
	goal.AddTask("t1")
	assert.Equal(t, []string{"t1", "t2"}, goal.Tasks)

	goal.RemoveTask("t1")
	assert.Equal(t, []string{"t2"}, goal.Tasks)

	goal.RemoveTask("missing")
	assert.Equal(t, []string{"t2"}, goal.Tasks)
}

func TestGoal_Timeline(t *testing.T) {
	goal := models.Goal{ID: "g1"}
	_, _, ok, err := goal.Timeline(time.UTC)
	require.NoError(t, err)
	assert.False(t, ok)

	goal.TimelineStart = models.StringPtr("2026-01-10")
	goal.TimelineEnd = models.StringPtr("2026-01-20")
	start, end, ok, err := goal.Timeline(time.UTC)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10*24*time.Hour, end.Sub(start))

	goal.TimelineEnd = models.StringPtr("20/01/2026")
	_, _, _, err = goal.Timeline(time.UTC)
	assert.Error(t, err)
}

func TestDocument_NormalizeEncodesEmptyLists(t *testing.T) {
	doc := &models.Document{
		Version: models.DocumentVersion,
		Goals:   []models.Goal{{ID: "g1"}},
		Tasks:   []models.Task{{ID: "t1", Reminder: &models.Reminder{}}},
	}
	doc.Normalize()

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	goal := raw["goals"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{}, goal["tags"])
	assert.Equal(t, []any{}, goal["tasks"])
	assert.Nil(t, goal["timelineStart"])

	task := raw["tasks"].([]any)[0].(map[string]any)
	assert.Nil(t, task["goalId"])
	reminder := task["reminder"].(map[string]any)
	assert.Equal(t, "none", reminder["repeat"])
	assert.Nil(t, reminder["at"])
}

func TestDocument_ReconcileGoalTasks(t *testing.T) {
	doc := &models.Document{
		Goals: []models.Goal{
			{ID: "g1", Tasks: []string{"stale", "t2", "t2"}},
			{ID: "g2", Tasks: []string{"t3", "t1", "t2"}},
		},
		Tasks: []models.Task{
			{ID: "t1", GoalID: models.StringPtr("g2")},
			{ID: "t2", GoalID: models.StringPtr("g1")},
			{ID: "t3", GoalID: models.StringPtr("g2")},
			{ID: "t4", GoalID: models.StringPtr("gone")},
			{ID: "t5"},
			{ID: "t6", GoalID: models.StringPtr("g2")},
		},
	}

	doc.ReconcileGoalTasks()

	assert.Equal(t, []string{"t2"}, doc.Goals[0].Tasks)
	assert.Equal(t, []string{"t3", "t1", "t6"}, doc.Goals[1].Tasks)
}

func TestDocument_CloneIsIndependent(t *testing.T) {
	doc := models.NewDocument()
	doc.Goals = append(doc.Goals, models.Goal{ID: "g1", Tasks: []string{"t1"}})

	clone := doc.Clone()
	clone.Goals[0].Tasks[0] = "changed"
	clone.Settings.NotificationsAllowed = true

	assert.Equal(t, "t1", doc.Goals[0].Tasks[0])
	assert.False(t, doc.Settings.NotificationsAllowed)
}
