package planner_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hamza-235/Smart-study-Planner/internal/logging"
	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/planner"
)

func newQueryStore(t *testing.T, tasks ...models.Task) *planner.Store {
	t.Helper()
	doc := models.NewDocument()
	doc.Goals = []models.Goal{
		{ID: "g1", Title: "Math", Color: "#ff8a65", Priority: 5},
		{ID: "g2", Title: "History", Color: "#4db6ac", Priority: 2},
	}
	doc.Tasks = tasks
	return planner.NewStore(doc, planner.Options{Logger: logging.Discard()})
}

func reminderAt(at time.Time, enabled bool) *models.Reminder {
	return &models.Reminder{Enabled: enabled, At: &at, Repeat: models.RepeatNone}
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestTasksDueToday(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	store := newQueryStore(t,
		models.Task{ID: "midnight", DueDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		models.Task{ID: "evening", DueDate: time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)},
		models.Task{ID: "done", DueDate: now, Completed: true},
		models.Task{ID: "tomorrow", DueDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		models.Task{ID: "yesterday", DueDate: time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC)},
	)

	assert.Equal(t, []string{"midnight", "evening"}, taskIDs(store.TasksDueToday(now)))
}

func TestTasksDueToday_UsesNowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, tokyo)
	store := newQueryStore(t,
		// 2026-03-14T20:00Z is the morning of the 15th in Tokyo
		models.Task{ID: "tokyo-today", DueDate: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)},
		models.Task{ID: "tokyo-yesterday", DueDate: time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)},
	)

	assert.Equal(t, []string{"tokyo-today"}, taskIDs(store.TasksDueToday(now)))
}

func TestUpcomingReminders(t *testing.T) {
	now := baseTime
	store := newQueryStore(t,
		models.Task{ID: "in-2h", Reminder: reminderAt(now.Add(2*time.Hour), true)},
		models.Task{ID: "in-1h", Reminder: reminderAt(now.Add(time.Hour), true)},
		models.Task{ID: "now", Reminder: reminderAt(now, true)},
		models.Task{ID: "edge", Reminder: reminderAt(now.Add(24*time.Hour), true)},
		models.Task{ID: "in-25h", Reminder: reminderAt(now.Add(25*time.Hour), true)},
		models.Task{ID: "past", Reminder: reminderAt(now.Add(-time.Minute), true)},
		models.Task{ID: "disabled", Reminder: reminderAt(now.Add(time.Hour), false)},
		models.Task{ID: "completed", Completed: true, Reminder: reminderAt(now.Add(time.Hour), true)},
		models.Task{ID: "no-reminder"},
		models.Task{ID: "no-time", Reminder: &models.Reminder{Enabled: true}},
	)

	assert.Equal(t, []string{"now", "in-1h", "in-2h", "edge"}, taskIDs(store.UpcomingReminders(now)))
}

func TestUpcomingReminders_StableForEqualTimes(t *testing.T) {
	at := baseTime.Add(time.Hour)
	store := newQueryStore(t,
		models.Task{ID: "b", Reminder: reminderAt(at, true)},
		models.Task{ID: "a", Reminder: reminderAt(at, true)},
	)

	assert.Equal(t, []string{"b", "a"}, taskIDs(store.UpcomingReminders(baseTime)))
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0, newQueryStore(t).CompletionRate())

	store := newQueryStore(t,
		models.Task{ID: "a", Completed: true},
		models.Task{ID: "b"},
		models.Task{ID: "c"},
	)
	assert.Equal(t, 33, store.CompletionRate())

	store = newQueryStore(t,
		models.Task{ID: "a", Completed: true},
		models.Task{ID: "b", Completed: true},
		models.Task{ID: "c"},
	)
	assert.Equal(t, 67, store.CompletionRate())
}

func TestTotalRemainingMinutes(t *testing.T) {
	store := newQueryStore(t,
		models.Task{ID: "a", EstimatedMinutes: 120},
		models.Task{ID: "b", EstimatedMinutes: 45, Completed: true},
		models.Task{ID: "c", EstimatedMinutes: 30},
	)

	assert.Equal(t, 150, store.TotalRemainingMinutes())
}

func TestSearchTasks(t *testing.T) {
	store := newQueryStore(t,
		models.Task{ID: "t1", GoalID: models.StringPtr("g1"), Title: "Integration by parts", Priority: 3,
			DueDate: baseTime.Add(48 * time.Hour), CreatedAt: baseTime},
		models.Task{ID: "t2", GoalID: models.StringPtr("g1"), Title: "Algebra drill", Notes: "chapter 5 INTEGRATION warmup", Priority: 5,
			DueDate: baseTime.Add(24 * time.Hour), CreatedAt: baseTime.Add(time.Minute)},
		models.Task{ID: "t3", GoalID: models.StringPtr("g2"), Title: "Read on the Tudors", Priority: 3,
			DueDate: baseTime.Add(72 * time.Hour), CreatedAt: baseTime.Add(2 * time.Minute)},
	)

	tests := []struct {
		name   string
		filter planner.TaskFilter
		want   []string
	}{
		{"no filter keeps order", planner.TaskFilter{}, []string{"t1", "t2", "t3"}},
		{"query matches title and notes", planner.TaskFilter{Query: "integration"}, []string{"t1", "t2"}},
		{"priority filter", planner.TaskFilter{Priority: 3}, []string{"t1", "t3"}},
		{"goal filter", planner.TaskFilter{GoalID: "g2"}, []string{"t3"}},
		{"sort by due date", planner.TaskFilter{SortBy: planner.SortByDueDate}, []string{"t2", "t1", "t3"}},
		{"sort by priority is stable", planner.TaskFilter{SortBy: planner.SortByPriority}, []string{"t2", "t1", "t3"}},
		{"sort by created newest first", planner.TaskFilter{SortBy: planner.SortByCreatedAt}, []string{"t3", "t2", "t1"}},
		{"unknown sort", planner.TaskFilter{SortBy: "title"}, []string{"t1", "t2", "t3"}},
		{"combined", planner.TaskFilter{Query: "a", GoalID: "g1", SortBy: planner.SortByDueDate}, []string{"t2", "t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, taskIDs(store.SearchTasks(tt.filter)))
		})
	}
}

func TestGoalProgressAndDashboard(t *testing.T) {
	now := baseTime
	store := newQueryStore(t,
		models.Task{ID: "t1", GoalID: models.StringPtr("g1"), Completed: true, EstimatedMinutes: 60, DueDate: now},
		models.Task{ID: "t2", GoalID: models.StringPtr("g1"), EstimatedMinutes: 30, DueDate: now.Add(time.Hour),
			Reminder: reminderAt(now.Add(30*time.Minute), true)},
		models.Task{ID: "t3", EstimatedMinutes: 15, DueDate: now.Add(48 * time.Hour)},
	)

	progress := store.GoalProgress("g1")
	require.NotNil(t, progress)
	assert.Equal(t, planner.GoalProgress{GoalID: "g1", Title: "Math", Color: "#ff8a65", Completed: 1, Total: 2, Percent: 50}, *progress)
	assert.Equal(t, 0, store.GoalProgress("g2").Percent)
	assert.Nil(t, store.GoalProgress("missing"))

	dash := store.Dashboard(now)
	assert.Equal(t, []string{"t2"}, taskIDs(dash.TodayTasks))
	assert.Equal(t, []string{"t2"}, taskIDs(dash.UpcomingReminders))
	assert.Equal(t, 33, dash.CompletionRate)
	assert.Equal(t, 45, dash.RemainingMinutes)
	assert.Equal(t, 2, dash.GoalCount)
	assert.Equal(t, 3, dash.TaskCount)
	assert.Len(t, dash.ActiveGoals, 2)
}

func TestDashboard_LimitsActiveGoals(t *testing.T) {
	store := planner.NewStore(nil, planner.Options{Logger: logging.Discard()})
	for i := 0; i < 7; i++ {
		_, err := store.CreateGoal(context.Background(), planner.GoalInput{Title: "goal"})
		require.NoError(t, err)
	}

	dash := store.Dashboard(baseTime)
	assert.Equal(t, 7, dash.GoalCount)
	assert.Len(t, dash.ActiveGoals, 5)
}

func TestDashboard_ConsistentUnderConcurrentToggles(t *testing.T) {
	var tasks []models.Task
	for i := 1; i <= 4; i++ {
		tasks = append(tasks, models.Task{
			ID:               fmt.Sprintf("t%d", i),
			GoalID:           models.StringPtr("g1"),
			EstimatedMinutes: 10,
			DueDate:          baseTime,
		})
	}
	store := newQueryStore(t, tasks...)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 400; i++ {
			_, _ = store.ToggleCompletion(context.Background(), tasks[i%len(tasks)].ID)
		}
	}()

	for i := 0; i < 400; i++ {
		dash := store.Dashboard(baseTime)
		require.NotEmpty(t, dash.ActiveGoals)
		completed := dash.ActiveGoals[0].Completed
		require.Equal(t, completed*25, dash.CompletionRate)
		require.Equal(t, (4-completed)*10, dash.RemainingMinutes)
		require.Len(t, dash.TodayTasks, 4-completed)
	}
	wg.Wait()
}

func TestQueriesDoNotMutate(t *testing.T) {
	store := newQueryStore(t,
		models.Task{ID: "t1", DueDate: baseTime, Reminder: reminderAt(baseTime.Add(time.Hour), true)},
	)
	before := store.Snapshot()

	store.TasksDueToday(baseTime)
	reminders := store.UpcomingReminders(baseTime)
	*reminders[0].Reminder.At = baseTime.Add(10 * time.Hour)
	store.SearchTasks(planner.TaskFilter{SortBy: planner.SortByPriority})
	store.Dashboard(baseTime)

	assert.Equal(t, before, store.Snapshot())
}
