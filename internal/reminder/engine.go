// Package reminder fires task reminder notifications. The Engine polls the
// planner for reminders inside the notice window, notifies each one once per
// fire time and moves repeating reminders on to their next occurrence.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/planner"
)

// DefaultTolerance matches the default polling interval; a reminder fires when
// its time is between now and now+tolerance.
const DefaultTolerance = 60 * time.Second

// Planner is the slice of *planner.Store the engine reads and writes.
type Planner interface {
	UpcomingReminders(now time.Time) []models.Task
	GetTask(id string) *models.Task
	UpdateTask(ctx context.Context, id string, patch planner.TaskPatch) (*models.Task, error)
}

type State int

const (
	StateIdle State = iota
	StateDue
	StateFired
	StateInert
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDue:
		return "due"
	case StateFired:
		return "fired"
	case StateInert:
		return "inert"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Options struct {
	Notifier  Notifier
	Tolerance time.Duration
	Metrics   *Metrics
	Logger    logrus.FieldLogger
}

type Engine struct {
	mu        sync.Mutex
	planner   Planner
	notifier  Notifier
	tolerance time.Duration
	metrics   *Metrics
	logger    logrus.FieldLogger

	// fired maps a task id to the fire time that was notified.
	fired map[string]time.Time
	// lastPoll is the now of the previous Poll; zero before the first one.
	lastPoll time.Time
}

func NewEngine(p Planner, opts Options) *Engine {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	logger := opts.Logger.WithField("component", "reminder")
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(logger, ChannelInApp, DefaultRecentSize)
	}

	return &Engine{
		planner:   p,
		notifier:  opts.Notifier,
		tolerance: opts.Tolerance,
		metrics:   opts.Metrics,
		logger:    logger,
		fired:     make(map[string]time.Time),
	}
}

// Poll fires every upcoming reminder whose time falls in [now, now+tolerance]
// and has not fired yet. Reminders that fell between the previous poll and now
// fire late rather than never; the look-back is capped at the notice window.
// Notifier failures are returned joined but never stop the cycle or skip
// fired-set bookkeeping.
func (e *Engine) Poll(ctx context.Context, now time.Time) ([]Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.RecordPoll()
	from := e.catchUpFrom(now)
	if now.After(e.lastPoll) {
		e.lastPoll = now
	}
	upcoming := e.planner.UpcomingReminders(from)

	live := make(map[string]bool, len(upcoming))
	fired := []Notification{}
	var errs []error

	for _, task := range upcoming {
		live[task.ID] = true
		at := *task.Reminder.At
		if at.Before(from) || at.Sub(now) > e.tolerance {
			continue
		}
		if last, ok := e.fired[task.ID]; ok && last.Equal(at) {
			continue
		}

		n := newNotification(task, now)
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.metrics.RecordError()
			e.logger.WithError(err).WithField("task_id", task.ID).Error("reminder notification failed")
			errs = append(errs, fmt.Errorf("notify %s: %w", task.ID, err))
		}
		e.fired[task.ID] = at
		e.metrics.RecordFired()
		fired = append(fired, n)

		if err := e.reschedule(ctx, task, at); err != nil {
			errs = append(errs, err)
		}
	}

	for id := range e.fired {
		if !live[id] {
			delete(e.fired, id)
		}
	}

	return fired, errors.Join(errs...)
}

// catchUpFrom is the earliest fire time Poll considers at now. It must be called
// with e.mu held.
func (e *Engine) catchUpFrom(now time.Time) time.Time {
	if e.lastPoll.IsZero() || !e.lastPoll.Before(now) {
		return now
	}
	if oldest := now.Add(-planner.ReminderWindow); e.lastPoll.Before(oldest) {
		return oldest
	}
	return e.lastPoll
}

// reschedule must be called with e.mu held.
func (e *Engine) reschedule(ctx context.Context, task models.Task, at time.Time) error {
	next, ok := NextOccurrence(at, task.Reminder.Repeat)
	if !ok {
		return nil
	}

	logger := e.logger.WithFields(logrus.Fields{"task_id": task.ID, "next": next})
	_, err := e.planner.UpdateTask(ctx, task.ID, planner.TaskPatch{
		Reminder: &planner.ReminderInput{Enabled: true, At: &next, Repeat: task.Reminder.Repeat},
	})
	if err != nil && !errors.Is(err, planner.ErrPersistence) {
		e.metrics.RecordError()
		logger.WithError(err).Error("failed to reschedule repeating reminder")
		return fmt.Errorf("reschedule %s: %w", task.ID, err)
	}
	if err != nil {
		logger.WithError(err).Warn("rescheduled reminder not saved")
	}

	delete(e.fired, task.ID)
	e.metrics.RecordRescheduled()
	logger.Debug("repeating reminder rescheduled")
	return nil
}

// Snooze moves the task's reminder to now+minutes, enables it and makes it
// eligible to fire again. Unknown tasks return nil without error.
func (e *Engine) Snooze(ctx context.Context, taskID string, minutes int, now time.Time) (*models.Task, error) {
	if minutes <= 0 {
		return nil, &planner.ValidationError{Field: "minutes", Message: "must be greater than zero"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	task := e.planner.GetTask(taskID)
	if task == nil {
		return nil, nil
	}

	repeat := models.RepeatNone
	if task.Reminder != nil && task.Reminder.Repeat != "" {
		repeat = task.Reminder.Repeat
	}
	at := now.Add(time.Duration(minutes) * time.Minute)

	updated, err := e.planner.UpdateTask(ctx, taskID, planner.TaskPatch{
		Reminder: &planner.ReminderInput{Enabled: true, At: &at, Repeat: repeat},
	})
	if updated == nil {
		return nil, err
	}

	delete(e.fired, taskID)
	e.metrics.RecordSnooze()
	e.logger.WithFields(logrus.Fields{"task_id": taskID, "minutes": minutes}).Info("reminder snoozed")
	return updated, err
}

// State classifies the task's reminder at now.
func (e *Engine) State(task models.Task, now time.Time) State {
	if !task.Reminder.Active() {
		return StateIdle
	}
	if task.Completed {
		return StateInert
	}
	at := *task.Reminder.At

	e.mu.Lock()
	last, fired := e.fired[task.ID]
	e.mu.Unlock()

	switch {
	case at.Before(now):
		return StateInert
	case fired && last.Equal(at):
		return StateFired
	case at.Sub(now) <= planner.ReminderWindow:
		return StateDue
	default:
		return StateIdle
	}
}

// Fired returns the ids in the fired-set, sorted.
func (e *Engine) Fired() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.fired))
	for id := range e.fired {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) Forget(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.fired, taskID)
}

func (e *Engine) Metrics() Metrics {
	return e.metrics.GetStats()
}
