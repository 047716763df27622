package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/worker"
)

const (
	ChannelSystem = "system"
	ChannelInApp  = "in-app"

	DefaultRecentSize = 50
	notificationTitle = "Study Reminder"
)

type Notification struct {
	TaskID  string            `json:"taskId"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	At      time.Time         `json:"at"`
	Repeat  models.RepeatMode `json:"repeat"`
	FiredAt time.Time         `json:"firedAt"`
}

func newNotification(task models.Task, now time.Time) Notification {
	return Notification{
		TaskID:  task.ID,
		Title:   notificationTitle,
		Body:    task.Title,
		At:      *task.Reminder.At,
		Repeat:  task.Reminder.Repeat,
		FiredAt: now,
	}
}

// Message is the text shown by in-app fallbacks.
func (n Notification) Message() string {
	return fmt.Sprintf("Reminder: %s", n.Body)
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Delivered is one notification as recorded by a LogNotifier.
type Delivered struct {
	Notification
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// LogNotifier logs every notification and keeps the most recent ones in a
// bounded ring for the API.
type LogNotifier struct {
	logger  logrus.FieldLogger
	channel string

	mu     sync.Mutex
	recent []Delivered
	size   int
}

func NewLogNotifier(logger logrus.FieldLogger, channel string, size int) *LogNotifier {
	if size <= 0 {
		size = DefaultRecentSize
	}
	return &LogNotifier{
		logger:  logger,
		channel: channel,
		recent:  make([]Delivered, 0, size),
		size:    size,
	}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	d := Delivered{Notification: n, Channel: l.channel, Message: n.Message()}

	l.logger.WithFields(logrus.Fields{
		"task_id": n.TaskID,
		"channel": l.channel,
		"at":      n.At,
	}).Info(d.Message)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.recent) == l.size {
		copy(l.recent, l.recent[1:])
		l.recent = l.recent[:l.size-1]
	}
	l.recent = append(l.recent, d)
	return nil
}

// Recent returns the retained notifications, oldest first.
func (l *LogNotifier) Recent() []Delivered {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Delivered, len(l.recent))
	copy(out, l.recent)
	return out
}

// PermissionNotifier sends through the system notifier when notifications are
// allowed and falls back to the in-app notifier otherwise, or when the system
// notifier fails.
type PermissionNotifier struct {
	system   Notifier
	fallback Notifier
	allowed  func() bool
	metrics  *Metrics
	logger   logrus.FieldLogger
}

// NewPermissionNotifier accepts a nil system notifier, in which case every
// notification goes to fallback.
func NewPermissionNotifier(system, fallback Notifier, allowed func() bool, metrics *Metrics, logger logrus.FieldLogger) *PermissionNotifier {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &PermissionNotifier{
		system:   system,
		fallback: fallback,
		allowed:  allowed,
		metrics:  metrics,
		logger:   logger,
	}
}

// AllowedBySettings reads the notification permission from the planner settings.
func AllowedBySettings(p interface{ Settings() models.Settings }) func() bool {
	return func() bool {
		return p.Settings().NotificationsAllowed
	}
}

func (p *PermissionNotifier) Notify(ctx context.Context, n Notification) error {
	if p.system != nil && p.allowed != nil && p.allowed() {
		err := p.system.Notify(ctx, n)
		if err == nil {
			return nil
		}
		p.logger.WithError(err).WithField("task_id", n.TaskID).Warn("system notification failed, using in-app fallback")
	}

	p.metrics.RecordFallback()
	if err := p.fallback.Notify(ctx, n); err != nil {
		return fmt.Errorf("in-app fallback: %w", err)
	}
	return nil
}

// QueueNotifier hands notifications to the Redis job queue for delivery by a worker.
type QueueNotifier struct {
	queue *worker.JobQueue
	name  string
}

func NewQueueNotifier(queue *worker.JobQueue, name string) *QueueNotifier {
	if name == "" {
		name = worker.DefaultQueue
	}
	return &QueueNotifier{queue: queue, name: name}
}

func (q *QueueNotifier) Notify(ctx context.Context, n Notification) error {
	if _, err := q.queue.Enqueue(ctx, q.name, worker.JobTypeTaskReminder, n); err != nil {
		return fmt.Errorf("failed to queue reminder: %w", err)
	}
	return nil
}

var errEmptyReminderJob = errors.New("reminder job has no task id")

// NewJobHandler delivers queued reminder jobs to sink.
func NewJobHandler(sink Notifier) worker.JobHandler {
	return func(ctx context.Context, job *worker.Job) error {
		var n Notification
		if err := job.Decode(&n); err != nil {
			return err
		}
		if n.TaskID == "" {
			return errEmptyReminderJob
		}
		return sink.Notify(ctx, n)
	}
}
