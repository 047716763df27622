// Package worker runs background jobs from Redis lists. Jobs are JSON documents
// pushed with RPUSH and consumed with BLPOP; failures are retried with backoff
// and finally parked on the dead-letter list.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type JobType string

const (
	JobTypeTaskReminder JobType = "task_reminder"
)

const (
	DefaultQueue = "reminders"
	DeadQueue    = "dead_queue"
)

type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"max_tries"`
	CreatedAt time.Time       `json:"created_at"`
	ProcessAt time.Time       `json:"process_at"`
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", j.Type, err)
	}
	return nil
}

type JobHandler func(ctx context.Context, job *Job) error

var errNotDue = errors.New("job not due yet")

type WorkerConfig struct {
	RedisClient  *redis.Client
	Concurrency  int
	PollInterval time.Duration
	RetryBackoff time.Duration
	Queues       []string
	Logger       logrus.FieldLogger
}

type Worker struct {
	client   *redis.Client
	handlers map[JobType]JobHandler
	queues   []string
	poll     time.Duration
	backoff  time.Duration
	logger   logrus.FieldLogger
	mu       sync.RWMutex

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	processed int64
	failed    int64
}

func NewWorker(config WorkerConfig) *Worker {
	if len(config.Queues) == 0 {
		config.Queues = []string{DefaultQueue}
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Minute
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &Worker{
		client:   config.RedisClient,
		handlers: make(map[JobType]JobHandler),
		queues:   config.Queues,
		poll:     config.PollInterval,
		backoff:  config.RetryBackoff,
		logger:   config.Logger.WithField("component", "worker"),
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches concurrency consumer goroutines. Calling Start on a running
// worker does nothing.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if w.cancel != nil {
		return
	}
	if concurrency < 1 {
		concurrency = 1
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.logger.WithField("concurrency", concurrency).Info("starting worker")
	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx)
	}
}

func (w *Worker) Stop() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if w.cancel == nil {
		return
	}
	w.logger.Info("stopping worker")
	w.cancel()
	w.wg.Wait()
	w.cancel = nil
	w.logger.Info("worker stopped")
}

func (w *Worker) Stats() map[string]interface{} {
	return map[string]interface{}{
		"processed": atomic.LoadInt64(&w.processed),
		"failed":    atomic.LoadInt64(&w.failed),
		"queues":    w.queues,
	}
}

func (w *Worker) workerLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := w.processNextJob(ctx)
		switch {
		case err == nil:
		case errors.Is(err, errNotDue):
			sleep(ctx, w.poll/10)
		case ctx.Err() != nil:
			return
		default:
			w.logger.WithError(err).Error("error processing job")
			sleep(ctx, time.Second)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *Worker) processNextJob(ctx context.Context) error {
	result, err := w.client.BLPop(ctx, w.poll, w.queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue := result[0]
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.Queue == "" {
		job.Queue = queue
	}

	if time.Now().Before(job.ProcessAt) {
		if err := w.enqueueJob(ctx, queue, &job); err != nil {
			return err
		}
		return errNotDue
	}

	return w.executeJob(ctx, &job)
}

func (w *Worker) executeJob(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	logger := w.logger.WithFields(logrus.Fields{"job_id": job.ID, "job_type": job.Type})
	if !exists {
		atomic.AddInt64(&w.failed, 1)
		return w.moveToDeadQueue(ctx, job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	logger.Debug("processing job")

	jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := handler(jobCtx, job); err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			logger.WithError(err).WithField("attempt", job.Attempts).Warn("job failed, retrying")
			return w.retryJob(ctx, job)
		}

		atomic.AddInt64(&w.failed, 1)
		logger.WithError(err).WithField("attempts", job.Attempts).Error("job failed permanently")
		return w.moveToDeadQueue(ctx, job, err)
	}

	atomic.AddInt64(&w.processed, 1)
	logger.Debug("job completed")
	return nil
}

func (w *Worker) retryJob(ctx context.Context, job *Job) error {
	delay := time.Duration(1<<(job.Attempts-1)) * w.backoff
	job.ProcessAt = time.Now().Add(delay)

	return w.enqueueJob(ctx, job.Queue, job)
}

func (w *Worker) enqueueJob(ctx context.Context, queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.RPush(ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(ctx context.Context, job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(ctx, DeadQueue, deadJobData).Err()
}

type JobQueue struct {
	client   *redis.Client
	maxTries int
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client, maxTries: 3}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload interface{}) (*Job, error) {
	return q.EnqueueAt(ctx, queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload interface{}, processAt time.Time) (*Job, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Queue:     queue,
		Payload:   data,
		Attempts:  0,
		MaxTries:  q.maxTries,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := q.client.RPush(ctx, queue, jobData).Err(); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	return job, nil
}

func (q *JobQueue) GetQueueSize(ctx context.Context, queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}
