package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Poller interface {
	Poll(ctx context.Context, now time.Time) ([]Notification, error)
}

// Scheduler polls immediately on Start and then once per interval until Stop.
// It can be started again after Stop.
type Scheduler struct {
	poller   Poller
	interval time.Duration
	clock    func() time.Time
	logger   logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(poller Poller, interval time.Duration, clock func() time.Time, logger logrus.FieldLogger) *Scheduler {
	if interval <= 0 {
		interval = DefaultTolerance
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		poller:   poller,
		interval: interval,
		clock:    clock,
		logger:   logger.WithField("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.logger.WithField("interval", s.interval).Info("starting reminder scheduler")
	go s.run(ctx, s.done)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.onTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.onTick(ctx)
		}
	}
}

func (s *Scheduler) onTick(ctx context.Context) {
	fired, err := s.poller.Poll(ctx, s.clock())
	if err != nil {
		s.logger.WithError(err).Warn("reminder poll finished with errors")
	}
	if len(fired) > 0 {
		s.logger.WithField("count", len(fired)).Debug("reminders fired")
	}
}
