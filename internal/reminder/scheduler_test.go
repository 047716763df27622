package reminder_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hamza-235/Smart-study-Planner/internal/logging"
	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/reminder"
)

type countingPoller struct {
	mu    sync.Mutex
	polls []time.Time
}

func (p *countingPoller) Poll(_ context.Context, at time.Time) ([]reminder.Notification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls = append(p.polls, at)
	return nil, nil
}

func (p *countingPoller) first() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls[0]
}

func (p *countingPoller) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.polls)
}

func TestScheduler_PollsImmediatelyThenTicks(t *testing.T) {
	poller := &countingPoller{}
	s := reminder.NewScheduler(poller, 20*time.Millisecond, func() time.Time { return now }, logging.Discard())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return poller.count() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return poller.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, now, poller.first())
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	poller := &countingPoller{}
	s := reminder.NewScheduler(poller, time.Hour, nil, logging.Discard())

	s.Stop()
	assert.False(t, s.Running())

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.Running())
	require.Eventually(t, func() bool { return poller.count() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, 1, poller.count())

	s.Start(context.Background())
	defer s.Stop()
	require.Eventually(t, func() bool { return poller.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopsWithParentContext(t *testing.T) {
	poller := &countingPoller{}
	s := reminder.NewScheduler(poller, 10*time.Millisecond, nil, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return poller.count() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(50 * time.Millisecond)
	seen := poller.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, poller.count())
	s.Stop()
}

func TestScheduler_DrivesEngine(t *testing.T) {
	f := newFixture(t, remindingTask("t1", now.Add(5*time.Second), models.RepeatNone))
	s := reminder.NewScheduler(f.engine, time.Hour, func() time.Time { return now }, logging.Discard())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return len(f.notifier.taskIDs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"t1"}, f.engine.Fired())
}
