package reminder

import (
	"sync/atomic"
	"time"
)

type Metrics struct {
	Polls       int64 `json:"polls"`
	Fired       int64 `json:"fired"`
	Fallbacks   int64 `json:"fallbacks"`
	Snoozes     int64 `json:"snoozes"`
	Rescheduled int64 `json:"rescheduled"`
	Errors      int64 `json:"errors"`
	StartTime   int64 `json:"start_time"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now().Unix(),
	}
}

func (m *Metrics) RecordPoll() {
	atomic.AddInt64(&m.Polls, 1)
}

func (m *Metrics) RecordFired() {
	atomic.AddInt64(&m.Fired, 1)
}

func (m *Metrics) RecordFallback() {
	atomic.AddInt64(&m.Fallbacks, 1)
}

func (m *Metrics) RecordSnooze() {
	atomic.AddInt64(&m.Snoozes, 1)
}

func (m *Metrics) RecordRescheduled() {
	atomic.AddInt64(&m.Rescheduled, 1)
}

func (m *Metrics) RecordError() {
	atomic.AddInt64(&m.Errors, 1)
}

func (m *Metrics) GetStats() Metrics {
	return Metrics{
		Polls:       atomic.LoadInt64(&m.Polls),
		Fired:       atomic.LoadInt64(&m.Fired),
		Fallbacks:   atomic.LoadInt64(&m.Fallbacks),
		Snoozes:     atomic.LoadInt64(&m.Snoozes),
		Rescheduled: atomic.LoadInt64(&m.Rescheduled),
		Errors:      atomic.LoadInt64(&m.Errors),
		StartTime:   m.StartTime,
	}
}

func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.Polls, 0)
	atomic.StoreInt64(&m.Fired, 0)
	atomic.StoreInt64(&m.Fallbacks, 0)
	atomic.StoreInt64(&m.Snoozes, 0)
	atomic.StoreInt64(&m.Rescheduled, 0)
	atomic.StoreInt64(&m.Errors, 0)
	atomic.StoreInt64(&m.StartTime, time.Now().Unix())
}
