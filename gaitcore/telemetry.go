package gaitcore

import (
	"sync"
	"time"
)

// RingBuffer is a fixed-capacity overwrite-oldest buffer. GetRecent
// returns newest first.
type RingBuffer[T any] struct {
	data     []T
	head     int
	size     int
	capacity int
	mu       sync.RWMutex
}

func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	return &RingBuffer[T]{
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.head] = item
	rb.head = (rb.head + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}
}

func (rb *RingBuffer[T]) GetRecent(n int) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n > rb.size {
		n = rb.size
	}

	result := make([]T, n)
	for i := 0; i < n; i++ {
		idx := (rb.head - 1 - i + rb.capacity) % rb.capacity
		result[i] = rb.data[idx]
	}
	return result
}

func (rb *RingBuffer[T]) GetAll() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]T, rb.size)
	for i := 0; i < rb.size; i++ {
		idx := (rb.head - rb.size + i + rb.capacity) % rb.capacity
		result[i] = rb.data[idx]
	}
	return result
}

func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

// TelemetryBuffers holds the recent processing output the live
// endpoints serve from.
type TelemetryBuffers struct {
	steps     *RingBuffer[StepMetrics]
	summaries *RingBuffer[SessionSummary]
}

func NewTelemetryBuffers(maxLen int) *TelemetryBuffers {
	return &TelemetryBuffers{
		steps:     NewRingBuffer[StepMetrics](maxLen),
		summaries: NewRingBuffer[SessionSummary](maxLen),
	}
}

// PushResult records one finished session.
func (tb *TelemetryBuffers) PushResult(res *SessionResult) {
	for _, step := range res.Steps {
		tb.steps.Push(step)
	}
	tb.summaries.Push(res.Summary)
}

// GetRecentSteps returns the last n step records, newest first.
func (tb *TelemetryBuffers) GetRecentSteps(n int) []StepMetrics {
	return tb.steps.GetRecent(n)
}

// GetRecentSummaries returns the last n session summaries, newest first.
func (tb *TelemetryBuffers) GetRecentSummaries(n int) []SessionSummary {
	return tb.summaries.GetRecent(n)
}

// GetLatestSummary returns the most recent session summary.
func (tb *TelemetryBuffers) GetLatestSummary() (SessionSummary, bool) {
	recent := tb.summaries.GetRecent(1)
	if len(recent) == 0 {
		return SessionSummary{}, false
	}
	return recent[0], true
}

// StepsSince returns steps whose heel strike falls on or after cutoff.
func (tb *TelemetryBuffers) StepsSince(cutoff time.Time) []StepMetrics {
	var out []StepMetrics
	for _, s := range tb.steps.GetAll() {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
