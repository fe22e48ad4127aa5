package storage

import (
	"sync"
	"time"

	"gaitsense-pipeline/gaitcore"
)

// SessionStore keeps the most recent session results in memory for the
// HTTP API. Oldest sessions fall off once capacity is reached.
type SessionStore struct {
	results  []*gaitcore.SessionResult
	byID     map[string]*gaitcore.SessionResult
	capacity int
	mu       sync.RWMutex
}

func NewSessionStore(capacity int) *SessionStore {
	return &SessionStore{
		results:  make([]*gaitcore.SessionResult, 0, capacity),
		byID:     make(map[string]*gaitcore.SessionResult),
		capacity: capacity,
	}
}

func (st *SessionStore) Push(res *gaitcore.SessionResult) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.results) == st.capacity {
		oldest := st.results[0]
		st.results = st.results[1:]
		delete(st.byID, oldest.Summary.SessionID)
	}
	st.results = append(st.results, res)
	st.byID[res.Summary.SessionID] = res
}

// GetRecent returns the last n summaries, newest first.
func (st *SessionStore) GetRecent(n int) []gaitcore.SessionSummary {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if n > len(st.results) {
		n = len(st.results)
	}
	out := make([]gaitcore.SessionSummary, 0, n)
	for i := len(st.results) - 1; i >= len(st.results)-n; i-- {
		out = append(out, st.results[i].Summary)
	}
	return out
}

func (st *SessionStore) Get(sessionID string) (*gaitcore.SessionResult, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	res, ok := st.byID[sessionID]
	return res, ok
}

// GetByTimeRange returns summaries whose session date falls inside
// [start, end].
func (st *SessionStore) GetByTimeRange(start, end time.Time) []gaitcore.SessionSummary {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]gaitcore.SessionSummary, 0)
	for _, res := range st.results {
		d := res.Summary.SessionDate
		if (d.Equal(start) || d.After(start)) && (d.Equal(end) || d.Before(end)) {
			out = append(out, res.Summary)
		}
	}
	return out
}

func (st *SessionStore) Size() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.results)
}

func (st *SessionStore) Capacity() int {
	return st.capacity
}

func (st *SessionStore) GetStats() map[string]interface{} {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var completed, failed, stopped, steps int
	for _, res := range st.results {
		steps += len(res.Steps)
		switch res.Summary.Status {
		case gaitcore.StatusCompleted:
			completed++
		case gaitcore.StatusFailed:
			failed++
		case gaitcore.StatusStopped:
			stopped++
		}
	}

	return map[string]interface{}{
		"sessions":  len(st.results),
		"capacity":  st.capacity,
		"completed": completed,
		"failed":    failed,
		"stopped":   stopped,
		"steps":     steps,
	}
}
