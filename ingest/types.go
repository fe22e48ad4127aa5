package ingest

import (
	"sync"
	"time"

	"gaitsense-pipeline/gaitcore"
)

// Config holds MQTT collector configuration
type Config struct {
	MQTTBroker      string
	MQTTPort        int
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopic       string
	UseTLS          bool
	InsecureSkipTLS bool
	DeviceID        string
	DecoderWorkers  int
	QueueSize       int

	// SessionIdleTimeout closes a session that stops sending batches
	// without an explicit end marker.
	SessionIdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MQTTBroker:         "localhost",
		MQTTPort:           1883,
		MQTTTopic:          "gait/+/batches",
		UseTLS:             false,
		InsecureSkipTLS:    false,
		DeviceID:           "gait-imu-01",
		DecoderWorkers:     4,
		QueueSize:          1000,
		SessionIdleTimeout: 15 * time.Second,
	}
}

// Batch is one decoded MQTT payload: a slice of raw samples for one
// placement of one session.
type Batch struct {
	SessionID string             `json:"session_id"`
	Placement gaitcore.Placement `json:"placement"`
	Rate      float64            `json:"rate"`
	Samples   []gaitcore.Sample  `json:"-"`
	End       bool               `json:"end"`
	Received  time.Time          `json:"-"`
}

// Statistics tracks collector performance metrics
type Statistics struct {
	mu                sync.RWMutex
	BatchesReceived   int64
	DecodeSuccesses   int64
	DecodeFailures    int64
	SamplesReceived   int64
	SessionsCompleted int64
	PlacementCounts   map[gaitcore.Placement]int64
	LastUpdate        time.Time
	StartTime         time.Time
}

func NewStatistics() *Statistics {
	return &Statistics{
		PlacementCounts: make(map[gaitcore.Placement]int64),
		StartTime:       time.Now(),
		LastUpdate:      time.Now(),
	}
}

func (s *Statistics) RecordBatch(placement gaitcore.Placement, samples int, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BatchesReceived++
	if success {
		s.DecodeSuccesses++
		s.SamplesReceived += int64(samples)
		s.PlacementCounts[placement]++
	} else {
		s.DecodeFailures++
	}
	s.LastUpdate = time.Now()
}

func (s *Statistics) RecordSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SessionsCompleted++
	s.LastUpdate = time.Now()
}

func (s *Statistics) GetSnapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	successRate := 0.0
	if s.BatchesReceived > 0 {
		successRate = float64(s.DecodeSuccesses) / float64(s.BatchesReceived) * 100.0
	}

	uptime := time.Since(s.StartTime)
	batchPerSec := 0.0
	if uptime.Seconds() > 0 {
		batchPerSec = float64(s.BatchesReceived) / uptime.Seconds()
	}

	placements := make(map[string]int64, len(s.PlacementCounts))
	for p, n := range s.PlacementCounts {
		placements[string(p)] = n
	}

	return map[string]interface{}{
		"batches_received":   s.BatchesReceived,
		"batches_per_sec":    batchPerSec,
		"success_rate":       successRate,
		"samples_received":   s.SamplesReceived,
		"sessions_completed": s.SessionsCompleted,
		"placement_counts":   placements,
		"uptime_sec":         uptime.Seconds(),
		"last_update":        s.LastUpdate,
	}
}
