package ingest

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gaitsense-pipeline/gaitcore"
)

// rawBatch is the wire shape. Samples arrive as fixed-order arrays
// [ax, ay, az, gx, gy, gz] to keep payloads compact.
type rawBatch struct {
	SessionID string      `json:"session_id"`
	Placement string      `json:"placement"`
	Rate      float64     `json:"rate"`
	Samples   [][]float64 `json:"samples"`
	End       bool        `json:"end"`
}

// Decoder turns MQTT payloads into batches.
type Decoder struct {
	defaultRate float64
}

func NewDecoder(defaultRate float64) *Decoder {
	return &Decoder{defaultRate: defaultRate}
}

// Decode parses one payload. Rows with fewer than six values are
// rejected rather than zero-padded; a truncated row means a corrupt
// batch.
func (d *Decoder) Decode(payload []byte) (*Batch, error) {
	var raw rawBatch
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("batch decode: %w", err)
	}
	if raw.SessionID == "" {
		return nil, fmt.Errorf("batch decode: missing session_id")
	}

	placement := gaitcore.Placement(raw.Placement)
	switch placement {
	case gaitcore.PlacementThigh, gaitcore.PlacementShank,
		gaitcore.PlacementFoot, gaitcore.PlacementTrunk:
	case "":
		if !raw.End {
			return nil, fmt.Errorf("batch decode: missing placement")
		}
	default:
		return nil, fmt.Errorf("batch decode: unknown placement %q", raw.Placement)
	}

	rate := raw.Rate
	if rate <= 0 {
		rate = d.defaultRate
	}

	samples := make([]gaitcore.Sample, 0, len(raw.Samples))
	for i, row := range raw.Samples {
		if len(row) < 6 {
			return nil, fmt.Errorf("batch decode: row %d has %d values", i, len(row))
		}
		samples = append(samples, gaitcore.Sample{
			AX: row[0], AY: row[1], AZ: row[2],
			GX: row[3], GY: row[4], GZ: row[5],
		})
	}

	return &Batch{
		SessionID: raw.SessionID,
		Placement: placement,
		Rate:      rate,
		Samples:   samples,
		End:       raw.End,
		Received:  time.Now(),
	}, nil
}

// pendingSession accumulates batches until the session ends.
type pendingSession struct {
	startTime time.Time
	lastSeen  time.Time
	rate      float64
	samples   map[gaitcore.Placement][]gaitcore.Sample
}

// SessionAssembler groups batches by session and emits a complete
// SessionInput when the end marker arrives or the session goes idle.
type SessionAssembler struct {
	mu       sync.Mutex
	pending  map[string]*pendingSession
	gyroUnit gaitcore.GyroUnit
}

func NewSessionAssembler(unit gaitcore.GyroUnit) *SessionAssembler {
	return &SessionAssembler{
		pending:  make(map[string]*pendingSession),
		gyroUnit: unit,
	}
}

// Add folds one batch in. The returned input is non-nil only when the
// batch carried the end marker and the session has samples.
func (a *SessionAssembler) Add(b *Batch) *gaitcore.SessionInput {
	a.mu.Lock()
	defer a.mu.Unlock()

	ps, ok := a.pending[b.SessionID]
	if !ok {
		ps = &pendingSession{
			startTime: b.Received,
			rate:      b.Rate,
			samples:   make(map[gaitcore.Placement][]gaitcore.Sample),
		}
		a.pending[b.SessionID] = ps
	}
	ps.lastSeen = b.Received
	if b.Placement != "" {
		ps.samples[b.Placement] = append(ps.samples[b.Placement], b.Samples...)
	}

	if !b.End {
		return nil
	}
	delete(a.pending, b.SessionID)
	return a.build(b.SessionID, ps)
}

// FlushIdle closes sessions that have been silent longer than the
// timeout. Ended-by-timeout sessions are processed with whatever
// arrived.
func (a *SessionAssembler) FlushIdle(timeout time.Duration) []*gaitcore.SessionInput {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-timeout)
	var out []*gaitcore.SessionInput
	for id, ps := range a.pending {
		if ps.lastSeen.After(cutoff) {
			continue
		}
		delete(a.pending, id)
		if in := a.build(id, ps); in != nil {
			out = append(out, in)
		}
	}
	return out
}

// Pending returns the number of sessions still accumulating.
func (a *SessionAssembler) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func (a *SessionAssembler) build(id string, ps *pendingSession) *gaitcore.SessionInput {
	streams := make(map[gaitcore.Placement]*gaitcore.Stream, len(ps.samples))
	for placement, samples := range ps.samples {
		if len(samples) == 0 {
			continue
		}
		streams[placement] = gaitcore.NewStream(samples, ps.rate)
	}
	if len(streams) == 0 {
		return nil
	}
	return &gaitcore.SessionInput{
		SessionID: id,
		StartTime: ps.startTime,
		Streams:   streams,
		GyroUnit:  a.gyroUnit,
	}
}
