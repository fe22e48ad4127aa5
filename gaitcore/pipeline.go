package gaitcore

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SessionInput is one recorded session handed to the processor. Thigh
// and shank streams are mandatory and must be sample-aligned; foot and
// trunk streams are optional extras.
type SessionInput struct {
	SessionID string
	StartTime time.Time
	Streams   map[Placement]*Stream

	// Calibration, keyed by placement. Placements without an entry are
	// processed uncalibrated.
	Calibration map[Placement]CalibrationParams

	// GyroUnit overrides the magnitude heuristic. Leave as UnitAuto
	// unless the recording device's unit is known.
	GyroUnit GyroUnit
}

// SessionResult carries everything one session run produces.
type SessionResult struct {
	Summary  SessionSummary
	Steps    []StepMetrics
	Events   []StepEvent
	Segments []ActivitySegment
}

// Processor runs the full per-session chain: calibration, segmented
// adaptive filtering, orientation estimation, gait event detection,
// step metrics and the session summary.
type Processor struct {
	cfg        Config
	calibrator *Calibrator
	filter     *AdaptiveFilter
	detector   *GaitEventDetector
	stepCalc   *StepMetricsCalculator
	summarizer *SessionSummarizer
}

func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		cfg:        cfg,
		calibrator: NewCalibrator(cfg),
		filter:     NewAdaptiveFilter(cfg),
		detector:   NewGaitEventDetector(cfg),
		stepCalc:   NewStepMetricsCalculator(cfg),
		summarizer: NewSessionSummarizer(cfg),
	}, nil
}

// ProcessSession runs the chain on one session. A missing or misaligned
// mandatory stream fails fast; downstream degradation (too few steps,
// bad aggregates) is reported through the summary status instead.
func (p *Processor) ProcessSession(ctx context.Context, in SessionInput) (*SessionResult, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	start := in.StartTime
	if start.IsZero() {
		start = time.Now().UTC()
	}

	thigh, ok := in.Streams[PlacementThigh]
	if !ok || thigh.Len() == 0 {
		return nil, fmt.Errorf("%w: session %s has no thigh stream", ErrPrecondition, sessionID)
	}
	shank, ok := in.Streams[PlacementShank]
	if !ok || shank.Len() == 0 {
		return nil, fmt.Errorf("%w: session %s has no shank stream", ErrPrecondition, sessionID)
	}
	if thigh.Len() != shank.Len() {
		return nil, fmt.Errorf("%w: thigh %d samples, shank %d", ErrShapeMismatch, thigh.Len(), shank.Len())
	}

	log.Printf("[pipeline] session %s: %d samples @ %.0f Hz", sessionID, shank.Len(), shank.Rate)

	// Calibrate and filter every placement. The shank's activity
	// segmentation labels the whole session.
	filtered := make(map[Placement]*Stream, len(in.Streams))
	var segments []ActivitySegment
	for placement, stream := range in.Streams {
		s := stream
		if params, ok := in.Calibration[placement]; ok {
			s = p.calibrator.Apply(s, params)
		}
		f, segs := p.filter.FilterStream(s)
		filtered[placement] = f
		if placement == PlacementShank {
			segments = segs
		}
	}

	eulers := p.estimateOrientations(ctx, filtered, in.GyroUnit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events := p.detector.Detect(filtered[PlacementShank])
	log.Printf("[pipeline] session %s: %d steps across %d activity segments", sessionID, len(events), len(segments))

	orient := SegmentOrientations{
		Thigh: eulers[PlacementThigh],
		Shank: eulers[PlacementShank],
		Foot:  eulers[PlacementFoot],
		Trunk: eulers[PlacementTrunk],
	}
	steps := p.stepCalc.Calculate(events, orient, segments, start)
	summary := p.summarizer.Summarize(sessionID, steps, eulers[PlacementShank])

	return &SessionResult{
		Summary:  summary,
		Steps:    steps,
		Events:   events,
		Segments: segments,
	}, nil
}

// estimateOrientations runs one Madgwick pass per placement
// concurrently. Each placement is independent so the group never
// returns an error; the context is only checked between placements.
func (p *Processor) estimateOrientations(ctx context.Context, streams map[Placement]*Stream, unit GyroUnit) map[Placement]*EulerStream {
	out := make(map[Placement]*EulerStream, len(streams))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for placement, stream := range streams {
		placement, stream := placement, stream
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			es := EstimateOrientation(stream, p.cfg.MadgwickBeta, unit)
			mu.Lock()
			out[placement] = es
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
