package gaitcore

import "time"

// SegmentOrientations collects the per-segment Euler streams a step
// metrics pass needs. Thigh and shank are mandatory; foot and trunk are
// optional extra sensors.
type SegmentOrientations struct {
	Thigh *EulerStream
	Shank *EulerStream
	Foot  *EulerStream
	Trunk *EulerStream
}

// StepMetricsCalculator turns step events plus orientation streams into
// one immutable metrics record per step.
type StepMetricsCalculator struct {
	cfg Config
}

func NewStepMetricsCalculator(cfg Config) *StepMetricsCalculator {
	return &StepMetricsCalculator{cfg: cfg}
}

// Calculate produces a StepMetrics record for every event. Steps
// alternate sides starting from the configured dominant side. The
// activity label comes from whichever segment's time range contains the
// step's heel-strike timestamp; no match leaves it empty.
func (sc *StepMetricsCalculator) Calculate(
	events []StepEvent,
	orient SegmentOrientations,
	segments []ActivitySegment,
	sessionStart time.Time,
) []StepMetrics {
	metrics := make([]StepMetrics, 0, len(events))
	for i, ev := range events {
		stepNumber := i + 1
		metrics = append(metrics, sc.calculateStep(ev, stepNumber, orient, segments, sessionStart))
	}
	return metrics
}

func (sc *StepMetricsCalculator) calculateStep(
	ev StepEvent,
	stepNumber int,
	orient SegmentOrientations,
	segments []ActivitySegment,
	sessionStart time.Time,
) StepMetrics {
	rate := sc.cfg.SamplingRate
	stepTime := float64(ev.NextHS-ev.HS) / rate
	stanceTime := float64(ev.TO-ev.HS) / rate
	swingTime := float64(ev.NextHS-ev.TO) / rate

	var cadence float64
	if stepTime > 0 {
		cadence = 60.0 / stepTime
	}

	thighPitch := sliceAngles(orient.Thigh.Pitch, ev.HS, ev.NextHS)
	shankPitch := sliceAngles(orient.Shank.Pitch, ev.HS, ev.NextHS)

	kneeAngles := make([]float64, len(shankPitch))
	for i := range kneeAngles {
		kneeAngles[i] = thighPitch[i] - shankPitch[i]
	}
	hipAngles := thighPitch

	// The foot stream may run shorter than the shank stream when the
	// foot sensor drops batches; samples past its end stay zero.
	ankleAngles := make([]float64, len(shankPitch))
	if orient.Foot != nil {
		footPitch := sliceAngles(orient.Foot.Pitch, ev.HS, ev.NextHS)
		for i := 0; i < len(ankleAngles) && i < len(footPitch); i++ {
			ankleAngles[i] = shankPitch[i] - footPitch[i]
		}
	}

	// Flexion max over swing, extension min over stance: the split, not
	// whole-step extremes, is the clinically meaningful ROM definition.
	stanceEnd := ev.TO - ev.HS
	flexMax := phaseMax(kneeAngles, stanceEnd, len(kneeAngles))
	extMin := phaseMin(kneeAngles, 0, stanceEnd)

	var trunkLean float64
	if orient.Trunk != nil && ev.HS < orient.Trunk.Len() {
		trunkLean = orient.Trunk.Pitch[ev.HS]
	}

	return StepMetrics{
		Timestamp:  sessionStart.Add(time.Duration(ev.TimestampHS * float64(time.Second))),
		StepNumber: stepNumber,
		Side:       sc.stepSide(stepNumber),

		Roll:  mean(sliceAngles(orient.Shank.Roll, ev.HS, ev.NextHS)),
		Pitch: mean(shankPitch),
		Yaw:   mean(sliceAngles(orient.Shank.Yaw, ev.HS, ev.NextHS)),

		KneeAngle:  mean(kneeAngles),
		HipAngle:   mean(hipAngles),
		AnkleAngle: mean(ankleAngles),

		StanceTime: stanceTime,
		SwingTime:  swingTime,
		StepTime:   stepTime,
		Cadence:    cadence,

		KneeFlexionMax:   flexMax,
		KneeExtensionMin: extMin,
		KneeROM:          flexMax - extMin,
		TrunkLeanAtHS:    trunkLean,

		KneeCurve: resampleLinear(kneeAngles, sc.cfg.CurvePoints),

		Activity: activityForTimestamp(ev.TimestampHS, segments),

		HSIdx:     ev.HS,
		NextHSIdx: ev.NextHS,
	}
}

// stepSide alternates legs, odd steps on the dominant side.
func (sc *StepMetricsCalculator) stepSide(stepNumber int) Side {
	if stepNumber%2 == 1 {
		return sc.cfg.DominantSide
	}
	if sc.cfg.DominantSide == SideRight {
		return SideLeft
	}
	return SideRight
}

// phaseMax takes the maximum over [from,to); an empty phase falls back
// to the whole step.
func phaseMax(angles []float64, from, to int) float64 {
	sub := clampSlice(angles, from, to)
	if len(sub) == 0 {
		sub = angles
	}
	if len(sub) == 0 {
		return 0
	}
	_, max := minMax(sub)
	return max
}

// phaseMin mirrors phaseMax for the minimum.
func phaseMin(angles []float64, from, to int) float64 {
	sub := clampSlice(angles, from, to)
	if len(sub) == 0 {
		sub = angles
	}
	if len(sub) == 0 {
		return 0
	}
	min, _ := minMax(sub)
	return min
}

func clampSlice(xs []float64, from, to int) []float64 {
	if from < 0 {
		from = 0
	}
	if to > len(xs) {
		to = len(xs)
	}
	if from >= to {
		return nil
	}
	return xs[from:to]
}

// sliceAngles clamps [from,to) against the stream length so a detector
// index just past the orientation buffer cannot panic.
func sliceAngles(angles []float64, from, to int) []float64 {
	return clampSlice(angles, from, to)
}

func activityForTimestamp(ts float64, segments []ActivitySegment) ActivityType {
	for _, seg := range segments {
		if seg.StartTime <= ts && ts <= seg.EndTime {
			return seg.Activity
		}
	}
	return ""
}
