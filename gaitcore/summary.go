package gaitcore

import (
	"fmt"
	"math"
	"time"
)

// SessionSummarizer aggregates per-step metrics into one session-level
// record. It never fails outward: an empty input produces a failed
// summary, an internal aggregation problem produces a stopped summary
// with the reason recorded, and the caller decides from Status whether
// to trust the numeric payload.
type SessionSummarizer struct {
	cfg Config
}

func NewSessionSummarizer(cfg Config) *SessionSummarizer {
	return &SessionSummarizer{cfg: cfg}
}

// Summarize builds the session summary. rawOrientation may be nil; when
// present its full-session shank angles feed the global averages.
func (ss *SessionSummarizer) Summarize(
	sessionID string,
	metrics []StepMetrics,
	rawOrientation *EulerStream,
) (summary SessionSummary) {
	summary = SessionSummary{
		SessionID:   sessionID,
		SessionDate: time.Now().UTC(),
		Status:      StatusCompleted,
		IsProcessed: true,
	}

	if len(metrics) == 0 {
		summary.Status = StatusFailed
		summary.FailureReason = "no step metrics to aggregate"
		return summary
	}

	// Aggregation must never take the caller down; a panic degrades the
	// summary to stopped with the cause recorded.
	defer func() {
		if r := recover(); r != nil {
			summary.Status = StatusStopped
			summary.FailureReason = fmt.Sprintf("aggregation aborted: %v", r)
			summary.IsProcessed = true
		}
	}()

	summary.StepCount = len(metrics)

	stepTimes := extract(metrics, func(m StepMetrics) float64 { return m.StepTime })
	stanceTimes := extract(metrics, func(m StepMetrics) float64 { return m.StanceTime })
	swingTimes := extract(metrics, func(m StepMetrics) float64 { return m.SwingTime })
	cadences := extract(metrics, func(m StepMetrics) float64 { return m.Cadence })
	kneeROMs := extract(metrics, func(m StepMetrics) float64 { return m.KneeROM })
	flexMaxs := extract(metrics, func(m StepMetrics) float64 { return m.KneeFlexionMax })
	extMins := extract(metrics, func(m StepMetrics) float64 { return m.KneeExtensionMin })
	hipAngles := extract(metrics, func(m StepMetrics) float64 { return m.HipAngle })

	summary.Duration = ss.sessionDuration(metrics, stepTimes)
	if summary.Duration > 0 {
		summary.Cadence = float64(summary.StepCount) / summary.Duration * 60.0
	}

	summary.AvgStepTime = mean(stepTimes)
	summary.StdStepTime = std(stepTimes)
	summary.AvgStanceTime = mean(stanceTimes)
	summary.StdStanceTime = std(stanceTimes)
	summary.AvgSwingTime = mean(swingTimes)
	summary.StdSwingTime = std(swingTimes)
	if summary.AvgSwingTime > 0 {
		summary.StanceSwingRatio = summary.AvgStanceTime / summary.AvgSwingTime
	}
	summary.AvgCadencePerStep = mean(cadences)

	summary.AvgKneeROM = mean(kneeROMs)
	ss.kneeStatistics(&summary, metrics, kneeROMs, flexMaxs, extMins)

	if len(hipAngles) > 0 {
		summary.HipAngleMean = mean(hipAngles)
		summary.HipAngleStd = std(hipAngles)
		summary.HipAngleMin, summary.HipAngleMax = minMax(hipAngles)
		summary.HipAmplitude = summary.HipAngleMax - summary.HipAngleMin
		summary.CVHipAngle = coefficientOfVariation(hipAngles)
	}

	summary.CVStepTime = coefficientOfVariation(stepTimes)
	summary.CVStanceTime = coefficientOfVariation(stanceTimes)
	summary.CVKneeAngle = coefficientOfVariation(kneeROMs)

	summary.GVI = gaitVariabilityIndex(
		summary.CVStepTime,
		summary.CVStanceTime,
		coefficientOfVariation(swingTimes),
	)

	if rawOrientation != nil && rawOrientation.Len() > 0 {
		summary.AvgRoll = mean(rawOrientation.Roll)
		summary.AvgPitch = mean(rawOrientation.Pitch)
		summary.AvgYaw = mean(rawOrientation.Yaw)
	}

	if reason, bad := firstNonFinite(&summary); bad {
		summary.Status = StatusStopped
		summary.FailureReason = reason
	}
	return summary
}

// sessionDuration derives duration from heel-strike indices when they
// are available, otherwise from the sum of step times.
func (ss *SessionSummarizer) sessionDuration(metrics []StepMetrics, stepTimes []float64) float64 {
	first := metrics[0].HSIdx
	last := metrics[len(metrics)-1].NextHSIdx
	if last > first && ss.cfg.SamplingRate > 0 {
		return float64(last-first) / ss.cfg.SamplingRate
	}
	var sum float64
	for _, t := range stepTimes {
		sum += t
	}
	return sum
}

// kneeStatistics prefers the pooled 100-point curves; when no step
// carries a curve it falls back to per-step extremes.
func (ss *SessionSummarizer) kneeStatistics(
	summary *SessionSummary,
	metrics []StepMetrics,
	kneeROMs, flexMaxs, extMins []float64,
) {
	var pooled []float64
	for _, m := range metrics {
		pooled = append(pooled, m.KneeCurve...)
	}

	if len(pooled) > 0 {
		summary.KneeAngleMean = mean(pooled)
		summary.KneeAngleStd = std(pooled)
		summary.KneeAngleMin, summary.KneeAngleMax = minMax(pooled)
	} else if len(flexMaxs) > 0 {
		_, summary.KneeAngleMax = minMax(flexMaxs)
		summary.KneeAngleMin, _ = minMax(extMins)
		summary.KneeAngleMean = mean(kneeROMs)
		summary.KneeAngleStd = std(kneeROMs)
	}
	summary.KneeAmplitude = summary.KneeAngleMax - summary.KneeAngleMin
}

// gaitVariabilityIndex averages the non-zero CVs among step, stance and
// swing time. A CV of exactly 0 means "not computed" and is excluded;
// all-excluded yields 0.
func gaitVariabilityIndex(cvs ...float64) float64 {
	var sum float64
	var n int
	for _, cv := range cvs {
		if cv > 0 {
			sum += cv
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func extract(metrics []StepMetrics, f func(StepMetrics) float64) []float64 {
	out := make([]float64, len(metrics))
	for i, m := range metrics {
		out[i] = f(m)
	}
	return out
}

// firstNonFinite scans the headline aggregates for NaN/Inf so a bad
// input degrades with a named field instead of silently poisoning the
// record.
func firstNonFinite(s *SessionSummary) (string, bool) {
	checks := []struct {
		name  string
		value float64
	}{
		{"duration", s.Duration},
		{"cadence", s.Cadence},
		{"avg_step_time", s.AvgStepTime},
		{"avg_stance_time", s.AvgStanceTime},
		{"avg_swing_time", s.AvgSwingTime},
		{"knee_angle_mean", s.KneeAngleMean},
		{"gvi", s.GVI},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Sprintf("non-finite aggregate: %s", c.name), true
		}
	}
	return "", false
}
