package gaitcore

import (
	"math"
	"strings"
	"testing"
)

func uniformMetrics(n int, stepTime, stanceTime float64, rate float64) []StepMetrics {
	strideSamples := int(stepTime * rate)
	metrics := make([]StepMetrics, n)
	for i := range metrics {
		curve := make([]float64, 100)
		for j := range curve {
			curve[j] = 30.0
		}
		metrics[i] = StepMetrics{
			StepNumber:       i + 1,
			StepTime:         stepTime,
			StanceTime:       stanceTime,
			SwingTime:        stepTime - stanceTime,
			Cadence:          60.0 / stepTime,
			KneeFlexionMax:   30,
			KneeExtensionMin: 30,
			KneeCurve:        curve,
			HipAngle:         20,
			HSIdx:            i * strideSamples,
			NextHSIdx:        (i + 1) * strideSamples,
		}
	}
	return metrics
}

func TestSummarizeEmpty(t *testing.T) {
	ss := NewSessionSummarizer(DefaultConfig())

	summary := ss.Summarize("s1", nil, nil)
	if summary.Status != StatusFailed {
		t.Errorf("status = %s, want failed", summary.Status)
	}
	if !summary.IsProcessed {
		t.Errorf("empty session must still be marked processed")
	}
	if summary.FailureReason == "" {
		t.Errorf("failed summary must carry a reason")
	}
	if summary.StepCount != 0 || summary.GVI != 0 {
		t.Errorf("empty summary must keep zero aggregates, got %+v", summary)
	}
}

func TestSummarizeUniformWalk(t *testing.T) {
	cfg := DefaultConfig()
	ss := NewSessionSummarizer(cfg)

	metrics := uniformMetrics(4, 0.712, 0.424, cfg.SamplingRate)
	summary := ss.Summarize("s2", metrics, nil)

	if summary.Status != StatusCompleted {
		t.Fatalf("status = %s (%s), want completed", summary.Status, summary.FailureReason)
	}
	if summary.StepCount != 4 {
		t.Errorf("step count = %d, want 4", summary.StepCount)
	}

	// Duration from heel-strike indices: 4 strides of 89 samples.
	wantDuration := 4.0 * 89.0 / cfg.SamplingRate
	if math.Abs(summary.Duration-wantDuration) > 1e-9 {
		t.Errorf("duration = %v, want %v", summary.Duration, wantDuration)
	}

	wantCadence := 4.0 / wantDuration * 60.0
	if math.Abs(summary.Cadence-wantCadence) > 1e-9 {
		t.Errorf("cadence = %v, want %v", summary.Cadence, wantCadence)
	}

	if math.Abs(summary.AvgStepTime-0.712) > 1e-9 || summary.StdStepTime > 1e-9 {
		t.Errorf("step time stats = %v +- %v", summary.AvgStepTime, summary.StdStepTime)
	}

	wantRatio := 0.424 / (0.712 - 0.424)
	if math.Abs(summary.StanceSwingRatio-wantRatio) > 1e-9 {
		t.Errorf("stance/swing = %v, want %v", summary.StanceSwingRatio, wantRatio)
	}

	// Identical steps: every CV is zero, so the GVI reports zero.
	if summary.GVI != 0 {
		t.Errorf("GVI of identical steps = %v, want 0", summary.GVI)
	}

	// Knee stats pooled from the curves.
	if math.Abs(summary.KneeAngleMean-30.0) > 1e-9 || summary.KneeAmplitude != 0 {
		t.Errorf("knee stats = mean %v amplitude %v", summary.KneeAngleMean, summary.KneeAmplitude)
	}
	if math.Abs(summary.HipAngleMean-20.0) > 1e-9 {
		t.Errorf("hip mean = %v, want 20", summary.HipAngleMean)
	}
}

func TestSummarizeGVIExcludesZeroCVs(t *testing.T) {
	cfg := DefaultConfig()
	ss := NewSessionSummarizer(cfg)

	// Vary step time only: stance and swing CVs stay zero and must not
	// drag the GVI down.
	metrics := uniformMetrics(4, 0.7, 0.42, cfg.SamplingRate)
	for i := range metrics {
		metrics[i].StepTime = 0.7 + 0.05*float64(i%2)
		metrics[i].StanceTime = 0.42
		metrics[i].SwingTime = 0.28
	}

	summary := ss.Summarize("s3", metrics, nil)
	stepCV := coefficientOfVariation([]float64{0.7, 0.75, 0.7, 0.75})
	if math.Abs(summary.GVI-stepCV) > 1e-9 {
		t.Errorf("GVI = %v, want step-time CV %v", summary.GVI, stepCV)
	}
}

func TestSummarizeOrderInvariant(t *testing.T) {
	cfg := DefaultConfig()
	ss := NewSessionSummarizer(cfg)

	metrics := uniformMetrics(5, 0.7, 0.42, cfg.SamplingRate)
	for i := range metrics {
		metrics[i].StepTime = 0.6 + 0.05*float64(i)
	}

	a := ss.Summarize("s4", metrics, nil)

	reversed := make([]StepMetrics, len(metrics))
	for i := range metrics {
		reversed[i] = metrics[len(metrics)-1-i]
	}
	// Keep the index-derived duration identical.
	reversed[0].HSIdx = metrics[0].HSIdx
	reversed[len(reversed)-1].NextHSIdx = metrics[len(metrics)-1].NextHSIdx

	b := ss.Summarize("s4", reversed, nil)
	if math.Abs(a.GVI-b.GVI) > 1e-9 {
		t.Errorf("GVI depends on step order: %v vs %v", a.GVI, b.GVI)
	}
	if math.Abs(a.AvgStepTime-b.AvgStepTime) > 1e-9 {
		t.Errorf("avg step time depends on order: %v vs %v", a.AvgStepTime, b.AvgStepTime)
	}
}

func TestSummarizeNonFiniteDegrades(t *testing.T) {
	ss := NewSessionSummarizer(DefaultConfig())

	metrics := uniformMetrics(3, 0.7, 0.42, 125)
	metrics[1].StepTime = math.NaN()

	summary := ss.Summarize("s5", metrics, nil)
	if summary.Status != StatusStopped {
		t.Fatalf("status = %s, want stopped", summary.Status)
	}
	if !strings.Contains(summary.FailureReason, "non-finite") {
		t.Errorf("reason = %q, want non-finite aggregate", summary.FailureReason)
	}
	if !summary.IsProcessed {
		t.Errorf("stopped summary must still be marked processed")
	}
}

func TestSummarizeRawOrientation(t *testing.T) {
	ss := NewSessionSummarizer(DefaultConfig())

	metrics := uniformMetrics(2, 0.7, 0.42, 125)
	es := flatEuler(100, 1.5, -3.0, 10.0)

	summary := ss.Summarize("s6", metrics, es)
	if math.Abs(summary.AvgRoll-1.5) > 1e-9 || math.Abs(summary.AvgPitch+3.0) > 1e-9 {
		t.Errorf("avg orientation = %v / %v, want 1.5 / -3", summary.AvgRoll, summary.AvgPitch)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	if cv := coefficientOfVariation([]float64{2, 2, 2}); cv != 0 {
		t.Errorf("CV of constant = %v, want 0", cv)
	}
	if cv := coefficientOfVariation([]float64{0, 0}); cv != 0 {
		t.Errorf("CV with zero mean = %v, want 0", cv)
	}
	cv := coefficientOfVariation([]float64{1, 3})
	if math.Abs(cv-50.0) > 1e-9 {
		t.Errorf("CV of {1,3} = %v, want 50", cv)
	}
}
