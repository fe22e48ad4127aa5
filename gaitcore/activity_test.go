package gaitcore

import (
	"math"
	"testing"
)

// sineWindow builds seconds of A*sin(2*pi*f*t) around an offset at the
// default 125 Hz.
func sineWindow(seconds, freq, amplitude, offset float64) []float64 {
	rate := 125.0
	n := int(seconds * rate)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / rate
		out[i] = offset + amplitude*math.Sin(2*math.Pi*freq*t)
	}
	return out
}

func TestClassifyStanding(t *testing.T) {
	ac := NewActivityClassifier(DefaultConfig())

	window := sineWindow(2, 1.0, 0.05, 9.81)
	activity, features := ac.Classify(window)
	if activity != ActivityStanding {
		t.Errorf("got %s (features %+v), want standing", activity, features)
	}
}

func TestClassifyWalking(t *testing.T) {
	ac := NewActivityClassifier(DefaultConfig())

	// 1.5 Hz stride at moderate amplitude: std ~0.35, smooth signal.
	window := sineWindow(4, 1.5, 0.5, 9.81)
	activity, features := ac.Classify(window)
	if activity != ActivityWalking {
		t.Errorf("got %s (features %+v), want walking", activity, features)
	}
	if features.DominantFreq < 1.2 || features.DominantFreq > 1.8 {
		t.Errorf("dominant freq = %v, want ~1.5", features.DominantFreq)
	}
}

func TestClassifyRunning(t *testing.T) {
	ac := NewActivityClassifier(DefaultConfig())

	// High amplitude, 3 Hz cadence.
	window := sineWindow(4, 3.0, 1.5, 9.81)
	activity, features := ac.Classify(window)
	if activity != ActivityRunning {
		t.Errorf("got %s (features %+v), want running", activity, features)
	}
}

func TestClassifyJumping(t *testing.T) {
	ac := NewActivityClassifier(DefaultConfig())

	// Moderate base movement plus landing spikes well above the impact
	// threshold.
	window := sineWindow(2, 1.0, 0.5, 9.81)
	window[60] += 6.0
	window[180] += 6.0

	activity, features := ac.Classify(window)
	if activity != ActivityJumping {
		t.Errorf("got %s (features %+v), want jumping", activity, features)
	}
}

func TestClassifyUnknown(t *testing.T) {
	ac := NewActivityClassifier(DefaultConfig())

	// Too much energy for walking, too slow for running.
	window := sineWindow(4, 0.3, 2.0, 9.81)
	activity, _ := ac.Classify(window)
	if activity != ActivityUnknown {
		t.Errorf("got %s, want unknown", activity)
	}
}

func TestDominantFrequencyFewPeaks(t *testing.T) {
	ac := NewActivityClassifier(DefaultConfig())

	// A monotone ramp has no interior peaks at all.
	window := make([]float64, 250)
	for i := range window {
		window[i] = float64(i) * 0.01
	}
	if f := ac.dominantFrequency(window); f != 0 {
		t.Errorf("dominant frequency of ramp = %v, want 0", f)
	}
}

func TestRoughnessScaleInvariant(t *testing.T) {
	a := sineWindow(2, 2.0, 0.5, 0)
	b := sineWindow(2, 2.0, 5.0, 0)

	ra, rb := roughness(a), roughness(b)
	if math.Abs(ra-rb) > 0.01 {
		t.Errorf("roughness should not depend on amplitude: %v vs %v", ra, rb)
	}
}

func TestMedian(t *testing.T) {
	if m := median([]float64{3, 1, 2}); m != 2 {
		t.Errorf("median odd = %v, want 2", m)
	}
	if m := median([]float64{4, 1, 2, 3}); m != 2.5 {
		t.Errorf("median even = %v, want 2.5", m)
	}
	if m := median(nil); m != 0 {
		t.Errorf("median empty = %v, want 0", m)
	}
}
