package gaitcore

import (
	"math"
	"testing"
)

func TestFiltFiltPreservesConstant(t *testing.T) {
	signal := make([]float64, 500)
	for i := range signal {
		signal[i] = 9.81
	}

	out := filtFilt(4, 6.0, 125.0, signal)
	for i, v := range out {
		if math.Abs(v-9.81) > 1e-6 {
			t.Fatalf("sample %d = %v, want 9.81", i, v)
		}
	}
}

func TestFiltFiltPassesLowFrequency(t *testing.T) {
	rate := 125.0
	signal := make([]float64, 1000)
	for i := range signal {
		tt := float64(i) / rate
		signal[i] = math.Sin(2 * math.Pi * 1.0 * tt)
	}

	out := filtFilt(4, 6.0, rate, signal)

	// A 1 Hz tone under a 6 Hz cutoff should come through nearly
	// untouched, with no phase shift. Compare away from the edges.
	for i := 100; i < 900; i++ {
		if math.Abs(out[i]-signal[i]) > 0.02 {
			t.Fatalf("sample %d: out %v vs in %v", i, out[i], signal[i])
		}
	}
}

func TestFiltFiltAttenuatesHighFrequency(t *testing.T) {
	rate := 125.0
	signal := make([]float64, 1000)
	for i := range signal {
		tt := float64(i) / rate
		signal[i] = math.Sin(2 * math.Pi * 40.0 * tt)
	}

	out := filtFilt(4, 6.0, rate, signal)

	var maxAbs float64
	for _, v := range out[100:900] {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > 0.01 {
		t.Errorf("40 Hz tone survived 6 Hz cutoff: max %v", maxAbs)
	}
}

func TestFiltFiltShortSignals(t *testing.T) {
	if out := filtFilt(4, 6.0, 125.0, nil); out != nil {
		t.Errorf("empty signal should stay empty, got %v", out)
	}
	out := filtFilt(4, 6.0, 125.0, []float64{3.5})
	if len(out) != 1 || out[0] != 3.5 {
		t.Errorf("single sample = %v, want [3.5]", out)
	}

	// Shorter than the reflection pad: must still return same length.
	short := []float64{1, 2, 3, 4, 5}
	if out := filtFilt(4, 6.0, 125.0, short); len(out) != len(short) {
		t.Errorf("length = %d, want %d", len(out), len(short))
	}
}

func TestCutoffClampNearNyquist(t *testing.T) {
	// Jumping cutoff (35 Hz) at a 60 Hz rate would normalize above 1.
	signal := sineWindow(2, 2.0, 1.0, 0)
	out := filtFilt(4, 35.0, 60.0, signal)
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is %v", i, v)
		}
	}
}

func TestFilterWindowLabel(t *testing.T) {
	af := NewAdaptiveFilter(DefaultConfig())

	n := 500
	s := constantStream(n, 125, [3]float64{0, 0, 9.81}, [3]float64{})
	walk := sineWindow(4, 1.5, 0.5, 9.81)
	copy(s.AccZ, walk)

	filtered, activity := af.FilterWindow(s)
	if activity != ActivityWalking {
		t.Fatalf("activity = %s, want walking", activity)
	}
	if filtered.Len() != n {
		t.Errorf("filtered length = %d, want %d", filtered.Len(), n)
	}
	// Input untouched.
	if s.AccZ[10] != walk[10] {
		t.Errorf("FilterWindow mutated its input")
	}
}

func TestFilterStreamSegments(t *testing.T) {
	cfg := DefaultConfig()
	af := NewAdaptiveFilter(cfg)

	// 10 s at 125 Hz: 2 s windows, 50% overlap -> starts every 125
	// samples, last start at 1000.
	n := 1250
	s := constantStream(n, 125, [3]float64{0, 0, 9.81}, [3]float64{})
	for i := 0; i < n; i++ {
		tt := float64(i) / 125.0
		s.AccZ[i] = 9.81 + 0.5*math.Sin(2*math.Pi*1.5*tt)
	}

	filtered, segments := af.FilterStream(s)
	if filtered.Len() != n {
		t.Fatalf("filtered length = %d, want %d", filtered.Len(), n)
	}
	if len(segments) != 9 {
		t.Fatalf("segment count = %d, want 9", len(segments))
	}
	for i, seg := range segments {
		if seg.StartIdx != i*125 {
			t.Errorf("segment %d starts at %d, want %d", i, seg.StartIdx, i*125)
		}
		if seg.EndIdx != seg.StartIdx+250 {
			t.Errorf("segment %d ends at %d, want %d", i, seg.EndIdx, seg.StartIdx+250)
		}
		if seg.Activity != ActivityWalking {
			t.Errorf("segment %d activity = %s, want walking", i, seg.Activity)
		}
	}
}

func TestFilterStreamShortInput(t *testing.T) {
	af := NewAdaptiveFilter(DefaultConfig())

	// Shorter than one window: single whole-stream segment.
	s := constantStream(100, 125, [3]float64{0, 0, 9.81}, [3]float64{})
	filtered, segments := af.FilterStream(s)
	if filtered.Len() != 100 {
		t.Fatalf("filtered length = %d, want 100", filtered.Len())
	}
	if len(segments) != 1 || segments[0].EndIdx != 100 {
		t.Fatalf("segments = %+v, want one covering the stream", segments)
	}
}

func TestFilterStreamContinuity(t *testing.T) {
	af := NewAdaptiveFilter(DefaultConfig())

	n := 1250
	s := constantStream(n, 125, [3]float64{0, 0, 9.81}, [3]float64{})
	for i := 0; i < n; i++ {
		tt := float64(i) / 125.0
		s.AccZ[i] = 9.81 + 0.5*math.Sin(2*math.Pi*1.5*tt)
	}

	filtered, _ := af.FilterStream(s)

	// Cross-fading must keep sample-to-sample jumps on the order of the
	// signal's own slope, never a splice discontinuity.
	maxStep := 0.5 * 2 * math.Pi * 1.5 / 125.0 * 3
	for i := 1; i < filtered.Len(); i++ {
		if d := math.Abs(filtered.AccZ[i] - filtered.AccZ[i-1]); d > maxStep {
			t.Fatalf("jump of %v at sample %d", d, i)
		}
	}
}
