package gaitcore

import (
	"errors"
	"math"
	"testing"
)

func constantStream(n int, rate float64, acc, gyro [3]float64) *Stream {
	s := &Stream{
		AccX:  make([]float64, n),
		AccY:  make([]float64, n),
		AccZ:  make([]float64, n),
		GyroX: make([]float64, n),
		GyroY: make([]float64, n),
		GyroZ: make([]float64, n),
		Rate:  rate,
	}
	for i := 0; i < n; i++ {
		s.AccX[i], s.AccY[i], s.AccZ[i] = acc[0], acc[1], acc[2]
		s.GyroX[i], s.GyroY[i], s.GyroZ[i] = gyro[0], gyro[1], gyro[2]
	}
	return s
}

func TestCalibrateStatic(t *testing.T) {
	cfg := DefaultConfig()
	c := NewCalibrator(cfg)

	// Device at rest with small biases on every axis.
	s := constantStream(1000, 125, [3]float64{0.1, -0.05, 9.91}, [3]float64{0.01, 0.02, -0.01})

	params, err := c.CalibrateStatic(s, 5.0)
	if err != nil {
		t.Fatalf("CalibrateStatic failed: %v", err)
	}

	if math.Abs(params.AccBias[0]-0.1) > 1e-9 {
		t.Errorf("AccBias X = %v, want 0.1", params.AccBias[0])
	}
	if math.Abs(params.AccBias[2]-0.1) > 1e-9 {
		t.Errorf("AccBias Z = %v, want 0.1 (gravity removed)", params.AccBias[2])
	}
	if math.Abs(params.GyroBias[1]-0.02) > 1e-9 {
		t.Errorf("GyroBias Y = %v, want 0.02", params.GyroBias[1])
	}
	for axis := 0; axis < 3; axis++ {
		if params.AccScale[axis] != 1 || params.GyroScale[axis] != 1 {
			t.Errorf("static calibration must not touch scale, got %v / %v",
				params.AccScale, params.GyroScale)
		}
	}

	// Applying the calibration to the same static stream must leave
	// gravity on Z and zeros elsewhere.
	corrected := c.Apply(s, params)
	if math.Abs(mean(corrected.AccZ)-cfg.Gravity) > 1e-9 {
		t.Errorf("corrected AccZ mean = %v, want %v", mean(corrected.AccZ), cfg.Gravity)
	}
	if math.Abs(mean(corrected.AccX)) > 1e-9 {
		t.Errorf("corrected AccX mean = %v, want 0", mean(corrected.AccX))
	}
	if math.Abs(mean(corrected.GyroX)) > 1e-9 {
		t.Errorf("corrected GyroX mean = %v, want 0", mean(corrected.GyroX))
	}
}

func TestCalibrateStaticInsufficientData(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	s := constantStream(100, 125, [3]float64{0, 0, 9.81}, [3]float64{})

	// 5 seconds at 125 Hz needs 625 samples.
	_, err := c.CalibrateStatic(s, 5.0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCalibrateSixPoint(t *testing.T) {
	cfg := DefaultConfig()
	c := NewCalibrator(cfg)

	g := cfg.Gravity
	bias := [3]float64{0.1, -0.2, 0.05}
	scale := [3]float64{1.02, 0.98, 1.01}

	// Six equal poses: +X, -X, +Y, -Y, +Z, -Z up, 100 samples each.
	n := 600
	s := constantStream(n, 125, [3]float64{}, [3]float64{})
	for i := 0; i < n; i++ {
		seg := i / 100
		axis := seg / 2
		sign := 1.0
		if seg%2 == 1 {
			sign = -1.0
		}
		acc := [3]float64{}
		acc[axis] = sign*g*scale[axis] + bias[axis]
		s.AccX[i], s.AccY[i], s.AccZ[i] = acc[0], acc[1], acc[2]
	}

	params, err := c.CalibrateSixPoint(s)
	if err != nil {
		t.Fatalf("CalibrateSixPoint failed: %v", err)
	}

	for axis := 0; axis < 3; axis++ {
		if math.Abs(params.AccBias[axis]-bias[axis]) > 1e-9 {
			t.Errorf("axis %d bias = %v, want %v", axis, params.AccBias[axis], bias[axis])
		}
		if math.Abs(params.AccScale[axis]-scale[axis]) > 1e-9 {
			t.Errorf("axis %d scale = %v, want %v", axis, params.AccScale[axis], scale[axis])
		}
	}
}

func TestCalibrateSixPointTooShort(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	s := constantStream(5, 125, [3]float64{}, [3]float64{})
	if _, err := c.CalibrateSixPoint(s); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	c := NewCalibrator(DefaultConfig())

	static := CalibrationParams{
		AccBias:   [3]float64{0.1, 0.2, 0.3},
		AccScale:  [3]float64{1, 1, 1},
		GyroScale: [3]float64{1, 1, 1},
	}
	six := CalibrationParams{
		AccBias:   [3]float64{0.5, 0.5, 0.5},
		AccScale:  [3]float64{1.02, 0.98, 1.01},
		GyroScale: [3]float64{1, 1, 1},
	}

	merged := c.Merge(static, &six)
	if merged.AccBias != static.AccBias {
		t.Errorf("merged bias = %v, want static bias %v", merged.AccBias, static.AccBias)
	}
	if merged.AccScale != six.AccScale {
		t.Errorf("merged scale = %v, want six-point scale %v", merged.AccScale, six.AccScale)
	}

	if got := c.Merge(static, nil); got != static {
		t.Errorf("nil six-point must return static unchanged")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	s := constantStream(10, 125, [3]float64{1, 2, 3}, [3]float64{4, 5, 6})

	params := CalibrationParams{
		AccBias:   [3]float64{1, 1, 1},
		AccScale:  [3]float64{2, 2, 2},
		GyroScale: [3]float64{1, 1, 1},
	}
	out := c.Apply(s, params)

	if s.AccX[0] != 1 {
		t.Errorf("input mutated: AccX[0] = %v", s.AccX[0])
	}
	if out.AccX[0] != 0 {
		t.Errorf("corrected AccX[0] = %v, want (1-1)/2 = 0", out.AccX[0])
	}
	if out.AccZ[0] != 1 {
		t.Errorf("corrected AccZ[0] = %v, want (3-1)/2 = 1", out.AccZ[0])
	}
}

func TestApplyZeroScaleGuard(t *testing.T) {
	c := NewCalibrator(DefaultConfig())
	s := constantStream(4, 125, [3]float64{2, 0, 0}, [3]float64{})

	// A zero scale must act as 1, never divide by zero.
	out := c.Apply(s, CalibrationParams{})
	if math.IsInf(out.AccX[0], 0) || math.IsNaN(out.AccX[0]) {
		t.Fatalf("zero scale produced %v", out.AccX[0])
	}
	if out.AccX[0] != 2 {
		t.Errorf("AccX[0] = %v, want 2", out.AccX[0])
	}
}
