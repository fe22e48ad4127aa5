package gaitcore

import "fmt"

// Calibrator turns raw IMU streams into bias/scale-corrected streams.
// Static calibration happens before every session with the device at
// rest; the six-point procedure is done once per device and the two are
// merged into the effective calibration.
type Calibrator struct {
	cfg Config
}

func NewCalibrator(cfg Config) *Calibrator {
	return &Calibrator{cfg: cfg}
}

// CalibrateStatic averages the first durationSec of a stationary stream.
// Accelerometer bias is the per-axis mean with the vertical axis shifted
// by gravity so the corrected static mean reads zero; gyro bias is the
// raw per-axis mean. Scale factors stay 1: a static capture cannot
// observe sensitivity.
func (c *Calibrator) CalibrateStatic(s *Stream, durationSec float64) (CalibrationParams, error) {
	n := int(durationSec * s.Rate)
	if n <= 0 || s.Len() < n {
		return CalibrationParams{}, fmt.Errorf("%w: static calibration needs %d samples, have %d",
			ErrInsufficientData, n, s.Len())
	}

	params := CalibrationParams{
		AccScale:  [3]float64{1, 1, 1},
		GyroScale: [3]float64{1, 1, 1},
	}
	params.AccBias[0] = mean(s.AccX[:n])
	params.AccBias[1] = mean(s.AccY[:n])
	params.AccBias[2] = mean(s.AccZ[:n]) - c.cfg.Gravity
	params.GyroBias[0] = mean(s.GyroX[:n])
	params.GyroBias[1] = mean(s.GyroY[:n])
	params.GyroBias[2] = mean(s.GyroZ[:n])
	return params, nil
}

// CalibrateSixPoint estimates accelerometer bias and scale from a stream
// recorded in six equal contiguous poses: +X, -X, +Y, -Y, +Z, -Z up.
// For each axis, bias = (mean_pos + mean_neg)/2 and
// scale = (mean_pos - mean_neg)/(2g). Gyro bias is the whole-stream
// mean; gyro scale stays 1.
func (c *Calibrator) CalibrateSixPoint(s *Stream) (CalibrationParams, error) {
	segLen := s.Len() / 6
	if segLen < 1 {
		return CalibrationParams{}, fmt.Errorf("%w: six-point calibration needs >= 6 samples, have %d",
			ErrInsufficientData, s.Len())
	}

	acc := [3][]float64{s.AccX, s.AccY, s.AccZ}

	// Segment order: +X, -X, +Y, -Y, +Z, -Z.
	segMean := func(seg, axis int) float64 {
		start := seg * segLen
		return mean(acc[axis][start : start+segLen])
	}

	params := CalibrationParams{
		AccScale:  [3]float64{1, 1, 1},
		GyroScale: [3]float64{1, 1, 1},
	}
	for axis := 0; axis < 3; axis++ {
		pos := segMean(2*axis, axis)
		neg := segMean(2*axis+1, axis)
		params.AccBias[axis] = (pos + neg) / 2
		params.AccScale[axis] = (pos - neg) / (2 * c.cfg.Gravity)
	}

	params.GyroBias[0] = mean(s.GyroX)
	params.GyroBias[1] = mean(s.GyroY)
	params.GyroBias[2] = mean(s.GyroZ)
	return params, nil
}

// Merge combines static bias with six-point scale. The six-point bias is
// noisier because the device is handled rather than resting, so its bias
// estimates are discarded. A nil six-point returns static unchanged.
func (c *Calibrator) Merge(static CalibrationParams, sixPoint *CalibrationParams) CalibrationParams {
	if sixPoint == nil {
		return static
	}
	merged := static
	merged.AccScale = sixPoint.AccScale
	merged.GyroScale = sixPoint.GyroScale
	return merged
}

// Apply corrects a stream elementwise: (raw - bias) / scale, applied
// independently to the accelerometer and gyroscope triples. Pure
// function; the input stream is not modified.
func (c *Calibrator) Apply(s *Stream, params CalibrationParams) *Stream {
	out := s.clone()
	correct := func(ch []float64, bias, scale float64) {
		if scale == 0 {
			scale = 1
		}
		for i := range ch {
			ch[i] = (ch[i] - bias) / scale
		}
	}
	correct(out.AccX, params.AccBias[0], params.AccScale[0])
	correct(out.AccY, params.AccBias[1], params.AccScale[1])
	correct(out.AccZ, params.AccBias[2], params.AccScale[2])
	correct(out.GyroX, params.GyroBias[0], params.GyroScale[0])
	correct(out.GyroY, params.GyroBias[1], params.GyroScale[1])
	correct(out.GyroZ, params.GyroBias[2], params.GyroScale[2])
	return out
}
