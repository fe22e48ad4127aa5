package gaitcore

import "math"

// GyroUnit declares the angular velocity unit of a stream.
type GyroUnit int

const (
	// UnitAuto applies the magnitude heuristic: a stream whose largest
	// absolute value exceeds 10 is assumed to be deg/s. Fragile for very
	// slow deg/s motion; pin the unit explicitly when it is known.
	UnitAuto GyroUnit = iota
	UnitRadians
	UnitDegrees
)

const degreesThreshold = 10.0

// Quaternion in (w, x, y, z) order.
type Quaternion [4]float64

// OrientationEstimator fuses gyroscope integration with an
// accelerometer gravity correction using Madgwick's gradient-descent
// filter. The quaternion state is owned exclusively by one estimator
// and updated in strict sample order; never share an instance across
// goroutines.
type OrientationEstimator struct {
	beta         float64
	samplePeriod float64
	q            Quaternion
}

func NewOrientationEstimator(beta, rate float64) *OrientationEstimator {
	return &OrientationEstimator{
		beta:         beta,
		samplePeriod: 1.0 / rate,
		q:            Quaternion{1, 0, 0, 0},
	}
}

// Reset returns the state to the identity quaternion for a new stream.
func (oe *OrientationEstimator) Reset() {
	oe.q = Quaternion{1, 0, 0, 0}
}

// Quaternion returns the current orientation state.
func (oe *OrientationEstimator) Quaternion() Quaternion { return oe.q }

// Update advances the filter by one sample. Gyro components must be in
// rad/s; acceleration may be in any consistent unit (only its direction
// is used). Returns the updated unit quaternion.
func (oe *OrientationEstimator) Update(gx, gy, gz, ax, ay, az float64) Quaternion {
	q0, q1, q2, q3 := oe.q[0], oe.q[1], oe.q[2], oe.q[3]

	// Quaternion rate from gyroscope.
	qDot0 := 0.5 * (-q1*gx - q2*gy - q3*gz)
	qDot1 := 0.5 * (q0*gx + q2*gz - q3*gy)
	qDot2 := 0.5 * (q0*gy - q1*gz + q3*gx)
	qDot3 := 0.5 * (q0*gz + q1*gy - q2*gx)

	norm := math.Sqrt(ax*ax + ay*ay + az*az)
	if norm > 0 {
		// Gradient-descent corrective step toward the measured gravity
		// direction.
		ax, ay, az = ax/norm, ay/norm, az/norm

		f1 := 2*(q1*q3-q0*q2) - ax
		f2 := 2*(q0*q1+q2*q3) - ay
		f3 := 2*(0.5-q1*q1-q2*q2) - az

		s0 := -2*q2*f1 + 2*q1*f2
		s1 := 2*q3*f1 + 2*q0*f2 - 4*q1*f3
		s2 := -2*q0*f1 + 2*q3*f2 - 4*q2*f3
		s3 := 2*q1*f1 + 2*q2*f2

		sNorm := math.Sqrt(s0*s0 + s1*s1 + s2*s2 + s3*s3)
		if sNorm > 0 {
			s0, s1, s2, s3 = s0/sNorm, s1/sNorm, s2/sNorm, s3/sNorm
			qDot0 -= oe.beta * s0
			qDot1 -= oe.beta * s1
			qDot2 -= oe.beta * s2
			qDot3 -= oe.beta * s3
		}
	}

	q0 += qDot0 * oe.samplePeriod
	q1 += qDot1 * oe.samplePeriod
	q2 += qDot2 * oe.samplePeriod
	q3 += qDot3 * oe.samplePeriod

	qNorm := math.Sqrt(q0*q0 + q1*q1 + q2*q2 + q3*q3)
	if qNorm > 0 {
		oe.q = Quaternion{q0 / qNorm, q1 / qNorm, q2 / qNorm, q3 / qNorm}
	}
	return oe.q
}

// QuaternionToEuler converts to aerospace-sequence roll, pitch, yaw in
// degrees. When the pitch sine term saturates, pitch clamps to ±90°
// instead of an out-of-domain arcsine (gimbal lock guard).
func QuaternionToEuler(q Quaternion) (roll, pitch, yaw float64) {
	w, x, y, z := q[0], q[1], q[2], q[3]

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw = math.Atan2(sinyCosp, cosyCosp)

	const toDeg = 180.0 / math.Pi
	return roll * toDeg, pitch * toDeg, yaw * toDeg
}

// EstimateOrientation runs one estimator over a filtered stream and
// returns per-sample Euler angles for the segment. The gyro unit is
// resolved once for the whole stream; UnitAuto uses the magnitude
// heuristic on the filtered values.
func EstimateOrientation(s *Stream, beta float64, unit GyroUnit) *EulerStream {
	toRad := 1.0
	switch unit {
	case UnitDegrees:
		toRad = math.Pi / 180.0
	case UnitAuto:
		if maxAbsGyro(s) > degreesThreshold {
			toRad = math.Pi / 180.0
		}
	}

	est := NewOrientationEstimator(beta, s.Rate)
	out := &EulerStream{
		Roll:  make([]float64, s.Len()),
		Pitch: make([]float64, s.Len()),
		Yaw:   make([]float64, s.Len()),
	}
	for i := 0; i < s.Len(); i++ {
		q := est.Update(
			s.GyroX[i]*toRad, s.GyroY[i]*toRad, s.GyroZ[i]*toRad,
			s.AccX[i], s.AccY[i], s.AccZ[i],
		)
		out.Roll[i], out.Pitch[i], out.Yaw[i] = QuaternionToEuler(q)
	}
	return out
}

func maxAbsGyro(s *Stream) float64 {
	var m float64
	for _, ch := range [][]float64{s.GyroX, s.GyroY, s.GyroZ} {
		for _, v := range ch {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
	}
	return m
}
