package gaitcore

import (
	"fmt"
	"time"
)

// ActivityType labels a window of vertical acceleration with a coarse
// motion class. It is a filtering hint only, never ground truth.
type ActivityType string

const (
	ActivityStanding ActivityType = "standing"
	ActivityWalking  ActivityType = "walking"
	ActivityStairs   ActivityType = "stairs"
	ActivityRunning  ActivityType = "running"
	ActivityJumping  ActivityType = "jumping"
	ActivityUnknown  ActivityType = "unknown"
)

// Side identifies which leg a step belongs to.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Placement identifies where a sensor is worn.
type Placement string

const (
	PlacementThigh Placement = "thigh"
	PlacementShank Placement = "shank"
	PlacementFoot  Placement = "foot"
	PlacementTrunk Placement = "trunk"
)

// SessionStatus is the terminal processing state of a session summary.
type SessionStatus string

const (
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
	StatusStopped   SessionStatus = "stopped"
)

// Sample is one raw IMU reading from a single sensor placement.
// Acceleration in m/s², angular velocity in the device's native unit
// (rad/s or deg/s, see OrientationEstimator).
type Sample struct {
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
	AZ float64 `json:"az"`
	GX float64 `json:"gx"`
	GY float64 `json:"gy"`
	GZ float64 `json:"gz"`
}

// Stream holds a fixed-rate raw sample sequence in columnar form.
// All six channels always have equal length.
type Stream struct {
	AccX, AccY, AccZ    []float64
	GyroX, GyroY, GyroZ []float64
	Rate                float64
}

// NewStream builds a columnar stream from samples at the given rate.
func NewStream(samples []Sample, rate float64) *Stream {
	s := &Stream{
		AccX:  make([]float64, len(samples)),
		AccY:  make([]float64, len(samples)),
		AccZ:  make([]float64, len(samples)),
		GyroX: make([]float64, len(samples)),
		GyroY: make([]float64, len(samples)),
		GyroZ: make([]float64, len(samples)),
		Rate:  rate,
	}
	for i, smp := range samples {
		s.AccX[i] = smp.AX
		s.AccY[i] = smp.AY
		s.AccZ[i] = smp.AZ
		s.GyroX[i] = smp.GX
		s.GyroY[i] = smp.GY
		s.GyroZ[i] = smp.GZ
	}
	return s
}

// Len returns the number of samples in the stream.
func (s *Stream) Len() int { return len(s.AccX) }

// Duration returns the stream length in seconds.
func (s *Stream) Duration() float64 {
	if s.Rate <= 0 {
		return 0
	}
	return float64(s.Len()) / s.Rate
}

// clone returns a deep copy so filtering never mutates the input.
func (s *Stream) clone() *Stream {
	c := &Stream{
		AccX:  append([]float64(nil), s.AccX...),
		AccY:  append([]float64(nil), s.AccY...),
		AccZ:  append([]float64(nil), s.AccZ...),
		GyroX: append([]float64(nil), s.GyroX...),
		GyroY: append([]float64(nil), s.GyroY...),
		GyroZ: append([]float64(nil), s.GyroZ...),
		Rate:  s.Rate,
	}
	return c
}

// channels exposes the six columns for uniform per-channel processing.
func (s *Stream) channels() [][]float64 {
	return [][]float64{s.AccX, s.AccY, s.AccZ, s.GyroX, s.GyroY, s.GyroZ}
}

// CalibrationParams holds per-axis bias and scale corrections.
// Immutable once computed.
type CalibrationParams struct {
	AccBias   [3]float64 `json:"acc_bias"`
	AccScale  [3]float64 `json:"acc_scale"`
	GyroBias  [3]float64 `json:"gyro_bias"`
	GyroScale [3]float64 `json:"gyro_scale"`
}

// EulerStream is a per-sample Euler angle sequence (degrees) for one
// body segment.
type EulerStream struct {
	Roll  []float64
	Pitch []float64
	Yaw   []float64
}

// Len returns the number of samples.
func (e *EulerStream) Len() int { return len(e.Roll) }

// StepEvent is one detected stride: heel strike, toe-off, next heel strike.
// Invariant: HS < TO < NextHS, NextHS-HS >= 10 samples.
type StepEvent struct {
	HS          int     `json:"hs_idx"`
	TO          int     `json:"to_idx"`
	NextHS      int     `json:"next_hs_idx"`
	TimestampHS float64 `json:"timestamp_hs"` // seconds from stream start
}

// ActivitySegment is a labelled time range produced by the segmented
// adaptive filter; steps pick their activity from the segment containing
// their heel strike.
type ActivitySegment struct {
	StartIdx  int          `json:"start_idx"`
	EndIdx    int          `json:"end_idx"`
	Activity  ActivityType `json:"activity_type"`
	StartTime float64      `json:"start_time"`
	EndTime   float64      `json:"end_time"`
}

// StepMetrics is one immutable record per detected step.
type StepMetrics struct {
	Timestamp  time.Time `json:"timestamp"`
	StepNumber int       `json:"step_number"`
	Side       Side      `json:"side"`

	// Shank orientation averaged over the step.
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`

	KneeAngle  float64 `json:"knee_angle"`
	HipAngle   float64 `json:"hip_angle"`
	AnkleAngle float64 `json:"ankle_angle"`

	StanceTime float64 `json:"stance_time"`
	SwingTime  float64 `json:"swing_time"`
	StepTime   float64 `json:"step_time"`
	Cadence    float64 `json:"cadence"`

	KneeFlexionMax   float64 `json:"knee_flexion_max"`
	KneeExtensionMin float64 `json:"knee_extension_min"`
	KneeROM          float64 `json:"knee_rom"`
	TrunkLeanAtHS    float64 `json:"trunk_lean_at_hs"`

	// Knee angle resampled to 100 points over the normalized gait cycle.
	KneeCurve []float64 `json:"knee_curve"`

	Activity ActivityType `json:"activity_type"`

	HSIdx     int `json:"hs_idx"`
	NextHSIdx int `json:"next_hs_idx"`
}

// SessionSummary is the single session-level aggregate record.
type SessionSummary struct {
	SessionID   string        `json:"session_id"`
	SessionDate time.Time     `json:"session_date"`
	Status      SessionStatus `json:"status"`
	IsProcessed bool          `json:"is_processed"`

	// FailureReason says why Status degraded to failed or stopped.
	// Empty on completed.
	FailureReason string `json:"failure_reason,omitempty"`

	StepCount int     `json:"step_count"`
	Duration  float64 `json:"duration"`
	Cadence   float64 `json:"cadence"`

	AvgStepTime      float64 `json:"avg_step_time"`
	StdStepTime      float64 `json:"std_step_time"`
	AvgStanceTime    float64 `json:"avg_stance_time"`
	StdStanceTime    float64 `json:"std_stance_time"`
	AvgSwingTime     float64 `json:"avg_swing_time"`
	StdSwingTime     float64 `json:"std_swing_time"`
	StanceSwingRatio float64 `json:"stance_swing_ratio"`

	KneeAngleMean float64 `json:"knee_angle_mean"`
	KneeAngleStd  float64 `json:"knee_angle_std"`
	KneeAngleMax  float64 `json:"knee_angle_max"`
	KneeAngleMin  float64 `json:"knee_angle_min"`
	KneeAmplitude float64 `json:"knee_amplitude"`
	AvgKneeROM    float64 `json:"avg_knee_rom"`

	HipAngleMean float64 `json:"hip_angle_mean"`
	HipAngleStd  float64 `json:"hip_angle_std"`
	HipAngleMax  float64 `json:"hip_angle_max"`
	HipAngleMin  float64 `json:"hip_angle_min"`
	HipAmplitude float64 `json:"hip_amplitude"`

	CVStepTime   float64 `json:"cv_step_time"`
	CVStanceTime float64 `json:"cv_stance_time"`
	CVKneeAngle  float64 `json:"cv_knee_angle"`
	CVHipAngle   float64 `json:"cv_hip_angle"`

	GVI float64 `json:"gvi"`

	AvgRoll  float64 `json:"avg_roll"`
	AvgPitch float64 `json:"avg_pitch"`
	AvgYaw   float64 `json:"avg_yaw"`

	AvgCadencePerStep float64 `json:"avg_cadence_per_step"`
}

// Config holds every tunable constant of the pipeline.
type Config struct {
	SamplingRate float64 // Hz

	// Calibration
	StaticCalibrationSec float64
	Gravity              float64

	// Activity classification thresholds
	StandingStdMax     float64
	JumpingImpactMin   float64
	RunningStdMin      float64
	RunningFreqMin     float64
	WalkingStdMin      float64
	WalkingStdMax      float64
	WalkingFreqMin     float64
	WalkingFreqMax     float64
	StairsRoughnessMin float64
	PeakHeightFactor   float64 // fraction of window std
	PeakMinDistanceSec float64

	// Adaptive filter
	CutoffTable        map[ActivityType]float64
	FilterOrder        int
	SegmentDurationSec float64
	SegmentOverlap     float64

	// Orientation
	MadgwickBeta float64

	// Gait event detection
	HSThresholdFactor float64
	HSMinDistanceSec  float64
	TOSearchStart     float64 // fraction of stride
	TOSearchEnd       float64 // fraction of stride
	MinStrideSamples  int

	// Step metrics
	CurvePoints  int
	DominantSide Side
}

// DefaultConfig returns the empirically calibrated pipeline constants.
func DefaultConfig() Config {
	return Config{
		SamplingRate: 125.0,

		StaticCalibrationSec: 5.0,
		Gravity:              9.81,

		StandingStdMax:     0.15,
		JumpingImpactMin:   4.0,
		RunningStdMin:      0.8,
		RunningFreqMin:     2.5,
		WalkingStdMin:      0.15,
		WalkingStdMax:      1.0,
		WalkingFreqMin:     0.5,
		WalkingFreqMax:     2.5,
		StairsRoughnessMin: 5.0,
		PeakHeightFactor:   0.5,
		PeakMinDistanceSec: 0.3,

		CutoffTable: map[ActivityType]float64{
			ActivityStanding: 25.0,
			ActivityWalking:  6.0,
			ActivityStairs:   11.0,
			ActivityRunning:  18.0,
			ActivityJumping:  35.0,
			ActivityUnknown:  10.0,
		},
		FilterOrder:        4,
		SegmentDurationSec: 2.0,
		SegmentOverlap:     0.5,

		MadgwickBeta: 0.1,

		HSThresholdFactor: 1.5,
		HSMinDistanceSec:  0.4,
		TOSearchStart:     0.1,
		TOSearchEnd:       0.8,
		MinStrideSamples:  10,

		CurvePoints:  100,
		DominantSide: SideRight,
	}
}

// Cutoff returns the low-pass cutoff for an activity, falling back to
// the unknown entry for labels missing from the table.
func (c Config) Cutoff(a ActivityType) float64 {
	if f, ok := c.CutoffTable[a]; ok {
		return f
	}
	return c.CutoffTable[ActivityUnknown]
}

// Validate checks static preconditions that would make any run nonsense.
func (c Config) Validate() error {
	if c.SamplingRate <= 0 {
		return fmt.Errorf("%w: sampling rate %.2f", ErrPrecondition, c.SamplingRate)
	}
	if c.SegmentOverlap < 0 || c.SegmentOverlap >= 1 {
		return fmt.Errorf("%w: segment overlap %.2f outside [0,1)", ErrPrecondition, c.SegmentOverlap)
	}
	return nil
}
