package gaitcore

import "errors"

// Precondition violations are programmer/integration errors and surface
// to the caller. Data-quality degradations never raise; they end up in
// SessionSummary.Status instead.
var (
	// ErrInsufficientData means a calibration routine was handed fewer
	// samples than it needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrShapeMismatch means two streams that must be paired (thigh and
	// shank) have different lengths or rates.
	ErrShapeMismatch = errors.New("stream shape mismatch")

	// ErrPrecondition covers other static misconfiguration.
	ErrPrecondition = errors.New("precondition violated")
)
