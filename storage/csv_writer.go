package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gaitsense-pipeline/gaitcore"
)

// CSVWriter appends step and session records to two long-lived CSV
// files. One row per step, one row per session summary.
type CSVWriter struct {
	stepsFile     *os.File
	summariesFile *os.File

	stepsWriter     *csv.Writer
	summariesWriter *csv.Writer
}

func NewCSVWriter(stepsPath, summariesPath string) (*CSVWriter, error) {
	for _, p := range []string{stepsPath, summariesPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("csv writer: %w", err)
		}
	}

	w := &CSVWriter{}

	var err error
	w.stepsFile, err = os.OpenFile(stepsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv writer: %w", err)
	}
	w.summariesFile, err = os.OpenFile(summariesPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		w.stepsFile.Close()
		return nil, fmt.Errorf("csv writer: %w", err)
	}

	w.stepsWriter = csv.NewWriter(w.stepsFile)
	w.summariesWriter = csv.NewWriter(w.summariesFile)

	w.writeHeaders()

	return w, nil
}

func (w *CSVWriter) writeHeaders() {
	if info, err := w.stepsFile.Stat(); err == nil && info.Size() == 0 {
		w.stepsWriter.Write([]string{
			"iso8601", "session_id", "step_number", "side", "activity",
			"step_time", "stance_time", "swing_time", "cadence",
			"knee_angle", "hip_angle", "ankle_angle",
			"knee_flexion_max", "knee_extension_min", "knee_rom",
			"trunk_lean_at_hs", "roll", "pitch", "yaw", "knee_curve",
		})
		w.stepsWriter.Flush()
	}
	if info, err := w.summariesFile.Stat(); err == nil && info.Size() == 0 {
		w.summariesWriter.Write([]string{
			"iso8601", "session_id", "status", "failure_reason",
			"step_count", "duration", "cadence",
			"avg_step_time", "std_step_time",
			"avg_stance_time", "std_stance_time",
			"avg_swing_time", "std_swing_time", "stance_swing_ratio",
			"knee_angle_mean", "knee_angle_std", "knee_angle_min", "knee_angle_max",
			"knee_amplitude", "avg_knee_rom",
			"hip_angle_mean", "hip_amplitude",
			"cv_step_time", "cv_stance_time", "cv_knee_angle", "gvi",
		})
		w.summariesWriter.Flush()
	}
}

// WriteResult appends every step of the session plus its summary row.
func (w *CSVWriter) WriteResult(res *gaitcore.SessionResult) {
	for _, step := range res.Steps {
		w.writeStep(res.Summary.SessionID, step)
	}
	w.stepsWriter.Flush()
	w.writeSummary(res.Summary)
	w.summariesWriter.Flush()
}

func (w *CSVWriter) writeStep(sessionID string, m gaitcore.StepMetrics) {
	// The 100-point curve goes into one JSON cell so the row stays flat.
	curve, _ := json.Marshal(m.KneeCurve)

	row := []string{
		m.Timestamp.Format(time.RFC3339),
		sessionID,
		fmt.Sprintf("%d", m.StepNumber),
		string(m.Side),
		string(m.Activity),
		f(m.StepTime), f(m.StanceTime), f(m.SwingTime), f(m.Cadence),
		f(m.KneeAngle), f(m.HipAngle), f(m.AnkleAngle),
		f(m.KneeFlexionMax), f(m.KneeExtensionMin), f(m.KneeROM),
		f(m.TrunkLeanAtHS), f(m.Roll), f(m.Pitch), f(m.Yaw),
		string(curve),
	}
	w.stepsWriter.Write(row)
}

func (w *CSVWriter) writeSummary(s gaitcore.SessionSummary) {
	row := []string{
		s.SessionDate.Format(time.RFC3339),
		s.SessionID,
		string(s.Status),
		s.FailureReason,
		fmt.Sprintf("%d", s.StepCount),
		f(s.Duration), f(s.Cadence),
		f(s.AvgStepTime), f(s.StdStepTime),
		f(s.AvgStanceTime), f(s.StdStanceTime),
		f(s.AvgSwingTime), f(s.StdSwingTime), f(s.StanceSwingRatio),
		f(s.KneeAngleMean), f(s.KneeAngleStd), f(s.KneeAngleMin), f(s.KneeAngleMax),
		f(s.KneeAmplitude), f(s.AvgKneeROM),
		f(s.HipAngleMean), f(s.HipAmplitude),
		f(s.CVStepTime), f(s.CVStanceTime), f(s.CVKneeAngle), f(s.GVI),
	}
	w.summariesWriter.Write(row)
}

func f(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func (w *CSVWriter) Close() {
	if w.stepsWriter != nil {
		w.stepsWriter.Flush()
		w.stepsFile.Close()
	}
	if w.summariesWriter != nil {
		w.summariesWriter.Flush()
		w.summariesFile.Close()
	}
}
