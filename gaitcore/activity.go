package gaitcore

import "math"

const roughnessEpsilon = 1e-6

// ActivityFeatures are the window statistics feeding classification.
type ActivityFeatures struct {
	Std          float64 `json:"std"`
	DominantFreq float64 `json:"dominant_freq"` // Hz
	PeakImpact   float64 `json:"peak_impact"`
	Roughness    float64 `json:"signal_roughness"`
}

// ActivityClassifier labels a window of vertical acceleration with a
// coarse activity type. Thresholds are fixed empirical constants; there
// is no adaptive learning.
type ActivityClassifier struct {
	cfg Config
}

func NewActivityClassifier(cfg Config) *ActivityClassifier {
	return &ActivityClassifier{cfg: cfg}
}

// Classify computes the window features and applies the ordered,
// exclusive rule set: first matching rule wins.
func (ac *ActivityClassifier) Classify(window []float64) (ActivityType, ActivityFeatures) {
	f := ActivityFeatures{
		Std:          std(window),
		DominantFreq: ac.dominantFrequency(window),
		PeakImpact:   peakImpact(window),
		Roughness:    roughness(window),
	}
	return ac.classify(f), f
}

func (ac *ActivityClassifier) classify(f ActivityFeatures) ActivityType {
	cfg := ac.cfg
	switch {
	case f.Std < cfg.StandingStdMax:
		return ActivityStanding
	case f.PeakImpact > cfg.JumpingImpactMin:
		return ActivityJumping
	case f.Std > cfg.RunningStdMin && f.DominantFreq > cfg.RunningFreqMin:
		return ActivityRunning
	case f.Std >= cfg.WalkingStdMin && f.Std <= cfg.WalkingStdMax &&
		f.DominantFreq >= cfg.WalkingFreqMin && f.DominantFreq <= cfg.WalkingFreqMax:
		if f.Roughness > cfg.StairsRoughnessMin {
			return ActivityStairs
		}
		return ActivityWalking
	default:
		return ActivityUnknown
	}
}

// dominantFrequency estimates stride frequency as the reciprocal of the
// median inter-peak interval of the detrended signal. The median is
// robust to the occasional outlier stride; fewer than 2 peaks yields 0.
func (ac *ActivityClassifier) dominantFrequency(window []float64) float64 {
	detrended := detrend(window)
	sd := std(detrended)
	minDist := int(ac.cfg.SamplingRate * ac.cfg.PeakMinDistanceSec)
	peaks := findPeaks(detrended, sd*ac.cfg.PeakHeightFactor, minDist)
	if len(peaks) < 2 {
		return 0
	}

	intervals := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		intervals[i-1] = float64(peaks[i]-peaks[i-1]) / ac.cfg.SamplingRate
	}
	med := median(intervals)
	if med <= 0 {
		return 0
	}
	return 1.0 / med
}

// peakImpact is the maximum absolute detrended value.
func peakImpact(window []float64) float64 {
	var maxAbs float64
	m := mean(window)
	for _, v := range window {
		if a := math.Abs(v - m); a > maxAbs {
			maxAbs = a
		}
	}
	return maxAbs
}

// roughness is std of the second discrete derivative normalized by the
// window std, a dimensionless measure of high-frequency content that is
// independent of overall amplitude.
func roughness(window []float64) float64 {
	if len(window) < 3 {
		return 0
	}
	second := make([]float64, len(window)-2)
	for i := range second {
		second[i] = window[i+2] - 2*window[i+1] + window[i]
	}
	return std(second) / (std(window) + roughnessEpsilon)
}

func detrend(window []float64) []float64 {
	m := mean(window)
	out := make([]float64, len(window))
	for i, v := range window {
		out[i] = v - m
	}
	return out
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
