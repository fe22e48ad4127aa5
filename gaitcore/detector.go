package gaitcore

// GaitEventDetector finds heel-strike and toe-off indices in a
// calibrated, filtered shank stream. Heel strikes are prominent peaks in
// vertical acceleration; toe-offs are the most significant minima of
// sagittal angular velocity inside a fractional window of each stride.
type GaitEventDetector struct {
	cfg Config
}

func NewGaitEventDetector(cfg Config) *GaitEventDetector {
	return &GaitEventDetector{cfg: cfg}
}

// Detect returns the ordered step events of a stream. Streams with too
// few samples or fewer than two heel strikes yield an empty result;
// strides whose toe-off search window collapses are silently skipped.
// Gaps are expected, never errors.
func (d *GaitEventDetector) Detect(s *Stream) []StepEvent {
	minDistSamples := int(d.cfg.HSMinDistanceSec * s.Rate)
	if s.Len() < minDistSamples*2 {
		return nil
	}

	hs := d.detectHeelStrikes(s.AccZ, minDistSamples)
	if len(hs) < 2 {
		return nil
	}
	return d.detectToeOffs(hs, s.GyroY, s.Rate)
}

func (d *GaitEventDetector) detectHeelStrikes(accZ []float64, minDist int) []int {
	threshold := mean(accZ) + d.cfg.HSThresholdFactor*std(accZ)
	return findPeaks(accZ, threshold, minDist)
}

func (d *GaitEventDetector) detectToeOffs(hs []int, gyroY []float64, rate float64) []StepEvent {
	var events []StepEvent
	for i := 0; i < len(hs)-1; i++ {
		cur, next := hs[i], hs[i+1]
		if next-cur < d.cfg.MinStrideSamples {
			continue
		}

		stride := next - cur
		searchStart := cur + int(d.cfg.TOSearchStart*float64(stride))
		searchEnd := cur + int(d.cfg.TOSearchEnd*float64(stride))

		// Clamp strictly inside the stride.
		if searchStart < cur+1 {
			searchStart = cur + 1
		}
		if searchEnd > next-1 {
			searchEnd = next - 1
		}
		if searchStart >= searchEnd {
			continue
		}

		to, ok := findToeOff(gyroY, searchStart, searchEnd)
		if !ok {
			continue
		}
		events = append(events, StepEvent{
			HS:          cur,
			TO:          to,
			NextHS:      next,
			TimestampHS: float64(cur) / rate,
		})
	}
	return events
}

// findToeOff locates the most prominent local minimum of the angular
// velocity inside [start,end). When the window is too short to resolve
// a local minimum, the global minimum serves as the fallback.
func findToeOff(gyroY []float64, start, end int) (int, bool) {
	window := gyroY[start:end]
	if len(window) < 3 {
		return 0, false
	}

	negated := make([]float64, len(window))
	for i, v := range window {
		negated[i] = -v
	}

	minima := findPeaks(negated, negInf, 5)
	if len(minima) == 0 {
		best := 0
		for i, v := range window {
			if v < window[best] {
				best = i
			}
		}
		return start + best, true
	}

	best := minima[0]
	bestProm := prominence(negated, best)
	for _, m := range minima[1:] {
		if p := prominence(negated, m); p > bestProm {
			bestProm = p
			best = m
		}
	}
	return start + best, true
}

const negInf = -1e308
