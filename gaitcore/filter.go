package gaitcore

// AdaptiveFilter low-passes IMU channels with a cutoff chosen by the
// activity seen in the vertical acceleration. The segmented variant
// slides over long streams and cross-fades between segments so cutoff
// changes never produce discontinuities.
type AdaptiveFilter struct {
	cfg        Config
	classifier *ActivityClassifier
}

func NewAdaptiveFilter(cfg Config) *AdaptiveFilter {
	return &AdaptiveFilter{cfg: cfg, classifier: NewActivityClassifier(cfg)}
}

// FilterWindow classifies the window from its vertical acceleration and
// filters every channel at the matching cutoff. Returns the filtered
// stream and the label that drove the cutoff choice.
func (af *AdaptiveFilter) FilterWindow(s *Stream) (*Stream, ActivityType) {
	activity, _ := af.classifier.Classify(s.AccZ)
	cutoff := af.cfg.Cutoff(activity)

	out := s.clone()
	for _, ch := range out.channels() {
		filtered := filtFilt(af.cfg.FilterOrder, cutoff, s.Rate, ch)
		copy(ch, filtered)
	}
	return out, activity
}

// FilterStream slides a window of SegmentDurationSec across the stream
// with step duration*(1-overlap), classifies and filters each segment
// independently, and blends consecutive segments across their overlap
// with a linear cross-fade (weight rising 0..1). The first segment is
// written unblended. A tail shorter than a full segment is truncated,
// so coverage ends at n - segmentSamples + stepSamples boundaries; the
// returned segments record what was actually classified.
func (af *AdaptiveFilter) FilterStream(s *Stream) (*Stream, []ActivitySegment) {
	segSamples := int(af.cfg.SegmentDurationSec * s.Rate)
	if segSamples <= 0 || s.Len() <= segSamples {
		filtered, activity := af.FilterWindow(s)
		if s.Len() == 0 {
			return filtered, nil
		}
		return filtered, []ActivitySegment{{
			StartIdx:  0,
			EndIdx:    s.Len(),
			Activity:  activity,
			StartTime: 0,
			EndTime:   s.Duration(),
		}}
	}

	stepSamples := int(float64(segSamples) * (1 - af.cfg.SegmentOverlap))
	if stepSamples < 1 {
		stepSamples = 1
	}
	overlapSamples := segSamples - stepSamples

	out := s.clone()
	var segments []ActivitySegment

	first := true
	for start := 0; start+segSamples <= s.Len(); start += stepSamples {
		end := start + segSamples
		window := sliceStream(s, start, end)
		filtered, activity := af.FilterWindow(window)

		segments = append(segments, ActivitySegment{
			StartIdx:  start,
			EndIdx:    end,
			Activity:  activity,
			StartTime: float64(start) / s.Rate,
			EndTime:   float64(end) / s.Rate,
		})

		outCh := out.channels()
		for c, ch := range filtered.channels() {
			dst := outCh[c]
			if first {
				copy(dst[start:end], ch)
				continue
			}
			// Cross-fade over the overlap, then overwrite the rest.
			for i := 0; i < overlapSamples && start+i < end; i++ {
				w := float64(i+1) / float64(overlapSamples+1)
				dst[start+i] = dst[start+i]*(1-w) + ch[i]*w
			}
			copy(dst[start+overlapSamples:end], ch[overlapSamples:])
		}
		first = false
	}

	return out, segments
}

// sliceStream views [start,end) of a stream as its own stream. Channels
// share backing arrays with the parent; callers must not mutate them.
func sliceStream(s *Stream, start, end int) *Stream {
	return &Stream{
		AccX:  s.AccX[start:end],
		AccY:  s.AccY[start:end],
		AccZ:  s.AccZ[start:end],
		GyroX: s.GyroX[start:end],
		GyroY: s.GyroY[start:end],
		GyroZ: s.GyroZ[start:end],
		Rate:  s.Rate,
	}
}
