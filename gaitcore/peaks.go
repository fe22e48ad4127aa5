package gaitcore

import "sort"

// localMaxima returns indices of strict local maxima. Flat-topped peaks
// report the middle of the plateau.
func localMaxima(signal []float64) []int {
	var peaks []int
	i := 1
	for i < len(signal)-1 {
		if signal[i] <= signal[i-1] {
			i++
			continue
		}
		// Climb across a possible plateau.
		j := i
		for j < len(signal)-1 && signal[j+1] == signal[j] {
			j++
		}
		if j < len(signal)-1 && signal[j+1] < signal[j] {
			peaks = append(peaks, (i+j)/2)
		}
		i = j + 1
	}
	return peaks
}

// findPeaks returns local maxima at least minHeight tall, thinned so no
// two survivors are closer than minDistance samples. Taller peaks win
// ties, as in the conventional peak-picking order.
func findPeaks(signal []float64, minHeight float64, minDistance int) []int {
	candidates := localMaxima(signal)
	filtered := candidates[:0]
	for _, p := range candidates {
		if signal[p] >= minHeight {
			filtered = append(filtered, p)
		}
	}
	if minDistance <= 1 || len(filtered) < 2 {
		out := append([]int(nil), filtered...)
		return out
	}

	// Keep peaks in descending height order, discarding any candidate
	// within minDistance of an already kept peak.
	order := append([]int(nil), filtered...)
	sort.Slice(order, func(a, b int) bool { return signal[order[a]] > signal[order[b]] })

	removed := make(map[int]bool, len(order))
	for _, p := range order {
		if removed[p] {
			continue
		}
		for _, q := range filtered {
			if q == p || removed[q] {
				continue
			}
			if abs(q-p) < minDistance {
				removed[q] = true
			}
		}
	}

	var kept []int
	for _, p := range filtered {
		if !removed[p] {
			kept = append(kept, p)
		}
	}
	return kept
}

// prominence measures how far a peak stands above its surroundings: the
// peak height minus the higher of the lowest points separating it from
// taller terrain (or the signal edge) on each side.
func prominence(signal []float64, peak int) float64 {
	h := signal[peak]

	leftMin := h
	for i := peak - 1; i >= 0; i-- {
		if signal[i] > h {
			break
		}
		if signal[i] < leftMin {
			leftMin = signal[i]
		}
	}
	rightMin := h
	for i := peak + 1; i < len(signal); i++ {
		if signal[i] > h {
			break
		}
		if signal[i] < rightMin {
			rightMin = signal[i]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return h - base
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
