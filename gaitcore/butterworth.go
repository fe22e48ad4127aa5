package gaitcore

import "math"

// maxNormalizedCutoff keeps the filter stable when the requested cutoff
// approaches the Nyquist frequency.
const maxNormalizedCutoff = 0.99

// biquad is a single second-order IIR section in direct form II
// transposed, with coefficients normalized so a0 = 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// step advances the section by one sample.
func (s *biquad) step(x float64) float64 {
	y := s.b0*x + s.z1
	s.z1 = s.b1*x - s.a1*y + s.z2
	s.z2 = s.b2*x - s.a2*y
	return y
}

// primeSteadyState sets the internal state as if the input had been the
// constant x0 forever, suppressing the startup transient.
func (s *biquad) primeSteadyState(x0 float64) {
	gain := (s.b0 + s.b1 + s.b2) / (1 + s.a1 + s.a2)
	y0 := gain * x0
	s.z2 = s.b2*x0 - s.a2*y0
	s.z1 = s.b1*x0 - s.a1*y0 + s.z2
}

// lowPassSections designs an order-N Butterworth low-pass as a cascade
// of second-order sections. N must be even. The cutoff is clamped so
// its Nyquist-normalized value never reaches 1.
func lowPassSections(order int, cutoffHz, rate float64) []biquad {
	nyquist := rate / 2
	wn := cutoffHz / nyquist
	if wn >= 1.0 {
		wn = maxNormalizedCutoff
	}
	if wn <= 0 {
		wn = 1e-4
	}

	w0 := math.Pi * wn
	cw := math.Cos(w0)
	sw := math.Sin(w0)

	nSections := order / 2
	sections := make([]biquad, nSections)
	for k := 0; k < nSections; k++ {
		// Butterworth pole pair quality factor.
		q := 1.0 / (2.0 * math.Cos(math.Pi*float64(2*k+1)/float64(2*order)))
		alpha := sw / (2 * q)

		a0 := 1 + alpha
		sections[k] = biquad{
			b0: (1 - cw) / 2 / a0,
			b1: (1 - cw) / a0,
			b2: (1 - cw) / 2 / a0,
			a1: -2 * cw / a0,
			a2: (1 - alpha) / a0,
		}
	}
	return sections
}

// filterOnce runs the cascade over the signal in one direction.
func filterOnce(sections []biquad, signal []float64) []float64 {
	out := append([]float64(nil), signal...)
	for i := range sections {
		s := sections[i] // copy: fresh state per pass
		if len(out) > 0 {
			s.primeSteadyState(out[0])
		}
		for j, x := range out {
			out[j] = s.step(x)
		}
	}
	return out
}

// filtFilt applies the low-pass forward then backward for zero phase
// distortion. The signal is extended at both ends with odd reflections
// so the filter settles before reaching real data; the extension is
// stripped from the result.
func filtFilt(order int, cutoffHz, rate float64, signal []float64) []float64 {
	n := len(signal)
	if n == 0 {
		return nil
	}
	if n < 2 {
		return append([]float64(nil), signal...)
	}

	padLen := 3 * (order + 1)
	if padLen > n-1 {
		padLen = n - 1
	}

	ext := make([]float64, 0, n+2*padLen)
	for i := padLen; i >= 1; i-- {
		ext = append(ext, 2*signal[0]-signal[i])
	}
	ext = append(ext, signal...)
	for i := 1; i <= padLen; i++ {
		ext = append(ext, 2*signal[n-1]-signal[n-1-i])
	}

	sections := lowPassSections(order, cutoffHz, rate)

	forward := filterOnce(sections, ext)
	reverseInPlace(forward)
	backward := filterOnce(sections, forward)
	reverseInPlace(backward)

	return backward[padLen : padLen+n]
}

func reverseInPlace(xs []float64) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
