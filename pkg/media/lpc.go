package media

// reflectionToLPC converts reflection (lattice) coefficients into direct-form
// prediction coefficients with the step-up recursion. lpc and scratch must
// both hold len(refl) entries; their roles swap after every order step and
// the result always ends up in lpc.
//
// Products are converted to float32 explicitly so they are rounded before the
// add and never fused into an FMA.
func reflectionToLPC(lpc, scratch, refl []float32) {
	cur, next := lpc, scratch
	for m := range refl {
		k := refl[m]
		next[m] = k
		for i := 0; i < m; i++ {
			next[i] = cur[i] + float32(k*cur[m-i-1])
		}
		cur, next = next, cur
	}
	if len(refl) > 0 && &cur[0] != &lpc[0] {
		copy(lpc, cur[:len(refl)])
	}
}

// lpSynthesisFilter runs the all-pole synthesis filter
//
//	out[n] = in[n] - Σ_{i=1}^{order} a[i-1] * out[n-i]
//
// over buf. The first len(a) entries of buf are the filter memory (oldest
// first); the len(in) new samples are written after them.
func lpSynthesisFilter(buf, a, in []float32) {
	order := len(a)
	out := buf[order:]
	for n := range in {
		s := in[n]
		for i := 1; i <= order; i++ {
			s -= float32(a[i-1] * buf[order+n-i])
		}
		out[n] = s
	}
}

// predictionGain returns Π(1 - k²) over the reflection coefficients: the
// fraction of the excitation energy left after the lattice whitening.
func predictionGain(refl []float32) float32 {
	e := float32(1.0)
	for _, k := range refl {
		e = float32(float64(e) * (1.0 - float64(float32(k*k))))
	}
	return e
}
