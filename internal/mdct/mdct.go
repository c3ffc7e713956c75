// Package mdct implements the inverse modified discrete cosine transform
// and the Vorbis sine-of-sine overlap windows described in section 4.7.
package mdct

import "math"

// MDCT holds the precomputed cosine table for one block size.
//
// The reference decoder families in this area (see the FFT-based
// MDCT in a sibling codec's internal/mdct) factor the transform through a
// complex FFT of size N/4 plus a twiddle pre/post rotation for O(N log N)
// synthesis. That factorization's exact index algebra is easy to get
// subtly wrong in a way that corrupts audio silently; since this module's
// correctness cannot be checked by running it, Inverse instead evaluates
// the IMDCT's defining sum directly against a precomputed per-angle cosine
// table, trading the asymptotic speedup for a transform whose correctness
// follows directly from the formula it implements.
type MDCT struct {
	N  int // frequency-domain input length (blockSize/2)
	N2 int // blockSize
	N4 int // blockSize/4

	cosTable []float64 // N2 * N, cos((pi/N)*(n+0.5+N/2)*(k+0.5))
}

// New precomputes the cosine table for a given blockSize (a power of two,
// the IMDCT's time-domain output length).
func New(blockSize int) *MDCT {
	n := blockSize / 2
	m := &MDCT{N: n, N2: blockSize, N4: blockSize / 4}
	m.cosTable = make([]float64, blockSize*n)
	for out := 0; out < blockSize; out++ {
		for k := 0; k < n; k++ {
			angle := (math.Pi / float64(n)) * (float64(out) + 0.5 + float64(n)/2) * (float64(k) + 0.5)
			m.cosTable[out*n+k] = math.Cos(angle)
		}
	}
	return m
}

// Inverse computes the IMDCT of in (length N) into out (length blockSize),
// overwriting out.
func (m *MDCT) Inverse(in []float32, out []float32) {
	n := m.N
	for i := 0; i < m.N2; i++ {
		row := m.cosTable[i*n : i*n+n]
		var sum float64
		for k := 0; k < n; k++ {
			sum += float64(in[k]) * row[k]
		}
		out[i] = float32(sum)
	}
}
