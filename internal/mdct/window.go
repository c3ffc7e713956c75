package mdct

import "math"

// WindowSet holds the precomputed overlap windows for one (block0, block1)
// pair: one window for short blocks, and the four prev/next combinations
// for long blocks, per section 4.7.
type WindowSet struct {
	Short []float32       // length block0
	Long  [2][2][]float32 // [prevShort][nextShort], length block1
}

// NewWindowSet builds the window set for a stream's configured block
// sizes.
func NewWindowSet(block0, block1 int) *WindowSet {
	ws := &WindowSet{}
	ws.Short = buildWindow(block0, block0/2, block0/2)
	for prevShort := 0; prevShort < 2; prevShort++ {
		for nextShort := 0; nextShort < 2; nextShort++ {
			left := block1 / 2
			if prevShort == 1 {
				left = block0 / 2
			}
			right := block1 / 2
			if nextShort == 1 {
				right = block0 / 2
			}
			ws.Long[prevShort][nextShort] = buildWindow(block1, left, right)
		}
	}
	return ws
}

// buildWindow returns a window of length n with a sin-of-sin taper of
// leftTaper samples rising from 0 to 1, a flat plateau at 1, and a
// mirrored taper of rightTaper samples falling back to 0, using the
// Vorbis formula sin((pi/2)*sin^2((pi/n)*(k+0.5))).
func buildWindow(n, leftTaper, rightTaper int) []float32 {
	w := make([]float32, n)
	for i := 0; i < leftTaper; i++ {
		w[i] = taper(i, leftTaper)
	}
	for i := leftTaper; i < n-rightTaper; i++ {
		w[i] = 1
	}
	for i := 0; i < rightTaper; i++ {
		w[n-rightTaper+i] = taper(rightTaper-1-i, rightTaper)
	}
	return w
}

func taper(k, length int) float32 {
	x := math.Sin((math.Pi / (2 * float64(length))) * (float64(k) + 0.5))
	return float32(math.Sin((math.Pi / 2) * x * x))
}
