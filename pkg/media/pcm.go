package media

import (
	"encoding/binary"
	"math"
)

// floatToPCM16 converts synthesis output to 16-bit samples, truncating toward
// zero and saturating at the int16 limits.
func floatToPCM16(dst []int16, src []float32) {
	for i, s := range src {
		dst[i] = clampInt16(float64(s))
	}
}

func clampInt16(val float64) int16 {
	if val >= math.MaxInt16 {
		return math.MaxInt16
	}
	if val <= math.MinInt16 {
		return math.MinInt16
	}
	if math.IsNaN(val) {
		return 0
	}
	return int16(val)
}

// pcm16ToBytes packs samples as 16-bit little-endian PCM.
func pcm16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
