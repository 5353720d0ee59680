package media

import (
	"encoding/binary"
	"math"
	"testing"
)

// TestClampInt16 tests truncation and saturation of synthesis output
func TestClampInt16(t *testing.T) {
	testCases := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"positive truncates", 86.9, 86},
		{"negative truncates toward zero", -86.9, -86},
		{"max", 32767, 32767},
		{"above max", 40000, 32767},
		{"min", -32768, -32768},
		{"below min", -40000, -32768},
		{"positive infinity", math.Inf(1), 32767},
		{"negative infinity", math.Inf(-1), -32768},
		{"NaN", math.NaN(), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := clampInt16(tc.input); got != tc.expected {
				t.Errorf("clampInt16(%v): expected %d, got %d", tc.input, tc.expected, got)
			}
		})
	}
}

func TestPCM16ToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	out := pcm16ToBytes(samples)
	if len(out) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(out))
	}
	for i, s := range samples {
		got := int16(binary.LittleEndian.Uint16(out[i*2:]))
		if got != s {
			t.Errorf("sample %d: expected %d, got %d", i, s, got)
		}
	}
}
