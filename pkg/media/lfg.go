package media

import (
	"crypto/md5"
	"encoding/binary"
)

// RandomSource supplies the raw excitation sequence for comfort noise.
// Implementations must be deterministic for a given seed.
type RandomSource interface {
	Next() uint32
}

// LaggedFibonacci is an additive lagged Fibonacci generator with lags 24 and
// 55 over a 64-word ring. Seeding hashes (seed, position) with MD5 to fill the
// ring; the output matches libavutil's AVLFG for the same seed.
type LaggedFibonacci struct {
	state [64]uint32
	index uint32
}

// NewLaggedFibonacci returns a generator seeded with seed.
func NewLaggedFibonacci(seed uint32) *LaggedFibonacci {
	g := &LaggedFibonacci{}
	g.Seed(seed)
	return g
}

// Seed resets the generator state. Words 0..7 stay zero; each block of four
// words from 8 onward is the MD5 digest of the previous digest with the seed
// and block position written over its first five bytes.
func (g *LaggedFibonacci) Seed(seed uint32) {
	var tmp [16]byte
	g.state = [64]uint32{}
	for i := 8; i < 64; i += 4 {
		binary.LittleEndian.PutUint32(tmp[0:], seed)
		tmp[4] = byte(i)
		tmp = md5.Sum(tmp[:])
		g.state[i] = binary.LittleEndian.Uint32(tmp[0:])
		g.state[i+1] = binary.LittleEndian.Uint32(tmp[4:])
		g.state[i+2] = binary.LittleEndian.Uint32(tmp[8:])
		g.state[i+3] = binary.LittleEndian.Uint32(tmp[12:])
	}
	g.index = 0
}

// Next returns the next 32-bit value.
func (g *LaggedFibonacci) Next() uint32 {
	i := g.index
	g.state[i&63] = g.state[(i-24)&63] + g.state[(i-55)&63]
	g.index++
	return g.state[i&63]
}
