// Package keccak implements the Meer proof-of-work hash and its midstate
// extractor on top of a portable Keccak-f[1600] sponge.
//
// The sponge runs at two rates: 72 bytes (the 512-bit stages) and 136 bytes
// (the 256-bit stage). Two padding rules share the permutation: Legacy is the
// original Keccak 0x01/0x80 padding, and MeerSHA3 is the 0x81/0xf1 variant used
// by the final Meer stage. MeerSHA3 is not standard SHA3; digests produced with
// it only verify against other Meer implementations.
//
// Input bytes are always interpreted as little-endian lanes, so results do not
// depend on the host byte order.
package keccak

import "encoding/binary"

const (
	// Rate512 is the sponge rate of the 512-bit stages: (1600 - 2*512) / 8.
	Rate512 = 72
	// Rate256 is the sponge rate of the 256-bit stage: (1600 - 2*256) / 8.
	Rate256 = 136

	// maxRate bounds the pending block buffer.
	maxRate = Rate256
	// maxDigest is the digest size at the smallest supported rate.
	maxDigest = 64
)

// Padding selects the domain separation bytes applied by Finalize.
type Padding int

const (
	// Legacy pads with 0x01 after the message and 0x80 in the last byte.
	Legacy Padding = iota
	// MeerSHA3 pads with 0x81 after the message and 0xf1 in the last byte.
	MeerSHA3
)

func (p Padding) bytes() (first, last byte) {
	if p == MeerSHA3 {
		return 0x81, 0xf1
	}
	return 0x01, 0x80
}

func (p Padding) String() string {
	switch p {
	case Legacy:
		return "legacy"
	case MeerSHA3:
		return "meer-sha3"
	default:
		return "unknown"
	}
}

// Sum512 computes the 64-byte rate-72 digest of data with Legacy padding.
// Zero heap allocations.
func Sum512(data []byte) [64]byte {
	var state [25]uint64
	var out [64]byte
	sum(&state, Rate512, Legacy, data, out[:])
	return out
}

// SumMeer256 computes the 32-byte rate-136 digest of data with MeerSHA3
// padding. Zero heap allocations.
func SumMeer256(data []byte) [32]byte {
	var state [25]uint64
	var out [32]byte
	sum(&state, Rate256, MeerSHA3, data, out[:])
	return out
}

// sum absorbs data into state at the given rate, pads and squeezes len(out)
// bytes.
func sum(state *[25]uint64, rate int, pad Padding, data []byte, out []byte) {
	// Absorb full blocks.
	for len(data) >= rate {
		xorIn(state, data[:rate])
		keccakF1600(state)
		data = data[rate:]
	}

	var block [maxRate]byte
	copy(block[:], data)
	first, last := pad.bytes()
	block[len(data)] |= first
	block[rate-1] |= last
	xorIn(state, block[:rate])
	keccakF1600(state)

	squeeze(state, out)
}

// Hasher is a streaming sponge context at a fixed rate. Designed for stack
// allocation; create one with New512 or New256.
type Hasher struct {
	state     [25]uint64
	buf       [maxRate]byte
	absorbed  int
	rate      int
	finalized bool
	digest    [maxDigest]byte
}

// New512 returns a rate-72 hasher producing 64-byte digests.
func New512() *Hasher {
	return &Hasher{rate: Rate512}
}

// New256 returns a rate-136 hasher producing 32-byte digests.
func New256() *Hasher {
	return &Hasher{rate: Rate256}
}

// Rate returns the number of bytes absorbed per permutation.
func (h *Hasher) Rate() int { return h.rate }

// Size returns the digest length, 100 - rate/2.
func (h *Hasher) Size() int { return 100 - h.rate/2 }

// Reset resets the hasher to its initial state, keeping the rate.
func (h *Hasher) Reset() {
	h.state = [25]uint64{}
	h.absorbed = 0
	h.finalized = false
}

// Write absorbs data into the hasher. Writes after Finalize are ignored.
func (h *Hasher) Write(p []byte) {
	if h.finalized {
		return
	}
	if h.absorbed > 0 {
		n := copy(h.buf[h.absorbed:h.rate], p)
		h.absorbed += n
		p = p[n:]
		if h.absorbed == h.rate {
			xorIn(&h.state, h.buf[:h.rate])
			keccakF1600(&h.state)
			h.absorbed = 0
		}
	}

	for len(p) >= h.rate {
		xorIn(&h.state, p[:h.rate])
		keccakF1600(&h.state)
		p = p[h.rate:]
	}

	if len(p) > 0 {
		h.absorbed = copy(h.buf[:], p)
	}
}

// Finalize pads the pending block with pad, absorbs it and returns the digest.
// Only the first call does any work: later calls return the same digest and
// ignore pad.
func (h *Hasher) Finalize(pad Padding) []byte {
	if !h.finalized {
		clear(h.buf[h.absorbed:h.rate])
		first, last := pad.bytes()
		h.buf[h.absorbed] |= first
		h.buf[h.rate-1] |= last
		xorIn(&h.state, h.buf[:h.rate])
		keccakF1600(&h.state)
		h.absorbed = 0
		h.finalized = true
		squeeze(&h.state, h.digest[:h.Size()])
	}
	out := make([]byte, h.Size())
	copy(out, h.digest[:])
	return out
}

// xorIn XORs data into the leading lanes of state. len(data) must be a
// multiple of 8.
func xorIn(state *[25]uint64, data []byte) {
	for i := 0; i < len(data)/8; i++ {
		state[i] ^= le64(data[8*i:])
	}
}

// squeeze serializes the leading lanes of state little-endian into out.
func squeeze(state *[25]uint64, out []byte) {
	var lane [8]byte
	for i := 0; len(out) > 0; i++ {
		binary.LittleEndian.PutUint64(lane[:], state[i])
		out = out[copy(out, lane[:]):]
	}
}

// le64 reads a little-endian uint64 from at least 8 bytes.
func le64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
