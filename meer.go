package keccak

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the length of the block header hashed by MeerHash.
	HeaderSize = 117
	// MidstateSize is the length of a serialized midstate snapshot.
	MidstateSize = 200
	// TailSize is the part of the header left to absorb after the midstate.
	TailSize = HeaderSize - Rate512
	// Size is the length of a Meer digest.
	Size = 32
)

var (
	// ErrInvalidHeaderLength is returned when a header is not HeaderSize bytes.
	ErrInvalidHeaderLength = errors.New("keccak: invalid meer header length")
	// ErrShortMidstateInput is returned when a midstate is requested over less
	// than one rate-72 block.
	ErrShortMidstateInput = errors.New("keccak: midstate input shorter than one block")
	// ErrInvalidTailLength is returned when resuming from a midstate with a tail
	// that is not TailSize bytes.
	ErrInvalidTailLength = errors.New("keccak: invalid midstate tail length")
)

// MeerHash computes the Meer proof-of-work digest of a 117-byte header:
//
//	d1 = Sum512(header)
//	d2 = Sum512(d1); d2[0] ^= 0x01
//	out = SumMeer256(d2)
func MeerHash(header []byte) ([Size]byte, error) {
	if len(header) != HeaderSize {
		return [Size]byte{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidHeaderLength, len(header), HeaderSize)
	}
	d1 := Sum512(header)
	return finish(&d1), nil
}

// finish runs the second and third Meer stages over the first stage digest.
func finish(d1 *[64]byte) [Size]byte {
	d2 := Sum512(d1[:])
	d2[0] ^= 0x01
	return SumMeer256(d2[:])
}

// Midstate is the raw rate-72 sponge state after absorbing the first block of
// a header, serialized lane by lane in little-endian order. It is neither
// padded nor squeezed.
type Midstate [MidstateSize]byte

// MeerMidstate absorbs exactly the first 72 bytes of header and returns the
// permutation state for hardware to resume from.
func MeerMidstate(header []byte) (Midstate, error) {
	if len(header) < Rate512 {
		return Midstate{}, fmt.Errorf("%w: got %d bytes, want at least %d", ErrShortMidstateInput, len(header), Rate512)
	}
	if len(header) != HeaderSize {
		return Midstate{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidHeaderLength, len(header), HeaderSize)
	}
	h := New512()
	h.Write(header[:Rate512])

	var m Midstate
	squeeze(&h.state, m[:])
	return m, nil
}

// Words returns the midstate as 50 little-endian 32-bit words, low half of
// each lane first.
func (m *Midstate) Words() [50]uint32 {
	var w [50]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(m[4*i:])
	}
	return w
}

// resume returns a rate-72 hasher positioned right after the midstate block.
func (m *Midstate) resume() *Hasher {
	h := New512()
	for i := range h.state {
		h.state[i] = le64(m[8*i:])
	}
	return h
}

// MeerHashFromMidstate completes the Meer pipeline from a midstate and the
// remaining header bytes (header[72:117], nonce included). It yields the same
// digest as MeerHash over the full header.
func MeerHashFromMidstate(m Midstate, tail []byte) ([Size]byte, error) {
	if len(tail) != TailSize {
		return [Size]byte{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidTailLength, len(tail), TailSize)
	}
	h := m.resume()
	h.Write(tail)

	var d1 [64]byte
	copy(d1[:], h.Finalize(Legacy))
	return finish(&d1), nil
}
