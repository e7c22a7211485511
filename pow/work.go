// Package pow wraps the Meer hash core with the pieces a miner needs around
// it: a work unit holding a header and target, nonce placement, target
// arithmetic, share verification and a CPU nonce search.
package pow

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	keccak "github.com/Giulio2002/meer_keccak"
)

const (
	// HeaderSize is the length of a hashed block header.
	HeaderSize = keccak.HeaderSize
	// NonceOffset is where the little-endian nonce starts: version(4),
	// parent root(32), tx root(32), state root(32), difficulty(4),
	// timestamp(4) and pow type(1) precede it.
	NonceOffset = 109
	// NonceSize is the nonce length in bytes.
	NonceSize = 8
	// TailOffset is the first header byte not covered by the midstate.
	TailOffset = keccak.Rate512
	// TargetSize is the length of a little-endian target.
	TargetSize = 32

	// nonceInTail is the nonce offset relative to TailOffset.
	nonceInTail = NonceOffset - TailOffset
)

var (
	// ErrInvalidTargetLength is returned for targets that are not TargetSize bytes.
	ErrInvalidTargetLength = errors.New("pow: invalid target length")
	// ErrTargetNotMet is returned when a digest is above the work target.
	ErrTargetNotMet = errors.New("pow: digest above target")
)

// Work is one unit of mining work: a header whose nonce varies, and the
// target a digest must not exceed.
type Work struct {
	Header [HeaderSize]byte
	Target [TargetSize]byte
}

// Share is a nonce whose digest meets the work target.
type Share struct {
	Nonce  uint64
	Digest [keccak.Size]byte
	Header [HeaderSize]byte
}

// NewWork copies header and a little-endian target into a Work.
func NewWork(header, target []byte) (*Work, error) {
	if len(header) != HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", keccak.ErrInvalidHeaderLength, len(header), HeaderSize)
	}
	if len(target) != TargetSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidTargetLength, len(target), TargetSize)
	}
	w := new(Work)
	copy(w.Header[:], header)
	copy(w.Target[:], target)
	return w, nil
}

// SetNonce writes nonce into the header.
func (w *Work) SetNonce(nonce uint64) {
	binary.LittleEndian.PutUint64(w.Header[NonceOffset:], nonce)
}

// Nonce returns the nonce currently in the header.
func (w *Work) Nonce() uint64 {
	return binary.LittleEndian.Uint64(w.Header[NonceOffset:])
}

// Tail returns the header bytes absorbed after the midstate, nonce included.
func (w *Work) Tail() [keccak.TailSize]byte {
	return [keccak.TailSize]byte(w.Header[TailOffset:])
}

// TargetInt returns the target as a number.
func (w *Work) TargetInt() *uint256.Int {
	return TargetToInt(w.Target)
}

// TargetHigh returns the most significant 64 bits of the target, the word
// hashing chips compare digests against.
func (w *Work) TargetHigh() uint64 {
	return binary.LittleEndian.Uint64(w.Target[TargetSize-8:])
}

// Midstate returns the snapshot of the header's first block.
func (w *Work) Midstate() (keccak.Midstate, error) {
	return keccak.MeerMidstate(w.Header[:])
}

// Verify hashes the header with nonce in place and checks the digest against
// the target. The work itself is not modified.
func (w *Work) Verify(nonce uint64) (Share, error) {
	s := Share{Nonce: nonce, Header: w.Header}
	binary.LittleEndian.PutUint64(s.Header[NonceOffset:], nonce)

	digest, err := keccak.MeerHash(s.Header[:])
	if err != nil {
		return Share{}, err
	}
	s.Digest = digest
	if !MeetsTarget(digest, w.TargetInt()) {
		return s, fmt.Errorf("%w: digest %s", ErrTargetNotMet, hex.EncodeToString(digest[:]))
	}
	return s, nil
}
