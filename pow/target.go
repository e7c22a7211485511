package pow

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrInvalidCompact is returned for compact targets that are negative, zero
// or do not fit in 256 bits.
var ErrInvalidCompact = errors.New("pow: invalid compact target")

// DigestToInt interprets a digest as a little-endian 256-bit number, the
// order in which digests are compared against targets.
func DigestToInt(digest [32]byte) *uint256.Int {
	return TargetToInt(digest)
}

// TargetToInt decodes a little-endian 32-byte target.
func TargetToInt(target [TargetSize]byte) *uint256.Int {
	var be [32]byte
	for i := range target {
		be[i] = target[TargetSize-1-i]
	}
	return new(uint256.Int).SetBytes(be[:])
}

// IntToTarget encodes n as a little-endian 32-byte target.
func IntToTarget(n *uint256.Int) [TargetSize]byte {
	be := n.Bytes32()
	var le [TargetSize]byte
	for i := range be {
		le[i] = be[TargetSize-1-i]
	}
	return le
}

// MeetsTarget reports whether digest, read little-endian, is not above target.
func MeetsTarget(digest [32]byte, target *uint256.Int) bool {
	return DigestToInt(digest).Cmp(target) <= 0
}

// CompactToTarget expands the compact "bits" encoding used in block headers:
// the high byte is a base-256 exponent, the low 23 bits a mantissa and bit 23
// a sign. Negative, zero and overflowing targets are rejected.
func CompactToTarget(bits uint32) (*uint256.Int, error) {
	mantissa := bits & 0x007fffff
	negative := bits&0x00800000 != 0
	exponent := uint(bits >> 24)

	if negative && mantissa != 0 {
		return nil, fmt.Errorf("%w: %08x is negative", ErrInvalidCompact, bits)
	}
	if mantissa != 0 && (exponent > 34 ||
		(mantissa > 0xff && exponent > 33) ||
		(mantissa > 0xffff && exponent > 32)) {
		return nil, fmt.Errorf("%w: %08x overflows 256 bits", ErrInvalidCompact, bits)
	}

	var n *uint256.Int
	if exponent <= 3 {
		n = uint256.NewInt(uint64(mantissa >> (8 * (3 - exponent))))
	} else {
		n = uint256.NewInt(uint64(mantissa))
		n.Lsh(n, 8*(exponent-3))
	}
	if n.IsZero() {
		return nil, fmt.Errorf("%w: %08x is zero", ErrInvalidCompact, bits)
	}
	return n, nil
}

// TargetToCompact is the inverse of CompactToTarget. Only the 23 most
// significant bits of n survive.
func TargetToCompact(n *uint256.Int) uint32 {
	if n.IsZero() {
		return 0
	}
	size := uint((n.BitLen() + 7) / 8)
	var mantissa uint32
	if size <= 3 {
		mantissa = uint32(n.Uint64()) << (8 * (3 - size))
	} else {
		mantissa = uint32(new(uint256.Int).Rsh(n, 8*(size-3)).Uint64())
	}
	// The sign bit is set: move the mantissa into the next byte.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		size++
	}
	return uint32(size<<24) | mantissa
}
