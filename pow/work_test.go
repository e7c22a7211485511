package pow

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	keccak "github.com/Giulio2002/meer_keccak"
)

func seqHeader() []byte {
	h := make([]byte, HeaderSize)
	for i := range h {
		h[i] = byte(i)
	}
	return h
}

func maxTarget() []byte {
	return bytes.Repeat([]byte{0xff}, TargetSize)
}

// topNibbleClear is 2^252 - 1: roughly one digest in sixteen meets it.
func topNibbleClear() []byte {
	t := IntToTarget(new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 252), 1))
	return t[:]
}

func TestNewWorkLengths(t *testing.T) {
	_, err := NewWork(make([]byte, 116), maxTarget())
	require.ErrorIs(t, err, keccak.ErrInvalidHeaderLength)

	_, err = NewWork(seqHeader(), make([]byte, 31))
	require.ErrorIs(t, err, ErrInvalidTargetLength)

	w, err := NewWork(seqHeader(), maxTarget())
	require.NoError(t, err)
	require.Equal(t, seqHeader(), w.Header[:])
}

func TestWorkNonce(t *testing.T) {
	w, err := NewWork(seqHeader(), maxTarget())
	require.NoError(t, err)

	w.SetNonce(0x0102030405060708)
	require.Equal(t, uint64(0x0102030405060708), w.Nonce())
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, w.Header[NonceOffset:])
	require.Equal(t, seqHeader()[:NonceOffset], w.Header[:NonceOffset])

	tail := w.Tail()
	require.Equal(t, w.Header[TailOffset:], tail[:])
	require.Equal(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(tail[nonceInTail:]))
}

func TestWorkTargetHigh(t *testing.T) {
	target := make([]byte, TargetSize)
	target[31] = 0x12
	target[24] = 0x34
	target[23] = 0xff
	w, err := NewWork(seqHeader(), target)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1200000000000034), w.TargetHigh())
}

func TestWorkMidstate(t *testing.T) {
	w, err := NewWork(seqHeader(), maxTarget())
	require.NoError(t, err)
	w.SetNonce(99)

	m, err := w.Midstate()
	require.NoError(t, err)
	want, err := keccak.MeerMidstate(seqHeader())
	require.NoError(t, err)
	require.Equal(t, want, m, "nonce lies past the first block")
}

func TestWorkVerify(t *testing.T) {
	w, err := NewWork(seqHeader(), maxTarget())
	require.NoError(t, err)

	s, err := w.Verify(7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), s.Nonce)

	header := seqHeader()
	binary.LittleEndian.PutUint64(header[NonceOffset:], 7)
	want, err := keccak.MeerHash(header)
	require.NoError(t, err)
	require.Equal(t, want, s.Digest)
	require.Equal(t, header, s.Header[:])
	require.Equal(t, seqHeader(), w.Header[:], "Verify must not modify the work")

	w.Target = [TargetSize]byte{}
	_, err = w.Verify(7)
	require.ErrorIs(t, err, ErrTargetNotMet)
}

func TestWorkVerifyKnownShare(t *testing.T) {
	w, err := NewWork(seqHeader(), topNibbleClear())
	require.NoError(t, err)

	s, err := w.Verify(50)
	require.NoError(t, err)
	require.Equal(t, "c14459338394cab3137d9eb014b38b8b4da9b3a35d20848ae7997395f9c9c901", hexDigest(s.Digest))
	for nonce := uint64(0); nonce < 50; nonce++ {
		_, err := w.Verify(nonce)
		require.ErrorIs(t, err, ErrTargetNotMet, "nonce %d", nonce)
	}
}
