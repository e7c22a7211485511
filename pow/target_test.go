package pow

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestDigestToIntLittleEndian(t *testing.T) {
	var d [32]byte
	d[0] = 0x01
	require.Equal(t, uint256.NewInt(1), DigestToInt(d))

	d = [32]byte{}
	d[31] = 0x01
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 248)
	require.Equal(t, want, DigestToInt(d))
}

func TestIntToTargetRoundTrip(t *testing.T) {
	n := new(uint256.Int).Lsh(uint256.NewInt(0xabcdef), 100)
	target := IntToTarget(n)
	require.Equal(t, n, TargetToInt(target))

	small := IntToTarget(uint256.NewInt(0x0102))
	require.Equal(t, byte(0x02), small[0])
	require.Equal(t, byte(0x01), small[1])
}

func TestMeetsTargetBoundary(t *testing.T) {
	var d [32]byte
	d[5] = 0x42
	n := DigestToInt(d)

	require.True(t, MeetsTarget(d, n), "digest equal to target must pass")
	require.True(t, MeetsTarget(d, new(uint256.Int).AddUint64(n, 1)))
	require.False(t, MeetsTarget(d, new(uint256.Int).SubUint64(n, 1)))
}

func TestCompactToTarget(t *testing.T) {
	tests := []struct {
		bits uint32
		want *uint256.Int
	}{
		{0x1d00ffff, new(uint256.Int).Lsh(uint256.NewInt(0xffff), 208)},
		{0x207fffff, new(uint256.Int).Lsh(uint256.NewInt(0x7fffff), 232)},
		{0x03123456, uint256.NewInt(0x123456)},
		{0x02123400, uint256.NewInt(0x1234)},
	}
	for _, tt := range tests {
		got, err := CompactToTarget(tt.bits)
		require.NoError(t, err, "bits %08x", tt.bits)
		require.Equal(t, tt.want, got, "bits %08x", tt.bits)
		require.Equal(t, tt.bits, TargetToCompact(got), "round trip %08x", tt.bits)
	}
}

func TestCompactToTargetInvalid(t *testing.T) {
	for _, bits := range []uint32{
		0x00000000, // zero
		0x01003456, // mantissa shifted away
		0x04923456, // negative
		0xff123456, // overflow
		0x22010000, // overflow with a short mantissa
	} {
		_, err := CompactToTarget(bits)
		require.ErrorIs(t, err, ErrInvalidCompact, "bits %08x", bits)
	}
}

func TestTargetToCompactSignBit(t *testing.T) {
	// 0x80 in the top mantissa byte would read back as negative.
	n := uint256.NewInt(0x800000)
	bits := TargetToCompact(n)
	require.Equal(t, uint32(0x04008000), bits)
	back, err := CompactToTarget(bits)
	require.NoError(t, err)
	require.Equal(t, n, back)
	require.Zero(t, TargetToCompact(new(uint256.Int)))
}
