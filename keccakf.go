package keccak

import "math/bits"

// rounds is the number of Keccak-f[1600] rounds.
const rounds = 24

// roundConstants are XORed into lane 0 by the iota step, one per round.
var roundConstants = [rounds]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

// rotations holds the rho step rotate-left amount for lane x+5y.
var rotations = [25]int{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

// piSource maps each destination lane of the pi step to the lane it is taken
// from: B[x+5y] = A[(x+3y)%5 + 5x].
var piSource = [25]int{
	0, 6, 12, 18, 24,
	3, 9, 10, 16, 22,
	1, 7, 13, 19, 20,
	4, 5, 11, 17, 23,
	2, 8, 14, 15, 21,
}

// keccakF1600 applies the 24-round Keccak-f[1600] permutation to a in place.
func keccakF1600(a *[25]uint64) {
	var (
		c, d [5]uint64
		b    [25]uint64
	)
	for round := 0; round < rounds; round++ {
		// theta
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = bits.RotateLeft64(c[(x+1)%5], 1) ^ c[(x+4)%5]
		}
		for i := 0; i < 25; i++ {
			a[i] ^= d[i%5]
		}

		// rho and pi
		for i := 0; i < 25; i++ {
			src := piSource[i]
			b[i] = bits.RotateLeft64(a[src], rotations[src])
		}

		// chi
		for y := 0; y < 25; y += 5 {
			b0, b1, b2, b3, b4 := b[y], b[y+1], b[y+2], b[y+3], b[y+4]
			a[y] = b0 ^ (^b1 & b2)
			a[y+1] = b1 ^ (^b2 & b3)
			a[y+2] = b2 ^ (^b3 & b4)
			a[y+3] = b3 ^ (^b4 & b0)
			a[y+4] = b4 ^ (^b0 & b1)
		}

		// iota
		a[0] ^= roundConstants[round]
	}
}
