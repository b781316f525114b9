// Package gsquaretest contains fixtures for tests
// that build, damage, and repair data squares.
package gsquaretest

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
)

// Seed returns a ChaCha8 seed derived from n,
// so callers can keep fixtures distinct with small integers.
func Seed(n uint64) [32]byte {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], n)
	return seed
}

// RandomChunks returns n chunks of size random bytes,
// deterministically generated from seed.
func RandomChunks(seed [32]byte, n, size int) [][]byte {
	chacha := rand.NewChaCha8(seed)
	out := make([][]byte, n)
	for i := range out {
		out[i] = make([]byte, size)
		_, _ = chacha.Read(out[i]) // ChaCha8 seeds don't error on Read.
	}
	return out
}

// SequentialChunks returns n chunks of size bytes
// whose contents count up from zero across all chunks, wrapping at 256.
func SequentialChunks(n, size int) [][]byte {
	out := make([][]byte, n)
	b := byte(0)
	for i := range out {
		out[i] = make([]byte, size)
		for j := range out[i] {
			out[i][j] = b
			b++
		}
	}
	return out
}

// NamespacedChunks returns n chunks of size bytes
// whose first nsSize bytes hold a namespace
// that is non-decreasing in flattened order.
// The remaining bytes are random, deterministically generated from seed.
//
// Because the namespaces increase across rows as well as within them,
// every row and column of a square built from the chunks is sorted.
func NamespacedChunks(seed [32]byte, n, size, nsSize int) [][]byte {
	if nsSize > size {
		panic("namespace size exceeds chunk size")
	}
	out := RandomChunks(seed, n, size)
	for i, c := range out {
		// Big-endian index in the low bytes of the namespace, zeros above.
		clear(c[:nsSize])
		for k := 0; k < nsSize && k < 8; k++ {
			c[nsSize-1-k] = byte(uint64(i) >> (8 * k))
		}
	}
	return out
}

// Sparse returns a copy of the row-major flattened square of the given width,
// keeping only cells for which keep returns true and setting the rest to nil.
func Sparse(flattened [][]byte, width int, keep func(row, col int) bool) [][]byte {
	out := make([][]byte, len(flattened))
	for k, c := range flattened {
		if keep(k/width, k%width) {
			out[k] = bytes.Clone(c)
		}
	}
	return out
}

// KeepQuadrant returns a keep function for [Sparse]
// that retains only quadrant q (0 through 3, row-major)
// of a square whose original width is ow.
func KeepQuadrant(q, ow int) func(row, col int) bool {
	rowHalf, colHalf := q/2, q%2
	return func(row, col int) bool {
		return row/ow == rowHalf && col/ow == colHalf
	}
}

// DropRandom returns a keep function for [Sparse]
// that drops at most maxPerRow cells from each row,
// choosing the dropped columns with rng.
// The returned function is only meaningful for a square of the given width.
func DropRandom(rng *rand.Rand, width, maxPerRow int) func(row, col int) bool {
	dropped := make([]map[int]bool, width)
	for i := range dropped {
		dropped[i] = make(map[int]bool, maxPerRow)
		n := rng.IntN(maxPerRow + 1)
		for _, col := range rng.Perm(width)[:n] {
			dropped[i][col] = true
		}
	}
	return func(row, col int) bool {
		return !dropped[row][col]
	}
}
