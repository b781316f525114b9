package gerasure

import (
	"errors"
)

// Codec is a systematic erasure code over a fixed number of data shares.
// For a codec with DataLen() == k,
// an encoded axis consists of the k data shares followed by k parity shares.
//
// A single Codec is expected to be reused for every row and column
// of a square, so implementations must be safe for concurrent use.
type Codec interface {
	// Encode returns the parity shares for exactly DataLen() data shares.
	// All data shares must be non-nil and of equal length.
	// The input slices are not modified,
	// and the returned parity shares are newly allocated.
	Encode(data [][]byte) ([][]byte, error)

	// Decode accepts 2*DataLen() shares, data shares first,
	// where missing shares are nil.
	// It returns the DataLen() original data shares,
	// or an error wrapping [ErrInsufficientShares]
	// if fewer than DataLen() shares were present.
	//
	// A present share must never be zero-filled to signal absence;
	// zero bytes are valid share content.
	Decode(shares [][]byte) ([][]byte, error)

	// MaxChunks reports the largest number of chunks
	// in an original data square that the codec supports.
	MaxChunks() int

	// DataLen reports the number of data shares per axis.
	DataLen() int
}

// CodecFactory returns a Codec for the given number of data shares.
// Factories may return a cached value for repeated dataLen arguments.
type CodecFactory func(dataLen int) (Codec, error)

var (
	// ErrCodecConstruction is wrapped when the underlying field arithmetic
	// cannot be set up for the requested share count.
	ErrCodecConstruction = errors.New("failed to construct erasure codec")

	// ErrDataLenTooLarge is wrapped, along with [ErrCodecConstruction],
	// when the requested data length exceeds what the codec supports.
	ErrDataLenTooLarge = errors.New("data length exceeds codec maximum")

	// ErrShareCountMismatch is returned when Encode or Decode
	// receive a share count different from what the codec was built for.
	ErrShareCountMismatch = errors.New("share count does not match codec")

	// ErrUnequalShareSize is returned when present shares differ in length,
	// or when a present share is empty.
	ErrUnequalShareSize = errors.New("shares are not all of equal non-zero size")

	// ErrInsufficientShares is returned by [Codec.Decode]
	// when too few shares are present to reconstruct the data.
	ErrInsufficientShares = errors.New("insufficient shares to reconstruct data")
)
