package gereedsolomon

import (
	"errors"
	"fmt"

	"github.com/gordian-engine/gsquare/gerasure"
	"github.com/klauspost/reedsolomon"
)

// maxODSWidth is the widest original data square supported.
// klauspost/reedsolomon switches to Leopard GF(2^16) above 256 total shards,
// which supports up to 65536 total shards,
// so an extended width of 65536 and an original width of half that.
const maxODSWidth = 65536 / 2

// classicMaxShards is the largest total shard count
// handled by the GF(2^8) Vandermonde code.
const classicMaxShards = 256

// Codec is a systematic Reed-Solomon code with equal data and parity counts,
// satisfying [gerasure.Codec].
type Codec struct {
	rs      reedsolomon.Encoder
	dataLen int
}

var _ gerasure.Codec = (*Codec)(nil)

// NewCodec returns a new Codec with dataLen data shares and dataLen parity shares.
// Options are passed through to [reedsolomon.New];
// with no options the code is the default Vandermonde-derived matrix.
func NewCodec(dataLen int, opts ...reedsolomon.Option) (*Codec, error) {
	if dataLen <= 0 {
		return nil, fmt.Errorf("%w: data length must be > 0 (got %d)", gerasure.ErrCodecConstruction, dataLen)
	}
	if dataLen > maxODSWidth {
		return nil, fmt.Errorf(
			"%w: %w: %d > %d",
			gerasure.ErrCodecConstruction, gerasure.ErrDataLenTooLarge, dataLen, maxODSWidth,
		)
	}

	rs, err := reedsolomon.New(dataLen, dataLen, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create reed-solomon encoder: %w", gerasure.ErrCodecConstruction, err)
	}

	return &Codec{rs: rs, dataLen: dataLen}, nil
}

// DataLen satisfies [gerasure.Codec].
func (c *Codec) DataLen() int {
	return c.dataLen
}

// MaxChunks satisfies [gerasure.Codec].
func (c *Codec) MaxChunks() int {
	return maxODSWidth * maxODSWidth
}

// ValidateChunkSize reports whether shares of the given size
// can be coded by c.
// Leopard GF(2^16), used for more than 256 total shards,
// only accepts share sizes that are multiples of 64 bytes.
func (c *Codec) ValidateChunkSize(chunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be > 0 (got %d)", gerasure.ErrUnequalShareSize, chunkSize)
	}
	if 2*c.dataLen > classicMaxShards && chunkSize%64 != 0 {
		return fmt.Errorf("chunk size %d must be a multiple of 64 bytes for %d total shares", chunkSize, 2*c.dataLen)
	}
	return nil
}

// Encode satisfies [gerasure.Codec].
func (c *Codec) Encode(data [][]byte) ([][]byte, error) {
	if len(data) != c.dataLen {
		return nil, fmt.Errorf("%w: expected %d data shares, got %d", gerasure.ErrShareCountMismatch, c.dataLen, len(data))
	}

	shareSize := len(data[0])
	for i, d := range data {
		if len(d) == 0 || len(d) != shareSize {
			return nil, fmt.Errorf(
				"%w: data share %d has size %d, expected %d",
				gerasure.ErrUnequalShareSize, i, len(d), shareSize,
			)
		}
	}

	// The reedsolomon package computes parity in place,
	// so lay out the data shares followed by freshly allocated parity shares.
	allShares := make([][]byte, 2*c.dataLen)
	copy(allShares, data)
	for i := c.dataLen; i < len(allShares); i++ {
		allShares[i] = make([]byte, shareSize)
	}

	if err := c.rs.Encode(allShares); err != nil {
		return nil, fmt.Errorf("failed to encode parity: %w", err)
	}

	return allShares[c.dataLen:], nil
}

// Decode satisfies [gerasure.Codec].
// Returned data shares that were present in the input
// alias the caller's slices; reconstructed shares are newly allocated.
func (c *Codec) Decode(shares [][]byte) ([][]byte, error) {
	if len(shares) != 2*c.dataLen {
		return nil, fmt.Errorf("%w: expected %d shares, got %d", gerasure.ErrShareCountMismatch, 2*c.dataLen, len(shares))
	}

	present := 0
	shareSize := -1
	for i, s := range shares {
		if s == nil {
			continue
		}
		if len(s) == 0 || (shareSize >= 0 && len(s) != shareSize) {
			return nil, fmt.Errorf(
				"%w: share %d has size %d, expected %d",
				gerasure.ErrUnequalShareSize, i, len(s), shareSize,
			)
		}
		shareSize = len(s)
		present++
	}

	if present < c.dataLen {
		return nil, fmt.Errorf(
			"%w: have %d, need %d",
			gerasure.ErrInsufficientShares, present, c.dataLen,
		)
	}

	// Work on a copy of the outer slice so the caller's view
	// does not gain the reconstructed shares.
	work := make([][]byte, len(shares))
	copy(work, shares)

	if err := c.rs.ReconstructData(work); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			// That internal error indicates we need more shares,
			// so wrap our gerasure error to satisfy the Codec contract.
			return nil, fmt.Errorf("%w: %w", gerasure.ErrInsufficientShares, err)
		}
		return nil, fmt.Errorf("failed to reconstruct data: %w", err)
	}

	return work[:c.dataLen], nil
}
