package gsquare

import (
	"errors"
	"fmt"

	"github.com/gordian-engine/gsquare/gerasure"
	"github.com/gordian-engine/gsquare/gmerkle"
)

// Construction errors.
var (
	ErrEmptyInput       = errors.New("data must not be empty")
	ErrNotSquareCount   = errors.New("number of chunks must be a square number")
	ErrUnequalChunkSize = errors.New("all chunks must be of equal non-zero size")
	ErrTooManyChunks    = errors.New("number of chunks exceeds the codec maximum")
	ErrOddWidth         = errors.New("extended square width must be even")
)

// Mutation errors.
var (
	ErrAlreadyExtended = errors.New("data square is already extended")
	ErrCellOccupied    = errors.New("cell already holds a chunk")
)

// ErrCrossParityMismatch indicates that extending the column parity by rows
// and extending the row parity by columns produced different bottom-right quadrants.
// That can only happen with a codec that is not linear.
var ErrCrossParityMismatch = errors.New("cross-parity quadrant derivations disagree")

// Repair errors.
var (
	// ErrUnrepairableSquare is returned by [ExtendedDataSquare.Repair]
	// when a full pass over every row and column recovers nothing
	// while cells are still missing.
	// Repair may succeed later once more chunks are available.
	ErrUnrepairableSquare = fmt.Errorf("data square cannot be repaired: %w", gerasure.ErrInsufficientShares)

	// ErrRootMismatch is wrapped by [*ErrByzantineData].
	ErrRootMismatch = errors.New("axis contents do not match the trusted root")

	ErrRootCountMismatch = errors.New("root count does not match square width")

	// errRepairBound is returned if repair neither finishes nor stalls
	// within the number of passes that can possibly make progress.
	errRepairBound = errors.New("repair exceeded pass bound")
)

// ErrByzantineData is returned by [ExtendedDataSquare.Repair]
// when the chunks present on an axis are inconsistent with that axis's trusted root.
// Unlike [ErrUnrepairableSquare], retrying with the same chunks cannot succeed.
type ErrByzantineData struct {
	Axis  gmerkle.Axis
	Index int

	// Shares is the axis as it was before the failed repair attempt,
	// with nil for missing chunks.
	Shares [][]byte
}

func (e *ErrByzantineData) Error() string {
	return fmt.Sprintf("byzantine %s: %d: %v", e.Axis, e.Index, ErrRootMismatch)
}

func (e *ErrByzantineData) Unwrap() error {
	return ErrRootMismatch
}
