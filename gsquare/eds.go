// Package gsquare implements the two-dimensional Reed-Solomon Merkle tree
// data availability scheme.
//
// An original data square of width k is extended to width 2k
// so that every row and every column is an erasure-coded codeword,
// and each row and column is committed to by a Merkle root.
// Given those roots, any sufficiently dense subset of the extended square
// can be repaired into the full square, and inconsistent data is detected
// rather than silently accepted.
package gsquare

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ExtendedDataSquare is a DataSquare after extension,
// together with its row and column roots once they are known.
type ExtendedDataSquare struct {
	*DataSquare

	roots Roots
}

// Quadrant identifies one of the four quadrants of an extended square.
//
//	 ---- ----
//	| Q0 | Q1 |
//	 ---- ----
//	| Q2 | Q3 |
//	 ---- ----
//
// Q0 holds original data, Q1 row parity, Q2 column parity
// and Q3 the parity of the parity.
type Quadrant int

const (
	Q0 Quadrant = iota
	Q1
	Q2
	Q3
)

// ComputeExtendedDataSquare builds the original data square from chunks,
// extends it, and computes its roots.
func ComputeExtendedDataSquare(ctx context.Context, chunks [][]byte, cfg Config) (_ *ExtendedDataSquare, err error) {
	ctx, span := tracer.Start(ctx, "compute-eds")
	defer func() {
		endSpan(span, err)
	}()

	ds, err := NewDataSquare(chunks, cfg)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("original_width", ds.width),
		attribute.Int("chunk_size", ds.chunkSize),
	)

	if err := ds.ErasureExtendSquare(ctx); err != nil {
		return nil, err
	}

	roots, err := ds.computeRoots(ctx)
	if err != nil {
		return nil, err
	}

	ds.log.Debug(
		"Computed extended data square",
		"width", ds.width,
		"chunk_size", ds.chunkSize,
	)

	return &ExtendedDataSquare{DataSquare: ds, roots: roots}, nil
}

// ImportExtendedDataSquare returns an extended data square
// from its flattened, row-major chunks.
// Missing chunks are nil; present chunks must all have the same size.
// The roots of an imported square are unknown until it is repaired.
func ImportExtendedDataSquare(chunks [][]byte, cfg Config) (*ExtendedDataSquare, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}

	width, ok := squareWidth(len(chunks))
	if !ok {
		return nil, fmt.Errorf("%w: got %d chunks", ErrNotSquareCount, len(chunks))
	}
	if width%2 != 0 {
		return nil, fmt.Errorf("%w: got width %d", ErrOddWidth, width)
	}

	chunkSize := 0
	for i, c := range chunks {
		if c == nil {
			continue
		}
		if chunkSize == 0 {
			chunkSize = len(c)
		}
		if len(c) == 0 || len(c) != chunkSize {
			return nil, fmt.Errorf(
				"%w: chunk %d has %d bytes, expected %d",
				ErrUnequalChunkSize, i, len(c), chunkSize,
			)
		}
	}

	ow := width / 2
	codec, err := newCodec(cfg, ow, chunkSize)
	if err != nil {
		return nil, err
	}
	if ow*ow > codec.MaxChunks() {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyChunks, ow*ow, codec.MaxChunks())
	}

	ds := newSquare(chunks, width, chunkSize, cfg)
	ds.originalWidth = ow
	ds.codec = codec

	return &ExtendedDataSquare{DataSquare: ds}, nil
}

// SetCell fills the missing cell at row i, column j.
// It fails with [ErrCellOccupied] if the cell already holds a chunk,
// and with [ErrUnequalChunkSize] if chunk differs in size from the square's chunks
// or, for the first chunk of an empty import, if the codec cannot code that size.
// SetCell must not be called concurrently with Repair.
func (eds *ExtendedDataSquare) SetCell(i, j int, chunk []byte) error {
	if eds.squareRow[i][j] != nil {
		return fmt.Errorf("%w: (%d, %d)", ErrCellOccupied, i, j)
	}
	if len(chunk) == 0 {
		return fmt.Errorf("%w: empty chunk for (%d, %d)", ErrUnequalChunkSize, i, j)
	}

	// An imported square with no chunks learns its chunk size here.
	eds.mu.Lock()
	if eds.chunkSize == 0 {
		if err := validateChunkSize(eds.codec, len(chunk)); err != nil {
			eds.mu.Unlock()
			return fmt.Errorf("chunk for (%d, %d): %w", i, j, err)
		}
		eds.chunkSize = len(chunk)
	}
	size := eds.chunkSize
	eds.mu.Unlock()

	if len(chunk) != size {
		return fmt.Errorf(
			"%w: chunk for (%d, %d) has %d bytes, expected %d",
			ErrUnequalChunkSize, i, j, len(chunk), size,
		)
	}

	eds.setCell(i, j, chunk)
	return nil
}

// Quadrant returns a flattened copy of quadrant q, with nil for missing cells.
func (eds *ExtendedDataSquare) Quadrant(q Quadrant) [][]byte {
	ow := eds.originalWidth
	switch q {
	case Q0:
		return eds.flattenedRange(0, 0, ow)
	case Q1:
		return eds.flattenedRange(0, ow, ow)
	case Q2:
		return eds.flattenedRange(ow, 0, ow)
	case Q3:
		return eds.flattenedRange(ow, ow, ow)
	default:
		panic(fmt.Errorf("invalid quadrant %d", q))
	}
}

// RowRoots returns a copy of the row roots, or nil if they are not yet known.
func (eds *ExtendedDataSquare) RowRoots() [][]byte {
	return eds.roots.clone().RowRoots
}

// ColRoots returns a copy of the column roots, or nil if they are not yet known.
func (eds *ExtendedDataSquare) ColRoots() [][]byte {
	return eds.roots.clone().ColRoots
}

// Roots returns a copy of both root sets.
func (eds *ExtendedDataSquare) Roots() Roots {
	return eds.roots.clone()
}

// Equal reports whether eds and o hold the same width and the same cells.
func (eds *ExtendedDataSquare) Equal(o *ExtendedDataSquare) bool {
	if eds.width != o.width {
		return false
	}
	for i := range eds.width {
		if !equalChunks(eds.squareRow[i], o.squareRow[i]) {
			return false
		}
	}
	return true
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
