package gsquare

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gordian-engine/gsquare/gerasure"
	"github.com/gordian-engine/gsquare/gmerkle"
)

// DataSquare stores all data for an original data square (ODS)
// or an extended data square (EDS).
// Data is held in both row-major and column-major order
// so that row and column slices are available without allocation.
//
// Every write goes through setCell, which updates both orders together.
// Chunks handed to a DataSquare must not be modified afterwards.
type DataSquare struct {
	log *slog.Logger

	// mu serializes writes to squareRow and squareCol.
	// Concurrent axis tasks write disjoint cells,
	// and never read an axis another task is writing.
	mu        sync.Mutex
	squareRow [][][]byte // squareRow[i][j] is row i, column j.
	squareCol [][][]byte // squareCol[j][i] is row i, column j.

	width         int
	originalWidth int
	chunkSize     int

	codec   gerasure.Codec
	newTree gmerkle.TreeFactory
}

// NewDataSquare returns an original data square holding the given chunks
// in row-major order.
// The number of chunks must be a perfect square,
// and every chunk must have the same non-zero length.
func NewDataSquare(chunks [][]byte, cfg Config) (*DataSquare, error) {
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

	chunkSize := len(chunks[0])
	for i, c := range chunks {
		if len(c) == 0 || len(c) != chunkSize {
			return nil, fmt.Errorf(
				"%w: chunk %d has %d bytes, expected %d",
				ErrUnequalChunkSize, i, len(c), chunkSize,
			)
		}
	}

	codec, err := newCodec(cfg, width, chunkSize)
	if err != nil {
		return nil, err
	}
	if len(chunks) > codec.MaxChunks() {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyChunks, len(chunks), codec.MaxChunks())
	}

	ds := newSquare(chunks, width, chunkSize, cfg)
	ds.originalWidth = width
	ds.codec = codec
	return ds, nil
}

// newSquare lays out chunks in both orders.
// It does not validate anything.
func newSquare(chunks [][]byte, width, chunkSize int, cfg Config) *DataSquare {
	squareRow := make([][][]byte, width)
	for i := range width {
		squareRow[i] = make([][]byte, width)
		copy(squareRow[i], chunks[i*width:(i+1)*width])
	}

	return &DataSquare{
		log:       cfg.Log,
		squareRow: squareRow,
		squareCol: transpose(squareRow),
		width:     width,
		chunkSize: chunkSize,
		newTree:   cfg.NewTree,
	}
}

func newCodec(cfg Config, dataLen, chunkSize int) (gerasure.Codec, error) {
	codec, err := cfg.NewCodec(dataLen)
	if err != nil {
		if errors.Is(err, gerasure.ErrDataLenTooLarge) {
			return nil, fmt.Errorf("%w: width %d: %w", ErrTooManyChunks, dataLen, err)
		}
		return nil, fmt.Errorf("failed to construct codec for width %d: %w", dataLen, err)
	}
	if codec.DataLen() != dataLen {
		return nil, fmt.Errorf(
			"%w: codec factory returned data length %d for width %d",
			gerasure.ErrCodecConstruction, codec.DataLen(), dataLen,
		)
	}

	if chunkSize > 0 {
		if err := validateChunkSize(codec, chunkSize); err != nil {
			return nil, err
		}
	}

	return codec, nil
}

// validateChunkSize applies the codec's share size constraints, if it has any.
func validateChunkSize(codec gerasure.Codec, chunkSize int) error {
	v, ok := codec.(interface{ ValidateChunkSize(int) error })
	if !ok {
		return nil
	}
	if err := v.ValidateChunkSize(chunkSize); err != nil {
		return fmt.Errorf("%w: %w", ErrUnequalChunkSize, err)
	}
	return nil
}

// squareWidth returns the integer square root of n,
// and whether n is a perfect square.
func squareWidth(n int) (int, bool) {
	w := int(math.Sqrt(float64(n)))
	// Correct for floating point error at large n.
	for w*w > n {
		w--
	}
	for (w+1)*(w+1) <= n {
		w++
	}
	return w, w*w == n
}

func transpose(rows [][][]byte) [][][]byte {
	width := len(rows)
	cols := make([][][]byte, width)
	for j := range width {
		cols[j] = make([][]byte, width)
		for i := range width {
			cols[j][i] = rows[i][j]
		}
	}
	return cols
}

// Width returns the current width of the square, in chunks.
func (ds *DataSquare) Width() int {
	return ds.width
}

// OriginalWidth returns the width of the square before extension.
// It equals Width on a square that has not been extended.
func (ds *DataSquare) OriginalWidth() int {
	return ds.originalWidth
}

// ChunkSize returns the size of every chunk in the square, in bytes.
func (ds *DataSquare) ChunkSize() int {
	return ds.chunkSize
}

// IsExtended reports whether the square holds parity quadrants.
func (ds *DataSquare) IsExtended() bool {
	return ds.width == 2*ds.originalWidth
}

// Cell returns a copy of the chunk at row i, column j,
// or nil if the cell is missing.
func (ds *DataSquare) Cell(i, j int) []byte {
	return bytes.Clone(ds.squareRow[i][j])
}

// Row returns a copy of row i.
func (ds *DataSquare) Row(i int) [][]byte {
	return deepCopy(ds.squareRow[i])
}

// Col returns a copy of column j.
func (ds *DataSquare) Col(j int) [][]byte {
	return deepCopy(ds.squareCol[j])
}

// Flattened returns a copy of every cell, concatenating the rows.
func (ds *DataSquare) Flattened() [][]byte {
	out := make([][]byte, 0, ds.width*ds.width)
	for _, row := range ds.squareRow {
		out = append(out, deepCopy(row)...)
	}
	return out
}

// FlattenedODS returns a copy of the original data quadrant, concatenating its rows.
func (ds *DataSquare) FlattenedODS() [][]byte {
	return ds.flattenedRange(0, 0, ds.originalWidth)
}

func (ds *DataSquare) flattenedRange(row0, col0, n int) [][]byte {
	out := make([][]byte, 0, n*n)
	for i := row0; i < row0+n; i++ {
		out = append(out, deepCopy(ds.squareRow[i][col0:col0+n])...)
	}
	return out
}

// axisCells returns the internal slice for the given axis.
// The caller must not modify it.
func (ds *DataSquare) axisCells(axis gmerkle.Axis, idx int) [][]byte {
	if axis == gmerkle.Row {
		return ds.squareRow[idx]
	}
	return ds.squareCol[idx]
}

// setCell writes chunk at row i, column j in both orders.
func (ds *DataSquare) setCell(i, j int, chunk []byte) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.squareRow[i][j] = chunk
	ds.squareCol[j][i] = chunk
}

// setAxisCell writes chunk at position k of the given axis.
func (ds *DataSquare) setAxisCell(axis gmerkle.Axis, idx, k int, chunk []byte) {
	if axis == gmerkle.Row {
		ds.setCell(idx, k, chunk)
	} else {
		ds.setCell(k, idx, chunk)
	}
}

// setRowSlice writes chunks into row i starting at column j.
func (ds *DataSquare) setRowSlice(i, j int, chunks [][]byte) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	for k, c := range chunks {
		ds.squareRow[i][j+k] = c
		ds.squareCol[j+k][i] = c
	}
}

// setColSlice writes chunks into column j starting at row i.
func (ds *DataSquare) setColSlice(i, j int, chunks [][]byte) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	for k, c := range chunks {
		ds.squareRow[i+k][j] = c
		ds.squareCol[j][i+k] = c
	}
}

// missingCount returns the number of nil cells.
func (ds *DataSquare) missingCount() int {
	n := 0
	for _, row := range ds.squareRow {
		for _, c := range row {
			if c == nil {
				n++
			}
		}
	}
	return n
}

func deepCopy(original [][]byte) [][]byte {
	dst := make([][]byte, len(original))
	for i, c := range original {
		dst[i] = bytes.Clone(c)
	}
	return dst
}
