package gsquare

import (
	"bytes"
	"context"
	"fmt"
)

// ErasureExtendSquare doubles the width of an original data square,
// filling the three parity quadrants with the square's codec.
// It fails with [ErrAlreadyExtended] if called on an extended square.
// If it returns any other error, the square is left partially extended
// and must be discarded.
func (ds *DataSquare) ErasureExtendSquare(ctx context.Context) error {
	if ds.IsExtended() {
		return ErrAlreadyExtended
	}

	ow := ds.width

	// Extend the original square with filler chunks.
	// O represents original data, F represents filler chunks.
	//
	//  ------- -------
	// |       |       |
	// |   O   |   F   |
	// |       |       |
	//  ------- -------
	// |       |       |
	// |   F   |   F   |
	// |       |       |
	//  ------- -------
	ds.grow(make([]byte, ds.chunkSize))

	// Populate Q1 and Q2. E represents erasure data.
	// Each row task writes only the right half of its own row,
	// and each column task only the bottom half of its own column,
	// so the tasks touch disjoint cells.
	//
	//  ------- -------
	// |       |       |
	// |   O → |   E   |
	// |   ↓   |       |
	//  ------- -------
	// |       |       |
	// |   E   |   F   |
	// |       |       |
	//  ------- -------
	if err := forEachIndex(ctx, 2*ow, func(k int) error {
		if k < ow {
			return ds.erasureExtendRow(k)
		}
		return ds.erasureExtendCol(k - ow)
	}); err != nil {
		return err
	}

	// Populate Q3 from Q2.
	//
	//  ------- -------
	// |       |       |
	// |   O   |   E   |
	// |       |       |
	//  ------- -------
	// |       |       |
	// |   E → |   E   |
	// |       |       |
	//  ------- -------
	if err := forEachIndex(ctx, ow, func(k int) error {
		return ds.erasureExtendRow(ow + k)
	}); err != nil {
		return err
	}

	// Q3 must be identical when derived vertically from Q1.
	return forEachIndex(ctx, ow, func(k int) error {
		return ds.verifyCrossParity(ow + k)
	})
}

// grow doubles the square, filling every new cell with filler.
// Both orders are rebuilt from the grown row-major order.
func (ds *DataSquare) grow(filler []byte) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ow := ds.width
	w := 2 * ow

	newRows := make([][][]byte, w)
	for i := range w {
		newRows[i] = make([][]byte, w)
		if i < ow {
			copy(newRows[i], ds.squareRow[i])
		}
		for j := range w {
			if newRows[i][j] == nil {
				newRows[i][j] = filler
			}
		}
	}

	ds.squareRow = newRows
	ds.squareCol = transpose(newRows)
	ds.originalWidth = ow
	ds.width = w
}

func (ds *DataSquare) erasureExtendRow(i int) error {
	ow := ds.originalWidth
	parity, err := ds.codec.Encode(ds.squareRow[i][:ow])
	if err != nil {
		return fmt.Errorf("failed to extend row %d: %w", i, err)
	}
	ds.setRowSlice(i, ow, parity)
	return nil
}

func (ds *DataSquare) erasureExtendCol(j int) error {
	ow := ds.originalWidth
	parity, err := ds.codec.Encode(ds.squareCol[j][:ow])
	if err != nil {
		return fmt.Errorf("failed to extend column %d: %w", j, err)
	}
	ds.setColSlice(ow, j, parity)
	return nil
}

func (ds *DataSquare) verifyCrossParity(j int) error {
	ow := ds.originalWidth
	parity, err := ds.codec.Encode(ds.squareCol[j][:ow])
	if err != nil {
		return fmt.Errorf("failed to extend column %d: %w", j, err)
	}
	for k, p := range parity {
		if !bytes.Equal(p, ds.squareCol[j][ow+k]) {
			return fmt.Errorf("%w: column %d, row %d", ErrCrossParityMismatch, j, ow+k)
		}
	}
	return nil
}
