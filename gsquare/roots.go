package gsquare

import (
	"bytes"
	"context"
	"fmt"

	"github.com/celestiaorg/go-square/merkle"
	"github.com/gordian-engine/gsquare/gmerkle"
)

// Roots holds the commitment to an extended data square:
// one Merkle root per row and one per column.
type Roots struct {
	RowRoots [][]byte
	ColRoots [][]byte
}

// Validate reports whether r has exactly width non-empty roots per axis.
func (r Roots) Validate(width int) error {
	if len(r.RowRoots) != width {
		return fmt.Errorf("%w: %d row roots for width %d", ErrRootCountMismatch, len(r.RowRoots), width)
	}
	if len(r.ColRoots) != width {
		return fmt.Errorf("%w: %d column roots for width %d", ErrRootCountMismatch, len(r.ColRoots), width)
	}
	for i := range width {
		if len(r.RowRoots[i]) == 0 {
			return fmt.Errorf("row root %d is empty", i)
		}
		if len(r.ColRoots[i]) == 0 {
			return fmt.Errorf("column root %d is empty", i)
		}
	}
	return nil
}

// Hash returns the RFC 6962 Merkle root over the row roots
// followed by the column roots.
// It is the single value a block header needs to carry for the square.
func (r Roots) Hash() []byte {
	all := make([][]byte, 0, len(r.RowRoots)+len(r.ColRoots))
	all = append(all, r.RowRoots...)
	all = append(all, r.ColRoots...)
	return merkle.HashFromByteSlices(all)
}

// Equal reports whether r and o hold identical roots.
func (r Roots) Equal(o Roots) bool {
	return equalChunks(r.RowRoots, o.RowRoots) && equalChunks(r.ColRoots, o.ColRoots)
}

// IsZero reports whether no roots are set.
func (r Roots) IsZero() bool {
	return r.RowRoots == nil && r.ColRoots == nil
}

func (r Roots) clone() Roots {
	if r.IsZero() {
		return Roots{}
	}
	return Roots{
		RowRoots: deepCopy(r.RowRoots),
		ColRoots: deepCopy(r.ColRoots),
	}
}

func equalChunks(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// computeRoots computes every row and column root of a fully populated square.
func (ds *DataSquare) computeRoots(ctx context.Context) (Roots, error) {
	rowRoots := make([][]byte, ds.width)
	colRoots := make([][]byte, ds.width)

	// Each task writes only its own entry of one of the root slices.
	err := forEachIndex(ctx, 2*ds.width, func(k int) error {
		axis, idx := gmerkle.Row, k
		dst := rowRoots
		if k >= ds.width {
			axis, idx = gmerkle.Col, k-ds.width
			dst = colRoots
		}

		root, err := ds.axisRoot(axis, idx, ds.axisCells(axis, idx))
		if err != nil {
			return err
		}
		dst[idx] = root
		return nil
	})
	if err != nil {
		return Roots{}, err
	}

	return Roots{RowRoots: rowRoots, ColRoots: colRoots}, nil
}

// axisRoot returns the root over cells as the given axis of the square.
// Every cell must be present.
func (ds *DataSquare) axisRoot(axis gmerkle.Axis, idx int, cells [][]byte) ([]byte, error) {
	tree := ds.newTree(axis, idx, ds.width)
	for k, c := range cells {
		if c == nil {
			return nil, fmt.Errorf("cannot compute %s %d root: cell %d is missing", axis, idx, k)
		}
		if err := tree.Push(c); err != nil {
			return nil, fmt.Errorf("failed to push cell %d of %s %d: %w", k, axis, idx, err)
		}
	}

	root, err := tree.Root()
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s %d root: %w", axis, idx, err)
	}
	return root, nil
}
