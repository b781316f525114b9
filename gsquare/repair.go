package gsquare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/gsquare/gmerkle"
	"go.opentelemetry.io/otel/attribute"
)

// Repair fills every missing cell of eds using the trusted roots.
//
// Each pass solves all rows concurrently, then all columns concurrently.
// An axis with at most OriginalWidth missing cells is decoded,
// its root is checked against the trusted root,
// and the missing cells are written.
// Passes repeat until the square is complete,
// or until a pass recovers nothing.
//
// Repair returns an error wrapping [ErrUnrepairableSquare]
// if too few chunks are present, which may be resolved by retrying with more chunks;
// or a [*ErrByzantineData] if present chunks contradict a trusted root.
// On any error, cells recovered before the failure remain in the square.
//
// On success the square's roots are set to the trusted roots.
// Repairing a complete square only verifies it.
func (eds *ExtendedDataSquare) Repair(ctx context.Context, rowRoots, colRoots [][]byte) (err error) {
	ctx, span := tracer.Start(ctx, "repair-square")
	defer func() {
		endSpan(span, err)
	}()
	span.SetAttributes(attribute.Int("width", eds.width))

	trusted := Roots{RowRoots: rowRoots, ColRoots: colRoots}
	if err := trusted.Validate(eds.width); err != nil {
		return err
	}

	r := &repairer{
		eds:      eds,
		trusted:  trusted,
		log:      eds.log.With("width", eds.width),
		verified: [2]*bitset.BitSet{bitset.New(uint(eds.width)), bitset.New(uint(eds.width))},
	}

	passes, err := r.run(ctx)
	span.SetAttributes(attribute.Int("passes", passes))
	if err != nil {
		return err
	}

	eds.roots = trusted.clone()
	return nil
}

type repairer struct {
	eds     *ExtendedDataSquare
	trusted Roots
	log     *slog.Logger

	// verified holds, per axis, the indices whose complete contents
	// have been checked against the trusted root.
	// Only modified between concurrent sections.
	verified [2]*bitset.BitSet
}

func (r *repairer) run(ctx context.Context) (int, error) {
	// Every pass that recovers cells completes at least one row or column,
	// so a square that neither finishes nor stalls within 2*width passes
	// indicates a bug.
	maxPasses := 2 * r.eds.width

	for pass := 1; pass <= maxPasses; pass++ {
		filled, err := r.pass(ctx)
		if err != nil {
			var byz *ErrByzantineData
			if errors.As(err, &byz) {
				r.log.Warn(
					"Byzantine data detected during repair",
					"axis", byz.Axis, "index", byz.Index, "pass", pass,
				)
			}
			return pass, err
		}

		missing := r.eds.missingCount()
		r.log.Debug("Completed repair pass", "pass", pass, "filled", filled, "missing", missing)

		if missing == 0 {
			// Axes completed by the other axis's decoding in this pass
			// have not yet been checked against their own roots.
			if err := r.verifyRemaining(ctx); err != nil {
				return pass, err
			}
			r.log.Info("Data square repaired", "passes", pass)
			return pass, nil
		}

		if filled == 0 {
			return pass, fmt.Errorf("%w: %d cells missing after %d passes", ErrUnrepairableSquare, missing, pass)
		}
	}

	return maxPasses, fmt.Errorf("%w: %d", errRepairBound, maxPasses)
}

// pass solves every row, then every column,
// and returns the number of cells recovered.
func (r *repairer) pass(ctx context.Context) (int, error) {
	filled := 0
	for _, axis := range []gmerkle.Axis{gmerkle.Row, gmerkle.Col} {
		n, err := r.solveAxes(ctx, axis)
		filled += n
		if err != nil {
			return filled, err
		}
	}
	return filled, nil
}

func (r *repairer) verifyRemaining(ctx context.Context) error {
	for _, axis := range []gmerkle.Axis{gmerkle.Row, gmerkle.Col} {
		if _, err := r.solveAxes(ctx, axis); err != nil {
			return err
		}
	}
	return nil
}

// solveAxes attempts every unverified axis of the given orientation concurrently.
// Each task reads and writes only cells on its own axis,
// so tasks do not observe each other's writes.
func (r *repairer) solveAxes(ctx context.Context, axis gmerkle.Axis) (int, error) {
	width := r.eds.width
	verified := r.verified[axis]
	solved := make([]bool, width)
	var filled atomic.Int64

	err := forEachIndex(ctx, width, func(i int) error {
		if verified.Test(uint(i)) {
			return nil
		}

		n, ok, err := r.solveAxis(axis, i)
		filled.Add(int64(n))
		solved[i] = ok
		return err
	})

	// Record verified axes even on error,
	// as their contents were written and checked.
	for i, ok := range solved {
		if ok {
			verified.Set(uint(i))
		}
	}

	return int(filled.Load()), err
}

// solveAxis verifies or repairs a single axis.
// It reports the number of cells written,
// and whether the axis is now complete and verified.
func (r *repairer) solveAxis(axis gmerkle.Axis, idx int) (int, bool, error) {
	eds := r.eds
	cells := make([][]byte, eds.width)
	copy(cells, eds.axisCells(axis, idx))

	missing := 0
	for _, c := range cells {
		if c == nil {
			missing++
		}
	}

	if missing == 0 {
		if err := r.checkRoot(axis, idx, cells, cells); err != nil {
			return 0, false, err
		}
		return 0, true, nil
	}

	if missing > eds.originalWidth {
		// Not enough shares on this axis alone; another pass may help.
		return 0, false, nil
	}

	data, err := eds.codec.Decode(cells)
	if err != nil {
		return 0, false, fmt.Errorf("failed to decode %s %d: %w", axis, idx, err)
	}
	parity, err := eds.codec.Encode(data)
	if err != nil {
		return 0, false, fmt.Errorf("failed to re-encode %s %d: %w", axis, idx, err)
	}

	rebuilt := make([][]byte, 0, eds.width)
	rebuilt = append(rebuilt, data...)
	rebuilt = append(rebuilt, parity...)

	if err := r.checkRoot(axis, idx, rebuilt, cells); err != nil {
		return 0, false, err
	}

	// The decoder only needs OriginalWidth shares,
	// so a tampered share outside that set would survive decoding.
	// Check every present share against the verified rebuild.
	for k, c := range cells {
		if c != nil && !bytes.Equal(c, rebuilt[k]) {
			return 0, false, newByzantine(axis, idx, cells)
		}
	}

	filled := 0
	for k, c := range cells {
		if c == nil {
			eds.setAxisCell(axis, idx, k, rebuilt[k])
			filled++
		}
	}
	return filled, true, nil
}

// checkRoot compares the root over leaves with the trusted root for the axis.
// Leaves rejected by the tree are inconsistent with any trusted root,
// so both a rejection and a mismatch report cells as byzantine.
func (r *repairer) checkRoot(axis gmerkle.Axis, idx int, leaves, cells [][]byte) error {
	root, err := r.eds.axisRoot(axis, idx, leaves)
	if err != nil {
		if errors.Is(err, gmerkle.ErrInvalidLeaf) {
			return newByzantine(axis, idx, cells)
		}
		return err
	}
	if !bytes.Equal(root, r.trustedRoot(axis, idx)) {
		return newByzantine(axis, idx, cells)
	}
	return nil
}

func (r *repairer) trustedRoot(axis gmerkle.Axis, idx int) []byte {
	if axis == gmerkle.Row {
		return r.trusted.RowRoots[idx]
	}
	return r.trusted.ColRoots[idx]
}

func newByzantine(axis gmerkle.Axis, idx int, cells [][]byte) *ErrByzantineData {
	return &ErrByzantineData{
		Axis:   axis,
		Index:  idx,
		Shares: deepCopy(cells),
	}
}
