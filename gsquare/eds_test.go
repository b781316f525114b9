package gsquare_test

import (
	"context"
	"testing"

	"github.com/celestiaorg/go-square/merkle"
	"github.com/gordian-engine/gsquare/gmerkle/gmnmt"
	"github.com/gordian-engine/gsquare/gsquare"
	"github.com/gordian-engine/gsquare/gsquare/gsquaretest"
	"github.com/gordian-engine/gsquare/internal/gtest"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) gsquare.Config {
	t.Helper()
	cfg := gsquare.DefaultConfig()
	cfg.Log = gtest.NewLogger(t)
	return cfg
}

// newEDS returns a computed square of original width ow,
// filled with random chunks of the given size.
func newEDS(t *testing.T, cfg gsquare.Config, ow, size int, seed uint64) *gsquare.ExtendedDataSquare {
	t.Helper()

	chunks := gsquaretest.RandomChunks(gsquaretest.Seed(seed), ow*ow, size)
	eds, err := gsquare.ComputeExtendedDataSquare(context.Background(), chunks, cfg)
	require.NoError(t, err)
	return eds
}

func TestComputeExtendedDataSquare_fixedVector(t *testing.T) {
	t.Parallel()

	eds, err := gsquare.ComputeExtendedDataSquare(
		context.Background(), gsquaretest.SequentialChunks(4, 4), testConfig(t),
	)
	require.NoError(t, err)

	require.Equal(t, [][]byte{
		{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 10, 11}, {12, 13, 14, 15},
		{8, 9, 10, 11}, {12, 13, 14, 15}, {0, 1, 2, 3}, {4, 5, 6, 7},
		{16, 17, 18, 19}, {20, 21, 22, 23}, {24, 25, 26, 27}, {28, 29, 30, 31},
		{24, 25, 26, 27}, {28, 29, 30, 31}, {16, 17, 18, 19}, {20, 21, 22, 23},
	}, eds.Flattened())
}

func TestComputeExtendedDataSquare_roots(t *testing.T) {
	t.Parallel()

	eds := newEDS(t, testConfig(t), 4, 32, 1)

	rowRoots := eds.RowRoots()
	colRoots := eds.ColRoots()
	require.Len(t, rowRoots, 8)
	require.Len(t, colRoots, 8)
	for i := range 8 {
		require.Equal(t, merkle.HashFromByteSlices(eds.Row(i)), rowRoots[i])
		require.Equal(t, merkle.HashFromByteSlices(eds.Col(i)), colRoots[i])
	}

	roots := eds.Roots()
	require.NoError(t, roots.Validate(8))
	require.Equal(t, rowRoots, roots.RowRoots)
	require.Equal(t, colRoots, roots.ColRoots)

	// Returned roots are copies.
	rowRoots[0][0] ^= 0xFF
	require.NotEqual(t, rowRoots[0], eds.RowRoots()[0])
}

func TestComputeExtendedDataSquare_errors(t *testing.T) {
	t.Parallel()

	_, err := gsquare.ComputeExtendedDataSquare(context.Background(), nil, testConfig(t))
	require.ErrorIs(t, err, gsquare.ErrEmptyInput)

	_, err = gsquare.ComputeExtendedDataSquare(
		context.Background(), gsquaretest.SequentialChunks(3, 4), testConfig(t),
	)
	require.ErrorIs(t, err, gsquare.ErrNotSquareCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gsquare.ComputeExtendedDataSquare(ctx, gsquaretest.SequentialChunks(4, 4), testConfig(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtendedDataSquare_Quadrant(t *testing.T) {
	t.Parallel()

	eds, err := gsquare.ComputeExtendedDataSquare(
		context.Background(), gsquaretest.SequentialChunks(4, 4), testConfig(t),
	)
	require.NoError(t, err)

	require.Equal(t, gsquaretest.SequentialChunks(4, 4), eds.Quadrant(gsquare.Q0))
	require.Equal(t, eds.FlattenedODS(), eds.Quadrant(gsquare.Q0))
	require.Equal(t, [][]byte{
		{8, 9, 10, 11}, {12, 13, 14, 15},
		{0, 1, 2, 3}, {4, 5, 6, 7},
	}, eds.Quadrant(gsquare.Q1))
	require.Equal(t, [][]byte{
		{16, 17, 18, 19}, {20, 21, 22, 23},
		{24, 25, 26, 27}, {28, 29, 30, 31},
	}, eds.Quadrant(gsquare.Q2))
	require.Equal(t, [][]byte{
		{24, 25, 26, 27}, {28, 29, 30, 31},
		{16, 17, 18, 19}, {20, 21, 22, 23},
	}, eds.Quadrant(gsquare.Q3))

	require.Panics(t, func() { eds.Quadrant(gsquare.Quadrant(4)) })
}

func TestImportExtendedDataSquare_errors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		chunks [][]byte
		want   error
	}{
		{name: "empty", chunks: nil, want: gsquare.ErrEmptyInput},
		{name: "not square", chunks: make([][]byte, 5), want: gsquare.ErrNotSquareCount},
		{name: "odd width", chunks: make([][]byte, 9), want: gsquare.ErrOddWidth},
		{
			name:   "unequal sizes",
			chunks: [][]byte{{1, 2}, nil, nil, {3}},
			want:   gsquare.ErrUnequalChunkSize,
		},
		{
			name:   "empty chunk",
			chunks: [][]byte{{}, nil, nil, nil},
			want:   gsquare.ErrUnequalChunkSize,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := gsquare.ImportExtendedDataSquare(tc.chunks, testConfig(t))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestImportExtendedDataSquare_sparse(t *testing.T) {
	t.Parallel()

	orig := newEDS(t, testConfig(t), 2, 8, 2)
	sparse := gsquaretest.Sparse(orig.Flattened(), 4, gsquaretest.KeepQuadrant(1, 2))

	eds, err := gsquare.ImportExtendedDataSquare(sparse, testConfig(t))
	require.NoError(t, err)

	require.Equal(t, 4, eds.Width())
	require.Equal(t, 2, eds.OriginalWidth())
	require.Equal(t, 8, eds.ChunkSize())
	require.True(t, eds.IsExtended())
	require.True(t, eds.Roots().IsZero())
	require.Nil(t, eds.RowRoots())

	require.Equal(t, sparse, eds.Flattened())
	require.Nil(t, eds.Cell(0, 0))
	require.Equal(t, orig.Cell(0, 2), eds.Cell(0, 2))

	require.False(t, eds.Equal(orig))
}

func TestExtendedDataSquare_SetCell(t *testing.T) {
	t.Parallel()

	orig := newEDS(t, testConfig(t), 2, 8, 3)
	eds, err := gsquare.ImportExtendedDataSquare(make([][]byte, 16), testConfig(t))
	require.NoError(t, err)
	require.Zero(t, eds.ChunkSize())

	require.ErrorIs(t, eds.SetCell(0, 0, nil), gsquare.ErrUnequalChunkSize)

	// The first chunk sets the size for an empty import.
	require.NoError(t, eds.SetCell(0, 0, orig.Cell(0, 0)))
	require.Equal(t, 8, eds.ChunkSize())
	require.Equal(t, orig.Cell(0, 0), eds.Cell(0, 0))

	require.ErrorIs(t, eds.SetCell(0, 0, orig.Cell(0, 0)), gsquare.ErrCellOccupied)
	require.ErrorIs(t, eds.SetCell(0, 1, []byte{1, 2, 3}), gsquare.ErrUnequalChunkSize)

	// Enough cells to repair the square from its first two rows.
	for i := range 2 {
		for j := range 4 {
			if i == 0 && j == 0 {
				continue
			}
			require.NoError(t, eds.SetCell(i, j, orig.Cell(i, j)))
		}
	}
	require.Equal(t, orig.Row(1), eds.Row(1))
	require.Equal(t, orig.Col(3)[:2], eds.Col(3)[:2])

	require.NoError(t, eds.Repair(context.Background(), orig.RowRoots(), orig.ColRoots()))
	require.True(t, eds.Equal(orig))
}

func TestExtendedDataSquare_SetCell_codecChunkSize(t *testing.T) {
	t.Parallel()

	// An original width above 128 needs chunk sizes in multiples of 64.
	const w = 2 * 129
	eds, err := gsquare.ImportExtendedDataSquare(make([][]byte, w*w), testConfig(t))
	require.NoError(t, err)

	require.ErrorIs(t, eds.SetCell(0, 0, make([]byte, 4)), gsquare.ErrUnequalChunkSize)
	require.Zero(t, eds.ChunkSize())
	require.Nil(t, eds.Cell(0, 0))

	require.NoError(t, eds.SetCell(0, 0, make([]byte, 64)))
	require.Equal(t, 64, eds.ChunkSize())
}

func TestComputeExtendedDataSquare_nmt(t *testing.T) {
	t.Parallel()

	const ow, size, nsSize = 4, 64, 8

	cfg := testConfig(t)
	cfg.NewTree = gmnmt.NewFactory(gmnmt.Options{NamespaceSize: nsSize})

	chunks := gsquaretest.NamespacedChunks(gsquaretest.Seed(4), ow*ow, size, nsSize)
	orig, err := gsquare.ComputeExtendedDataSquare(context.Background(), chunks, cfg)
	require.NoError(t, err)

	plain, err := gsquare.ComputeExtendedDataSquare(context.Background(), chunks, testConfig(t))
	require.NoError(t, err)
	require.True(t, orig.Equal(plain))
	require.False(t, orig.Roots().Equal(plain.Roots()))

	// Rows of parity data carry only the parity namespace.
	parityNS := gmnmt.ParityNamespace(nsSize)
	lastRow := orig.RowRoots()[2*ow-1]
	require.Equal(t, parityNS, lastRow[:nsSize])
	require.Equal(t, parityNS, lastRow[nsSize:2*nsSize])

	// The first row starts at the first chunk's namespace.
	require.Equal(t, chunks[0][:nsSize], orig.RowRoots()[0][:nsSize])

	for q := range 4 {
		sparse := gsquaretest.Sparse(orig.Flattened(), 2*ow, gsquaretest.KeepQuadrant(q, ow))
		eds, err := gsquare.ImportExtendedDataSquare(sparse, cfg)
		require.NoError(t, err)

		require.NoError(t, eds.Repair(context.Background(), orig.RowRoots(), orig.ColRoots()), "quadrant %d", q)
		require.True(t, eds.Equal(orig), "quadrant %d", q)
	}
}

func TestRoots(t *testing.T) {
	t.Parallel()

	a := newEDS(t, testConfig(t), 2, 8, 5).Roots()
	b := newEDS(t, testConfig(t), 2, 8, 6).Roots()

	require.True(t, a.Equal(a))
	require.False(t, a.Equal(b))
	require.False(t, a.IsZero())
	require.True(t, gsquare.Roots{}.IsZero())

	all := append(append([][]byte{}, a.RowRoots...), a.ColRoots...)
	require.Equal(t, merkle.HashFromByteSlices(all), a.Hash())
	require.NotEqual(t, a.Hash(), b.Hash())

	require.ErrorIs(t, a.Validate(2), gsquare.ErrRootCountMismatch)
	require.NoError(t, a.Validate(4))

	a.ColRoots[3] = nil
	require.Error(t, a.Validate(4))
}
