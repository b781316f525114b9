package gmbinary_test

import (
	"testing"

	"github.com/celestiaorg/go-square/merkle"
	"github.com/gordian-engine/gsquare/gmerkle"
	"github.com/gordian-engine/gsquare/gmerkle/gmbinary"
	"github.com/gordian-engine/gsquare/gmerkle/gmerkletest"
	"github.com/stretchr/testify/require"
)

func TestTreeCompliance(t *testing.T) {
	gmerkletest.TestTreeCompliance(t, gmbinary.NewTree, func(i, _ int) []byte {
		return []byte{byte(i), byte(i >> 8), 0xAB}
	})
}

func TestTree_matchesRFC6962(t *testing.T) {
	t.Parallel()

	leaves := [][]byte{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 10, 11}}

	tree := gmbinary.NewTree(gmerkle.Row, 0, len(leaves))
	for _, l := range leaves {
		require.NoError(t, tree.Push(l))
	}
	root, err := tree.Root()
	require.NoError(t, err)
	require.Equal(t, merkle.HashFromByteSlices(leaves), root)
}
