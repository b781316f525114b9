package gmnmt_test

import (
	"bytes"
	"testing"

	"github.com/gordian-engine/gsquare/gmerkle"
	"github.com/gordian-engine/gsquare/gmerkle/gmerkletest"
	"github.com/gordian-engine/gsquare/gmerkle/gmnmt"
	"github.com/stretchr/testify/require"
)

const nsSize = 8

// namespacedLeaf returns a leaf whose namespace increases with i,
// so that original-quadrant leaves are always in namespace order.
func namespacedLeaf(i, _ int) []byte {
	leaf := make([]byte, nsSize+4)
	leaf[nsSize-1] = byte(i)
	copy(leaf[nsSize:], []byte{byte(i), 0xA, 0xB, 0xC})
	return leaf
}

func TestTreeCompliance(t *testing.T) {
	t.Run("sha256", func(t *testing.T) {
		gmerkletest.TestTreeCompliance(
			t,
			gmnmt.NewFactory(gmnmt.Options{NamespaceSize: nsSize}),
			namespacedLeaf,
		)
	})

	t.Run("blake2b", func(t *testing.T) {
		gmerkletest.TestTreeCompliance(
			t,
			gmnmt.NewFactory(gmnmt.Options{NamespaceSize: nsSize, Hash: gmnmt.HashBLAKE2b256}),
			namespacedLeaf,
		)
	})
}

func TestTree_hashesDiffer(t *testing.T) {
	t.Parallel()

	root := func(f gmerkle.TreeFactory) []byte {
		tree := f(gmerkle.Row, 0, 4)
		for i := range 4 {
			require.NoError(t, tree.Push(namespacedLeaf(i, 4)))
		}
		r, err := tree.Root()
		require.NoError(t, err)
		return r
	}

	a := root(gmnmt.NewFactory(gmnmt.Options{NamespaceSize: nsSize}))
	b := root(gmnmt.NewFactory(gmnmt.Options{NamespaceSize: nsSize, Hash: gmnmt.HashBLAKE2b256}))
	require.NotEqual(t, a, b)
}

func TestTree_parityNamespace(t *testing.T) {
	t.Parallel()

	f := gmnmt.NewFactory(gmnmt.Options{NamespaceSize: nsSize})

	// The root of an NMT starts with the minimum namespace and then the maximum namespace.
	// A row outside the original quadrant only holds parity leaves.
	tree := f(gmerkle.Row, 3, 4)
	for i := range 4 {
		require.NoError(t, tree.Push(namespacedLeaf(i, 4)))
	}
	root, err := tree.Root()
	require.NoError(t, err)
	require.True(t, bytes.Equal(gmnmt.ParityNamespace(nsSize), root[:nsSize]))

	// An original row starts with the namespace of its first leaf.
	tree = f(gmerkle.Row, 0, 4)
	for i := range 4 {
		require.NoError(t, tree.Push(namespacedLeaf(i, 4)))
	}
	root, err = tree.Root()
	require.NoError(t, err)
	require.Equal(t, namespacedLeaf(0, 4)[:nsSize], root[:nsSize])
}

func TestTree_rejects(t *testing.T) {
	t.Parallel()

	f := gmnmt.NewFactory(gmnmt.Options{NamespaceSize: nsSize})

	t.Run("short leaf", func(t *testing.T) {
		tree := f(gmerkle.Row, 0, 2)
		require.ErrorIs(t, tree.Push([]byte{1, 2}), gmerkle.ErrInvalidLeaf)
	})

	t.Run("past width", func(t *testing.T) {
		tree := f(gmerkle.Row, 0, 2)
		require.NoError(t, tree.Push(namespacedLeaf(0, 2)))
		require.NoError(t, tree.Push(namespacedLeaf(1, 2)))
		require.ErrorIs(t, tree.Push(namespacedLeaf(2, 2)), gmnmt.ErrTreeFull)
	})

	t.Run("out of namespace order", func(t *testing.T) {
		tree := f(gmerkle.Row, 0, 4)
		require.NoError(t, tree.Push(namespacedLeaf(1, 4)))
		require.ErrorIs(t, tree.Push(namespacedLeaf(0, 4)), gmerkle.ErrInvalidLeaf)
	})
}
