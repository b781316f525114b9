// Package gmerkletest contains compliance tests for [gmerkle.TreeFactory] implementations.
package gmerkletest

import (
	"fmt"
	"testing"

	"github.com/gordian-engine/gsquare/gmerkle"
	"github.com/stretchr/testify/require"
)

// LeafFunc returns the leaf at index i of an axis that is width cells wide.
// Implementations with leaf format constraints (such as namespaces)
// supply leaves satisfying those constraints.
type LeafFunc func(i, width int) []byte

// TestTreeCompliance is the compliance test for a [gmerkle.TreeFactory].
func TestTreeCompliance(t *testing.T, f gmerkle.TreeFactory, leaf LeafFunc) {
	t.Helper()

	pushAll := func(t *testing.T, tree gmerkle.Tree, leaves [][]byte) []byte {
		t.Helper()
		for _, l := range leaves {
			require.NoError(t, tree.Push(l))
		}
		root, err := tree.Root()
		require.NoError(t, err)
		require.NotEmpty(t, root)
		return root
	}

	t.Run("empty tree", func(t *testing.T) {
		t.Parallel()

		_, err := f(gmerkle.Row, 0, 4).Root()
		require.ErrorIs(t, err, gmerkle.ErrEmptyTree)
	})

	for _, width := range []int{2, 4, 8, 16} {
		t.Run(fmt.Sprintf("width = %d", width), func(t *testing.T) {
			t.Parallel()

			leaves := make([][]byte, width)
			for i := range leaves {
				leaves[i] = leaf(i, width)
			}

			t.Run("deterministic", func(t *testing.T) {
				a := pushAll(t, f(gmerkle.Row, 0, width), leaves)
				b := pushAll(t, f(gmerkle.Row, 0, width), leaves)
				require.Equal(t, a, b)
			})

			t.Run("content sensitive", func(t *testing.T) {
				a := pushAll(t, f(gmerkle.Col, width-1, width), leaves)

				changed := make([][]byte, width)
				copy(changed, leaves)
				last := append([]byte(nil), leaves[width-1]...)
				last[len(last)-1] ^= 0x01
				changed[width-1] = last

				b := pushAll(t, f(gmerkle.Col, width-1, width), changed)
				require.NotEqual(t, a, b)
			})

			t.Run("order sensitive", func(t *testing.T) {
				// Swap the two parity leaves at the end,
				// which every implementation must accept in any order.
				a := pushAll(t, f(gmerkle.Row, width-1, width), leaves)

				swapped := make([][]byte, width)
				copy(swapped, leaves)
				swapped[width-2], swapped[width-1] = swapped[width-1], swapped[width-2]
				if string(swapped[width-2]) == string(swapped[width-1]) {
					t.Skip("leaf func produced identical trailing leaves")
				}

				b := pushAll(t, f(gmerkle.Row, width-1, width), swapped)
				require.NotEqual(t, a, b)
			})
		})
	}
}
