// Package gmbinary provides an RFC 6962 binary Merkle tree
// satisfying [gmerkle.Tree].
package gmbinary

import (
	"github.com/celestiaorg/go-square/merkle"
	"github.com/gordian-engine/gsquare/gmerkle"
)

// Tree accumulates leaves and hashes them with
// the SHA-256 RFC 6962 construction on Root.
type Tree struct {
	leaves [][]byte
}

var _ gmerkle.Tree = (*Tree)(nil)

// NewTree satisfies [gmerkle.TreeFactory].
// The binary tree does not depend on its position in the square.
func NewTree(_ gmerkle.Axis, _, width int) gmerkle.Tree {
	return &Tree{leaves: make([][]byte, 0, width)}
}

// Push satisfies [gmerkle.Tree].
func (t *Tree) Push(leaf []byte) error {
	t.leaves = append(t.leaves, leaf)
	return nil
}

// Root satisfies [gmerkle.Tree].
func (t *Tree) Root() ([]byte, error) {
	if len(t.leaves) == 0 {
		return nil, gmerkle.ErrEmptyTree
	}
	return merkle.HashFromByteSlices(t.leaves), nil
}
