package gmerkle

import (
	"errors"
	"fmt"
)

// Axis identifies whether a tree commits to a row or a column.
type Axis uint8

const (
	Row Axis = iota
	Col
)

func (a Axis) String() string {
	switch a {
	case Row:
		return "row"
	case Col:
		return "col"
	default:
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
}

// Tree is an append-only Merkle tree over an ordered sequence of leaves.
// A Tree is used for a single commitment and is not safe for concurrent use.
type Tree interface {
	// Push appends a leaf.
	// The tree may retain the leaf slice, so callers must not modify it afterwards.
	// A leaf the tree cannot commit to, such as one out of namespace order,
	// is rejected with an error wrapping [ErrInvalidLeaf].
	Push(leaf []byte) error

	// Root returns the root hash over all pushed leaves,
	// or [ErrEmptyTree] if no leaves were pushed.
	Root() ([]byte, error)
}

// TreeFactory returns a fresh Tree for the axis at axisIndex
// of a square that is width cells wide.
type TreeFactory func(axis Axis, axisIndex, width int) Tree

// ErrEmptyTree is returned by [Tree.Root] when no leaves have been pushed.
var ErrEmptyTree = errors.New("merkle tree has no leaves")

// ErrInvalidLeaf is wrapped by [Tree.Push] when a leaf's contents are rejected.
// Such a leaf cannot belong to any honestly committed axis.
var ErrInvalidLeaf = errors.New("invalid merkle leaf")
