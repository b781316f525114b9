// Package gmnmt provides an erasured namespaced Merkle tree
// satisfying [gmerkle.Tree].
//
// Leaves in the original quadrant of an extended data square
// carry their own namespace in their first bytes.
// Every other leaf is parity data and is committed under the parity namespace,
// so that namespace ranges in a root only ever describe original data.
package gmnmt

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/celestiaorg/nmt"
	"github.com/gordian-engine/gsquare/gmerkle"
	"golang.org/x/crypto/blake2b"
)

// DefaultNamespaceSize is the namespace prefix length used when
// [Options.NamespaceSize] is zero.
const DefaultNamespaceSize = 29

// HashFunc returns a fresh hasher for a single tree.
type HashFunc func() hash.Hash

// HashSHA256 is the default tree hash.
func HashSHA256() hash.Hash {
	return sha256.New()
}

// HashBLAKE2b256 hashes tree nodes with unkeyed BLAKE2b-256.
func HashBLAKE2b256() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only possible with an oversized key.
		panic(fmt.Errorf("failed to create blake2b hasher: %w", err))
	}
	return h
}

// Options configures trees produced by [NewFactory].
type Options struct {
	// NamespaceSize is the number of leading bytes of each original share
	// that hold its namespace.
	NamespaceSize int

	// Hash defaults to [HashSHA256].
	Hash HashFunc
}

// ParityNamespace returns the namespace assigned to parity shares
// for the given namespace size.
func ParityNamespace(size int) []byte {
	return bytes.Repeat([]byte{0xFF}, size)
}

// NewFactory returns a [gmerkle.TreeFactory] producing erasured namespaced trees.
func NewFactory(opts Options) gmerkle.TreeFactory {
	if opts.NamespaceSize <= 0 {
		opts.NamespaceSize = DefaultNamespaceSize
	}
	if opts.Hash == nil {
		opts.Hash = HashSHA256
	}
	parityNS := ParityNamespace(opts.NamespaceSize)

	return func(_ gmerkle.Axis, axisIndex, width int) gmerkle.Tree {
		return &Tree{
			tree: nmt.New(
				opts.Hash(),
				nmt.NamespaceIDSize(opts.NamespaceSize),
				nmt.IgnoreMaxNamespace(true),
				nmt.InitialCapacity(width),
			),
			nsSize:    opts.NamespaceSize,
			parityNS:  parityNS,
			axisIndex: axisIndex,
			width:     width,
		}
	}
}

// ErrTreeFull is returned when pushing more leaves than the square is wide.
var ErrTreeFull = errors.New("pushed past square width")

// Tree wraps a [nmt.NamespacedMerkleTree] for one row or column
// of an extended data square.
type Tree struct {
	tree *nmt.NamespacedMerkleTree

	nsSize   int
	parityNS []byte

	axisIndex int
	width     int
	pushed    int
}

var _ gmerkle.Tree = (*Tree)(nil)

// Push satisfies [gmerkle.Tree].
// Original shares must be pushed in non-decreasing namespace order,
// otherwise the underlying tree rejects them.
func (t *Tree) Push(leaf []byte) error {
	if t.pushed >= t.width {
		return fmt.Errorf("%w: width %d", ErrTreeFull, t.width)
	}
	if len(leaf) < t.nsSize {
		return fmt.Errorf(
			"%w: leaf of %d bytes is shorter than namespace size %d",
			gmerkle.ErrInvalidLeaf, len(leaf), t.nsSize,
		)
	}

	nsAndData := make([]byte, t.nsSize+len(leaf))
	copy(nsAndData[t.nsSize:], leaf)

	half := t.width / 2
	if t.axisIndex < half && t.pushed < half {
		copy(nsAndData[:t.nsSize], leaf[:t.nsSize])
	} else {
		copy(nsAndData[:t.nsSize], t.parityNS)
	}

	if err := t.tree.Push(nsAndData); err != nil {
		// The underlying tree only rejects leaves for their namespace.
		return fmt.Errorf("%w: failed to push leaf %d: %w", gmerkle.ErrInvalidLeaf, t.pushed, err)
	}
	t.pushed++
	return nil
}

// Root satisfies [gmerkle.Tree].
func (t *Tree) Root() ([]byte, error) {
	if t.pushed == 0 {
		return nil, gmerkle.ErrEmptyTree
	}
	return t.tree.Root()
}
