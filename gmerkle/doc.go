// Package gmerkle defines interfaces to produce the Merkle commitments
// over the rows and columns of a data square.
//
// The tree implementations live in subpackages:
// [github.com/gordian-engine/gsquare/gmerkle/gmbinary] for a plain RFC 6962 tree,
// and [github.com/gordian-engine/gsquare/gmerkle/gmnmt] for a namespaced tree.
package gmerkle
