package main

import (
	"fmt"

	"github.com/gordian-engine/gsquare/gmerkle"
	"github.com/gordian-engine/gsquare/gmerkle/gmbinary"
	"github.com/gordian-engine/gsquare/gmerkle/gmnmt"
)

func treeFactory(kind, hash string, nsSize int) (gmerkle.TreeFactory, error) {
	switch kind {
	case "binary":
		return gmbinary.NewTree, nil
	case "nmt":
		opts := gmnmt.Options{NamespaceSize: nsSize}
		switch hash {
		case "sha256":
			opts.Hash = gmnmt.HashSHA256
		case "blake2b":
			opts.Hash = gmnmt.HashBLAKE2b256
		default:
			return nil, fmt.Errorf("unknown hash %q", hash)
		}
		return gmnmt.NewFactory(opts), nil
	default:
		return nil, fmt.Errorf("unknown tree %q", kind)
	}
}
