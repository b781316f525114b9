package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/gordian-engine/gsquare/gmerkle/gmnmt"
	"github.com/gordian-engine/gsquare/gsquare"
	"github.com/spf13/cobra"
)

func newExtendCmd(newLogger loggerFunc) *cobra.Command {
	var (
		chunkSize int
		treeKind  string
		hashKind  string
		nsSize    int
	)

	cmd := &cobra.Command{
		Use:   "extend [file]",
		Short: "Extend the contents of a file, or stdin, and print the square's roots",
		Long: `Extend splits its input into fixed-size chunks,
zero-padding the final chunk and then the chunk count up to a square number.
The resulting square is extended and the row roots, column roots,
and the hash over all roots are printed in hex.

With --tree=nmt, the first --namespace-size bytes of each chunk are its namespace,
and chunks must be sorted by namespace.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd)
			if err != nil {
				return err
			}

			cfg := gsquare.DefaultConfig()
			cfg.Log = log
			cfg.NewTree, err = treeFactory(treeKind, hashKind, nsSize)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			chunks, err := splitChunks(data, chunkSize)
			if err != nil {
				return err
			}
			log.Debug("Split input", "bytes", len(data), "chunks", len(chunks))

			eds, err := gsquare.ComputeExtendedDataSquare(cmd.Context(), chunks, cfg)
			if err != nil {
				return fmt.Errorf("failed to extend square: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "width %d, original width %d, chunk size %d\n", eds.Width(), eds.OriginalWidth(), eds.ChunkSize())
			roots := eds.Roots()
			for i, r := range roots.RowRoots {
				fmt.Fprintf(out, "row %d %s\n", i, hex.EncodeToString(r))
			}
			for i, r := range roots.ColRoots {
				fmt.Fprintf(out, "col %d %s\n", i, hex.EncodeToString(r))
			}
			fmt.Fprintf(out, "roots hash %s\n", hex.EncodeToString(roots.Hash()))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&chunkSize, "chunk-size", 512, "size of each chunk in bytes")
	f.StringVar(&treeKind, "tree", "binary", "row and column commitment (binary, nmt)")
	f.StringVar(&hashKind, "hash", "sha256", "nmt node hash (sha256, blake2b)")
	f.IntVar(&nsSize, "namespace-size", gmnmt.DefaultNamespaceSize, "nmt namespace prefix length in bytes")

	return cmd
}

// splitChunks splits data into chunks of size bytes,
// zero-padding the last chunk and adding zero chunks
// until the count is a square number.
func splitChunks(data []byte, size int) ([][]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive (got %d)", size)
	}
	if len(data) == 0 {
		return nil, gsquare.ErrEmptyInput
	}

	n := (len(data) + size - 1) / size
	w := 1
	for w*w < n {
		w++
	}

	chunks := make([][]byte, w*w)
	for i := range chunks {
		chunks[i] = make([]byte, size)
		if start := i * size; start < len(data) {
			copy(chunks[i], data[start:])
		}
	}
	return chunks, nil
}
