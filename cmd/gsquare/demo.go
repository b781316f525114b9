package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/gordian-engine/gsquare/gsquare"
	"github.com/gordian-engine/gsquare/gsquare/gsquaretest"
	"github.com/spf13/cobra"
)

func newDemoCmd(newLogger loggerFunc) *cobra.Command {
	var (
		width     int
		chunkSize int
		seed      uint64
		drop      float64
		corrupt   bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Extend a random square, drop and optionally corrupt chunks, then repair it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if drop < 0 || drop > 1 {
				return fmt.Errorf("--drop must be within [0, 1] (got %v)", drop)
			}

			log, err := newLogger(cmd)
			if err != nil {
				return err
			}
			label := petname.Generate(2, "-")
			log = log.With("run", label)

			cfg := gsquare.DefaultConfig()
			cfg.Log = log

			chunks := gsquaretest.RandomChunks(gsquaretest.Seed(seed), width*width, chunkSize)
			orig, err := gsquare.ComputeExtendedDataSquare(cmd.Context(), chunks, cfg)
			if err != nil {
				return fmt.Errorf("failed to extend square: %w", err)
			}

			rng := rand.New(rand.NewChaCha8(gsquaretest.Seed(seed + 1)))
			sparse := gsquaretest.Sparse(orig.Flattened(), orig.Width(), func(_, _ int) bool {
				return rng.Float64() >= drop
			})

			present := 0
			for _, c := range sparse {
				if c != nil {
					present++
				}
			}

			if corrupt {
				// Flip a byte in a random present chunk.
				for _, k := range rng.Perm(len(sparse)) {
					if sparse[k] != nil {
						sparse[k][rng.IntN(len(sparse[k]))] ^= 0xFF
						log.Info("Corrupted chunk", "row", k/orig.Width(), "col", k%orig.Width())
						break
					}
				}
			}

			eds, err := gsquare.ImportExtendedDataSquare(sparse, cfg)
			if err != nil {
				return fmt.Errorf("failed to import sparse square: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d of %d chunks present\n", label, present, len(sparse))

			err = eds.Repair(cmd.Context(), orig.RowRoots(), orig.ColRoots())
			var byz *gsquare.ErrByzantineData
			switch {
			case err == nil:
				if !eds.Equal(orig) {
					return errors.New("repaired square differs from original")
				}
				fmt.Fprintf(out, "%s: repaired\n", label)
			case errors.Is(err, gsquare.ErrUnrepairableSquare):
				fmt.Fprintf(out, "%s: unrepairable: %v\n", label, err)
			case errors.As(err, &byz):
				fmt.Fprintf(out, "%s: byzantine %s %d\n", label, byz.Axis, byz.Index)
			default:
				return fmt.Errorf("failed to repair square: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&width, "width", 8, "original square width in chunks")
	f.IntVar(&chunkSize, "chunk-size", 64, "size of each chunk in bytes")
	f.Uint64Var(&seed, "seed", 1, "seed for chunk contents and dropped cells")
	f.Float64Var(&drop, "drop", 0.25, "probability of dropping each chunk of the extended square")
	f.BoolVar(&corrupt, "corrupt", false, "flip a byte in one present chunk before repairing")

	return cmd
}
