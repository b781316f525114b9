package gerasuretest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/gordian-engine/gsquare/gerasure"
	"github.com/stretchr/testify/require"
)

// TestCodecCompliance is the compliance test for a [gerasure.Codec]
// produced by the given factory.
//
// The data lengths and share sizes exercised are small enough
// to be valid for any GF(2^8) systematic code;
// implementations with extra constraints should test those separately.
func TestCodecCompliance(t *testing.T, f gerasure.CodecFactory) {
	t.Helper()

	for _, dataLen := range []int{1, 2, 3, 4, 8, 16, 32, 64} {
		t.Run(fmt.Sprintf("data length = %d", dataLen), func(t *testing.T) {
			for _, shareSize := range []int{1, 4, 64, 512} {
				t.Run(fmt.Sprintf("share size = %d", shareSize), func(t *testing.T) {
					t.Parallel()

					codec, err := f(dataLen)
					require.NoError(t, err)
					require.Equal(t, dataLen, codec.DataLen())
					require.GreaterOrEqual(t, codec.MaxChunks(), dataLen*dataLen)

					// Seed the RNG from the parameters,
					// so each test case has different source data.
					seed := [32]byte{}
					binary.LittleEndian.PutUint64(seed[:8], uint64(dataLen))
					binary.LittleEndian.PutUint64(seed[8:16], uint64(shareSize))
					chacha := rand.NewChaCha8(seed)
					rng := rand.New(chacha)

					data := make([][]byte, dataLen)
					for i := range data {
						data[i] = make([]byte, shareSize)
						_, _ = chacha.Read(data[i]) // ChaCha8 seeds don't error on Read.
					}
					orig := cloneShares(data)

					parity, err := codec.Encode(data)
					require.NoError(t, err)
					require.Len(t, parity, dataLen)
					for _, p := range parity {
						require.Len(t, p, shareSize)
					}

					// Encode must not touch its input.
					require.Equal(t, orig, data)

					t.Run("encode is deterministic", func(t *testing.T) {
						again, err := codec.Encode(cloneShares(data))
						require.NoError(t, err)
						require.Equal(t, parity, again)
					})

					all := append(cloneShares(data), cloneShares(parity)...)

					t.Run("decode with nothing missing", func(t *testing.T) {
						got, err := codec.Decode(cloneShares(all))
						require.NoError(t, err)
						require.Equal(t, orig, got)
					})

					t.Run("decode with all data missing", func(t *testing.T) {
						shares := cloneShares(all)
						for i := range dataLen {
							shares[i] = nil
						}
						got, err := codec.Decode(shares)
						require.NoError(t, err)
						require.Equal(t, orig, got)
					})

					t.Run("decode with exactly dataLen random shares", func(t *testing.T) {
						shares := cloneShares(all)
						for _, idx := range rng.Perm(len(shares))[:dataLen] {
							shares[idx] = nil
						}
						before := cloneShares(shares)

						got, err := codec.Decode(shares)
						require.NoError(t, err)
						require.Equal(t, orig, got)

						// The caller's missing slots stay missing.
						require.Equal(t, before, shares)
					})

					t.Run("decode with one share too few", func(t *testing.T) {
						shares := cloneShares(all)
						for _, idx := range rng.Perm(len(shares))[:dataLen+1] {
							shares[idx] = nil
						}
						_, err := codec.Decode(shares)
						require.ErrorIs(t, err, gerasure.ErrInsufficientShares)
					})

					t.Run("zero-filled shares are data", func(t *testing.T) {
						zeros := make([][]byte, dataLen)
						for i := range zeros {
							zeros[i] = make([]byte, shareSize)
						}
						zp, err := codec.Encode(zeros)
						require.NoError(t, err)
						for _, p := range zp {
							require.True(t, bytes.Equal(p, make([]byte, shareSize)))
						}
					})
				})
			}
		})
	}

	t.Run("share count mismatch", func(t *testing.T) {
		codec, err := f(4)
		require.NoError(t, err)

		_, err = codec.Encode([][]byte{{1}, {2}, {3}})
		require.ErrorIs(t, err, gerasure.ErrShareCountMismatch)

		_, err = codec.Decode([][]byte{{1}, {2}, {3}, {4}})
		require.ErrorIs(t, err, gerasure.ErrShareCountMismatch)
	})

	t.Run("unequal share sizes", func(t *testing.T) {
		codec, err := f(2)
		require.NoError(t, err)

		_, err = codec.Encode([][]byte{{1, 2}, {3}})
		require.ErrorIs(t, err, gerasure.ErrUnequalShareSize)

		_, err = codec.Decode([][]byte{{1, 2}, nil, {3}, nil})
		require.ErrorIs(t, err, gerasure.ErrUnequalShareSize)

		_, err = codec.Encode([][]byte{{}, {}})
		require.ErrorIs(t, err, gerasure.ErrUnequalShareSize)
	})
}

func cloneShares(shares [][]byte) [][]byte {
	out := make([][]byte, len(shares))
	for i, s := range shares {
		if s != nil {
			out[i] = bytes.Clone(s)
		}
	}
	return out
}
