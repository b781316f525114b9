package gereedsolomon_test

import (
	"testing"

	"github.com/gordian-engine/gsquare/gerasure"
	"github.com/gordian-engine/gsquare/gerasure/gereedsolomon"
	"github.com/stretchr/testify/require"
)

func TestCodec_Encode_fixedVector(t *testing.T) {
	t.Parallel()

	codec, err := gereedsolomon.NewCodec(4)
	require.NoError(t, err)

	parity, err := codec.Encode([][]byte{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8, 9, 10, 11},
		{12, 13, 14, 15},
	})
	require.NoError(t, err)
	require.Equal(t, [][]byte{
		{16, 17, 18, 19},
		{20, 21, 22, 23},
		{24, 25, 26, 27},
		{28, 29, 30, 31},
	}, parity)
}

func TestCodec_Decode_fromParityOnly(t *testing.T) {
	t.Parallel()

	codec, err := gereedsolomon.NewCodec(4)
	require.NoError(t, err)

	got, err := codec.Decode([][]byte{
		nil, nil, nil, nil,
		{16, 17, 18, 19},
		{20, 21, 22, 23},
		{24, 25, 26, 27},
		{28, 29, 30, 31},
	})
	require.NoError(t, err)
	require.Equal(t, [][]byte{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8, 9, 10, 11},
		{12, 13, 14, 15},
	}, got)
}

func TestNewCodec_invalid(t *testing.T) {
	t.Parallel()

	_, err := gereedsolomon.NewCodec(32769)
	require.ErrorIs(t, err, gerasure.ErrDataLenTooLarge)

	for _, n := range []int{-1, 0, 32769} {
		_, err := gereedsolomon.NewCodec(n)
		require.ErrorIs(t, err, gerasure.ErrCodecConstruction)
	}
}

func TestCodec_MaxChunks(t *testing.T) {
	t.Parallel()

	codec, err := gereedsolomon.NewCodec(2)
	require.NoError(t, err)
	require.Equal(t, 32768*32768, codec.MaxChunks())
}

func TestCodec_ValidateChunkSize(t *testing.T) {
	t.Parallel()

	small, err := gereedsolomon.NewCodec(128)
	require.NoError(t, err)
	require.NoError(t, small.ValidateChunkSize(4))
	require.Error(t, small.ValidateChunkSize(0))

	large, err := gereedsolomon.NewCodec(129)
	require.NoError(t, err)
	require.NoError(t, large.ValidateChunkSize(64))
	require.Error(t, large.ValidateChunkSize(100))
}

func TestCodecCache_reusesCodecs(t *testing.T) {
	t.Parallel()

	cache, err := gereedsolomon.NewCodecCache(2)
	require.NoError(t, err)

	a, err := cache.Get(4)
	require.NoError(t, err)
	b, err := cache.Get(4)
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, cache.Len())

	_, err = cache.Get(8)
	require.NoError(t, err)
	_, err = cache.Get(16)
	require.NoError(t, err)

	// Bounded by the configured size.
	require.Equal(t, 2, cache.Len())

	_, err = cache.Get(0)
	require.ErrorIs(t, err, gerasure.ErrCodecConstruction)

	_, err = gereedsolomon.NewCodecCache(-1)
	require.Error(t, err)
}
