package gereedsolomon

import (
	"fmt"

	"github.com/gordian-engine/gsquare/gerasure"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/reedsolomon"
)

// DefaultCacheSize is the number of distinct data lengths
// retained by a CodecCache created with size 0.
const DefaultCacheSize = 16

// CodecCache memoizes one [Codec] per data length.
// Building the Reed-Solomon matrices is costly relative to encoding a single axis,
// and a square reuses one data length for every row and column.
type CodecCache struct {
	opts  []reedsolomon.Option
	cache *lru.Cache[int, *Codec]
}

// NewCodecCache returns a CodecCache holding up to size codecs.
// A size of zero uses [DefaultCacheSize].
// The options are applied to every codec the cache constructs.
func NewCodecCache(size int, opts ...reedsolomon.Option) (*CodecCache, error) {
	if size < 0 {
		return nil, fmt.Errorf("cache size must be >= 0 (got %d)", size)
	}
	if size == 0 {
		size = DefaultCacheSize
	}

	c, err := lru.New[int, *Codec](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec cache: %w", err)
	}

	return &CodecCache{opts: opts, cache: c}, nil
}

// Get returns the codec for dataLen, constructing it on first use.
// Get has the signature of [gerasure.CodecFactory].
func (c *CodecCache) Get(dataLen int) (gerasure.Codec, error) {
	if codec, ok := c.cache.Get(dataLen); ok {
		return codec, nil
	}

	codec, err := NewCodec(dataLen, c.opts...)
	if err != nil {
		return nil, err
	}

	// Concurrent misses may both construct a codec;
	// they are interchangeable so whichever lands last wins.
	c.cache.Add(dataLen, codec)
	return codec, nil
}

// Len reports the number of cached codecs.
func (c *CodecCache) Len() int {
	return c.cache.Len()
}
