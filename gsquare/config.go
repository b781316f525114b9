package gsquare

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gordian-engine/gsquare/gerasure"
	"github.com/gordian-engine/gsquare/gerasure/gereedsolomon"
	"github.com/gordian-engine/gsquare/gmerkle"
	"github.com/gordian-engine/gsquare/gmerkle/gmbinary"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("gsquare")

// Config holds the collaborators used to build and repair squares.
type Config struct {
	Log *slog.Logger

	// NewCodec returns the erasure codec for a given original width.
	NewCodec gerasure.CodecFactory

	// NewTree returns a fresh tree for each row and column commitment.
	NewTree gmerkle.TreeFactory
}

var defaultCodecs = sync.OnceValue(func() *gereedsolomon.CodecCache {
	c, err := gereedsolomon.NewCodecCache(0)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultConfig returns a Config using a process-wide Reed-Solomon codec cache,
// RFC 6962 binary trees, and the default slog logger.
func DefaultConfig() Config {
	return Config{
		Log:      slog.Default(),
		NewCodec: defaultCodecs().Get,
		NewTree:  gmbinary.NewTree,
	}
}

func (c Config) validate() (Config, error) {
	if c.NewCodec == nil {
		return c, errors.New("codec factory required")
	}
	if c.NewTree == nil {
		return c, errors.New("tree factory required")
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	return c, nil
}
