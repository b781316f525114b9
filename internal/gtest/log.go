// Package gtest contains helpers shared by tests across the module.
package gtest

import (
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
)

// NewLogger returns a logger that writes through t.Log,
// so output is attributed to the test that produced it
// and only shown for failing or verbose tests.
func NewLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slogt.New(t, slogt.Text())
}
