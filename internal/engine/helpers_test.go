package engine

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/branchless/internal/ir"
	"github.com/roach88/branchless/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine builds an engine with a fixed run token and no store.
func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithLogger(discardLogger()),
		WithTokenGenerator(NewRepeatingGenerator("test-run")),
	}
	return New(append(base, opts...)...)
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func program(construct string, width int, signed bool, rel ir.Relation, init, limit, step int64) ir.Program {
	return ir.Program{
		Name:      construct + "_prog",
		Construct: construct,
		Width:     width,
		Signed:    signed,
		Relation:  rel,
		Init:      init,
		Limit:     limit,
		Step:      step,
	}
}

func countToTen(construct string) ir.Program {
	return program(construct, 32, true, ir.RelLT, 0, 10, 1)
}

func seq(from, to int64) []int64 {
	var out []int64
	for v := from; v < to; v++ {
		out = append(out, v)
	}
	return out
}
