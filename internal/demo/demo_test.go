package demo

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/branchless/internal/control"
)

const want = "f2 (else clause) executed.\n" +
	"f1 (success clause) executed.\n" +
	"0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, \n" +
	"0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, \n" +
	"0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, \n" +
	"0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, \n" +
	"0, 2, 4, 6, 8, 10, \n" +
	"0, 2, 4, 6, 8, 10, \n" +
	"done\n"

func TestRun(t *testing.T) {
	for _, mode := range []control.Mode{control.Trampoline, control.Recursive} {
		t.Run(mode.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Run(&buf, mode))
			assert.Equal(t, want, buf.String())
		})
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n++
	if w.n > 2 {
		return 0, errors.New("disk full")
	}
	return len(p), nil
}

func TestRun_WriteError(t *testing.T) {
	w := &failingWriter{}
	err := Run(w, control.Trampoline)
	require.EqualError(t, err, "disk full")
	assert.Equal(t, 3, w.n, "printing stops at the first error")
}
