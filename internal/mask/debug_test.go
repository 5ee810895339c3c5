//go:build branchless_debug

package mask

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recoverMaskError runs fn and returns the *InvalidMaskError it panicked
// with, or nil if it did not panic.
func recoverMaskError(t *testing.T, fn func()) (got *InvalidMaskError) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.As(err, &got), "panic value %T is not *InvalidMaskError", r)
	}()
	fn()
	return nil
}

func TestDebug_PartialMasksPanic(t *testing.T) {
	require.PanicsWithError(t, "mask: 0x80 is not a valid 8-bit mask", func() {
		Mux(uint8(0x80), 1, 2)
	})
	require.PanicsWithError(t, "mask: 0x1 is not a valid 16-bit mask", func() {
		MuxAdd(WrappingArithmetic, int16(1), 5, 7)
	})
	require.PanicsWithError(t, "mask: 0x2 is not a valid 32-bit mask", func() {
		Bit(uint32(2))
	})
	require.PanicsWithError(t, "mask: 0xfffe is not a valid 16-bit mask", func() {
		Select(XOR, int16(-2), 5, 7)
	})
}

func TestDebug_PanicValueIsInvalidMaskError(t *testing.T) {
	got := recoverMaskError(t, func() { Mux(int64(0x0f), 1, 2) })
	require.NotNil(t, got)
	assert.Equal(t, uint(64), got.Width)
	assert.Equal(t, uint64(0x0f), got.Value)
}

func TestDebug_ValidMasksDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, uint8(1), Mux(uint8(0xFF), 1, 2))
		assert.Equal(t, uint8(2), Mux(uint8(0), 1, 2))
		assert.Equal(t, int16(5), MuxAdd(WrappingArithmetic, int16(-1), 5, 7))
		assert.Equal(t, uint32(1), Bit(^uint32(0)))
		assert.Equal(t, uint32(0), Bit(uint32(0)))
		assert.Equal(t, 3, SelLT(-1, 0, 3, 4))
	})
}
