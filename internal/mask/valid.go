package mask

import "fmt"

// InvalidMaskError reports a mask with a partial bit pattern. It is only
// raised in builds with the branchless_debug tag.
type InvalidMaskError struct {
	Width uint
	Value uint64
}

func (e *InvalidMaskError) Error() string {
	return fmt.Sprintf("mask: 0x%x is not a valid %d-bit mask", e.Value, e.Width)
}

// Valid reports whether m is all-zero or all-one.
func Valid[T Integer](m T) bool {
	return m == 0 || m == Ones[T]()
}

func assertMask[T Integer](m T) {
	if debugAssertions && !Valid(m) {
		panic(&InvalidMaskError{
			Width: Width[T](),
			Value: uint64(m) << (64 - Width[T]()) >> (64 - Width[T]()),
		})
	}
}
