package mask

import "unsafe"

// Integer is the set of fixed-width integer types a mask can be built for.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Signed is the subset of Integer with a signed interpretation.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Width returns the bit width W of T.
func Width[T Integer]() uint {
	var zero T
	return uint(unsafe.Sizeof(zero)) * 8
}

// Ones returns the all-ones mask of T.
func Ones[T Integer]() T {
	return ^T(0)
}

// Sign returns all-ones if the signed interpretation of x is negative and
// all-zero otherwise.
//
// The value is widened to uint64 and shifted logically so that only the top
// bit of width W survives as 0 or 1. Unsigned negation maps that to 0 or
// all-ones, which converts back to T unchanged.
func Sign[T Integer](x T) T {
	top := uint64(x) << (64 - Width[T]()) >> 63
	return -T(top)
}

// SignArith is Sign for signed types using an arithmetic right shift.
// Go defines >> on signed operands as sign-extending, so this is exact.
func SignArith[T Signed](x T) T {
	return x >> (Width[T]() - 1)
}

// Nonzero returns all-ones if x != 0 and all-zero otherwise.
//
// For any nonzero x, either x or -x has the sign bit set (for the minimum
// value both do), so x | -x is negative exactly when x is not zero.
func Nonzero[T Integer](x T) T {
	return Sign(x | -x)
}

// Bit reduces a mask to 0 or 1.
func Bit[T Integer](m T) T {
	assertMask(m)
	return m & 1
}

// FromBit expands the low bit of b into a mask.
func FromBit[T Integer](b T) T {
	return -(b & 1)
}
