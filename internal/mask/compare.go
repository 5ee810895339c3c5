package mask

// SelNEZ returns a if x != 0, else b.
func SelNEZ[T Integer](x, a, b T) T {
	return Mux(Nonzero(x), a, b)
}

// SelLTZ returns a if x < 0 (signed interpretation), else b.
func SelLTZ[T Integer](x, a, b T) T {
	return Mux(Sign(x), a, b)
}

// SelEQ returns a if x == y, else b. x ^ y is zero exactly when the
// operands are equal.
func SelEQ[T Integer](x, y, a, b T) T {
	return SelNEZ(x^y, b, a)
}

// SelLT returns a if x < y, else b.
func SelLT[T Integer](x, y, a, b T) T {
	return SelLTZ(Less(x, y), a, b)
}

// SelNE returns a if x != y, else b.
func SelNE[T Integer](x, y, a, b T) T {
	return SelEQ(x, y, b, a)
}

// SelGT returns a if x > y, else b.
func SelGT[T Integer](x, y, a, b T) T {
	return SelLT(y, x, a, b)
}

// SelLE returns a if x <= y, else b.
func SelLE[T Integer](x, y, a, b T) T {
	return SelGT(x, y, b, a)
}

// SelGE returns a if x >= y, else b.
func SelGE[T Integer](x, y, a, b T) T {
	return SelLT(x, y, b, a)
}

// SelLTWrap returns a if the sign bit of x - y is set, else b.
//
// This is the bare difference reduction. It matches x < y only while the
// subtraction does not wrap: signed operands whose difference overflows and
// unsigned operands with the top bit set give the wrong answer. SelLT does
// not have that restriction.
func SelLTWrap[T Integer](x, y, a, b T) T {
	return SelLTZ(x-y, a, b)
}

// Less returns a value whose sign bit is set iff x < y under T's own
// signedness.
//
// Signed:   (x - y) ^ ((x ^ y) & ((x - y) ^ x))
// Unsigned: (^x & y) | ((^x | y) & (x - y))
//
// Both are computed and the one matching T is picked with Mux.
func Less[T Integer](x, y T) T {
	d := x - y
	signed := d ^ ((x ^ y) & (d ^ x))
	unsigned := (^x & y) | ((^x | y) & d)
	return Mux(unsignedMask[T](), unsigned, signed)
}

// unsignedMask is all-ones for unsigned T. ^0 >> 1 stays all-ones under
// the arithmetic shift of a signed type and loses its top bit otherwise.
func unsignedMask[T Integer]() T {
	return Nonzero(^(^T(0) >> 1))
}

// EqualMask is all-ones iff x == y.
func EqualMask[T Integer](x, y T) T {
	return ^Nonzero(x ^ y)
}

// NotEqualMask is all-ones iff x != y.
func NotEqualMask[T Integer](x, y T) T {
	return Nonzero(x ^ y)
}

// LessMask is all-ones iff x < y.
func LessMask[T Integer](x, y T) T {
	return Sign(Less(x, y))
}

// GreaterMask is all-ones iff x > y.
func GreaterMask[T Integer](x, y T) T {
	return LessMask(y, x)
}

// LessEqualMask is all-ones iff x <= y.
func LessEqualMask[T Integer](x, y T) T {
	return ^LessMask(y, x)
}

// GreaterEqualMask is all-ones iff x >= y.
func GreaterEqualMask[T Integer](x, y T) T {
	return ^LessMask(x, y)
}
