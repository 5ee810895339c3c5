package mask

// Wrapping is a capability marker for code that depends on modular
// addition and subtraction. Go integer arithmetic always wraps, but the
// additive multiplexer only makes sense under that guarantee, so callers
// opt in by passing WrappingArithmetic.
type Wrapping struct{}

// WrappingArithmetic is the capability value accepted by MuxAdd.
var WrappingArithmetic Wrapping

// Mux returns a when m is all-ones and b when m is all-zero.
func Mux[T Integer](m, a, b T) T {
	assertMask(m)
	return ((a ^ b) & m) ^ b
}

// MuxAdd is the additive multiplexer: ((a - b) & m) + b.
// It agrees with Mux on every valid mask.
func MuxAdd[T Integer](_ Wrapping, m, a, b T) T {
	assertMask(m)
	return ((a - b) & m) + b
}

// Strategy names a multiplexer implementation.
type Strategy uint8

const (
	// XOR selects with Mux. It is the default.
	XOR Strategy = iota
	// Additive selects with MuxAdd.
	Additive
)

var strategyNames = [2]string{"xor", "additive"}

func (s Strategy) String() string {
	return strategyNames[s&1]
}

// Select multiplexes with the given strategy.
func Select[T Integer](s Strategy, m, a, b T) T {
	muxes := [2]func(T, T, T) T{Mux[T], muxAdd[T]}
	return muxes[s&1](m, a, b)
}

func muxAdd[T Integer](m, a, b T) T {
	return MuxAdd(WrappingArithmetic, m, a, b)
}
