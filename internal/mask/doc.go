// Package mask implements branch-free selection over fixed-width integers.
//
// Every conditional value choice in this module is reduced to two steps:
// derive a mask (all zero bits or all one bits) from a condition, then
// combine two candidate values with that mask using only bitwise or
// wrapping arithmetic operations.
//
// # Primitives
//
//   - Sign: all-ones iff the signed interpretation of x is negative
//   - Nonzero: all-ones iff x != 0, built as Sign(x | -x)
//   - Mux: ((a ^ b) & m) ^ b, the default multiplexer
//   - MuxAdd: ((a - b) & m) + b, gated behind the Wrapping capability
//
// # Relations
//
// SelNEZ, SelLTZ, SelEQ, SelLT, SelNE, SelGT, SelLE and SelGE each return one
// of two same-typed alternatives. All operands of one call share the type
// parameter T, so width mismatches are rejected by the compiler rather than
// checked at runtime.
//
// # Assumptions
//
// Two's-complement representation, most significant bit is the sign bit.
// Go guarantees both, and defines wrapping for signed and unsigned overflow.
//
// Masks that are neither all-zero nor all-one produce unspecified results.
// Building with the branchless_debug tag turns that precondition into a
// panic with *InvalidMaskError.
package mask
