// Package control builds if, while, do-while and for out of mask selection
// and indirect calls.
//
// No combinator in this package decides between two procedures with a
// comparison. The condition is turned into a mask with mask.Nonzero, the
// mask is reduced to an index, and the index picks one entry of a
// two-entry table of callables. The chosen entry is then called through a
// single indirect call site.
//
// # Loops as state machines
//
// Each loop has two states, Continue and Terminate. At every iteration
// boundary the condition is evaluated once and selects the next state.
// Continue runs the body (and, for For, the step) and comes back to the
// same selection point; Terminate returns.
//
// Go does not guarantee tail calls, so two drivers exist:
//
//   - Trampoline (default): each state returns the next state function and
//     a driver loop calls it. Stack depth stays constant.
//   - Recursive: each state calls the selected next state directly, one
//     stack frame per iteration, as the technique is usually written.
//
// Both drivers observe the same sequence of decisions.
//
// # Termination
//
// Loops end only when the condition returns zero. There is no iteration
// cap and no stack guard; a condition that never reaches zero runs
// forever under Trampoline and exhausts the goroutine stack under
// Recursive.
//
// All state the loop touches belongs to the caller and is reached through
// closures. A Machine is not safe for concurrent use with shared captured
// state.
package control
