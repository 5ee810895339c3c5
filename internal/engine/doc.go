// Package engine interprets compiled programs on the branchless core.
//
// A program is run at its declared width: the engine picks the generic
// instantiation for (width, signed) once, then drives control.Machine with
// conditions built from the mask comparators. Nothing in the interpreted
// loop branches on data; the condition mask indexes a two-entry table.
//
// ARCHITECTURE:
//
//	ir.Program → executor[T] → control.Machine → observer → []ir.Transition
//	                                                   ↓
//	                                   store.WriteRunAtomic (one tx)
//
// Every run gets a seq from the logical Clock; its transitions get the
// following seqs in decision order. Run IDs are content hashes of
// (run token, program hash, mode, seq), so replaying a run with the same
// token and clock position reproduces its ID and its transitions.
//
// The core combinators carry no iteration bound. The engine adds one on
// the caller side: the condition is wrapped as SelLT(evals, max, cond, 0),
// so a runaway program terminates and Run reports StepsExceededError.
//
// RunNative executes the same program with ordinary Go loops and
// comparison operators. It is the reference the harness and sweep check
// the branchless path against.
package engine
