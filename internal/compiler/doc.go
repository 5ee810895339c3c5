// Package compiler turns CUE program specs into ir.Program values.
//
// A spec file declares programs under the "program" label:
//
//	program: count_to_ten: {
//		construct: "for"
//		width:     32
//		signed:    true
//		relation:  "lt"
//		init:      0
//		limit:     10
//		step:      1
//	}
//
// CompileProgram checks shape and kinds; Validate checks meaning (known
// construct and relation, supported width, values in range).
package compiler
