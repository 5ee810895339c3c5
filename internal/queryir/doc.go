// Package queryir describes filters over the run log as data.
//
// A Select names a table of the log (runs or transitions) and an optional
// predicate. Predicates are a closed set: Equals, AtLeast and And. Select
// and the predicates are sealed so backends can switch on them
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case AtLeast:
//	case And:
//	}
//
// Validate checks a query against the log schema before it reaches a
// backend: the table and every field must exist, and each value must have
// the field's kind (text fields take strings, integer fields take int64).
// The querysql package compiles valid queries to parameterized SQLite.
package queryir
