// Package ir holds the data types shared by the compiler, engine, store and
// harness: compiled programs, recorded runs and their transitions.
//
// ir imports nothing internal. Every other package may import it.
//
// Conventions:
//   - integers only, no floats; masks are recorded as hex strings so that
//     64-bit all-ones masks survive JSON and SQLite round trips
//   - logical sequence numbers order events, never wall-clock time
//   - all JSON tags are snake_case
//   - identities are SHA-256 over canonical JSON with a domain prefix
package ir
