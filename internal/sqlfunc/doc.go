// Package sqlfunc exposes Go functions as SQL functions inside SQLite.
//
// A Registry is built once at startup from a fixed table of Function
// values. Construction checks every entry: the declared parameter list
// must have exactly as many entries as the Go function has parameters,
// and each declared type must accept the Go parameter kind. A bad entry
// fails with ErrRegistration and the process must not start.
//
// After construction the registry is read-only. Install copies every
// function onto one SQLite connection under its upper-cased name, with
// arity equal to its parameter count.
//
// Default returns the stock registry: hashing, string, time and
// reflection helpers (FUNCTIONS, FUNCTION_DOCUMENTATION,
// FUNCTION_ANNOTATIONS).
package sqlfunc
