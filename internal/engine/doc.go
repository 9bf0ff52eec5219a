// Package engine runs SQL text against the gateway's SQLite file.
//
// Every call to Execute goes through the same steps, in order:
//
//  1. Acquire a fresh connection (never shared with another request)
//  2. Prepare it: install the SQL function registry, enable foreign keys
//  3. Dispatch inside a transaction: one statement, or a whole script
//  4. Measure the wall time from dispatch to commit
//  5. Release the connection
//
// Any failure after the transaction began rolls it back before the
// connection is released. Failures are reported as *ExecError whose Kind
// is ErrDatabase (the SQLite engine refused something) or ErrUnexpected.
package engine
