// Package access decides whether a client may use the gateway.
//
// Two static allow-lists are consulted:
//   - client IP addresses (empty list admits every client)
//   - shared secrets (empty list means no secret is required)
//
// Secrets may be stored in plaintext or as Argon2id PHC strings produced
// by HashSecret ("sqlgate hash-secret"). Hashed entries are decoded once
// by NewGate, and CheckEntries reports the ones that cannot be used so
// configuration loading can refuse them. Both checks are pure; the caller
// decides the response and the log entry.
package access
