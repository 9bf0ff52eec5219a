// Package api implements the HTTP front of sqlgate.
//
// This package provides:
//   - The SQL endpoint (POST on the configured route, /database by default)
//   - /health, /metrics and /functions for operators
//   - Middleware stack (real IP, request ID, logging, recovery, CORS, body limit, rate limit)
//   - TLS support for production deployments
//
// # Gateway calls
//
// A call passes the IP allow-list, then payload decoding, then schema
// validation, then the shared-secret check, and is finally handed to the
// execution engine. Whatever happens, the client receives a JSON envelope
// with HTTP 200:
//
//	{"status":"OK","execution_time_secs":"0.0001234","columns":["id"],"data":[[1]]}
//	{"status":"Error","detail":["Invalid password"]}
//
// Rate-limited calls are the exception and are answered with 429 and the
// same failure envelope. Each call produces one audit.Event.
//
// # Security
//
// Access control is limited to the static IP and secret allow-lists.
// Secrets and query text are never logged; debug logs carry a short prefix
// of the query only.
package api
