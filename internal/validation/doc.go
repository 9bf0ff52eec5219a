// Package validation checks untyped request payloads against an ordered
// list of field constraints.
//
// A payload is whatever encoding/json produced for a JSON object
// (map[string]any). Each Field pairs a name with exactly one Constraint:
//
//   - Pattern: string with optional rune-length bounds and a full-match regexp
//   - Range:   number with optional inclusive bounds
//   - Enum:    value of a scalar type restricted to a fixed set
//   - Bare:    type check only
//
// Validate never stops at the first problem. It reports one message per
// absent field, then one message per invalid field, each group in field
// order. An empty result means the payload is valid.
package validation
