package sqlfunc

import "errors"

// Domain errors for the function registry.
var (
	// ErrRegistration is returned when a function table entry is malformed.
	ErrRegistration = errors.New("sqlfunc: invalid function registration")

	// ErrNoPattern is returned by RANDOM_REGEXP_STRING when no string can
	// be generated for the pattern.
	ErrNoPattern = errors.New("sqlfunc: unable to generate string for pattern")
)
