package access

import "errors"

// Domain errors for secret hashing.
var (
	// ErrInvalidHash is returned when a stored entry looks like a PHC
	// string but cannot be decoded.
	ErrInvalidHash = errors.New("access: invalid argon2id hash")

	// ErrEmptySecret is returned when asked to hash an empty secret.
	ErrEmptySecret = errors.New("access: secret must not be empty")
)
