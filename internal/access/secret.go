package access

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Parameters for newly hashed secrets (OWASP 2025 Argon2id guidance).
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Bounds accepted when reading an entry. Every gateway request may verify
// against every hashed entry, so an entry cannot ask for more than this.
const (
	maxArgonTime   = 10
	maxArgonMemory = 256 * 1024 // KiB
	minKeyLen      = 16
)

const phcPrefix = "$argon2id$"

// hashedSecret is a decoded Argon2id allow-list entry.
type hashedSecret struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

// HashSecret hashes secret with Argon2id and returns the PHC string
// ($argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>) to put in
// gateway.allowed_passwords.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	h := &hashedSecret{time: argonTime, memory: argonMemory, threads: argonThreads}
	h.salt = make([]byte, argonSaltLen)
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	h.key = h.derive(secret, argonKeyLen)

	return h.String(), nil
}

// VerifySecret reports whether secret matches the PHC string encoded.
func VerifySecret(secret, encoded string) (bool, error) {
	h, err := parseHashedSecret(encoded)
	if err != nil {
		return false, err
	}
	return h.matches(secret), nil
}

// CheckEntries reports every allow-list entry that looks hashed but
// cannot be used.
func CheckEntries(entries []string) error {
	var errs []error
	for i, entry := range entries {
		if !isHashed(entry) {
			continue
		}
		if _, err := parseHashedSecret(entry); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (h *hashedSecret) derive(secret string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(secret), h.salt, h.time, h.memory, h.threads, keyLen)
}

func (h *hashedSecret) matches(secret string) bool {
	candidate := h.derive(secret, uint32(len(h.key))) //nolint:gosec // key length is bounded by parseHashedSecret
	return subtle.ConstantTimeCompare(h.key, candidate) == 1
}

func (h *hashedSecret) String() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		phcPrefix, argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

// parseHashedSecret decodes $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>.
func parseHashedSecret(encoded string) (*hashedSecret, error) {
	rest, ok := strings.CutPrefix(encoded, phcPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: not an argon2id entry", ErrInvalidHash)
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: want version, parameters, salt and key", ErrInvalidHash)
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	h := &hashedSecret{}
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return nil, fmt.Errorf("%w: parameters: %w", ErrInvalidHash, err)
	}
	switch {
	case h.threads == 0 || h.time == 0:
		return nil, fmt.Errorf("%w: t and p must be positive", ErrInvalidHash)
	case h.time > maxArgonTime:
		return nil, fmt.Errorf("%w: t=%d exceeds %d", ErrInvalidHash, h.time, maxArgonTime)
	case h.memory < 8*uint32(h.threads) || h.memory > maxArgonMemory:
		return nil, fmt.Errorf("%w: m=%d outside %d..%d KiB", ErrInvalidHash, h.memory, 8*uint32(h.threads), maxArgonMemory)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[2]); err != nil {
		return nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[3]); err != nil {
		return nil, fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}
	if len(h.key) < minKeyLen {
		return nil, fmt.Errorf("%w: key shorter than %d bytes", ErrInvalidHash, minKeyLen)
	}

	return h, nil
}

func isHashed(entry string) bool {
	return strings.HasPrefix(entry, phcPrefix)
}
