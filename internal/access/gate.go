package access

import (
	"crypto/subtle"
	"net"
	"net/http"
	"slices"
)

// Gate holds the allow-lists loaded from configuration. Hashed secrets
// are decoded once, when the gate is built.
type Gate struct {
	allowedIPs []string

	plainSecrets  [][]byte
	hashedSecrets []*hashedSecret
	secretEntries int
}

// NewGate builds a Gate. The slices are copied. A hashed entry that
// CheckEntries would reject still counts as configured but never matches.
func NewGate(allowedIPs, allowedSecrets []string) *Gate {
	g := &Gate{
		allowedIPs:    slices.Clone(allowedIPs),
		secretEntries: len(allowedSecrets),
	}
	for _, entry := range allowedSecrets {
		if !isHashed(entry) {
			g.plainSecrets = append(g.plainSecrets, []byte(entry))
			continue
		}
		if h, err := parseHashedSecret(entry); err == nil {
			g.hashedSecrets = append(g.hashedSecrets, h)
		}
	}
	return g
}

// Authorize reports whether addr may use the gateway.
func (g *Gate) Authorize(addr string) bool {
	return Authorize(addr, g.allowedIPs)
}

// SecretRequired reports whether requests must carry a shared secret.
func (g *Gate) SecretRequired() bool {
	return g.secretEntries > 0
}

// CheckSecret reports whether secret is acceptable. Every entry is tried
// so the time taken does not reveal which one matched.
func (g *Gate) CheckSecret(secret string) bool {
	if !g.SecretRequired() {
		return true
	}

	matched := false
	for _, entry := range g.plainSecrets {
		if subtle.ConstantTimeCompare([]byte(secret), entry) == 1 {
			matched = true
		}
	}
	for _, h := range g.hashedSecrets {
		if h.matches(secret) {
			matched = true
		}
	}
	return matched
}

// Authorize reports whether addr is admitted by allowed.
// An empty list admits everyone; otherwise addr must match an entry exactly.
func Authorize(addr string, allowed []string) bool {
	return len(allowed) == 0 || slices.Contains(allowed, addr)
}

// CheckSecret reports whether secret matches an entry of allowed.
// An empty list accepts any secret. Entries starting with "$argon2id$" are
// verified as Argon2id hashes; all others are compared in constant time.
func CheckSecret(secret string, allowed []string) bool {
	return NewGate(nil, allowed).CheckSecret(secret)
}

// ClientIP returns the host part of r.RemoteAddr.
// When a proxy header middleware rewrote RemoteAddr to a bare IP, it is
// returned unchanged.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
