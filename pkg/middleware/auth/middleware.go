package auth

import "time"

// Middleware verifies HS256 bearer tokens minted for script engine hosts.
// With no secret configured every request passes unauthenticated.
type Middleware struct {
	secret    []byte
	issuer    string
	audience  string
	leeway    time.Duration
	adminRole string
	devBypass bool
}

// Enabled reports whether tokens are being verified.
func (m *Middleware) Enabled() bool { return m != nil && len(m.secret) > 0 }
