package auth

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeydtaylor/steeze-urlbridge/pkg/config"
)

// ProvideAuthentication wires the control section of the config plus the
// ASSERTION_LEEWAY_SECONDS, ADMIN_ROLE_NAME and AUTH_DEV_BYPASS env keys.
func ProvideAuthentication(cfg config.Config) *Middleware {
	leeway := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("ASSERTION_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			leeway = time.Duration(n) * time.Second
		}
	}
	return New(cfg.Control.JWTSecret, cfg.Control.Issuer, cfg.Control.Audience,
		WithLeeway(leeway),
		WithAdminRole(os.Getenv("ADMIN_ROLE_NAME")),
		WithDevBypass(os.Getenv("AUTH_DEV_BYPASS") == "true"),
	)
}

type Option func(*Middleware)

func WithLeeway(d time.Duration) Option { return func(m *Middleware) { m.leeway = d } }
func WithAdminRole(role string) Option  { return func(m *Middleware) { m.adminRole = role } }
func WithDevBypass(enabled bool) Option { return func(m *Middleware) { m.devBypass = enabled } }

// New builds a verifier for tokens signed with secret. Empty issuer or
// audience skip that check.
func New(secret, issuer, audience string, opts ...Option) *Middleware {
	m := &Middleware{
		secret:   []byte(secret),
		issuer:   strings.TrimSpace(issuer),
		audience: strings.TrimSpace(audience),
		leeway:   60 * time.Second,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}
