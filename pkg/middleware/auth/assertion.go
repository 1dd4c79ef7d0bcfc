package auth

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	jwt.RegisteredClaims
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

func (m *Middleware) validateBearer(raw string) (User, error) {
	if !m.Enabled() {
		return User{}, errors.New("bearer verification not configured")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
	)

	var c claims
	tok, err := parser.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return User{}, errors.New("invalid bearer token")
	}

	if m.issuer != "" && c.Issuer != m.issuer {
		return User{}, errors.New("bad issuer")
	}
	if m.audience != "" && !slices.Contains(c.Audience, m.audience) {
		return User{}, errors.New("bad audience")
	}
	if c.Subject == "" {
		return User{}, errors.New("missing sub")
	}

	return User{
		Username:             c.Subject,
		AuthenticationSource: AuthenticationSource{Provider: "bearer"},
		Role:                 Role{Name: firstNonEmpty(c.Role, first(c.Roles...))},
	}, nil
}
