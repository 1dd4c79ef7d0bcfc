package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, c claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func validClaims() claims {
	now := time.Now()
	return claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "region-7",
			Issuer:    "grid",
			Audience:  jwt.ClaimStrings{"urlbridge"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: "engine",
	}
}

func serve(m *Middleware, token string) (int, User) {
	var seen User
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = m.GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/capacity", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, seen
}

func TestBearerAccepted(t *testing.T) {
	m := New("secret", "grid", "urlbridge")
	code, u := serve(m, sign(t, "secret", validClaims()))
	if code != http.StatusNoContent {
		t.Fatalf("status = %d", code)
	}
	if u.Username != "region-7" || u.Role.Name != "engine" || u.AuthenticationSource.Provider != "bearer" {
		t.Fatalf("user = %+v", u)
	}
}

func TestBearerRejected(t *testing.T) {
	m := New("secret", "grid", "urlbridge", WithLeeway(0))

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "elsewhere"
	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"missing":        "",
		"garbage":        "not-a-jwt",
		"wrong secret":   sign(t, "other", validClaims()),
		"wrong issuer":   sign(t, "secret", wrongIssuer),
		"wrong audience": sign(t, "secret", wrongAudience),
		"expired":        sign(t, "secret", expired),
		"no subject":     sign(t, "secret", noSubject),
	}
	for name, tok := range cases {
		if code, _ := serve(m, tok); code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", name, code)
		}
	}
}

func TestDisabledPassesThrough(t *testing.T) {
	m := New("", "", "")
	if m.Enabled() {
		t.Fatal("Enabled with empty secret")
	}
	code, u := serve(m, "")
	if code != http.StatusNoContent || u.Username != "" {
		t.Fatalf("status = %d user = %+v", code, u)
	}
}

func TestDevBypass(t *testing.T) {
	m := New("secret", "", "", WithDevBypass(true), WithAdminRole("admin"))
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.IsAdmin(r.Context()) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-User", "dev")
	req.Header.Set("X-Dev-Role", "admin")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}
