package control

import (
	"net/http"
	"slices"

	"github.com/joeydtaylor/steeze-urlbridge/pkg/middleware/auth"
)

func withGuard(next http.HandlerFunc, a *auth.Middleware, roles []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Unverified deployments (no secret) accept everyone.
		if a == nil || !a.Enabled() {
			next(w, r)
			return
		}
		if !a.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if len(roles) == 0 || a.IsAdmin(r.Context()) {
			next(w, r)
			return
		}
		if slices.Contains(roles, a.GetUser(r.Context()).Role.Name) {
			next(w, r)
			return
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}
