// Package control exposes the bridge to a script engine running in another
// process. The engine allocates endpoints, answers requests and polls its
// event queue over a small JSON API.
package control

import (
	"net/http"

	"github.com/joeydtaylor/steeze-urlbridge/pkg/engine"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/transport/httpx"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"go.uber.org/zap"
)

const defaultMaxBody = 2 << 20

type API struct {
	bridge *urlbridge.Bridge
	queue  *engine.Queue
	hub    *engine.Hub
	auth   *auth.Middleware
	roles  []string
	log    *zap.Logger

	maxBody int64
}

type Option func(*API)

// WithAuth guards every route with a; when roles is non-empty the caller's
// role must be one of them (admins always pass).
func WithAuth(a *auth.Middleware, roles ...string) Option {
	return func(api *API) {
		api.auth = a
		api.roles = roles
	}
}

func WithLogger(l *zap.Logger) Option { return func(api *API) { api.log = l } }
func WithMaxBody(n int64) Option      { return func(api *API) { api.maxBody = n } }

func New(b *urlbridge.Bridge, q *engine.Queue, h *engine.Hub, opts ...Option) *API {
	api := &API{bridge: b, queue: q, hub: h, log: zap.NewNop(), maxBody: defaultMaxBody}
	for _, o := range opts {
		o(api)
	}
	return api
}

// Routes mounts the API on r. Middleware must already be installed on r.
func (a *API) Routes(r httpx.Router) {
	r.Post("/v1/endpoints", a.guarded(a.allocate))
	r.Delete("/v1/endpoints/{token}", a.guarded(a.release))
	r.Get("/v1/capacity", a.guarded(a.capacity))
	r.Post("/v1/requests/{id}/response", a.guarded(a.respond))
	r.Put("/v1/requests/{id}/content-type", a.guarded(a.contentType))
	r.Get("/v1/requests/{id}/headers/{name}", a.guarded(a.header))
	r.Post("/v1/lifecycle/{kind}/{id}", a.guarded(a.lifecycle))
	r.Get("/v1/events", a.guarded(a.events))
}

func (a *API) guarded(h http.HandlerFunc) http.Handler {
	next := withGuard(h, a.auth, a.roles)
	if a.auth == nil {
		return next
	}
	return a.auth.Middleware()(next)
}
