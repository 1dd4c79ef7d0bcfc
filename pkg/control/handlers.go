package control

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/codec"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/engine"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"go.uber.org/zap"
)

type allocateRequest struct {
	ObjectID string `json:"object_id"`
	ScriptID string `json:"script_id"`
	Secure   bool   `json:"secure"`
}

type allocateResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`
}

type capacityResponse struct {
	Remaining int `json:"remaining"`
	Capacity  int `json:"capacity"`
	Endpoints int `json:"endpoints"`
	Requests  int `json:"requests"`
}

type respondRequest struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type"`
}

type contentTypeRequest struct {
	ContentType string `json:"content_type"`
}

type headerResponse struct {
	Value string `json:"value"`
}

type eventsResponse struct {
	Events []engine.Event `json:"events"`
}

func (a *API) allocate(w http.ResponseWriter, r *http.Request) {
	var in allocateRequest
	if err := codec.ReadRequest(codec.JSONStrict, w, r, a.maxBody, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.ScriptID) == "" {
		http.Error(w, "script_id is required", http.StatusBadRequest)
		return
	}
	res := a.bridge.Allocate(in.ObjectID, in.ScriptID, a.queue.Target(in.ObjectID, in.ScriptID), in.Secure)
	out := allocateResponse{Token: res.Token, Address: res.Address, Granted: res.Granted}
	if res.Reason != nil {
		out.Reason = res.Reason.Error()
	}
	codec.Write(codec.JSONStrict, w, http.StatusOK, out)
}

func (a *API) release(w http.ResponseWriter, r *http.Request) {
	if !a.bridge.ReleaseToken(chi.URLParam(r, "token")) {
		http.Error(w, urlbridge.ErrEndpointNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) capacity(w http.ResponseWriter, _ *http.Request) {
	s := a.bridge.Stats()
	codec.Write(codec.JSONStrict, w, http.StatusOK, capacityResponse{
		Remaining: a.bridge.RemainingCapacity(),
		Capacity:  s.Capacity,
		Endpoints: s.Endpoints,
		Requests:  s.Requests,
	})
}

func (a *API) respond(w http.ResponseWriter, r *http.Request) {
	var in respondRequest
	if err := codec.ReadRequest(codec.JSONStrict, w, r, a.maxBody, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Status < 100 || in.Status > 999 {
		http.Error(w, "status out of range", http.StatusBadRequest)
		return
	}
	err := a.bridge.SetOutcome(chi.URLParam(r, "id"), in.Status, in.Body, in.ContentType)
	a.writeResult(w, err)
}

func (a *API) contentType(w http.ResponseWriter, r *http.Request) {
	var in contentTypeRequest
	if err := codec.ReadRequest(codec.JSONStrict, w, r, a.maxBody, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.writeResult(w, a.bridge.SetContentType(chi.URLParam(r, "id"), in.ContentType))
}

func (a *API) header(w http.ResponseWriter, r *http.Request) {
	v := a.bridge.Header(chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	codec.Write(codec.JSONStrict, w, http.StatusOK, headerResponse{Value: v})
}

func (a *API) lifecycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind := chi.URLParam(r, "kind")
	switch kind {
	case "script-removed":
		a.hub.ScriptRemoved(id)
	case "script-reset":
		a.hub.ScriptReset(id)
	case "object-removed":
		a.hub.ObjectRemoved(id)
	default:
		http.Error(w, "unknown lifecycle event", http.StatusNotFound)
		return
	}
	a.log.Info("lifecycle", zap.String("event", kind), zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) events(w http.ResponseWriter, r *http.Request) {
	script := r.URL.Query().Get("script")
	if script == "" {
		http.Error(w, "script is required", http.StatusBadRequest)
		return
	}
	codec.Write(codec.JSONStrict, w, http.StatusOK, eventsResponse{Events: a.queue.Drain(script)})
}

// writeResult maps a race-miss to 404; the engine treats that as "too late".
func (a *API) writeResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, urlbridge.ErrRequestNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		a.log.Error("control request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
