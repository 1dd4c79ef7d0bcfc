package logger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serve(t *testing.T, r *http.Request) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	m := New(zap.New(core))
	h := m.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(b)
	}))
	h.ServeHTTP(httptest.NewRecorder(), r)
	return logs
}

func TestAccessLineFields(t *testing.T) {
	logs := serve(t, httptest.NewRequest(http.MethodGet, "/v1/capacity", nil))
	if logs.Len() != 1 {
		t.Fatalf("lines = %d", logs.Len())
	}
	f := logs.All()[0].ContextMap()
	if f["status"] != int64(http.StatusAccepted) || f["uri"] != "/v1/capacity" || f["httpMethod"] != "GET" {
		t.Fatalf("fields = %v", f)
	}
	if _, ok := f["requestData"]; ok {
		t.Fatal("GET body logged")
	}
}

func TestAllowlistedBodyLogged(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/endpoints", strings.NewReader(`{"objectId":"o"}`))
	r.Header.Set("Content-Type", "application/json")
	f := serve(t, r).All()[0].ContextMap()
	if f["requestData"] != `{"objectId":"o"}` {
		t.Fatalf("requestData = %v", f["requestData"])
	}
}

func TestResponseBodyRedacted(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/requests/abc/response", strings.NewReader(`{"body":"secret"}`))
	r.Header.Set("Content-Type", "application/json")
	if _, ok := serve(t, r).All()[0].ContextMap()["requestData"]; ok {
		t.Fatal("response body logged")
	}
}

func TestBridgeBodyPassesThrough(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/lslhttp/tok/", strings.NewReader("payload"))
	core, _ := observer.New(zapcore.InfoLevel)
	rec := httptest.NewRecorder()
	New(zap.New(core)).Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(b)
	})).ServeHTTP(rec, r)
	if rec.Body.String() != "payload" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestAddBodyLogPaths(t *testing.T) {
	AddBodyLogPaths(" /v1/extra ", "")
	r := httptest.NewRequest(http.MethodPut, "/v1/extra/1", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	if !shouldLogBody(r, []byte(`{}`)) {
		t.Fatal("prefix not honored")
	}
}
