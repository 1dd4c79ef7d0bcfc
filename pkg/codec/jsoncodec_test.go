package codec

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type payload struct {
	Name string `json:"name"`
}

func TestJSONStrictUnmarshal(t *testing.T) {
	var p payload
	if err := JSONStrict.Unmarshal([]byte(`{"name":"a"}`), &p); err != nil || p.Name != "a" {
		t.Fatalf("p = %+v err = %v", p, err)
	}
	for _, bad := range []string{`{"name":"a","extra":1}`, `{"name":"a"} {}`, `{`} {
		if err := JSONStrict.Unmarshal([]byte(bad), &p); err == nil {
			t.Errorf("accepted %s", bad)
		}
	}
}

func TestReadRequestLimit(t *testing.T) {
	var p payload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
	if err := ReadRequest(JSONStrict, httptest.NewRecorder(), r, 16, &p); err == nil {
		t.Fatal("oversized body accepted")
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(JSONStrict, rec, http.StatusCreated, payload{Name: "<b>"})
	if rec.Code != http.StatusCreated || rec.Body.String() != `{"name":"<b>"}` {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatal("content type missing")
	}
}
