package metrics

import (
	"net/http"
	"strings"
	"sync"
)

var (
	skipMu    sync.RWMutex
	skipPaths = map[string]struct{}{"/metrics": {}, "/ping": {}}

	normMu         sync.RWMutex
	pathNormalizer = BridgePathNormalizer
)

// AddMetricsSkipPaths lets callers extend the skip list.
func AddMetricsSkipPaths(paths ...string) {
	skipMu.Lock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			skipPaths[p] = struct{}{}
		}
	}
	skipMu.Unlock()
}

// SetPathNormalizer replaces the function producing the uri label.
func SetPathNormalizer(fn func(*http.Request) string) {
	if fn == nil {
		return
	}
	normMu.Lock()
	pathNormalizer = fn
	normMu.Unlock()
}

// BridgePathNormalizer collapses endpoint tokens and request ids so the uri
// label stays bounded.
func BridgePathNormalizer(r *http.Request) string {
	p := r.URL.Path
	parts := strings.Split(strings.Trim(p, "/"), "/")
	switch {
	case len(parts) >= 2 && (parts[0] == "lslhttp" || parts[0] == "lslhttps"):
		return "/" + parts[0] + "/{token}"
	case len(parts) >= 3 && parts[0] == "v1" && (parts[1] == "endpoints" || parts[1] == "requests"):
		parts[2] = "{id}"
		if len(parts) >= 5 && parts[3] == "headers" {
			parts[4] = "{name}"
		}
	case len(parts) >= 4 && parts[0] == "v1" && parts[1] == "lifecycle":
		parts[3] = "{id}"
	default:
		return p
	}
	return "/" + strings.Join(parts, "/")
}

func isSkipPath(r *http.Request) bool {
	p := r.URL.Path
	skipMu.RLock()
	_, ok := skipPaths[p]
	skipMu.RUnlock()
	return ok
}

func normalizePath(r *http.Request) string {
	normMu.RLock()
	fn := pathNormalizer
	normMu.RUnlock()
	return fn(r)
}
