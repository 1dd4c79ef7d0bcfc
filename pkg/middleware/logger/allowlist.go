package logger

import (
	"net/http"
	"strings"
	"sync"
)

// Control API bodies are small and carry no script payloads except
// responses, which stay redacted.
var (
	bodyLogMu       sync.RWMutex
	bodyLogPrefixes = map[string]struct{}{
		"/v1/endpoints": {},
	}
)

// AddBodyLogPaths lets callers extend the allowlist at runtime.
func AddBodyLogPaths(paths ...string) {
	bodyLogMu.Lock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			bodyLogPrefixes[p] = struct{}{}
		}
	}
	bodyLogMu.Unlock()
}

// Only log small JSON request bodies on allowlisted routes.
func shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if len(body) == 0 || len(body) > 1<<16 { // 64 KiB cap
		return false
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		return false
	}
	path := r.URL.Path
	bodyLogMu.RLock()
	defer bodyLogMu.RUnlock()
	for p := range bodyLogPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
