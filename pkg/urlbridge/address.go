package urlbridge

import (
	"fmt"
	"net/url"
	"strings"
)

func endpointPath(secure bool, token string) string {
	seg := SegmentHTTP
	if secure {
		seg = SegmentHTTPS
	}
	return "/" + seg + "/" + token + "/"
}

// buildAddress renders scheme://host:port/segment/token/.
func buildAddress(secure bool, host string, port int, token string) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, host, port, endpointPath(secure, token))
}

// splitURI separates the request target into path and raw query.
func splitURI(uri string) (path, rawQuery string) {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i], uri[i+1:]
	}
	return uri, ""
}

// pathInfo is what follows /segment/token in the path, always starting with
// "/" when anything follows.
func pathInfo(path string) string {
	// path looks like /lslhttp/<token>[/rest]
	p := strings.TrimPrefix(path, "/")
	parts := strings.SplitN(p, "/", 3)
	if len(parts) < 3 {
		return ""
	}
	return "/" + parts[2]
}

// queryString rebuilds the query as key=value pairs in arrival order joined
// by "&". Keys without a value render as "key=".
func queryString(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if dv, err := url.QueryUnescape(v); err == nil {
			v = dv
		}
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, "&")
}

// Synthetic header names added to every delivered request.
const (
	HeaderRemoteAddr  = "remote_addr"
	HeaderRemoteIP    = "x-remote-ip"
	HeaderPathInfo    = "x-path-info"
	HeaderQueryString = "x-query-string"
	HeaderScriptURL   = "x-script-url"
)

func syntheticHeaders(in Inbound, address string) map[string]string {
	h := make(map[string]string, len(in.Headers)+4)
	for k, v := range in.Headers {
		h[k] = v
	}
	path, raw := splitURI(in.URI)
	h[HeaderRemoteIP] = in.Headers[HeaderRemoteAddr]
	h[HeaderPathInfo] = pathInfo(path)
	h[HeaderQueryString] = queryString(raw)
	h[HeaderScriptURL] = address
	return h
}
