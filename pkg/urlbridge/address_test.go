package urlbridge

import "testing"

func TestBuildAddress(t *testing.T) {
	cases := []struct {
		secure bool
		want   string
	}{
		{false, "http://sim.example.org:9000/lslhttp/abc/"},
		{true, "https://sim.example.org:9000/lslhttps/abc/"},
	}
	for _, c := range cases {
		if got := buildAddress(c.secure, "sim.example.org", 9000, "abc"); got != c.want {
			t.Errorf("buildAddress(secure=%v) = %q, want %q", c.secure, got, c.want)
		}
	}
}

func TestPathInfo(t *testing.T) {
	cases := map[string]string{
		"/lslhttp/abc":          "",
		"/lslhttp/abc/":         "/",
		"/lslhttp/abc/foo":      "/foo",
		"/lslhttps/abc/foo/bar": "/foo/bar",
	}
	for in, want := range cases {
		if got := pathInfo(in); got != want {
			t.Errorf("pathInfo(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQueryString(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"a=1":                  "a=1",
		"a=1&b=2":              "a=1&b=2",
		"b=2&a=1&":             "b=2&a=1",
		"flag":                 "flag=",
		"name=two%20words&x=y": "name=two words&x=y",
	}
	for in, want := range cases {
		if got := queryString(in); got != want {
			t.Errorf("queryString(%q) = %q, want %q", in, got, want)
		}
	}
}
