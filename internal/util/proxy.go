package util

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc returns the proxy selector for outbound adapter and LLM calls.
// With neither proxy URL set it defers to the environment (HTTP_PROXY etc).
// noProxy is a comma-separated list of hosts or domain suffixes that bypass
// the proxy; "*" bypasses it for everything.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := parseNoProxy(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if bypass.matches(req.URL.Hostname()) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

type noProxyList struct {
	all     bool
	entries []string
}

func parseNoProxy(s string) noProxyList {
	var l noProxyList
	for _, e := range strings.Split(s, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if e == "*" {
			l.all = true
			continue
		}
		if h, _, err := net.SplitHostPort(e); err == nil {
			e = h
		}
		l.entries = append(l.entries, strings.TrimPrefix(e, "*"))
	}
	return l
}

// matches reports whether host is exempt. ".example.com" and "example.com"
// both cover subdomains.
func (l noProxyList) matches(host string) bool {
	if l.all {
		return true
	}
	host = strings.ToLower(host)
	for _, e := range l.entries {
		d := strings.TrimPrefix(e, ".")
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
