package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc creates the proxy selection function for outbound clients.
// Explicit settings win over environment variables; hosts matching a no_proxy
// entry always connect directly.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	exclusions := splitNoProxy(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if hostExcluded(req.URL.Hostname(), exclusions) {
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

func splitNoProxy(noProxy string) []string {
	var entries []string
	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			entries = append(entries, strings.TrimPrefix(entry, "."))
		}
	}
	return entries
}

// hostExcluded matches a host against no_proxy entries, including parent
// domains ("ncbi.nlm.nih.gov" matches an entry of "nih.gov")
func hostExcluded(host string, exclusions []string) bool {
	for _, entry := range exclusions {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
