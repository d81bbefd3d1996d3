// Package util holds shared HTTP plumbing: proxy selection and robots.txt
// compliance checks.
package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc creates a proxy function from explicit configuration,
// falling back to the standard proxy environment variables when no proxy
// URLs are set.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
