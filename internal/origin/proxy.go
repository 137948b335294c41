// Package origin forwards pass-through requests to the primary site.
package origin

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// ReverseProxy strips these before Rewrite runs.
var forwardedHeaders = []string{"X-Forwarded-For", "X-Forwarded-Host", "X-Forwarded-Proto"}

// Proxy relays requests to the origin and returns its responses verbatim.
type Proxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// New builds a Proxy for the origin at rawURL.
func New(rawURL string, logger *zap.Logger) (*Proxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("origin url %q must include scheme and host", rawURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			// The origin sees the request as the client sent it: same Host,
			// and forwarding headers only if the client supplied them.
			pr.Out.Host = pr.In.Host
			for _, h := range forwardedHeaders {
				if v, ok := pr.In.Header[h]; ok {
					pr.Out.Header[h] = v
				}
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, r.Context().Err()) {
				return
			}
			logger.Error("origin request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return &Proxy{target: target, proxy: rp}, nil
}

// Target returns the origin URL.
func (p *Proxy) Target() *url.URL {
	cp := *p.target
	return &cp
}

// ServeHTTP forwards r to the origin.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}
