package source

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// HTTPConfig controls the collector used for http(s) sources.
type HTTPConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// HTTP reads http and https sources with a Colly collector.
type HTTP struct {
	cfg           HTTPConfig
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type httpResult struct {
	status int
	body   []byte
	err    error
}

// NewHTTP builds an HTTP reader. The timeout defaults to 15s.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	return &HTTP{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Read fetches u and returns the body of a 200 response. Any other status
// is reported as ErrUnavailable.
func (h *HTTP) Read(ctx context.Context, u *url.URL) ([]byte, error) {
	var result httpResult
	collector := h.buildCollector(&result)
	if err := h.runCollector(ctx, collector, u.String(), &result); err != nil {
		return nil, err
	}
	if result.status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, u.Redacted(), result.status)
	}
	return result.body, nil
}

func (h *HTTP) buildCollector(result *httpResult) *colly.Collector {
	collector := h.baseCollector.Clone()
	// Every request refetches the same documents, and error statuses must
	// reach OnResponse so they can be reported.
	collector.AllowURLRevisit = true
	collector.ParseHTTPErrorResponse = true
	collector.IgnoreRobotsTxt = true
	h.configureCollectorHooks(collector, result)
	return collector
}

func (h *HTTP) configureCollectorHooks(hooks collectorHooks, result *httpResult) {
	hooks.OnResponse(func(r *colly.Response) {
		result.status = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
	})
	hooks.OnError(func(_ *colly.Response, err error) {
		result.err = err
	})
}

func (h *HTTP) runCollector(ctx context.Context, collector *colly.Collector, target string, result *httpResult) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if result.err != nil {
			return fmt.Errorf("colly response failed: %w", result.err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
