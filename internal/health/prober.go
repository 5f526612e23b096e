package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type httpProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber probes endpoint+path with a GET. Any 2xx counts as healthy.
func NewHTTPProber(endpoint, path string) Prober {
	if path == "" {
		path = "/health"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &httpProber{url: strings.TrimRight(endpoint, "/") + path, client: &http.Client{}}
}

func (p *httpProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}
	return nil
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }
