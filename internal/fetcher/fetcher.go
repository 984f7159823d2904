// Package fetcher issues the per-tick HTTP GET for a monitored target and
// parses the response into a traversable HTML tree.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/html"

	"github.com/webwatch/webwatch/internal/netguard"
)

const (
	// DefaultMaxBody caps how much of a response body is read and parsed.
	DefaultMaxBody = 1 << 20 // 1MB
	// DefaultTimeout bounds the whole request, including redirects.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "webwatch/1.0"
)

// Fetcher performs HTTP GET requests for monitored pages.
type Fetcher struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBody      int64
	AllowPrivate bool
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return DefaultTimeout
}

func (f *Fetcher) maxBody() int64 {
	if f.MaxBody > 0 {
		return f.MaxBody
	}
	return DefaultMaxBody
}

// Fetch retrieves url and returns the parsed document root. Any transport
// failure or non-2xx status is an error; the caller skips the tick.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := &http.Client{
		Timeout: f.timeout(),
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: f.timeout(),
				Control: netguard.MaybeDialControl(f.AllowPrivate),
			}).DialContext,
			DisableKeepAlives: true,
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	root, err := html.Parse(io.LimitReader(resp.Body, f.maxBody()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return root, nil
}
