package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

var errSessionClosed = errors.New("session closed")

// HTTPDialer opens sessions backed by net/http. Each session owns its own connection pool,
// so closing it tears down every connection opened during the iteration.
type HTTPDialer struct {
	Proxy   string        // http, https, socks5 or socks5h URL; empty for direct
	Timeout time.Duration // per request; DefaultTimeout when zero

	// RequestsPerSecond paces requests within one session. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// NewHTTPDialer creates a dialer with an optional proxy.
func NewHTTPDialer(proxyURL string, timeout time.Duration) *HTTPDialer {
	return &HTTPDialer{Proxy: proxyURL, Timeout: timeout}
}

// ParseProxy validates a proxy URL. The scheme selects the proxy protocol.
func ParseProxy(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy %q has no host", raw)
	}
	return u, nil
}

// Open builds a fresh client for one iteration.
func (d *HTTPDialer) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proxyURL, err := ParseProxy(d.Proxy)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	burst := d.Burst
	if d.RequestsPerSecond > 0 {
		limit = rate.Limit(d.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	return &httpSession{
		transport: transport,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

type httpSession struct {
	transport *http.Transport
	client    *http.Client
	limiter   *rate.Limiter

	mu     sync.Mutex
	closed bool
}

func (s *httpSession) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, &Error{Op: "get", URL: rawURL, Err: errSessionClosed}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Op: "get", URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Op: "get", URL: rawURL, Err: err}
	}
	for k, v := range header {
		req.Header[k] = append([]string(nil), v...)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Op: "get", URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Op: "read body", URL: rawURL, Err: err}
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (s *httpSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.transport.CloseIdleConnections()
	return nil
}
