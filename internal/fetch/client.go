package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// Client defaults.
const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is a desktop browser user agent. Many small business
	// sites serve a stub page to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultAcceptLanguage prefers Russian content, then English.
	DefaultAcceptLanguage = "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7"

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// maxRedirects is the number of redirects a fetcher follows.
	maxRedirects = 5

	// checkProxyTimeout bounds the proxy connectivity check.
	checkProxyTimeout = 2 * time.Second
)

// Client creates per-site fetchers that share run-wide settings.
type Client struct {
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	maxBodySize    int64
	insecure       bool
	cookie         string
	headers        map[string]string

	// proxyURL is nil when requests go out directly.
	proxyURL *url.URL

	// dialer is set for SOCKS5 proxies.
	dialer proxy.Dialer

	// limiter caps the request rate of the whole run. nil means unlimited.
	limiter *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithAcceptLanguage sets the Accept-Language header.
func WithAcceptLanguage(lang string) ClientOption {
	return func(c *Client) {
		if lang != "" {
			c.acceptLanguage = lang
		}
	}
}

// WithMaxBodySize sets how many bytes of a body are read.
func WithMaxBodySize(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(insecure bool) ClientOption {
	return func(c *Client) {
		c.insecure = insecure
	}
}

// WithRateLimit caps the number of requests per second across every
// fetcher of the client. Zero or less disables the cap.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCookie sends a raw cookie string with every request.
func WithCookie(cookie string) ClientOption {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithHeaders sends extra headers with every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		c.headers = headers
	}
}

// NewClient creates a Client. proxyAddress is optional; when set it must
// be an http, https, socks5 or socks5h URL.
func NewClient(proxyAddress string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		timeout:        DefaultTimeout,
		userAgent:      DefaultUserAgent,
		acceptLanguage: DefaultAcceptLanguage,
		maxBodySize:    DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if proxyAddress == "" {
		return c, nil
	}

	u, err := url.Parse(proxyAddress)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, proxyAddress)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		c.proxyURL = u
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
		}
		c.proxyURL = u
		c.dialer = dialer
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
	}
	return c, nil
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// CheckProxy verifies that the configured proxy accepts TCP connections.
// It returns ProxyStatusOK when no proxy is configured.
func (c *Client) CheckProxy(ctx context.Context) ProxyStatus {
	if c.proxyURL == nil {
		return ProxyStatusOK
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", proxyHostPort(c.proxyURL))
	if err != nil {
		var netErr net.Error
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	_ = conn.Close()
	return ProxyStatusOK
}

// NewFetcher returns a fetcher with its own connections and cookie jar.
// The caller must Close it when the site crawl ends.
func (c *Client) NewFetcher() *HTTPFetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   c.timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.insecure, //nolint:gosec // opt-in for sites with broken certificates
		},
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		// Bodies are decoded by the fetcher, which also handles deflate.
		DisableCompression: true,
	}

	switch {
	case c.dialer != nil:
		transport.Proxy = nil
		transport.DialContext = dialContext(c.dialer)
	case c.proxyURL != nil:
		transport.Proxy = http.ProxyURL(c.proxyURL)
	}

	var rt http.RoundTripper = transport
	if c.cookie != "" || len(c.headers) > 0 {
		rt = &headerInjectingTransport{
			base:    transport,
			cookie:  c.cookie,
			headers: c.headers,
		}
	}

	client := &http.Client{
		Transport: rt,
		Jar:       newCookieJar(),
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:         client,
		transport:      transport,
		limiter:        c.limiter,
		timeout:        c.timeout,
		userAgent:      c.userAgent,
		acceptLanguage: c.acceptLanguage,
		maxBodySize:    c.maxBodySize,
	}
}

// dialContext adapts a proxy.Dialer to the transport's DialContext.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case result := <-resultCh:
			return result.conn, result.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func proxyHostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return net.JoinHostPort(u.Hostname(), "443")
	case "socks5", "socks5h":
		return net.JoinHostPort(u.Hostname(), "1080")
	default:
		return net.JoinHostPort(u.Hostname(), "80")
	}
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// custom headers and cookies into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
