package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrTooManyRedirects is returned when a page redirects more than maxRedirects times.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrUnsupportedContent is returned for responses that are not text, e.g. images or archives.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrInvalidProxy is returned when the proxy URL cannot be used.
	// Supported schemes are http, https, socks5 and socks5h.
	ErrInvalidProxy = errors.New("invalid proxy URL")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy can be made.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyTimeout is returned when connecting to the proxy times out.
	ErrProxyTimeout = errors.New("timeout connecting to proxy")
)

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// Code is the HTTP status code.
	Code int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.Code, e.URL)
}

// ProxyStatus represents the result of checking the proxy connection.
type ProxyStatus int

const (
	// ProxyStatusOK indicates the proxy accepted a TCP connection.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusCannotConnect indicates the proxy refused the connection or is unreachable.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the connection attempt timed out.
	ProxyStatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the appropriate error for this status, or nil if OK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return ErrProxyCannotConnect
	}
}

// Reason converts a fetch error into the short failure reason stored on
// a site record.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("HTTP %d", statusErr.Code)
	case errors.Is(err, ErrTooManyRedirects):
		return "too many redirects"
	case errors.Is(err, ErrUnsupportedContent):
		return "unsupported content type"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "DNS lookup failed"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	case errors.As(err, &certErr):
		return "TLS certificate error"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "request failed"
	}
}
