package fetch

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/nao1215/leadscan/internal/model"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Fetcher downloads a single page.
type Fetcher interface {
	// Fetch returns the page at rawURL. Non-2xx responses are reported
	// as *StatusError.
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// HTTPFetcher is the net/http Fetcher created by Client.NewFetcher.
type HTTPFetcher struct {
	client         *http.Client
	transport      *http.Transport
	limiter        *rate.Limiter
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	maxBodySize    int64
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextContent(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, contentType)
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode body of %s: %w", rawURL, err)
	}

	utf8Body, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset of %s: %w", rawURL, err)
	}

	raw, err := io.ReadAll(io.LimitReader(utf8Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	page := &model.Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        string(raw),
	}
	page.ComputeHash()
	return page, nil
}

// Close releases the fetcher's idle connections.
func (f *HTTPFetcher) Close() error {
	f.transport.CloseIdleConnections()
	return nil
}

// decodeBody wraps body with the decompressor named by encoding.
// Deflate is accepted both zlib-wrapped and raw, since servers send both.
func decodeBody(body io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case "deflate":
		br := bufio.NewReader(body)
		header, err := br.Peek(2)
		if err == nil && isZlibHeader(header) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, err
			}
			return zr, nil
		}
		return flate.NewReader(br), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// isZlibHeader reports whether b starts a zlib stream (RFC 1950).
func isZlibHeader(b []byte) bool {
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}

// isTextContent accepts HTML, XML, JSON and other text media types.
// A missing Content-Type is treated as HTML.
func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case strings.HasSuffix(mediaType, "+xml"), strings.HasSuffix(mediaType, "/xml"):
		return true
	case mediaType == "application/json", mediaType == "application/javascript":
		return true
	}
	return false
}

func newCookieJar() http.CookieJar {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New never fails
	return jar
}
