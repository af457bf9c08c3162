package crawler

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultUserAgent is injected when a caller supplies no user agent. A
// browser-like string avoids the anti-bot blocking many shops apply to
// default Go/library agents.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:145.0) Gecko/20100101 Firefox/145.0"

// maxBodyBytes caps downloaded bodies (pages and images)
const maxBodyBytes = 10 << 20

// Response is a fully-read HTTP response
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the response, parameters stripped
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

// Fetcher issues outbound GET requests with a configured user agent,
// timeout, and per-host rate limiting.
type Fetcher struct {
	client    *http.Client
	limiter   *HostLimiter
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a fetcher. An empty userAgent falls back to the
// browser-like default.
func NewFetcher(timeout time.Duration, userAgent string, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   NewHostLimiter(1, 4),
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch issues a GET request and reads the whole body. Connection failures
// and timeouts come back as *RetrievalError, non-2xx statuses as *HTTPError,
// anything else as *RequestError. No partial state is left behind on failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RequestError{URL: rawURL, Err: err}
	}

	hasUserAgent := false
	for name, value := range headers {
		req.Header.Set(name, value)
		if strings.EqualFold(name, "User-Agent") {
			hasUserAgent = true
		}
	}
	if !hasUserAgent {
		// The fetcher's own configured agent, not a surprise: log quietly
		req.Header.Set("User-Agent", f.userAgent)
		f.logger.Debug("Using configured user agent", "user_agent", f.userAgent)
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		if err := f.limiter.Wait(ctx, parsed.Host); err != nil {
			return nil, &RequestError{URL: rawURL, Err: err}
		}
	}

	f.logger.Debug("Fetching URL", "url", rawURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
