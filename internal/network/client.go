package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	fhttpcookiejar "github.com/bogdanfinn/fhttp/cookiejar"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"
)

var ErrRequestFailed = errors.New("request failed")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const requestTimeout = 30 * time.Second

// Client issues outbound requests with browser-mimicking headers and
// retry-with-backoff. A request that exhausts its retries is reported as
// an error the caller treats as "no data this attempt", never as fatal.
type Client struct {
	http       tls_client.HttpClient
	logger     zerolog.Logger
	maxRetries int
	baseDelay  time.Duration
}

func NewClient(logger zerolog.Logger, maxRetries int, baseDelay time.Duration) (*Client, error) {
	jar, _ := fhttpcookiejar.New(nil)

	client, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(int(requestTimeout.Seconds())),
		tls_client.WithCookieJar(jar),
	)
	if err != nil {
		return nil, err
	}

	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Client{
		http:       client,
		logger:     logger,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}, nil
}

// Get fetches target with the given query params, retrying on transport
// errors and non-2xx statuses. The body is fully read and returned.
func (c *Client) Get(ctx context.Context, target string, params url.Values, headers map[string]string) ([]byte, int, error) {
	if len(params) > 0 {
		sep := "?"
		if bytes.ContainsRune([]byte(target), '?') {
			sep = "&"
		}
		target = target + sep + params.Encode()
	}
	return c.send(ctx, fhttp.MethodGet, target, nil, headers)
}

// PostJSON posts a JSON body to target with API-style headers.
func (c *Client) PostJSON(ctx context.Context, target string, body []byte, headers map[string]string) ([]byte, int, error) {
	merged := map[string]string{"content-type": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	return c.send(ctx, fhttp.MethodPost, target, body, merged)
}

func (c *Client) send(ctx context.Context, method string, target string, body []byte, headers map[string]string) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		data, status, err := c.attempt(ctx, method, target, body, headers)
		if err == nil {
			return data, status, nil
		}
		lastErr = err

		c.logger.Warn().
			Str("url", target).
			Int("attempt", attempt).
			Int("max", c.maxRetries).
			Err(err).
			Msg("request attempt failed")

		if attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-time.After(c.baseDelay * time.Duration(attempt)):
		}
	}

	c.logger.Error().Str("url", target).Msg("all retry attempts failed")
	return nil, 0, fmt.Errorf("%w: %s: %v", ErrRequestFailed, target, lastErr)
}

func (c *Client) attempt(ctx context.Context, method string, target string, body []byte, headers map[string]string) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := fhttp.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, err
	}

	applyHeaders(req, headers)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("http %d", resp.StatusCode)
	}
	return data, resp.StatusCode, nil
}

func applyHeaders(req *fhttp.Request, headers map[string]string) {
	defaults := map[string]string{
		"user-agent":      userAgent,
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
		"cache-control":   "no-cache",
		"connection":      "keep-alive",
	}
	for key, value := range defaults {
		if _, ok := headers[key]; !ok {
			req.Header.Set(key, value)
		}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// APIHeaders builds the header set for Workday-style JSON endpoints.
func APIHeaders(origin string, referer string) map[string]string {
	return map[string]string{
		"accept":           "application/json, text/plain, */*",
		"x-requested-with": "XMLHttpRequest",
		"origin":           origin,
		"referer":          referer,
		"sec-fetch-dest":   "empty",
		"sec-fetch-mode":   "cors",
		"sec-fetch-site":   "same-origin",
	}
}
