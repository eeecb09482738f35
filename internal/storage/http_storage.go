package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxNetDefinitionSize = 64 * 1024 * 1024

// HTTPNetFetcher downloads network definitions relative to a base URL
type HTTPNetFetcher struct {
	client  *http.Client
	baseURL string
	backoff time.Duration
}

// NewHTTPNetFetcher creates an HTTP fetcher for definitions published below baseURL
func NewHTTPNetFetcher(baseURL string, timeout time.Duration) *HTTPNetFetcher {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPNetFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		backoff: time.Second,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// WithBackoff overrides the base delay between retries
func (h *HTTPNetFetcher) WithBackoff(d time.Duration) *HTTPNetFetcher {
	h.backoff = d
	return h
}

func (h *HTTPNetFetcher) resourceURL(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty resource name")
	}
	segments := strings.Split(strings.TrimLeft(name, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return h.baseURL + "/" + strings.Join(segments, "/"), nil
}

// FetchNet downloads a definition, retrying up to 3 attempts on transport
// errors and 5xx responses. 4xx responses fail immediately.
func (h *HTTPNetFetcher) FetchNet(ctx context.Context, name string) (io.ReadCloser, error) {
	target, err := h.resourceURL(name)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		body, retry, err := h.fetchOnce(ctx, target)
		if err == nil {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		lastErr = err
		if !retry {
			break
		}

		if attempt < 2 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * h.backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch %s after 3 attempts: %w", name, lastErr)
}

func (h *HTTPNetFetcher) fetchOnce(ctx context.Context, target string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "text/plain, */*")
	req.Header.Set("User-Agent", "go-c2rcc/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	default:
		return nil, resp.StatusCode >= 500, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNetDefinitionSize))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}
