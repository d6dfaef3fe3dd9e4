package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Response carries what the upstream answered. Reason is the HTTP reason
// phrase ("Forbidden", "Too Many Requests"); failure reporting quotes it.
type Response struct {
	StatusCode int
	Reason     string
	Body       []byte
}

// OK reports whether the upstream accepted the call.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// BaseClient provides GET/POST helpers against one base URL. Headers are
// built fresh for every request; nothing is shared or mutated between calls.
type BaseClient struct {
	baseURL string
	client  HTTPDoer
}

// NewBaseClient builds client with base URL.
func NewBaseClient(baseURL string, client HTTPDoer) *BaseClient {
	return &BaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (c *BaseClient) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do executes an HTTP request and reads the full response.
func (c *BaseClient) Do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Body:       respBody,
	}, nil
}

// reasonPhrase extracts the phrase from a status line like "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	if idx := strings.IndexByte(resp.Status, ' '); idx >= 0 && idx+1 < len(resp.Status) {
		return resp.Status[idx+1:]
	}
	return http.StatusText(resp.StatusCode)
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
