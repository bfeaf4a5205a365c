// internal/common/http/client.go
package http

import (
	"net/http"
	"time"
)

// Client is the outbound transport for external APIs. It satisfies the
// HTTPDoer contract expected by the LLM client.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient returns a client without a hard timeout when timeout is zero;
// callers then rely on the request context.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}
