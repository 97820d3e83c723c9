package semclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// envelope mirrors the teacher's api.ErrorResponse JSON shape
// (api/models.go), reused here in reverse: the lowerer is the HTTP client
// rather than the server, but the request/response envelope convention
// (error/message/code) is kept identical so both sides of the wire speak
// the same schema the teacher established.
type envelope struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`

	Name string `json:"name"`
	Text string `json:"text"`
}

// HTTPClient fetches semantics over HTTP from a semantics service, grounded
// on the teacher's api/server.go: the same net/http + encoding/json
// plumbing, JSON-over-GET request shape, and default 1MB response cap
// (api/server.go's readJSON), used here from the client side.
type HTTPClient struct {
	// Addr is the service's host[:port], e.g. config.Config.Server.
	Addr string

	// Timeout bounds one request; the zero value uses DefaultTimeout. A
	// timeout maps to ErrNotFound per spec §5.
	Timeout time.Duration

	httpClient *http.Client
}

// DefaultTimeout is the request timeout used when HTTPClient.Timeout is
// zero.
const DefaultTimeout = 2 * time.Second

// NewHTTPClient builds an HTTPClient targeting addr.
func NewHTTPClient(addr string) *HTTPClient {
	return &HTTPClient{Addr: addr}
}

func (c *HTTPClient) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c.httpClient = &http.Client{Timeout: timeout}
	return c.httpClient
}

// Fetch implements Client.
func (c *HTTPClient) Fetch(ctx context.Context, encoding uint32) (string, string, error) {
	url := fmt.Sprintf("http://%s/api/v1/semantics/%08x", c.Addr, encoding)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		// Transport failure, including a context-deadline timeout, is
		// treated identically to "no semantics" (spec §5).
		return "", "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", "", ErrNotFound
	}

	var env envelope
	decoder := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, 1<<20))
	if err := decoder.Decode(&env); err != nil {
		return "", "", fmt.Errorf("%w: malformed response: %v", ErrNotFound, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: %s", ErrNotFound, env.Message)
	}
	return env.Name, env.Text, nil
}
