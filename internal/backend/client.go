package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 4 << 20

// ChatPayload is the body of POST /chat on the backend.
type ChatPayload struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id,omitempty"`
}

// Response is a successful (2xx) backend answer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client talks to the backend chat service. It holds no per-request state and
// is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

// Chat forwards one chat query to the backend.
func (c *Client) Chat(ctx context.Context, p ChatPayload) (*Response, error) {
	return c.Send(ctx, http.MethodPost, "/chat", p)
}

// Probe issues a GET against path and reports whether it answered 2xx.
func (c *Client) Probe(ctx context.Context, path string) error {
	_, err := c.Send(ctx, http.MethodGet, path, nil)
	return err
}

// Send performs exactly one HTTP call. A non-nil payload is sent as JSON.
// Failures are *UnreachableError or *StatusError, except payload encoding
// and request construction errors which are returned wrapped.
func (c *Client) Send(ctx context.Context, method, path string, payload any) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encode backend payload")
		}
		body = bytes.NewReader(b)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "build backend request")
	}
	req.Header.Set("Accept", "application/json; charset=utf-8")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &UnreachableError{Endpoint: path, Err: errors.Wrap(err, "read response body")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Body: b}
	}
	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}
