package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"movne-gateway/internal/types"
)

// APIError is a non-200 answer from the gateway.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d (%s): %s", e.StatusCode, e.Kind, e.Message)
}

// Client calls the relay gateway on behalf of the UI.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Ask sends one query and returns the assistant text.
func (c *Client) Ask(ctx context.Context, userID, query, productID string) (string, error) {
	b, err := json.Marshal(types.ChatRequest{UserID: userID, Query: query, ProductID: productID})
	if err != nil {
		return "", errors.Wrap(err, "encode chat request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return "", errors.Wrap(err, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json; charset=utf-8")

	var out types.ChatResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// CheckSystem asks the gateway to run the diagnostic.
func (c *Client) CheckSystem(ctx context.Context) (types.SystemStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/system/check", nil)
	if err != nil {
		return types.SystemStatus{}, errors.Wrap(err, "build system check request")
	}
	var st types.SystemStatus
	if err := c.do(req, &st); err != nil {
		return types.SystemStatus{}, err
	}
	return st, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "call gateway")
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read gateway response")
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error   string          `json:"error"`
			Kind    string          `json:"kind"`
			Details json.RawMessage `json:"details"`
		}
		// Non-JSON bodies, like chi's empty 504 on timeout, fall back to the status text.
		if err := json.Unmarshal(b, &e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Kind: e.Kind, Message: e.Error, Details: e.Details}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return errors.Wrap(err, "decode gateway response")
	}
	return nil
}
