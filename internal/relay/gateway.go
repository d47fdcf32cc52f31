package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"movne-gateway/internal/backend"
	"movne-gateway/internal/types"
)

// MaxRequestBytes bounds an inbound chat body.
const MaxRequestBytes = 1 << 20

// Transport is the part of the backend client the gateway needs.
type Transport interface {
	Chat(ctx context.Context, p backend.ChatPayload) (*backend.Response, error)
}

// Gateway validates chat requests, forwards them to the backend and folds
// every failure into a *Error. It keeps no state between calls.
type Gateway struct {
	transport Transport
}

func NewGateway(t Transport) *Gateway {
	return &Gateway{transport: t}
}

// Relay runs validate, forward, normalize for one inbound body. A non-nil
// error is always a *Error. Query text is never logged.
func (g *Gateway) Relay(ctx context.Context, body io.Reader) (*types.ChatResponse, error) {
	raw, err := io.ReadAll(io.LimitReader(body, MaxRequestBytes+1))
	if err != nil {
		return nil, validationError("could not read request body", map[string]string{
			"query":   fieldMissing,
			"user_id": fieldMissing,
		})
	}
	if len(raw) > MaxRequestBytes {
		return nil, validationError("request body too large", map[string]string{
			"body": fieldTooLarge,
		})
	}

	req, err := Validate(raw)
	if err != nil {
		log.Info().Interface("fields", AsError(err).Details).Msg("rejected chat request")
		return nil, err
	}

	start := time.Now()
	resp, err := g.transport.Chat(ctx, backend.ChatPayload{
		Query:     req.Query,
		UserID:    req.UserID,
		ProductID: req.ProductID,
	})
	logger := log.With().
		Str("user_id", req.UserID).
		Str("product_id", req.ProductID).
		Int("query_len", len(req.Query)).
		Dur("latency", time.Since(start)).
		Logger()

	if err != nil {
		var ue *backend.UnreachableError
		var se *backend.StatusError
		switch {
		case errors.As(err, &ue):
			logger.Warn().Err(err).Msg("backend unreachable")
			return nil, unavailableError()
		case errors.As(err, &se):
			logger.Warn().Int("status", se.StatusCode).Int("body_len", len(se.Body)).Msg("backend returned an error")
			return nil, upstreamError(se.StatusCode, verbatim(se.Body))
		default:
			logger.Error().Err(err).Msg("relay failed")
			return nil, unexpectedError(err)
		}
	}

	text, err := extractText(resp.Body)
	if err != nil {
		logger.Error().Err(err).Int("status", resp.StatusCode).Int("body_len", len(resp.Body)).Msg("malformed backend payload")
		return nil, unexpectedError(err)
	}
	logger.Info().Int("status", resp.StatusCode).Int("response_len", len(text)).Msg("relayed chat query")
	return &types.ChatResponse{Response: text}, nil
}

// extractText pulls the response string out of a backend answer. The string
// is returned as decoded from JSON, with no further transformation.
func extractText(body []byte) (string, error) {
	var payload struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", errors.Wrap(err, "decode backend payload")
	}
	if payload.Response == nil {
		return "", errors.New("backend payload has no response field")
	}
	return *payload.Response, nil
}

// verbatim keeps an upstream error body as-is: raw JSON when it parses,
// otherwise the text.
func verbatim(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return string(body)
}
