package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"movne-gateway/internal/store"
	"movne-gateway/internal/types"
)

// ErrServiceUnavailable is returned by Send for every failure the user cannot
// fix by editing the input.
var ErrServiceUnavailable = errors.New("assistant service unavailable")

// FieldError reports which request fields the gateway rejected.
type FieldError struct {
	Message string
	Fields  map[string]string
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		if v != "ok" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return e.Message
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(keys, ", "))
}

// Gateway is what a Session needs from the relay.
type Gateway interface {
	Ask(ctx context.Context, userID, query, productID string) (string, error)
	CheckSystem(ctx context.Context) (types.SystemStatus, error)
}

// Options tunes a Session.
type Options struct {
	UserID    string
	ProductID string
	// Unavailable is the bot text shown when the assistant cannot answer.
	Unavailable string
	// SystemError prefixes the status message when the gateway itself is down.
	SystemError string
}

// Session is the UI-side conversation: one append-only turn log and one
// status slot for the latest system check.
type Session struct {
	gateway Gateway
	turns   *store.TurnLog
	opts    Options

	mu     sync.RWMutex
	status *types.SystemStatus
}

func NewSession(gw Gateway, opts Options) *Session {
	if opts.Unavailable == "" {
		opts.Unavailable = "The assistant is unavailable right now. Please try again in a moment."
	}
	if opts.SystemError == "" {
		opts.SystemError = "system error"
	}
	return &Session{gateway: gw, turns: store.NewTurnLog(), opts: opts}
}

func (s *Session) Turns() []store.Turn { return s.turns.Turns() }

// Send appends the user's turn and the assistant's answer. Blank input is
// ignored. A validation failure returns *FieldError and adds no bot turn; any
// other failure adds the generic unavailable turn and returns
// ErrServiceUnavailable.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.turns.Append(text, false)

	reply, err := s.gateway.Ask(ctx, s.opts.UserID, text, s.opts.ProductID)
	if err == nil {
		s.turns.Append(reply, true)
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
		fe := &FieldError{Message: apiErr.Message, Fields: map[string]string{}}
		_ = json.Unmarshal(apiErr.Details, &fe.Fields)
		return fe
	}

	log.Warn().Err(err).Msg("chat send failed")
	s.turns.Append(s.opts.Unavailable, true)
	return errors.Wrap(ErrServiceUnavailable, err.Error())
}

// CheckSystem replaces the status slot with a fresh diagnostic. It never
// touches the turn log and never fails.
func (s *Session) CheckSystem(ctx context.Context) types.SystemStatus {
	st, err := s.gateway.CheckSystem(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("system check failed")
		st = types.SystemStatus{
			OK:        false,
			Message:   fmt.Sprintf("%s: gateway is not responding", s.opts.SystemError),
			CheckedAt: time.Now().UTC(),
		}
	}
	s.mu.Lock()
	s.status = &st
	s.mu.Unlock()
	return st
}

// Status returns the latest system check, if any ran.
func (s *Session) Status() (types.SystemStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == nil {
		return types.SystemStatus{}, false
	}
	return *s.status, true
}
