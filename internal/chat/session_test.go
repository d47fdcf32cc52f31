package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movne-gateway/internal/config"
	"movne-gateway/internal/server"
)

// stack starts a fake backend and a real gateway in front of it.
func stack(t *testing.T, backend http.HandlerFunc) *Client {
	t.Helper()
	be := httptest.NewServer(backend)
	t.Cleanup(be.Close)

	s, err := server.NewServer(config.Config{
		AllowedOrigin:  "*",
		BackendBaseURL: be.URL,
		BackendTimeout: 2 * time.Second,
		ProbeTimeout:   time.Second,
		Provider:       "openai",
		Messages:       config.DefaultMessages(),
	})
	require.NoError(t, err)
	gw := httptest.NewServer(s.Router())
	t.Cleanup(gw.Close)
	return NewClient(gw.URL, 5*time.Second)
}

func TestSession_SendAppendsBothTurns(t *testing.T) {
	c := stack(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"מוצר מובנה הוא..."}`))
	})
	s := NewSession(c, Options{UserID: "u1"})

	require.NoError(t, s.Send(context.Background(), "מה זה מוצר מובנה?"))
	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "מה זה מוצר מובנה?", turns[0].Text)
	assert.False(t, turns[0].IsBot)
	assert.Equal(t, "מוצר מובנה הוא...", turns[1].Text)
	assert.True(t, turns[1].IsBot)
}

func TestSession_BlankInputIsIgnored(t *testing.T) {
	s := NewSession(NewClient("http://127.0.0.1:1", time.Second), Options{UserID: "u1"})
	require.NoError(t, s.Send(context.Background(), "   "))
	assert.Empty(t, s.Turns())
}

func TestSession_ValidationErrorGivesFieldGuidance(t *testing.T) {
	hits := 0
	c := stack(t, func(w http.ResponseWriter, r *http.Request) { hits++ })
	s := NewSession(c, Options{})

	err := s.Send(context.Background(), "hi")
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "missing", fe.Fields["user_id"])
	assert.Equal(t, "ok", fe.Fields["query"])
	assert.Contains(t, fe.Error(), "user_id")
	assert.Equal(t, 0, hits)

	turns := s.Turns()
	require.Len(t, turns, 1)
	assert.False(t, turns[0].IsBot)
}

func TestSession_OversizedQueryNamesBody(t *testing.T) {
	c := stack(t, func(w http.ResponseWriter, r *http.Request) {})
	s := NewSession(c, Options{UserID: "u1"})

	err := s.Send(context.Background(), strings.Repeat("א", 1<<20))
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "too_large", fe.Fields["body"])
	assert.Equal(t, "request body too large: body", fe.Error())
}

func TestFieldError_NoFieldsFallsBackToMessage(t *testing.T) {
	fe := &FieldError{Message: "request rejected", Fields: map[string]string{"query": "ok"}}
	assert.Equal(t, "request rejected", fe.Error())
}

func TestSession_UpstreamErrorShowsGenericText(t *testing.T) {
	c := stack(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom","stack_trace":"Traceback (most recent call last)"}`))
	})
	s := NewSession(c, Options{UserID: "u1", Unavailable: "השירות אינו זמין"})

	err := s.Send(context.Background(), "hi")
	require.ErrorIs(t, err, ErrServiceUnavailable)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "השירות אינו זמין", turns[1].Text)
	assert.NotContains(t, turns[1].Text, "Traceback")
}

func TestSession_GatewayDown(t *testing.T) {
	s := NewSession(NewClient("http://127.0.0.1:1", time.Second), Options{UserID: "u1"})

	require.ErrorIs(t, s.Send(context.Background(), "hi"), ErrServiceUnavailable)
	require.Len(t, s.Turns(), 2)

	st := s.CheckSystem(context.Background())
	assert.False(t, st.OK)
	assert.Contains(t, st.Message, "gateway is not responding")
}

func TestSession_CheckSystemUsesStatusSlotOnly(t *testing.T) {
	c := stack(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/test-openai" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	s := NewSession(c, Options{UserID: "u1"})

	_, ok := s.Status()
	assert.False(t, ok)

	st := s.CheckSystem(context.Background())
	assert.False(t, st.OK)
	require.Len(t, st.Probes, 2)
	assert.True(t, st.Probes[0].OK)
	assert.False(t, st.Probes[1].OK)

	got, ok := s.Status()
	require.True(t, ok)
	assert.Equal(t, st.Message, got.Message)
	assert.Empty(t, s.Turns())
}
