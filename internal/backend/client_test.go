package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_ForwardsSnakeCasePayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"response":"שלום"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	resp, err := c.Chat(context.Background(), ChatPayload{Query: "hi", UserID: "u1", ProductID: "p9"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"response":"שלום"}`, string(resp.Body))
	assert.Equal(t, map[string]any{"query": "hi", "user_id": "u1", "product_id": "p9"}, got)
}

func TestChat_OmitsEmptyProductID(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Chat(context.Background(), ChatPayload{Query: "q", UserID: "u"})
	require.NoError(t, err)
	_, present := got["product_id"]
	assert.False(t, present)
}

func TestChat_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"X"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Chat(context.Background(), ChatPayload{Query: "q", UserID: "u"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, `{"error":"X"}`, string(se.Body))
	assert.Contains(t, se.Error(), "status 500")
}

func TestChat_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Chat(context.Background(), ChatPayload{Query: "q", UserID: "u"})
	var ue *UnreachableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "/chat", ue.Endpoint)
}

func TestChat_TimeoutIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Chat(context.Background(), ChatPayload{Query: "q", UserID: "u"})
	var ue *UnreachableError
	require.True(t, errors.As(err, &ue))
}

func TestChat_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewClient(srv.URL, 10*time.Second).Chat(ctx, ChatPayload{Query: "q", UserID: "u"})
	var ue *UnreachableError
	require.True(t, errors.As(err, &ue))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChat_NoRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Chat(context.Background(), ChatPayload{Query: "q", UserID: "u"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestChat_UnencodablePayload(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", time.Second).Send(context.Background(), http.MethodPost, "/chat", map[string]any{"bad": make(chan int)})
	require.ErrorContains(t, err, "encode backend payload")
	var ue *UnreachableError
	assert.False(t, errors.As(err, &ue))
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	require.NoError(t, c.Probe(context.Background(), "/health"))
	require.Error(t, c.Probe(context.Background(), "/test-openai"))
}
