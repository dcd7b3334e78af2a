package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "token abc", r.Header.Get("Authorization"))
		w.Header().Set("Link", `<https://example.com?page=3>; rel="last"`)
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	client := NewDefaultClient(0)
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"Authorization": "token abc"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok": true}`, string(resp.Body))
	assert.Contains(t, resp.Header.Get("Link"), `rel="last"`)
}

func TestGetNonRetryableStatusFailsFast(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewDefaultClient(0)
	_, err := client.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, asHTTPError(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
}

func TestGetRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer srv.Close()

	client := NewDefaultClient(0, WithMaxTries(3))
	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetRetryBudgetExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewDefaultClient(0, WithMaxTries(2))
	_, err := client.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetResponseSizeCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", MaxResponseSize+1)))
	}))
	defer srv.Close()

	client := NewDefaultClient(0)
	_, err := client.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum allowed size")
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	err := NewHTTPError(http.StatusForbidden, "https://api.github.com/repos/a/b", "403 Forbidden")
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "https://api.github.com/repos/a/b")
}
