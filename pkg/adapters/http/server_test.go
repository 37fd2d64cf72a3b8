package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/paddock/internal/logging"
	redisAdapter "github.com/aretw0/paddock/pkg/adapters/redis"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redisAdapter.NewFromClient(client, "paddock:http-test")
	return NewHandler(store, time.Hour, logging.NewNop(), prometheus.NewRegistry())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestServer_CheckoutAndRelease(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, "POST", "/items", AddRequest{Member: "token-a"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Checkout leases the only member.
	w = doJSON(t, handler, "POST", "/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var checkout CheckoutResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&checkout))
	assert.Equal(t, "token-a", checkout.Member)
	assert.Greater(t, checkout.LeaseSeconds, 0.0)

	// Pool exhausted: 409, not 500.
	w = doJSON(t, handler, "POST", "/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Release and check out again.
	w = doJSON(t, handler, "POST", "/release", ReleaseRequest{Member: "token-a"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, handler, "POST", "/checkout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ReleaseWithCooldown(t *testing.T) {
	handler := newTestHandler(t)

	lockTill := time.Now().Add(time.Hour)
	w := doJSON(t, handler, "POST", "/release", ReleaseRequest{Member: "token-a", LockTill: &lockTill})
	require.Equal(t, http.StatusNoContent, w.Code)

	// Released with a cooldown: a member, but not choosable.
	w = doJSON(t, handler, "POST", "/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, handler, "GET", "/items", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items ItemsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&items))
	require.Len(t, items.Items, 1)
	assert.Equal(t, "token-a", items.Items[0].Member)
	assert.False(t, items.Items[0].Available)
}

func TestServer_AddIsIdempotent(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, "POST", "/items", AddRequest{Member: "token-a"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, handler, "POST", "/items", AddRequest{Member: "token-a"})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp AddResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Added)
}

func TestServer_RemoveItem(t *testing.T) {
	handler := newTestHandler(t)

	doJSON(t, handler, "POST", "/items", AddRequest{Member: "proxy one"})

	// Members travel path-escaped.
	w := doJSON(t, handler, "DELETE", "/items/"+url.PathEscape("proxy one"), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, handler, "DELETE", "/items/"+url.PathEscape("proxy one"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Reset(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, "POST", "/reset", ResetRequest{
		Members: []string{"a", "b", "c"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ResetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.Count)

	// Empty reset is legal and clears the pool.
	w = doJSON(t, handler, "POST", "/reset", ResetRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(0), resp.Count)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Generate one operation so the counter vec has a sample.
	doJSON(t, handler, "POST", "/items", AddRequest{Member: "token-a"})

	w = doJSON(t, handler, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "paddock_operations_total")
}
