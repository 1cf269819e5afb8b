package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-lookup/internal/search"
	"github.com/postal-lookup/internal/store"
)

func intPtr(n int) *int { return &n }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	st := store.NewMemoryStore()
	st.Load([]store.PostalRecord{
		{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", AdminName1: "California", AdminCode1: "CA", AdminName2: "Los Angeles", Latitude: 34.0901, Longitude: -118.4065, Accuracy: intPtr(4)},
	})
	logger := log.New(io.Discard)
	srv := New(cfg, search.NewService(st, logger), logger)
	t.Cleanup(srv.Close)
	return srv
}

func TestServerRoutes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitRPS = 0
	srv := newTestServer(t, cfg)

	tests := []struct {
		method string
		target string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/lookup?country=US&postal_code=90210", http.StatusOK},
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/stats", http.StatusOK},
		{http.MethodGet, "/api/validate?country=US&postal_code=90210", http.StatusOK},
		{http.MethodGet, "/api/nearby?lat=34.09&lng=-118.40", http.StatusOK},
		{http.MethodGet, "/api/suggest?country=US&partial=902", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPost, "/api/lookup", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.target)
	}
}

func TestServerCORSPreflight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitRPS = 0
	srv := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/lookup", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	srv := newTestServer(t, cfg)

	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusTooManyRequests, get())
}

func TestServerRateLimitSkipsIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	srv := newTestServer(t, cfg)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())

	cfg.Host, cfg.Port = "127.0.0.1", 9000
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
}
