package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-lookup/internal/search"
	"github.com/postal-lookup/internal/store"
)

func intPtr(n int) *int { return &n }

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	st := store.NewMemoryStore()
	st.Load([]store.PostalRecord{
		{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", AdminName1: "California", AdminCode1: "CA", AdminName2: "Los Angeles", Latitude: 34.0901, Longitude: -118.4065, Accuracy: intPtr(4)},
		{CountryCode: "US", PostalCode: "90211", PlaceName: "Beverly Hills", AdminName1: "California", AdminCode1: "CA", AdminName2: "Los Angeles", Latitude: 34.065, Longitude: -118.383, Accuracy: intPtr(4)},
		{CountryCode: "US", PostalCode: "10001", PlaceName: "New York", AdminName1: "New York", AdminCode1: "NY", AdminName2: "New York", Latitude: 40.7484, Longitude: -73.9967, Accuracy: intPtr(4)},
		{CountryCode: "CA", PostalCode: "M5V 3A8", PlaceName: "Toronto", AdminName1: "Ontario", AdminCode1: "ON", Latitude: 43.6426, Longitude: -79.3871, Accuracy: intPtr(6)},
	})
	logger := log.New(io.Discard)
	return New(search.NewService(st, logger), logger)
}

func doGet(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestLookupHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Lookup, "/api/lookup?country=US&postal_code=90210")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	result := decode[search.SearchResult](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, search.MatchExact, result.MatchType)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "Beverly Hills", result.Results[0].PlaceName)
}

func TestLookupHandlerFuzzy(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Lookup, "/api/lookup?country=US&postal_code=90210-1234&fuzzy=true")
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[search.SearchResult](t, rec)
	assert.Equal(t, search.MatchFuzzy, result.MatchType)
	require.NotEmpty(t, result.Results)
	assert.NotNil(t, result.Results[0].SimilarityScore)
}

func TestLookupHandlerNoMatch(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Lookup, "/api/lookup?country=US&postal_code=99999&fuzzy=true")
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[search.SearchResult](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, search.MatchNone, result.MatchType)
	assert.Empty(t, result.Results)
}

func TestLookupHandlerMissingParams(t *testing.T) {
	h := newTestHandlers(t)

	for _, target := range []string{
		"/api/lookup",
		"/api/lookup?country=US",
		"/api/lookup?postal_code=90210",
	} {
		rec := doGet(t, h.Lookup, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestBatchHandler(t *testing.T) {
	h := newTestHandlers(t)

	body := `{"queries":[
		{"country_code":"US","postal_code":"90210"},
		{"country_code":"US","postal_code":"99999","fuzzy":true},
		{"country_code":"CA","postal_code":"M5V 3A8"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/search/batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Batch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[batchResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Count)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, search.MatchExact, resp.Results[0].MatchType)
	assert.Equal(t, search.MatchNone, resp.Results[1].MatchType)
	assert.Equal(t, "Toronto", resp.Results[2].Results[0].PlaceName)
}

func TestBatchHandlerRejectsBadRequests(t *testing.T) {
	h := newTestHandlers(t)
	h.MaxBatchItems = 2

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"queries":`},
		{"empty queries", `{"queries":[]}`},
		{"over the cap", `{"queries":[{"country_code":"US","postal_code":"1"},{"country_code":"US","postal_code":"2"},{"country_code":"US","postal_code":"3"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/search/batch", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Batch(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSuggestHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Suggest, "/api/suggest?country=US&partial=902&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[search.SuggestResponse](t, rec)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Suggestions)
	assert.LessOrEqual(t, len(resp.Suggestions), 5)

	// The limit query parameter is not trusted.
	rec = doGet(t, h.Suggest, "/api/suggest?country=US&partial=902&limit=9223372036854775807")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[search.SuggestResponse](t, rec)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Suggestions)
}

func TestSuggestHandlerRejects(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Suggest, "/api/suggest?partial=902")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, h.Suggest, "/api/suggest?country=US&partial=9")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Validate, "/api/validate?country=US&postal_code=90210")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[validateResponse](t, rec)
	assert.True(t, resp.Valid)

	rec = doGet(t, h.Validate, "/api/validate?country=US&postal_code=99999")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[validateResponse](t, rec)
	assert.False(t, resp.Valid)

	rec = doGet(t, h.Validate, "/api/validate?country=US")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearbyHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Nearby, "/api/nearby?lat=34.09&lng=-118.40&radius_km=25")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[nearbyResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "90210", resp.Results[0].PostalCode)
}

func TestNearbyHandlerRejects(t *testing.T) {
	h := newTestHandlers(t)

	for _, target := range []string{
		"/api/nearby",
		"/api/nearby?lat=abc&lng=-118.4",
		"/api/nearby?lat=34.09&lng=-118.40&radius_km=lots",
		"/api/nearby?lat=95&lng=-118.40",
		"/api/nearby?lat=34.09&lng=-118.40&radius_km=10000",
	} {
		rec := doGet(t, h.Nearby, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestHealthHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Health, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[search.HealthStatus](t, rec)
	assert.True(t, status.Healthy)
	assert.Equal(t, int64(4), status.Stats.TotalRecords)
}

func TestHealthHandlerEmptyStore(t *testing.T) {
	logger := log.New(io.Discard)
	h := New(search.NewService(store.NewMemoryStore(), logger), logger)

	rec := doGet(t, h.Health, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatsHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Stats, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[statsResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(4), resp.TotalRecords)
	assert.Equal(t, int64(2), resp.Countries)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, 0.0)
}

func TestIndexHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := doGet(t, h.Index, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/lookup")
}
