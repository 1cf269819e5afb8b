// Package handlers contains the HTTP endpoints exposed by the lookup
// service. Every response body is JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/postal-lookup/internal/search"
)

// Handlers bundles the endpoints around one search service.
type Handlers struct {
	search  *search.Service
	log     *log.Logger
	started time.Time

	// MaxBatchItems caps one batch request.
	MaxBatchItems int
}

func New(svc *search.Service, logger *log.Logger) *Handlers {
	return &Handlers{search: svc, log: logger, started: time.Now(), MaxBatchItems: 50}
}

// Index describes the API surface.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "postal-lookup",
		"endpoints": []string{
			"GET /api/lookup?country=US&postal_code=90210&fuzzy=true",
			"POST /api/search/batch",
			"GET /api/suggest?country=US&partial=902&limit=10",
			"GET /api/validate?country=US&postal_code=90210",
			"GET /api/nearby?lat=34.09&lng=-118.40&radius_km=10&limit=10",
			"GET /api/health",
			"GET /api/stats",
		},
	})
}

// Lookup resolves a single postal code.
func (h *Handlers) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	postalCode := q.Get("postal_code")
	if country == "" || postalCode == "" {
		writeError(w, http.StatusBadRequest, "country and postal_code are required")
		return
	}
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))

	result := h.search.Lookup(country, postalCode, fuzzy)
	writeJSON(w, lookupStatus(result), result)
}

type batchRequest struct {
	Queries []search.SearchQuery `json:"queries"`
}

type batchResponse struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Results []search.SearchResult `json:"results"`
}

// Batch resolves up to MaxBatchItems postal codes in one request, returning
// one result per query in input order.
func (h *Handlers) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "queries must not be empty")
		return
	}
	if len(req.Queries) > h.MaxBatchItems {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("too many queries: %d exceeds the limit of %d", len(req.Queries), h.MaxBatchItems))
		return
	}

	results := h.search.SearchMultiple(req.Queries)
	writeJSON(w, http.StatusOK, batchResponse{Success: true, Count: len(results), Results: results})
}

// Suggest serves postal code autocompletion.
func (h *Handlers) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	if country == "" {
		writeError(w, http.StatusBadRequest, "country is required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	resp := h.search.Suggest(country, q.Get("partial"), limit)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

type validateResponse struct {
	Success     bool   `json:"success"`
	CountryCode string `json:"country_code"`
	PostalCode  string `json:"postal_code"`
	Valid       bool   `json:"valid"`
}

// Validate answers a plain yes/no existence check.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	postalCode := q.Get("postal_code")
	if country == "" || postalCode == "" {
		writeError(w, http.StatusBadRequest, "country and postal_code are required")
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Success:     true,
		CountryCode: country,
		PostalCode:  postalCode,
		Valid:       h.search.Validate(country, postalCode),
	})
}

type nearbyResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Results []search.NearbyMatch `json:"results"`
}

// Nearby returns postal records around a coordinate.
func (h *Handlers) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required numbers")
		return
	}
	radius := 10.0
	if v := q.Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "radius_km must be a number")
			return
		}
		radius = parsed
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	matches, err := h.search.Nearby(lat, lng, radius, limit)
	if err != nil {
		if errors.Is(err, search.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("nearby query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, nearbyResponse{Success: true, Count: len(matches), Results: matches})
}

// Health reports readiness; unhealthy maps to 503 for load balancers.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := h.search.HealthCheck()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

type statsResponse struct {
	Success bool `json:"success"`
	search.Stats
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Stats reports dataset counts and process uptime.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.search.Stats()
	if err != nil {
		h.log.Error("stats query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Success:       true,
		Stats:         stats,
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

// lookupStatus maps a search result onto an HTTP status. MatchNone is a
// successful 200; only internal failures become a 500.
func lookupStatus(result search.SearchResult) int {
	if result.Success {
		return http.StatusOK
	}
	if result.Error == "internal error" {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
