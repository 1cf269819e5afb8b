package store

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps the reference data in a slice. It mirrors the SQL
// backend's filtering and ordering so search behavior is identical against
// either backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records []PostalRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load appends records to the store.
func (m *MemoryStore) Load(records []PostalRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

func (m *MemoryStore) ExactMatch(country, postalCode string) ([]PostalRecord, error) {
	matched := m.filter(func(r PostalRecord) bool {
		return r.CountryCode == country && r.PostalCode == postalCode
	})
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].AccuracyValue() != matched[j].AccuracyValue() {
			return matched[i].AccuracyValue() > matched[j].AccuracyValue()
		}
		return matched[i].PlaceName < matched[j].PlaceName
	})
	return truncate(matched, ExactMatchLimit), nil
}

func (m *MemoryStore) FuzzyMatch(country, pattern string) ([]PostalRecord, error) {
	p := strings.ToLower(pattern)
	matched := m.filter(func(r PostalRecord) bool {
		if r.CountryCode != country {
			return false
		}
		code := strings.ToLower(r.PostalCode)
		return strings.Contains(code, p) ||
			strings.HasPrefix(code, p) ||
			strings.HasPrefix(p, code)
	})
	sort.SliceStable(matched, func(i, j int) bool {
		di := abs(len(matched[i].PostalCode) - len(pattern))
		dj := abs(len(matched[j].PostalCode) - len(pattern))
		if di != dj {
			return di < dj
		}
		if matched[i].AccuracyValue() != matched[j].AccuracyValue() {
			return matched[i].AccuracyValue() > matched[j].AccuracyValue()
		}
		if matched[i].PostalCode != matched[j].PostalCode {
			return matched[i].PostalCode < matched[j].PostalCode
		}
		return matched[i].PlaceName < matched[j].PlaceName
	})
	return truncate(matched, FuzzyMatchLimit), nil
}

func (m *MemoryStore) PlaceMatch(country, text string) ([]PostalRecord, error) {
	t := strings.ToLower(text)
	matched := m.filter(func(r PostalRecord) bool {
		return r.CountryCode == country &&
			(strings.Contains(strings.ToLower(r.PlaceName), t) ||
				strings.Contains(strings.ToLower(r.AdminName1), t) ||
				strings.Contains(strings.ToLower(r.AdminName2), t))
	})
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].AccuracyValue() != matched[j].AccuracyValue() {
			return matched[i].AccuracyValue() > matched[j].AccuracyValue()
		}
		if matched[i].PostalCode != matched[j].PostalCode {
			return matched[i].PostalCode < matched[j].PostalCode
		}
		return matched[i].PlaceName < matched[j].PlaceName
	})
	return truncate(matched, PlaceMatchLimit), nil
}

func (m *MemoryStore) WithinBounds(centerLat, centerLng, minLat, maxLat, minLng, maxLng float64, limit int) ([]PostalRecord, error) {
	matched := m.filter(func(r PostalRecord) bool {
		return r.Latitude >= minLat && r.Latitude <= maxLat &&
			r.Longitude >= minLng && r.Longitude <= maxLng
	})
	sort.SliceStable(matched, func(i, j int) bool {
		di := planarRank(matched[i], centerLat, centerLng)
		dj := planarRank(matched[j], centerLat, centerLng)
		if di != dj {
			return di < dj
		}
		if matched[i].CountryCode != matched[j].CountryCode {
			return matched[i].CountryCode < matched[j].CountryCode
		}
		if matched[i].PostalCode != matched[j].PostalCode {
			return matched[i].PostalCode < matched[j].PostalCode
		}
		return matched[i].PlaceName < matched[j].PlaceName
	})
	return truncate(matched, limit), nil
}

// planarRank mirrors the SQL backend's box-scan ordering: squared lat/lng
// deltas from the center, with the longitude delta wrapped at the
// antimeridian and scaled by the center latitude.
func planarRank(r PostalRecord, centerLat, centerLng float64) float64 {
	dLat := r.Latitude - centerLat
	dLng := math.Abs(r.Longitude - centerLng)
	if dLng > 180 {
		dLng = 360 - dLng
	}
	dLng *= math.Cos(centerLat * math.Pi / 180)
	return dLat*dLat + dLng*dLng
}

func (m *MemoryStore) CountRecords() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

func (m *MemoryStore) CountCountries() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, r := range m.records {
		seen[r.CountryCode] = struct{}{}
	}
	return int64(len(seen)), nil
}

func (m *MemoryStore) filter(keep func(PostalRecord) bool) []PostalRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []PostalRecord
	for _, r := range m.records {
		if keep(r) {
			matched = append(matched, r)
		}
	}
	return matched
}

func truncate(records []PostalRecord, limit int) []PostalRecord {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
