package search

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/postal-lookup/internal/format"
)

const (
	earthRadiusKM = 6371.0

	// nearbyScanLimit bounds the box query. The box is a superset of the
	// radius, so the scan fetches more rows than the response needs; the
	// store keeps the rows nearest the center when the cap trips.
	nearbyScanLimit = 500

	// DefaultNearbyLimit applies when the caller passes no usable limit.
	DefaultNearbyLimit = 10

	// MaxNearbyRadiusKM rejects boxes that would degenerate into a full
	// table scan.
	MaxNearbyRadiusKM = 500.0
)

// ErrInvalidInput marks caller mistakes so transports can map them to a 400
// rather than a 500.
var ErrInvalidInput = errors.New("invalid input")

// Nearby returns postal records within radiusKM of the point, closest first.
// The store prunes with a bounding box derived from a spherical cap; the
// precise great-circle distance is computed here for the rows that survive.
func (s *Service) Nearby(lat, lng, radiusKM float64, limit int) ([]NearbyMatch, error) {
	// NaN compares false against every bound, so it needs its own check.
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: latitude must be in [-90,90] and longitude in [-180,180]", ErrInvalidInput)
	}
	if math.IsNaN(radiusKM) || radiusKM <= 0 || radiusKM > MaxNearbyRadiusKM {
		return nil, fmt.Errorf("%w: radius must be positive and at most %v km", ErrInvalidInput, MaxNearbyRadiusKM)
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	center := s2.LatLngFromDegrees(lat, lng)
	circle := s2.CapFromCenterAngle(s2.PointFromLatLng(center), s1.Angle(radiusKM/earthRadiusKM))
	rect := circle.RectBound()

	minLat, maxLat := rect.Lo().Lat.Degrees(), rect.Hi().Lat.Degrees()
	minLng, maxLng := rect.Lo().Lng.Degrees(), rect.Hi().Lng.Degrees()
	if rect.Lng.IsFull() || minLng > maxLng {
		// The box crosses the antimeridian; fall back to the full longitude
		// range and let the distance filter do the work.
		minLng, maxLng = -180, 180
	}

	rows, err := s.store.WithinBounds(lat, lng, minLat, maxLat, minLng, maxLng, nearbyScanLimit)
	if err != nil {
		return nil, err
	}

	matches := make([]NearbyMatch, 0, len(rows))
	for _, r := range rows {
		distance := center.Distance(s2.LatLngFromDegrees(r.Latitude, r.Longitude)).Radians() * earthRadiusKM
		if distance > radiusKM {
			continue
		}
		matches = append(matches, NearbyMatch{
			Match: Match{
				PostalRecord: r,
				FullAddress:  format.FullAddress(r),
			},
			DistanceKM: distance,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].DistanceKM != matches[j].DistanceKM {
			return matches[i].DistanceKM < matches[j].DistanceKM
		}
		if matches[i].CountryCode != matches[j].CountryCode {
			return matches[i].CountryCode < matches[j].CountryCode
		}
		return matches[i].PostalCode < matches[j].PostalCode
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
