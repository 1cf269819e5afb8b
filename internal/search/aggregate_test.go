package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postal-lookup/internal/store"
)

func intPtr(n int) *int { return &n }

func TestAggregateDeduplicatesFirstWins(t *testing.T) {
	first := store.PostalRecord{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", Accuracy: intPtr(4)}
	duplicate := store.PostalRecord{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", Accuracy: intPtr(6)}

	scored := aggregate("90210", []store.PostalRecord{first, duplicate})
	require.Len(t, scored, 1)
	assert.Equal(t, 4, scored[0].AccuracyValue())
}

func TestAggregateFiltersBelowThreshold(t *testing.T) {
	scored := aggregate("90210", []store.PostalRecord{
		{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills"},
		{CountryCode: "US", PostalCode: "10001", PlaceName: "New York"},
	})
	require.Len(t, scored, 1)
	assert.Equal(t, "90210", scored[0].PostalCode)
	for _, c := range scored {
		assert.GreaterOrEqual(t, c.Score, SimilarityThreshold)
	}
}

func TestAggregateTieBreaksByAccuracyThenPostal(t *testing.T) {
	// All three clamp to a score of 1.0, so ordering falls to the
	// accuracy and postal code keys.
	scored := aggregate("9021", []store.PostalRecord{
		{CountryCode: "US", PostalCode: "90212", PlaceName: "Beverly Hills", Accuracy: intPtr(1)},
		{CountryCode: "US", PostalCode: "90211", PlaceName: "Beverly Hills", Accuracy: intPtr(4)},
		{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", Accuracy: intPtr(4)},
	})
	require.Len(t, scored, 3)
	assert.Equal(t, "90210", scored[0].PostalCode)
	assert.Equal(t, "90211", scored[1].PostalCode)
	assert.Equal(t, "90212", scored[2].PostalCode)
}

func TestAggregateMissingAccuracySortsLast(t *testing.T) {
	scored := aggregate("9021", []store.PostalRecord{
		{CountryCode: "US", PostalCode: "90211", PlaceName: "Beverly Hills"},
		{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", Accuracy: intPtr(1)},
	})
	require.Len(t, scored, 2)
	assert.Equal(t, "90210", scored[0].PostalCode)
	assert.Equal(t, "90211", scored[1].PostalCode)
}

func TestAggregateScoresAgainstPlaceName(t *testing.T) {
	// Rows from the place name fallback would never clear the threshold on
	// postal code similarity alone.
	scored := aggregate("Beverly Hills", []store.PostalRecord{
		{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", Accuracy: intPtr(4)},
	})
	require.Len(t, scored, 1)
	assert.Equal(t, 1.0, scored[0].Score)
}

func TestAggregateTruncates(t *testing.T) {
	var candidates []store.PostalRecord
	for i := 0; i < 30; i++ {
		candidates = append(candidates, store.PostalRecord{
			CountryCode: "US",
			PostalCode:  "90" + string(rune('0'+i/10)) + string(rune('0'+i%10)),
			PlaceName:   "Somewhere",
		})
	}
	scored := aggregate("90", candidates)
	assert.Len(t, scored, MaxResults)
}

func TestAggregateOrderingReproducible(t *testing.T) {
	candidates := []store.PostalRecord{
		{CountryCode: "US", PostalCode: "90210", PlaceName: "Beverly Hills", Accuracy: intPtr(4)},
		{CountryCode: "US", PostalCode: "90211", PlaceName: "Beverly Hills", Accuracy: intPtr(4)},
		{CountryCode: "US", PostalCode: "90212", PlaceName: "Beverly Hills", Accuracy: intPtr(1)},
		{CountryCode: "US", PostalCode: "90213", PlaceName: "Beverly Hills"},
	}

	first := aggregate("90210", candidates)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, aggregate("90210", candidates))
	}
}
