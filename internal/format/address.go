// Package format composes human-readable address lines from postal records.
// Field order differs by country, so composition is driven by a per-country
// rule table instead of branching inline.
package format

import (
	"strings"

	"github.com/postal-lookup/internal/store"
)

type field int

const (
	place field = iota
	admin1Name
	admin2Name
	postal
	// postalPlace renders "10115 Berlin" as a single fragment, the common
	// continental European convention.
	postalPlace
	// codePostal renders "CA 90210", the admin code followed by the postal
	// code, as used in North America.
	codePostal
)

type rule []field

var defaultRule = rule{place, admin1Name, admin2Name, postal}

var countryRules = map[string]rule{
	"US": {place, admin2Name, codePostal},
	"CA": {place, admin2Name, codePostal},
	"GB": {place, admin2Name, admin1Name, postal},
	"IE": {place, admin2Name, admin1Name, postal},
	"AU": {place, admin2Name, codePostal},
	"NZ": {place, admin2Name, codePostal},
	"DE": {postalPlace, admin1Name},
	"FR": {postalPlace, admin1Name},
	"ES": {postalPlace, admin1Name},
	"IT": {postalPlace, admin1Name},
	"NL": {postalPlace, admin1Name},
	"BE": {postalPlace, admin1Name},
	"AT": {postalPlace, admin1Name},
	"CH": {postalPlace, admin1Name},
	"DK": {postalPlace, admin1Name},
	"NO": {postalPlace, admin1Name},
	"SE": {postalPlace, admin1Name},
	"FI": {postalPlace, admin1Name},
	"PT": {postalPlace, admin1Name},
	"PL": {postalPlace, admin1Name},
	"CZ": {postalPlace, admin1Name},
}

// FullAddress renders the record as one comma-joined line using the rule for
// its country, falling back to a generic ordering. Empty fragments are
// dropped and consecutive duplicate fragments are suppressed
// case-insensitively, so "New York, New York, NY 10001" collapses to
// "New York, NY 10001".
func FullAddress(r store.PostalRecord) string {
	countryRule, ok := countryRules[r.CountryCode]
	if !ok {
		countryRule = defaultRule
	}

	var fragments []string
	for _, f := range countryRule {
		fragment := render(f, r)
		if fragment == "" {
			continue
		}
		if n := len(fragments); n > 0 && strings.EqualFold(fragments[n-1], fragment) {
			continue
		}
		fragments = append(fragments, fragment)
	}
	return strings.Join(fragments, ", ")
}

func render(f field, r store.PostalRecord) string {
	switch f {
	case place:
		return strings.TrimSpace(r.PlaceName)
	case admin1Name:
		return strings.TrimSpace(r.AdminName1)
	case admin2Name:
		return strings.TrimSpace(r.AdminName2)
	case postal:
		return strings.TrimSpace(r.PostalCode)
	case postalPlace:
		return joinSpace(r.PostalCode, r.PlaceName)
	case codePostal:
		return joinSpace(r.AdminCode1, r.PostalCode)
	}
	return ""
}

func joinSpace(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}
