package models

import "strings"

// Region is one ticketing region a campaign covers.
type Region struct {
	City string `json:"city"`
	Code string `json:"code"`
	Slug string `json:"slug"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

// LinkSlug is the path segment used in seat-layout deep links.
func (r Region) LinkSlug() string {
	if r.Slug != "" {
		return r.Slug
	}
	return strings.ToLower(r.Code)
}
