// Package model defines shared data structures.
package model

import (
	"fmt"
	"sort"
	"time"
)

// All is the filter value meaning "no restriction" for period and region.
const All = "all"

// RegionUnidentified marks records whose location could not be mapped to a regional.
const RegionUnidentified = "unidentified"

// Regions lists the fixed administrative regionais of the study area.
var Regions = []string{
	"Barreiro",
	"Centro-Sul",
	"Leste",
	"Nordeste",
	"Noroeste",
	"Norte",
	"Oeste",
	"Pampulha",
	"Venda Nova",
}

// Record is a single normalized price observation.
type Record struct {
	Date      time.Time
	Period    string
	Product   string
	Price     float64
	Region    string
	Brand     string
	StationID string
}

// FilterSpec selects the active subset of records.
//
// Period and Region accept a known value or All. Products is a set; an empty
// set means "match any product" (the empty-products-match-any rule), not "match none".
// Clearing every product checkbox therefore shows everything, which users
// sometimes find surprising.
type FilterSpec struct {
	Period   string   `json:"period" yaml:"period"`
	Products []string `json:"products" yaml:"products"`
	Region   string   `json:"region" yaml:"region"`
}

// DefaultFilter returns the unrestricted filter.
func DefaultFilter() FilterSpec {
	return FilterSpec{Period: All, Region: All}
}

// Normalized returns a copy with empty fields replaced by All and products sorted and deduplicated.
func (f FilterSpec) Normalized() FilterSpec {
	out := FilterSpec{Period: f.Period, Region: f.Region}
	if out.Period == "" {
		out.Period = All
	}
	if out.Region == "" {
		out.Region = All
	}
	if len(f.Products) > 0 {
		seen := make(map[string]struct{}, len(f.Products))
		for _, p := range f.Products {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out.Products = append(out.Products, p)
		}
		sort.Strings(out.Products)
	}
	return out
}

// Equal reports whether two specs select the same records, treating products as a set.
func (f FilterSpec) Equal(other FilterSpec) bool {
	a := f.Normalized()
	b := other.Normalized()
	if a.Period != b.Period || a.Region != b.Region || len(a.Products) != len(b.Products) {
		return false
	}
	for i := range a.Products {
		if a.Products[i] != b.Products[i] {
			return false
		}
	}
	return true
}

// PeriodOf returns the half-year label for t, e.g. "2023S1".
func PeriodOf(t time.Time) string {
	half := 1
	if t.Month() > time.June {
		half = 2
	}
	return fmt.Sprintf("%04dS%d", t.Year(), half)
}

// ValidPeriod reports whether s matches the YYYYS1/YYYYS2 pattern.
func ValidPeriod(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[4] == 'S' && (s[5] == '1' || s[5] == '2')
}

// KnownRegion reports whether name is one of the fixed regionais.
func KnownRegion(name string) bool {
	for _, r := range Regions {
		if r == name {
			return true
		}
	}
	return false
}

// Prices extracts the price column in record order.
func Prices(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Price
	}
	return out
}
