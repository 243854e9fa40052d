package report

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// maxSuggestDistance bounds how far a typo may be from a known value to be suggested.
const maxSuggestDistance = 3

// Resolve matches user-supplied filter values against the catalog, case-insensitively,
// and returns the filter with canonical spellings. Unknown values fail with the closest
// known value as a suggestion.
func (c Catalog) Resolve(spec model.FilterSpec) (model.FilterSpec, error) {
	spec = spec.Normalized()
	out := model.FilterSpec{Period: model.All, Region: model.All}

	if !isAll(spec.Period) {
		period := strings.ToUpper(strings.TrimSpace(spec.Period))
		if !model.ValidPeriod(period) {
			return model.FilterSpec{}, fmt.Errorf("invalid period %q (expected YYYYS1 or YYYYS2)", spec.Period)
		}
		match, ok := lookup(c.Periods, period)
		if !ok {
			return model.FilterSpec{}, unknownValue("period", spec.Period, c.Periods)
		}
		out.Period = match
	}

	for _, p := range spec.Products {
		match, ok := lookup(c.Products, p)
		if !ok {
			return model.FilterSpec{}, unknownValue("product", p, c.Products)
		}
		out.Products = append(out.Products, match)
	}

	if !isAll(spec.Region) {
		candidates := append(append([]string(nil), c.Regions...), model.RegionUnidentified)
		match, ok := lookup(candidates, spec.Region)
		if !ok {
			return model.FilterSpec{}, unknownValue("region", spec.Region, candidates)
		}
		out.Region = match
	}
	return out.Normalized(), nil
}

func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, model.All)
}

func lookup(known []string, value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, k := range known {
		if strings.EqualFold(k, value) {
			return k, true
		}
	}
	return "", false
}

func unknownValue(kind, value string, known []string) error {
	if s, ok := Suggest(value, known); ok {
		return fmt.Errorf("unknown %s %q, did you mean %q?", kind, value, s)
	}
	if len(known) == 0 {
		return fmt.Errorf("unknown %s %q (no %s values loaded)", kind, value, kind)
	}
	return fmt.Errorf("unknown %s %q (available: %s)", kind, value, strings.Join(known, ", "))
}

// Suggest returns the known value closest to value by edit distance, ignoring case.
func Suggest(value string, known []string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, k := range known {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(k))
		if d < bestDist {
			best = k
			bestDist = d
		}
	}
	return best, best != ""
}
