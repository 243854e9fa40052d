// Package report builds per-view results over a filtered record set.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/fuelstat/internal/insight"
	"github.com/verte-zerg/fuelstat/internal/model"
	"github.com/verte-zerg/fuelstat/internal/stats"
)

// View names a report chapter.
type View string

// Report views.
const (
	ViewOverview     View = "overview"
	ViewDistribution View = "distribution"
	ViewTemporal     View = "temporal"
	ViewRegional     View = "regional"
	ViewCorrelation  View = "correlation"
	ViewInsights     View = "insights"
)

// Views returns every view in chapter order.
func Views() []View {
	return []View{ViewOverview, ViewDistribution, ViewTemporal, ViewRegional, ViewCorrelation, ViewInsights}
}

// ParseView resolves a view name.
func ParseView(name string) (View, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range Views() {
		if string(v) == name {
			return v, nil
		}
	}
	names := make([]string, 0, len(Views()))
	for _, v := range Views() {
		names = append(names, string(v))
	}
	return "", fmt.Errorf("unknown view %q (available: %s)", name, strings.Join(names, ", "))
}

// Title returns a display title for the view.
func (v View) Title() string {
	switch v {
	case ViewOverview:
		return "Overview"
	case ViewDistribution:
		return "Distribution"
	case ViewTemporal:
		return "Temporal"
	case ViewRegional:
		return "Regional"
	case ViewCorrelation:
		return "Correlation"
	case ViewInsights:
		return "Insights"
	default:
		return string(v)
	}
}

// Distribution is the distribution chapter result.
type Distribution struct {
	Overall   stats.Descriptive      `json:"overall" yaml:"overall"`
	ByProduct []stats.ProductSummary `json:"by_product" yaml:"by_product"`
}

// Correlation is the correlation chapter result.
type Correlation struct {
	PriceTime stats.Correlation          `json:"price_time" yaml:"price_time"`
	ByProduct []stats.ProductCorrelation `json:"by_product" yaml:"by_product"`
	Parity    stats.ParityRatio          `json:"parity" yaml:"parity"`
	HasParity bool                       `json:"has_parity" yaml:"has_parity"`
}

// Catalog lists the categorical values present in a record set.
type Catalog struct {
	Periods  []string `json:"periods" yaml:"periods"`
	Products []string `json:"products" yaml:"products"`
	Regions  []string `json:"regions" yaml:"regions"`
	Brands   []string `json:"brands" yaml:"brands"`
}

// BuildCatalog collects sorted distinct periods, products, regions and brands.
// The unidentified region sentinel is left out of Regions.
func BuildCatalog(records []model.Record) Catalog {
	ov := stats.Summarize(records)
	cat := Catalog{
		Periods:  keys(ov.ByPeriod),
		Products: keys(ov.ByProduct),
	}
	for _, c := range ov.ByRegion {
		if c.Key != model.RegionUnidentified {
			cat.Regions = append(cat.Regions, c.Key)
		}
	}
	brands := make(map[string]struct{})
	for _, r := range records {
		brands[r.Brand] = struct{}{}
	}
	for b := range brands {
		cat.Brands = append(cat.Brands, b)
	}
	sort.Strings(cat.Brands)
	return cat
}

// Build computes the result for view. overview reads the full set; every other view reads filtered.
func Build(v View, all, filtered []model.Record, opts insight.Options) any {
	opts = opts.WithDefaults()
	switch v {
	case ViewOverview:
		return stats.Summarize(all)
	case ViewDistribution:
		return Distribution{
			Overall:   stats.Describe(model.Prices(filtered)),
			ByProduct: stats.DescribeByProduct(filtered),
		}
	case ViewTemporal:
		return stats.AnalyzeTrend(filtered)
	case ViewRegional:
		return stats.AnalyzeRegions(filtered)
	case ViewCorrelation:
		c := Correlation{
			PriceTime: stats.PriceTimeCorrelation(filtered),
			ByProduct: stats.ProductTimeCorrelations(filtered),
		}
		c.Parity, c.HasParity = stats.Parity(filtered, opts.ParityNumerator, opts.ParityDenominator)
		return c
	case ViewInsights:
		return insight.Synthesize(all, filtered, opts)
	default:
		return nil
	}
}

func keys(counts []stats.Count) []string {
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Key
	}
	return out
}
