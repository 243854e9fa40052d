package stats

import (
	"sort"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// MinRegionSample is the smallest record count for a region to be ranked.
const MinRegionSample = 2

// RegionStats summarizes prices observed in one region.
type RegionStats struct {
	Region string  `json:"region" yaml:"region"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Count  int     `json:"count" yaml:"count"`
}

// RegionalAnalysis ranks regions by mean price, cheapest first.
type RegionalAnalysis struct {
	Ranking   []RegionStats `json:"ranking" yaml:"ranking"`
	Spread    float64       `json:"spread" yaml:"spread"`
	HasSpread bool          `json:"has_spread" yaml:"has_spread"`
}

// Cheapest returns the region with the lowest mean price.
func (r RegionalAnalysis) Cheapest() (RegionStats, bool) {
	if len(r.Ranking) == 0 {
		return RegionStats{}, false
	}
	return r.Ranking[0], true
}

// MostExpensive returns the region with the highest mean price.
func (r RegionalAnalysis) MostExpensive() (RegionStats, bool) {
	if len(r.Ranking) == 0 {
		return RegionStats{}, false
	}
	return r.Ranking[len(r.Ranking)-1], true
}

// AnalyzeRegions groups records by region, skipping the unidentified sentinel
// and regions with fewer than MinRegionSample records.
func AnalyzeRegions(records []model.Record) RegionalAnalysis {
	grouped := make(map[string][]float64)
	for _, rec := range records {
		if rec.Region == model.RegionUnidentified {
			continue
		}
		grouped[rec.Region] = append(grouped[rec.Region], rec.Price)
	}

	ranking := make([]RegionStats, 0, len(grouped))
	for region, prices := range grouped {
		if len(prices) < MinRegionSample {
			continue
		}
		d := Describe(prices)
		ranking = append(ranking, RegionStats{
			Region: region,
			Mean:   d.Mean,
			Median: d.Median,
			Std:    d.Std,
			Min:    d.Min,
			Max:    d.Max,
			Count:  d.Count,
		})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Mean == ranking[j].Mean {
			return ranking[i].Region < ranking[j].Region
		}
		return ranking[i].Mean < ranking[j].Mean
	})

	out := RegionalAnalysis{Ranking: ranking}
	if len(ranking) >= 2 && ranking[0].Mean != 0 {
		cheap := ranking[0].Mean
		out.Spread = (ranking[len(ranking)-1].Mean - cheap) / cheap * 100
		out.HasSpread = true
	}
	return out
}
