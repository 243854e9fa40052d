package stats

import (
	"sort"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// TopBrandCount is the number of brands listed in the overview.
const TopBrandCount = 10

// Count is a category label with its number of records.
type Count struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// Overview describes the coverage of a record set.
type Overview struct {
	TotalRecords   int     `json:"total_records" yaml:"total_records"`
	UniqueStations int     `json:"unique_stations" yaml:"unique_stations"`
	ProductCount   int     `json:"product_count" yaml:"product_count"`
	RegionCount    int     `json:"region_count" yaml:"region_count"`
	ByPeriod       []Count `json:"by_period" yaml:"by_period"`
	ByProduct      []Count `json:"by_product" yaml:"by_product"`
	ByRegion       []Count `json:"by_region" yaml:"by_region"`
	TopBrands      []Count `json:"top_brands" yaml:"top_brands"`
}

// Summarize counts records by period, product, region and brand.
// Periods are listed chronologically, the other groups by key.
func Summarize(records []model.Record) Overview {
	stations := make(map[string]struct{})
	periods := make(map[string]int)
	products := make(map[string]int)
	regions := make(map[string]int)
	brands := make(map[string]int)
	for _, rec := range records {
		stations[rec.StationID] = struct{}{}
		periods[rec.Period]++
		products[rec.Product]++
		regions[rec.Region]++
		brands[rec.Brand]++
	}

	mapped := 0
	for region := range regions {
		if region != model.RegionUnidentified {
			mapped++
		}
	}
	return Overview{
		TotalRecords:   len(records),
		UniqueStations: len(stations),
		ProductCount:   len(products),
		RegionCount:    mapped,
		ByPeriod:       countsByKey(periods),
		ByProduct:      countsByKey(products),
		ByRegion:       countsByKey(regions),
		TopBrands:      TopCounts(brands, TopBrandCount),
	}
}

// TopCounts returns the n most frequent keys, ties broken by key.
func TopCounts(counts map[string]int, n int) []Count {
	if n <= 0 || len(counts) == 0 {
		return []Count{}
	}
	items := make([]Count, 0, len(counts))
	for k, c := range counts {
		items = append(items, Count{Key: k, Count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

func countsByKey(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		out = append(out, Count{Key: k, Count: counts[k]})
	}
	return out
}
