package stats

import (
	"testing"

	"github.com/verte-zerg/fuelstat/internal/model"
)

func regionalRecords() []model.Record {
	return []model.Record{
		{Region: "Leste", Price: 6.0},
		{Region: "Oeste", Price: 5.0},
		{Region: "Leste", Price: 6.4},
		{Region: "Oeste", Price: 5.2},
		{Region: "Norte", Price: 5.5},
		{Region: model.RegionUnidentified, Price: 1.0},
		{Region: model.RegionUnidentified, Price: 1.2},
		{Region: "Pampulha", Price: 5.6},
		{Region: "Pampulha", Price: 5.8},
	}
}

func TestAnalyzeRegionsRanking(t *testing.T) {
	got := AnalyzeRegions(regionalRecords())
	if len(got.Ranking) != 3 {
		t.Fatalf("expected 3 qualifying regions, got %+v", got.Ranking)
	}
	order := []string{"Oeste", "Pampulha", "Leste"}
	for i, name := range order {
		if got.Ranking[i].Region != name {
			t.Fatalf("unexpected ranking: %+v", got.Ranking)
		}
	}
	cheap, _ := got.Cheapest()
	expensive, _ := got.MostExpensive()
	if !got.HasSpread || !approxEqual(got.Spread, (expensive.Mean-cheap.Mean)/cheap.Mean*100, 1e-9) {
		t.Fatalf("unexpected spread: %v", got.Spread)
	}
	if !approxEqual(got.Ranking[2].Mean, 6.2, 1e-9) || got.Ranking[2].Count != 2 {
		t.Fatalf("unexpected Leste stats: %+v", got.Ranking[2])
	}
}

func TestAnalyzeRegionsStableUnderPermutation(t *testing.T) {
	records := regionalRecords()
	reversed := make([]model.Record, len(records))
	for i := range records {
		reversed[len(records)-1-i] = records[i]
	}
	a := AnalyzeRegions(records)
	b := AnalyzeRegions(reversed)
	if len(a.Ranking) != len(b.Ranking) {
		t.Fatalf("ranking length changed: %d vs %d", len(a.Ranking), len(b.Ranking))
	}
	for i := range a.Ranking {
		if a.Ranking[i].Region != b.Ranking[i].Region {
			t.Fatalf("ranking changed under permutation: %+v vs %+v", a.Ranking, b.Ranking)
		}
	}
}

func TestAnalyzeRegionsSingleRegionHasNoSpread(t *testing.T) {
	got := AnalyzeRegions([]model.Record{{Region: "Leste", Price: 5}, {Region: "Leste", Price: 6}})
	if got.HasSpread {
		t.Fatalf("expected no spread with one region")
	}
	if len(got.Ranking) != 1 {
		t.Fatalf("expected one region, got %d", len(got.Ranking))
	}
}

func TestAnalyzeRegionsEmpty(t *testing.T) {
	got := AnalyzeRegions(nil)
	if len(got.Ranking) != 0 || got.HasSpread {
		t.Fatalf("unexpected result: %+v", got)
	}
	if _, ok := got.Cheapest(); ok {
		t.Fatalf("expected no cheapest region")
	}
}
