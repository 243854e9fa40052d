package filter

import (
	"testing"

	"github.com/verte-zerg/fuelstat/internal/model"
)

func sampleRecords() []model.Record {
	return []model.Record{
		{StationID: "1", Period: "2022S1", Product: "GASOLINA", Region: "Leste", Price: 6.1},
		{StationID: "2", Period: "2022S1", Product: "ETANOL", Region: "Oeste", Price: 4.2},
		{StationID: "3", Period: "2022S2", Product: "GASOLINA", Region: "Oeste", Price: 5.9},
		{StationID: "4", Period: "2022S2", Product: "DIESEL", Region: model.RegionUnidentified, Price: 6.8},
		{StationID: "5", Period: "2022S1", Product: "GASOLINA", Region: "Oeste", Price: 6.0},
	}
}

func stationIDs(res Result) []string {
	ids := make([]string, len(res.Records))
	for i, r := range res.Records {
		ids[i] = r.StationID
	}
	return ids
}

func TestApplyCombinesCriteria(t *testing.T) {
	res := Apply(sampleRecords(), model.FilterSpec{
		Period:   "2022S1",
		Products: []string{"GASOLINA"},
		Region:   "Oeste",
	})
	ids := stationIDs(res)
	if len(ids) != 1 || ids[0] != "5" {
		t.Fatalf("unexpected match: %v", ids)
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	res := Apply(sampleRecords(), model.FilterSpec{Period: model.All, Region: "Oeste"})
	ids := stationIDs(res)
	want := []string{"2", "3", "5"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d records, got %v", len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected order: %v", ids)
		}
	}
}

func TestApplyEmptyProductsMatchesAny(t *testing.T) {
	res := Apply(sampleRecords(), model.FilterSpec{Period: model.All, Products: []string{}, Region: model.All})
	if res.Len() != len(sampleRecords()) {
		t.Fatalf("expected empty product set to match every record, got %d", res.Len())
	}
}

func TestApplyEmptyResultIsDistinct(t *testing.T) {
	var notFiltered Result
	if notFiltered.Applied() || notFiltered.Empty() {
		t.Fatalf("zero result must read as not yet filtered")
	}
	res := Apply(sampleRecords(), model.FilterSpec{Period: "2030S1"})
	if !res.Applied() || !res.Empty() {
		t.Fatalf("expected an applied empty result, got %+v", res)
	}
}
