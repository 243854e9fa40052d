package report

import (
	"strings"
	"testing"

	"github.com/verte-zerg/fuelstat/internal/model"
)

func TestResolveCanonicalizesValues(t *testing.T) {
	cat := BuildCatalog(sessionRecords())
	got, err := cat.Resolve(model.FilterSpec{Period: "2022s2", Products: []string{"gasolina", "Etanol"}, Region: "oeste"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := model.FilterSpec{Period: "2022S2", Products: []string{"ETANOL", "GASOLINA"}, Region: "Oeste"}
	if !got.Equal(want) || got.Region != "Oeste" || got.Period != "2022S2" {
		t.Fatalf("unexpected spec: %+v", got)
	}

	all, err := cat.Resolve(model.FilterSpec{Period: "ALL", Region: ""})
	if err != nil || !all.Equal(model.DefaultFilter()) {
		t.Fatalf("expected default filter, got %+v, %v", all, err)
	}

	unidentified, err := cat.Resolve(model.FilterSpec{Region: model.RegionUnidentified})
	if err != nil || unidentified.Region != model.RegionUnidentified {
		t.Fatalf("expected unidentified region to resolve, got %+v, %v", unidentified, err)
	}
}

func TestResolveSuggestsClosestValue(t *testing.T) {
	cat := BuildCatalog(sessionRecords())
	_, err := cat.Resolve(model.FilterSpec{Products: []string{"GASOLIN"}})
	if err == nil || !strings.Contains(err.Error(), `did you mean "GASOLINA"`) {
		t.Fatalf("expected product suggestion, got %v", err)
	}
	_, err = cat.Resolve(model.FilterSpec{Region: "Lest"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "Leste"`) {
		t.Fatalf("expected region suggestion, got %v", err)
	}
	_, err = cat.Resolve(model.FilterSpec{Period: "2019S1"})
	if err == nil || !strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("expected period suggestion, got %v", err)
	}
	_, err = cat.Resolve(model.FilterSpec{Period: "2022-1"})
	if err == nil || !strings.Contains(err.Error(), "invalid period") {
		t.Fatalf("expected invalid period error, got %v", err)
	}
	_, err = cat.Resolve(model.FilterSpec{Products: []string{"QUEROSENE DE AVIACAO"}})
	if err == nil || !strings.Contains(err.Error(), "available: ETANOL, GASOLINA") {
		t.Fatalf("expected available list, got %v", err)
	}
}
