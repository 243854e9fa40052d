package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/fuelstat/internal/model"
)

func TestPearsonProperties(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 1, 4, 3, 7}
	if !approxEqual(Pearson(a, b), Pearson(b, a), 1e-12) {
		t.Fatalf("pearson is not symmetric")
	}
	if !approxEqual(Pearson(a, a), 1, 1e-12) {
		t.Fatalf("expected self-correlation 1, got %v", Pearson(a, a))
	}
	if got := Pearson([]float64{3, 3, 3}, []float64{4, 4, 4}); got != 0 {
		t.Fatalf("expected 0 for constant series, got %v", got)
	}
	if got := Pearson([]float64{1, 2}, []float64{1, 2, 3}); got != 0 {
		t.Fatalf("expected 0 for mismatched lengths, got %v", got)
	}
	if got := Pearson(nil, nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
	neg := []float64{5, 4, 3, 2, 1}
	if !approxEqual(Pearson(a, neg), -1, 1e-12) {
		t.Fatalf("expected -1, got %v", Pearson(a, neg))
	}
}

func TestStrengthBands(t *testing.T) {
	cases := map[float64]string{
		0.85:  StrengthVeryStrong,
		-0.8:  StrengthVeryStrong,
		0.6:   StrengthStrong,
		-0.45: StrengthModerate,
		0.2:   StrengthWeak,
		0.19:  StrengthNegligible,
		0:     StrengthNegligible,
	}
	for r, want := range cases {
		if got := Strength(r); got != want {
			t.Fatalf("Strength(%v) = %q, want %q", r, got, want)
		}
	}
}

func TestMonthOrdinal(t *testing.T) {
	if got := MonthOrdinal(time.Date(1970, time.January, 15, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := MonthOrdinal(time.Date(1971, time.March, 1, 0, 0, 0, 0, time.UTC)); got != 14 {
		t.Fatalf("expected 14, got %v", got)
	}
}

func TestPriceTimeCorrelationRisingPrices(t *testing.T) {
	var records []model.Record
	for i := 0; i < 6; i++ {
		records = append(records, model.Record{
			Date:  time.Date(2022, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Price: 5 + 0.1*float64(i),
		})
	}
	got := PriceTimeCorrelation(records)
	if !approxEqual(got.R, 1, 1e-9) || got.Strength != StrengthVeryStrong || got.N != 6 {
		t.Fatalf("unexpected correlation: %+v", got)
	}
}

func TestParityScenario(t *testing.T) {
	records := []model.Record{
		{Product: "ETANOL", Price: 3.9},
		{Product: "ETANOL", Price: 4.1},
		{Product: "GASOLINA", Price: 6.0},
	}
	got, ok := Parity(records, "ETANOL", "GASOLINA")
	if !ok {
		t.Fatalf("expected parity to be defined")
	}
	if !approxEqual(got.Ratio, 66.66666666666667, 1e-9) {
		t.Fatalf("expected 66.7%%, got %v", got.Ratio)
	}
	if !got.Preferable {
		t.Fatalf("expected ETANOL to be preferable at %v%%", got.Ratio)
	}
}

func TestParityMissingGroup(t *testing.T) {
	if _, ok := Parity([]model.Record{{Product: "GASOLINA", Price: 6}}, "ETANOL", "GASOLINA"); ok {
		t.Fatalf("expected parity to be undefined without ETANOL")
	}
}

func TestParityAboveThreshold(t *testing.T) {
	got, ok := Parity([]model.Record{{Product: "ETANOL", Price: 4.5}, {Product: "GASOLINA", Price: 6}}, "ETANOL", "GASOLINA")
	if !ok || got.Preferable {
		t.Fatalf("expected 75%% ratio to favour the denominator: %+v", got)
	}
}
