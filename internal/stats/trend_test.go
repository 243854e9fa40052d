package stats

import (
	"testing"

	"github.com/verte-zerg/fuelstat/internal/model"
)

func periodRecords(product string, means map[string][]float64) []model.Record {
	var out []model.Record
	for period, prices := range means {
		for _, p := range prices {
			out = append(out, model.Record{Period: period, Product: product, Price: p})
		}
	}
	return out
}

func TestAnalyzeTrendRecoversExactLine(t *testing.T) {
	periods := []string{"2020S1", "2020S2", "2021S1", "2021S2", "2022S1"}
	var records []model.Record
	for i, p := range periods {
		records = append(records, model.Record{Period: p, Product: "GASOLINA", Price: 2*float64(i) + 1})
	}
	trend := AnalyzeTrend(records)
	if !trend.Fit.Valid {
		t.Fatalf("expected a valid fit")
	}
	if !approxEqual(trend.Fit.Slope, 2, 1e-9) || !approxEqual(trend.Fit.Intercept, 1, 1e-9) {
		t.Fatalf("unexpected fit: %+v", trend.Fit)
	}
	if len(trend.Projection) != ProjectionSteps {
		t.Fatalf("expected %d projected points, got %d", ProjectionSteps, len(trend.Projection))
	}
	if !approxEqual(trend.Projection[0].Price, 11, 1e-9) || trend.Projection[0].Index != 5 {
		t.Fatalf("unexpected first projection: %+v", trend.Projection[0])
	}
}

func TestAnalyzeTrendTwoPeriodScenario(t *testing.T) {
	records := periodRecords("GASOLINA", map[string][]float64{
		"2022S1": {4.8, 5.2},
		"2022S2": {5.5},
	})
	trend := AnalyzeTrend(records)
	if len(trend.Periods) != 2 || trend.Periods[0].Period != "2022S1" {
		t.Fatalf("unexpected periods: %+v", trend.Periods)
	}
	if !approxEqual(trend.Fit.Slope, 0.5, 1e-9) || !approxEqual(trend.Fit.Intercept, 5.0, 1e-9) {
		t.Fatalf("unexpected fit: %+v", trend.Fit)
	}
	if !approxEqual(trend.Projection[0].Price, 6.0, 1e-9) {
		t.Fatalf("expected next period projection 6.0, got %v", trend.Projection[0].Price)
	}
	if !approxEqual(trend.TotalVariation, 10, 1e-9) {
		t.Fatalf("expected total variation 10%%, got %v", trend.TotalVariation)
	}
	if trend.Direction != DirectionRising {
		t.Fatalf("expected rising, got %s", trend.Direction)
	}
	if len(trend.Variations) != 1 || !approxEqual(trend.AverageVolatility, 10, 1e-9) {
		t.Fatalf("unexpected volatility: %v / %v", trend.Variations, trend.AverageVolatility)
	}
	if !trend.Seasonal {
		t.Fatalf("expected a seasonal gap above 3%%: s1=%v s2=%v", trend.FirstHalfAvg, trend.SecondHalfAvg)
	}
}

func TestAnalyzeTrendSinglePeriodIsInsufficient(t *testing.T) {
	trend := AnalyzeTrend(periodRecords("GASOLINA", map[string][]float64{"2023S1": {5, 6}}))
	if trend.Fit.Valid {
		t.Fatalf("expected an undefined fit for one period, got %+v", trend.Fit)
	}
	if len(trend.Projection) != 0 {
		t.Fatalf("expected no projection, got %+v", trend.Projection)
	}
	if trend.Direction != DirectionInsufficient {
		t.Fatalf("expected insufficient data, got %s", trend.Direction)
	}
	if trend.Seasonal {
		t.Fatalf("seasonality needs both halves")
	}
}

func TestAnalyzeTrendEmpty(t *testing.T) {
	trend := AnalyzeTrend(nil)
	if len(trend.Periods) != 0 || trend.Fit.Valid || trend.HasVariation {
		t.Fatalf("unexpected trend for empty input: %+v", trend)
	}
	if trend.Direction != DirectionInsufficient {
		t.Fatalf("expected insufficient data, got %s", trend.Direction)
	}
}

func TestClassify(t *testing.T) {
	cases := map[float64]Direction{
		5.01:  DirectionRising,
		5:     DirectionStable,
		-5:    DirectionStable,
		-5.01: DirectionFalling,
		0:     DirectionStable,
	}
	for v, want := range cases {
		if got := Classify(v); got != want {
			t.Fatalf("Classify(%v) = %s, want %s", v, got, want)
		}
	}
}

func TestAnalyzeTrendStableWithoutSeasonality(t *testing.T) {
	records := periodRecords("GASOLINA", map[string][]float64{
		"2022S1": {5.00},
		"2022S2": {5.05},
		"2023S1": {5.02},
		"2023S2": {5.06},
	})
	trend := AnalyzeTrend(records)
	if trend.Direction != DirectionStable {
		t.Fatalf("expected stable, got %s (%v)", trend.Direction, trend.TotalVariation)
	}
	if trend.Seasonal {
		t.Fatalf("expected no seasonality for a sub-3%% gap")
	}
}

func TestAnalyzeTrendProductSeriesMarksMissingCells(t *testing.T) {
	records := append(
		periodRecords("GASOLINA", map[string][]float64{"2022S1": {6}, "2022S2": {6.2}}),
		periodRecords("ETANOL", map[string][]float64{"2022S2": {4.1, 4.3}})...,
	)
	trend := AnalyzeTrend(records)
	if len(trend.ByProduct) != 2 {
		t.Fatalf("expected 2 product series, got %d", len(trend.ByProduct))
	}
	ethanol := trend.ByProduct[0]
	if ethanol.Product != "ETANOL" {
		t.Fatalf("unexpected product order: %+v", trend.ByProduct)
	}
	if ethanol.Values[0].Valid {
		t.Fatalf("expected a no-data marker for ETANOL in 2022S1, got %+v", ethanol.Values[0])
	}
	if !ethanol.Values[1].Valid || !approxEqual(ethanol.Values[1].Value, 4.2, 1e-9) {
		t.Fatalf("unexpected ETANOL 2022S2 mean: %+v", ethanol.Values[1])
	}
}
