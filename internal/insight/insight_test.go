package insight

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/fuelstat/internal/model"
)

func rec(period, product, region string, price float64) model.Record {
	year := 2022
	month := time.March
	if period[len(period)-1] == '2' {
		month = time.September
	}
	return model.Record{
		Date:      time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Period:    period,
		Product:   product,
		Region:    region,
		Price:     price,
		Brand:     "BRANCA",
		StationID: region + product,
	}
}

func fullDataset() []model.Record {
	return []model.Record{
		rec("2022S1", "GASOLINA", "Leste", 6.0),
		rec("2022S1", "GASOLINA", "Leste", 6.0),
		rec("2022S1", "ETANOL", "Oeste", 4.0),
		rec("2022S1", "ETANOL", "Oeste", 4.0),
		rec("2022S2", "GASOLINA", "Leste", 6.6),
		rec("2022S2", "GASOLINA", "Oeste", 6.0),
		rec("2022S2", "ETANOL", "Oeste", 4.0),
		rec("2022S2", "ETANOL", "Leste", 4.6),
	}
}

func kinds(ins []Insight) []Kind {
	out := make([]Kind, len(ins))
	for i, in := range ins {
		out[i] = in.Kind
	}
	return out
}

func TestSynthesizeOrderAndPayloads(t *testing.T) {
	all := fullDataset()
	got := Synthesize(all, all, DefaultOptions())
	want := []Kind{KindTrend, KindRegionalDisparity, KindVariability, KindParity}
	gotKinds := kinds(got)
	if len(gotKinds) != len(want) {
		t.Fatalf("expected kinds %v, got %v", want, gotKinds)
	}
	for i := range want {
		if gotKinds[i] != want[i] {
			t.Fatalf("expected kinds %v, got %v", want, gotKinds)
		}
		if got[i].Payload.kind() != got[i].Kind {
			t.Fatalf("payload %T does not match kind %s", got[i].Payload, got[i].Kind)
		}
		if got[i].Title == "" || got[i].Summary == "" {
			t.Fatalf("expected title and summary for %s", got[i].Kind)
		}
	}
}

func TestSynthesizeEmptyFilteredSuppressesGroupInsights(t *testing.T) {
	got := Synthesize(fullDataset(), nil, DefaultOptions())
	for _, in := range got {
		switch in.Kind {
		case KindRegionalDisparity, KindParity, KindTrend:
			t.Fatalf("unexpected %s insight for empty filtered set", in.Kind)
		}
	}
	if len(got) == 0 || got[0].Kind != KindVariability {
		t.Fatalf("expected the variability insight to be emitted, got %v", kinds(got))
	}
	v := got[0].Payload.(VariabilityPayload)
	if v.Count != 0 || v.Level != VariabilityLow {
		t.Fatalf("unexpected variability payload: %+v", v)
	}
	if got[0].Impact != nil {
		t.Fatalf("expected no impact without observations")
	}
}

func TestTrendImpact(t *testing.T) {
	records := []model.Record{
		rec("2022S1", "GASOLINA", "Leste", 5.0),
		rec("2022S2", "GASOLINA", "Leste", 5.5),
	}
	got := Synthesize(records, records, Options{WeeklyVolume: 40})
	if got[0].Kind != KindTrend {
		t.Fatalf("expected trend first, got %v", kinds(got))
	}
	if got[0].Impact == nil || math.Abs(*got[0].Impact-1040) > 1e-9 {
		t.Fatalf("expected impact 1040, got %v", got[0].Impact)
	}
	p := got[0].Payload.(TrendPayload)
	if p.Direction != "rising" {
		t.Fatalf("expected rising, got %s", p.Direction)
	}
}

func TestParityImpactAndRecommendation(t *testing.T) {
	records := []model.Record{
		rec("2022S1", "ETANOL", "Leste", 4.0),
		rec("2022S1", "GASOLINA", "Leste", 6.0),
	}
	got := Synthesize(records, records, DefaultOptions())
	var parity *Insight
	for i := range got {
		if got[i].Kind == KindParity {
			parity = &got[i]
		}
	}
	if parity == nil {
		t.Fatalf("expected a parity insight, got %v", kinds(got))
	}
	p := parity.Payload.(ParityPayload).Parity
	if math.Abs(p.Ratio-66.66666666666667) > 1e-9 || !p.Preferable {
		t.Fatalf("unexpected parity: %+v", p)
	}
	want := (6.0 - 4.0/0.7) * 40 * 52
	if parity.Impact == nil || math.Abs(*parity.Impact-want) > 1e-9 {
		t.Fatalf("expected impact %v, got %v", want, parity.Impact)
	}
}

func TestOutlierInsightThreshold(t *testing.T) {
	var all []model.Record
	for i := 0; i < 19; i++ {
		all = append(all, rec("2022S1", "GASOLINA", "Leste", 5.0))
	}
	all = append(all, rec("2022S1", "GASOLINA", "Leste", 9.0))
	got := Synthesize(all, nil, DefaultOptions())
	last := got[len(got)-1]
	if last.Kind != KindOutliers {
		t.Fatalf("expected outlier insight at 5%%, got %v", kinds(got))
	}
	op := last.Payload.(OutlierPayload)
	if op.Count != 1 || op.Total != 20 || math.Abs(op.Fraction-5) > 1e-9 {
		t.Fatalf("unexpected outlier payload: %+v", op)
	}

	for i := 0; i < 40; i++ {
		all = append(all, rec("2022S1", "GASOLINA", "Leste", 5.0))
	}
	for _, in := range Synthesize(all, nil, DefaultOptions()) {
		if in.Kind == KindOutliers {
			t.Fatalf("did not expect an outlier insight below 2%%")
		}
	}
}

func TestClassifyVariability(t *testing.T) {
	cases := map[float64]VariabilityLevel{
		16: VariabilityHigh,
		15: VariabilityModerate,
		9:  VariabilityModerate,
		8:  VariabilityLow,
		0:  VariabilityLow,
	}
	for cv, want := range cases {
		if got := ClassifyVariability(cv); got != want {
			t.Fatalf("ClassifyVariability(%v) = %s, want %s", cv, got, want)
		}
	}
}
