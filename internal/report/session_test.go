package report

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/fuelstat/internal/cache"
	"github.com/verte-zerg/fuelstat/internal/insight"
	"github.com/verte-zerg/fuelstat/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sessionRecords() []model.Record {
	d1 := time.Date(2022, time.February, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2022, time.August, 1, 0, 0, 0, 0, time.UTC)
	return []model.Record{
		{Date: d1, Period: "2022S1", Product: "GASOLINA", Region: "Leste", Brand: "IPIRANGA", StationID: "1", Price: 6.0},
		{Date: d1, Period: "2022S1", Product: "ETANOL", Region: "Leste", Brand: "IPIRANGA", StationID: "1", Price: 4.0},
		{Date: d1, Period: "2022S1", Product: "GASOLINA", Region: "Oeste", Brand: "VIBRA", StationID: "2", Price: 5.8},
		{Date: d2, Period: "2022S2", Product: "GASOLINA", Region: "Oeste", Brand: "VIBRA", StationID: "2", Price: 6.4},
		{Date: d2, Period: "2022S2", Product: "ETANOL", Region: "Oeste", Brand: "VIBRA", StationID: "2", Price: 4.2},
		{Date: d2, Period: "2022S2", Product: "GASOLINA", Region: model.RegionUnidentified, Brand: "BRANCA", StationID: "3", Price: 6.6},
	}
}

func TestSessionCachesUntilFilterChanges(t *testing.T) {
	c := cache.New[View, any]()
	s := NewSession(sessionRecords(), c, insight.DefaultOptions(), quietLogger())

	first := s.Distribution()
	if first.Overall.Count != 6 {
		t.Fatalf("expected 6 records, got %d", first.Overall.Count)
	}
	s.Distribution()
	if st := c.Stats(); st.Misses != 1 || st.Hits != 1 {
		t.Fatalf("expected one miss and one hit, got %+v", st)
	}

	if s.SetFilter(model.FilterSpec{Period: model.All, Region: model.All, Products: nil}) {
		t.Fatalf("expected identical filter to be a no-op")
	}
	if c.Len() != 1 {
		t.Fatalf("expected cache to survive an identical filter, got %d entries", c.Len())
	}

	if !s.SetFilter(model.FilterSpec{Period: "2022S2", Products: []string{"GASOLINA"}}) {
		t.Fatalf("expected filter change")
	}
	if c.Len() != 0 {
		t.Fatalf("expected cache to be cleared on filter change, got %d entries", c.Len())
	}
	second := s.Distribution()
	if second.Overall.Count != 2 {
		t.Fatalf("expected 2 filtered records, got %d", second.Overall.Count)
	}
}

func TestSessionOverviewUsesFullDataset(t *testing.T) {
	s := NewSession(sessionRecords(), nil, insight.DefaultOptions(), quietLogger())
	s.SetFilter(model.FilterSpec{Region: "Leste"})
	ov := s.Overview()
	if ov.TotalRecords != 6 || ov.UniqueStations != 3 {
		t.Fatalf("unexpected overview: %+v", ov)
	}
	if s.Filtered().Len() != 2 {
		t.Fatalf("expected 2 Leste records, got %d", s.Filtered().Len())
	}
}

func TestSessionEmptyFilter(t *testing.T) {
	s := NewSession(sessionRecords(), nil, insight.DefaultOptions(), quietLogger())
	s.SetFilter(model.FilterSpec{Period: "2030S1"})
	if !s.Filtered().Empty() {
		t.Fatalf("expected an empty filtered set")
	}
	dist := s.Distribution()
	if dist.Overall.ModeLabel() != "N/A" || len(dist.Overall.Outliers) != 0 {
		t.Fatalf("unexpected empty distribution: %+v", dist.Overall)
	}
	for _, in := range s.Insights() {
		if in.Kind == insight.KindRegionalDisparity || in.Kind == insight.KindParity {
			t.Fatalf("unexpected %s insight for empty filter", in.Kind)
		}
	}
	if s.Temporal().Fit.Valid {
		t.Fatalf("expected undefined fit for empty set")
	}
	if s.Regional().HasSpread {
		t.Fatalf("expected no regional spread for empty set")
	}
	if s.Correlation().HasParity {
		t.Fatalf("expected no parity for empty set")
	}
}

func TestSessionCorrelationParity(t *testing.T) {
	s := NewSession(sessionRecords(), nil, insight.Options{}, quietLogger())
	c := s.Correlation()
	if !c.HasParity {
		t.Fatalf("expected parity between ETANOL and GASOLINA")
	}
	if c.Parity.Numerator != "ETANOL" || c.Parity.Denominator != "GASOLINA" {
		t.Fatalf("unexpected parity pair: %+v", c.Parity)
	}
	if len(c.ByProduct) != 2 {
		t.Fatalf("expected per-product correlations, got %+v", c.ByProduct)
	}
}

func TestFingerprintTreatsProductsAsSet(t *testing.T) {
	a := Fingerprint(model.FilterSpec{Products: []string{"ETANOL", "GASOLINA"}})
	b := Fingerprint(model.FilterSpec{Period: model.All, Region: model.All, Products: []string{"GASOLINA", "ETANOL"}})
	if a != b {
		t.Fatalf("expected equal fingerprints")
	}
	if a == Fingerprint(model.DefaultFilter()) {
		t.Fatalf("expected product filter to change the fingerprint")
	}
}

func TestParseViewAndCatalog(t *testing.T) {
	v, err := ParseView(" Temporal ")
	if err != nil || v != ViewTemporal {
		t.Fatalf("unexpected view: %v, %v", v, err)
	}
	if _, err := ParseView("charts"); err == nil {
		t.Fatalf("expected an error for an unknown view")
	}
	cat := BuildCatalog(sessionRecords())
	if len(cat.Periods) != 2 || len(cat.Products) != 2 || len(cat.Regions) != 2 || len(cat.Brands) != 3 {
		t.Fatalf("unexpected catalog: %+v", cat)
	}
}
