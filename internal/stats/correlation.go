package stats

import (
	"math"
	"time"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// ParityThresholdPct is the "70% rule": the numerator product pays off at or below this ratio.
const ParityThresholdPct = 70.0

// Strength bands for |r|.
const (
	StrengthVeryStrong = "very strong"
	StrengthStrong     = "strong"
	StrengthModerate   = "moderate"
	StrengthWeak       = "weak"
	StrengthNegligible = "negligible"
)

// Correlation is a Pearson coefficient with its interpretation.
type Correlation struct {
	R        float64 `json:"r" yaml:"r"`
	Strength string  `json:"strength" yaml:"strength"`
	N        int     `json:"n" yaml:"n"`
}

// ProductCorrelation is the price/time correlation within one product.
type ProductCorrelation struct {
	Product     string      `json:"product" yaml:"product"`
	Correlation Correlation `json:"correlation" yaml:"correlation"`
}

// ParityRatio compares the mean prices of two products.
type ParityRatio struct {
	Numerator       string  `json:"numerator" yaml:"numerator"`
	Denominator     string  `json:"denominator" yaml:"denominator"`
	NumeratorMean   float64 `json:"numerator_mean" yaml:"numerator_mean"`
	DenominatorMean float64 `json:"denominator_mean" yaml:"denominator_mean"`
	Ratio           float64 `json:"ratio" yaml:"ratio"`
	Preferable      bool    `json:"preferable" yaml:"preferable"`
}

// Pearson returns the correlation coefficient of a and b.
// It is 0 when the lengths differ, the series are empty, or either has zero variance.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	ma := Mean(a)
	mb := Mean(b)
	var sxy, sxx, syy float64
	for i := range a {
		dx := a[i] - ma
		dy := b[i] - mb
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// Strength labels |r| using fixed bands.
func Strength(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.8:
		return StrengthVeryStrong
	case abs >= 0.6:
		return StrengthStrong
	case abs >= 0.4:
		return StrengthModerate
	case abs >= 0.2:
		return StrengthWeak
	default:
		return StrengthNegligible
	}
}

// MonthOrdinal returns the number of months between January 1970 and t.
func MonthOrdinal(t time.Time) float64 {
	return float64((t.Year()-1970)*12 + int(t.Month()) - 1)
}

// PriceTimeCorrelation correlates price with the collection month.
func PriceTimeCorrelation(records []model.Record) Correlation {
	prices := make([]float64, len(records))
	months := make([]float64, len(records))
	for i, rec := range records {
		prices[i] = rec.Price
		months[i] = MonthOrdinal(rec.Date)
	}
	r := Pearson(prices, months)
	return Correlation{R: r, Strength: Strength(r), N: len(records)}
}

// ProductTimeCorrelations computes the price/time correlation for each product, sorted by product.
func ProductTimeCorrelations(records []model.Record) []ProductCorrelation {
	grouped := make(map[string][]model.Record)
	for _, rec := range records {
		grouped[rec.Product] = append(grouped[rec.Product], rec)
	}
	out := make([]ProductCorrelation, 0, len(grouped))
	for _, product := range sortedKeys(grouped) {
		out = append(out, ProductCorrelation{
			Product:     product,
			Correlation: PriceTimeCorrelation(grouped[product]),
		})
	}
	return out
}

// Parity computes mean(numerator)/mean(denominator)*100.
// The second result is false when either product has no observations.
func Parity(records []model.Record, numerator, denominator string) (ParityRatio, bool) {
	var numSum, denSum float64
	var numCount, denCount int
	for _, rec := range records {
		switch rec.Product {
		case numerator:
			numSum += rec.Price
			numCount++
		case denominator:
			denSum += rec.Price
			denCount++
		}
	}
	if numCount == 0 || denCount == 0 {
		return ParityRatio{}, false
	}
	numMean := numSum / float64(numCount)
	denMean := denSum / float64(denCount)
	if denMean == 0 {
		return ParityRatio{}, false
	}
	ratio := numMean / denMean * 100
	return ParityRatio{
		Numerator:       numerator,
		Denominator:     denominator,
		NumeratorMean:   numMean,
		DenominatorMean: denMean,
		Ratio:           ratio,
		Preferable:      ratio <= ParityThresholdPct,
	}, true
}
