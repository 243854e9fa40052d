package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// Trend thresholds.
const (
	TrendThresholdPct       = 5.0
	SeasonalityThresholdPct = 3.0
	ProjectionSteps         = 3
)

// Direction classifies the first-to-last period variation.
type Direction string

// Trend directions.
const (
	DirectionRising       Direction = "rising"
	DirectionFalling      Direction = "falling"
	DirectionStable       Direction = "stable"
	DirectionInsufficient Direction = "insufficient data"
)

// PeriodMean is the mean price observed in one period.
type PeriodMean struct {
	Period string  `json:"period" yaml:"period"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Count  int     `json:"count" yaml:"count"`
}

// LinearFit is an ordinary least squares line over period indices.
// When Valid is false the fit is undefined and Slope/Intercept carry no meaning.
type LinearFit struct {
	Slope     float64 `json:"slope" yaml:"slope"`
	Intercept float64 `json:"intercept" yaml:"intercept"`
	Valid     bool    `json:"valid" yaml:"valid"`
}

// At evaluates the line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// ProjectedPoint is a price extrapolated beyond the last known period.
type ProjectedPoint struct {
	Offset int     `json:"offset" yaml:"offset"`
	Index  int     `json:"index" yaml:"index"`
	Price  float64 `json:"price" yaml:"price"`
}

// Optional is a value that may be missing.
type Optional struct {
	Value float64 `json:"value" yaml:"value"`
	Valid bool    `json:"valid" yaml:"valid"`
}

// ProductSeries holds one product's mean price per period, aligned to Trend.Periods.
type ProductSeries struct {
	Product string     `json:"product" yaml:"product"`
	Values  []Optional `json:"values" yaml:"values"`
}

// Trend is the temporal analysis of a record set.
type Trend struct {
	Periods           []PeriodMean     `json:"periods" yaml:"periods"`
	Fit               LinearFit        `json:"fit" yaml:"fit"`
	Projection        []ProjectedPoint `json:"projection" yaml:"projection"`
	TotalVariation    float64          `json:"total_variation" yaml:"total_variation"`
	HasVariation      bool             `json:"has_variation" yaml:"has_variation"`
	Variations        []float64        `json:"variations" yaml:"variations"`
	AverageVolatility float64          `json:"average_volatility" yaml:"average_volatility"`
	FirstHalfAvg      float64          `json:"first_half_avg" yaml:"first_half_avg"`
	SecondHalfAvg     float64          `json:"second_half_avg" yaml:"second_half_avg"`
	Seasonal          bool             `json:"seasonal" yaml:"seasonal"`
	Direction         Direction        `json:"direction" yaml:"direction"`
	ByProduct         []ProductSeries  `json:"by_product" yaml:"by_product"`
}

// First returns the earliest period mean.
func (t Trend) First() (PeriodMean, bool) {
	if len(t.Periods) == 0 {
		return PeriodMean{}, false
	}
	return t.Periods[0], true
}

// Last returns the latest period mean.
func (t Trend) Last() (PeriodMean, bool) {
	if len(t.Periods) == 0 {
		return PeriodMean{}, false
	}
	return t.Periods[len(t.Periods)-1], true
}

// AnalyzeTrend aggregates records per period and fits a linear trend to the period means.
func AnalyzeTrend(records []model.Record) Trend {
	periods := periodMeans(records)
	means := make([]float64, len(periods))
	for i, p := range periods {
		means[i] = p.Mean
	}

	t := Trend{
		Periods:    periods,
		Fit:        FitLine(means),
		Projection: []ProjectedPoint{},
		Variations: []float64{},
		Direction:  DirectionInsufficient,
	}
	if t.Fit.Valid {
		n := len(means)
		for offset := 0; offset < ProjectionSteps; offset++ {
			x := n + offset
			t.Projection = append(t.Projection, ProjectedPoint{
				Offset: offset,
				Index:  x,
				Price:  t.Fit.At(float64(x)),
			})
		}
	}

	if len(means) > 0 && means[0] != 0 {
		t.TotalVariation = (means[len(means)-1] - means[0]) / means[0] * 100
		t.HasVariation = true
	}
	if len(means) >= 2 {
		t.Direction = Classify(t.TotalVariation)
	}

	var absSum float64
	for i := 1; i < len(means); i++ {
		if means[i-1] == 0 {
			continue
		}
		v := (means[i] - means[i-1]) / means[i-1] * 100
		t.Variations = append(t.Variations, v)
		absSum += math.Abs(v)
	}
	if len(t.Variations) > 0 {
		t.AverageVolatility = absSum / float64(len(t.Variations))
	}

	t.FirstHalfAvg, t.SecondHalfAvg, t.Seasonal = seasonality(periods)
	t.ByProduct = productSeries(records, periods)
	return t
}

// Classify maps a total variation percentage to a direction using the ±5% band.
func Classify(totalVariation float64) Direction {
	switch {
	case totalVariation > TrendThresholdPct:
		return DirectionRising
	case totalVariation < -TrendThresholdPct:
		return DirectionFalling
	default:
		return DirectionStable
	}
}

// FitLine fits y = slope*x + intercept with x = 0..n-1.
// The fit is invalid when the denominator vanishes (n <= 1).
func FitLine(y []float64) LinearFit {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return LinearFit{}
	}
	slope := (n*sumXY - sumX*sumY) / den
	intercept := (sumY - slope*sumX) / n
	return LinearFit{Slope: slope, Intercept: intercept, Valid: true}
}

func periodMeans(records []model.Record) []PeriodMean {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		sums[rec.Period] += rec.Price
		counts[rec.Period]++
	}
	keys := sortedKeys(counts)
	out := make([]PeriodMean, 0, len(keys))
	for _, k := range keys {
		out = append(out, PeriodMean{Period: k, Mean: sums[k] / float64(counts[k]), Count: counts[k]})
	}
	return out
}

func seasonality(periods []PeriodMean) (firstAvg, secondAvg float64, seasonal bool) {
	var first, second []float64
	for _, p := range periods {
		switch {
		case strings.Contains(p.Period, "S1"):
			first = append(first, p.Mean)
		case strings.Contains(p.Period, "S2"):
			second = append(second, p.Mean)
		}
	}
	firstAvg = Mean(first)
	secondAvg = Mean(second)
	if len(first) == 0 || len(second) == 0 {
		return firstAvg, secondAvg, false
	}
	both := (firstAvg + secondAvg) / 2
	if both == 0 {
		return firstAvg, secondAvg, false
	}
	gap := math.Abs(secondAvg-firstAvg) / both * 100
	return firstAvg, secondAvg, gap > SeasonalityThresholdPct
}

func productSeries(records []model.Record, periods []PeriodMean) []ProductSeries {
	type cell struct {
		sum   float64
		count int
	}
	grouped := make(map[string]map[string]*cell)
	for _, rec := range records {
		byPeriod, ok := grouped[rec.Product]
		if !ok {
			byPeriod = make(map[string]*cell)
			grouped[rec.Product] = byPeriod
		}
		c, ok := byPeriod[rec.Period]
		if !ok {
			c = &cell{}
			byPeriod[rec.Period] = c
		}
		c.sum += rec.Price
		c.count++
	}
	products := sortedKeys(grouped)

	out := make([]ProductSeries, 0, len(products))
	for _, product := range products {
		values := make([]Optional, len(periods))
		for i, p := range periods {
			if c, ok := grouped[product][p.Period]; ok && c.count > 0 {
				values[i] = Optional{Value: c.sum / float64(c.count), Valid: true}
			}
		}
		out = append(out, ProductSeries{Product: product, Values: values})
	}
	return out
}
