// Package stats contains the price-series calculators.
package stats

import (
	"math"
	"sort"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// IQRFence is the multiplier applied to the interquartile range for outlier bounds.
const IQRFence = 1.5

// Descriptive summarizes a price series.
// For an empty series Count is 0, the moments are 0, Q1/Q3/IQR are NaN and Outliers is empty.
type Descriptive struct {
	Count    int       `json:"count" yaml:"count"`
	Mean     float64   `json:"mean" yaml:"mean"`
	Median   float64   `json:"median" yaml:"median"`
	Mode     float64   `json:"mode" yaml:"mode"`
	Std      float64   `json:"std" yaml:"std"`
	Min      float64   `json:"min" yaml:"min"`
	Max      float64   `json:"max" yaml:"max"`
	Q1       float64   `json:"q1" yaml:"q1"`
	Q3       float64   `json:"q3" yaml:"q3"`
	IQR      float64   `json:"iqr" yaml:"iqr"`
	CV       float64   `json:"cv" yaml:"cv"`
	Outliers []float64 `json:"outliers" yaml:"outliers"`
}

// ModeLabel returns "N/A" for an empty series.
func (d Descriptive) ModeLabel() string {
	if d.Count == 0 {
		return "N/A"
	}
	return formatFloat(d.Mode)
}

// LowerFence returns Q1 - 1.5*IQR.
func (d Descriptive) LowerFence() float64 {
	return d.Q1 - IQRFence*d.IQR
}

// UpperFence returns Q3 + 1.5*IQR.
func (d Descriptive) UpperFence() float64 {
	return d.Q3 + IQRFence*d.IQR
}

// Describe computes descriptive statistics for values. The input is not modified.
func Describe(values []float64) Descriptive {
	if len(values) == 0 {
		nan := math.NaN()
		return Descriptive{Q1: nan, Q3: nan, IQR: nan, Outliers: []float64{}}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := Mean(sorted)
	std := SampleStd(sorted, mean)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	cv := 0.0
	if mean != 0 {
		cv = std / mean * 100
	}
	return Descriptive{
		Count:    len(values),
		Mean:     mean,
		Median:   medianSorted(sorted),
		Mode:     Mode(values),
		Std:      std,
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Q1:       q1,
		Q3:       q3,
		IQR:      iqr,
		CV:       cv,
		Outliers: Outliers(values, q1, q3, iqr),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value of values (average of the two central values for even counts).
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// SampleStd returns the unbiased (n-1) standard deviation around mean.
// Series with fewer than two values have a deviation of 0.
func SampleStd(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// Mode returns the most frequent value. Ties go to the value seen first in values.
func Mode(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	counts := make(map[float64]int, len(values))
	best := values[0]
	bestCount := 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if c := counts[v]; c > bestCount {
			best = v
			bestCount = c
		}
	}
	return best
}

// Quantile interpolates the p-th quantile of an ascending slice at index p*(n-1).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	if lo < 0 {
		lo = 0
	}
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// Outliers returns the values outside the IQR fences, in input order.
// When any of q1, q3 or iqr is not finite the result is empty.
func Outliers(values []float64, q1, q3, iqr float64) []float64 {
	out := []float64{}
	if !finite(q1) || !finite(q3) || !finite(iqr) {
		return out
	}
	lower := q1 - IQRFence*iqr
	upper := q3 + IQRFence*iqr
	for _, v := range values {
		if v < lower || v > upper {
			out = append(out, v)
		}
	}
	return out
}

// ProductSummary is the descriptive summary of one product's prices.
type ProductSummary struct {
	Product string      `json:"product" yaml:"product"`
	Stats   Descriptive `json:"stats" yaml:"stats"`
}

// DescribeByProduct summarizes prices per product, sorted by product name.
func DescribeByProduct(records []model.Record) []ProductSummary {
	grouped := make(map[string][]float64)
	for _, rec := range records {
		grouped[rec.Product] = append(grouped[rec.Product], rec.Price)
	}
	names := sortedKeys(grouped)
	out := make([]ProductSummary, 0, len(names))
	for _, name := range names {
		out = append(out, ProductSummary{Product: name, Stats: Describe(grouped[name])})
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
