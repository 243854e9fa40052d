// Package insight turns calculator results into ranked, human-facing findings.
package insight

import (
	"fmt"

	"github.com/verte-zerg/fuelstat/internal/model"
	"github.com/verte-zerg/fuelstat/internal/stats"
)

// Kind identifies the rule that produced an insight.
type Kind int

// Insight kinds, in emission order.
const (
	KindTrend Kind = iota
	KindRegionalDisparity
	KindVariability
	KindParity
	KindOutliers
)

// String returns the kind's stable name.
func (k Kind) String() string {
	switch k {
	case KindTrend:
		return "trend"
	case KindRegionalDisparity:
		return "regional_disparity"
	case KindVariability:
		return "variability"
	case KindParity:
		return "parity"
	case KindOutliers:
		return "outliers"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Thresholds used by the rules.
const (
	HighVariabilityPct     = 15.0
	ModerateVariabilityPct = 8.0
	OutlierFractionPct     = 2.0
	WeeksPerYear           = 52
	// EthanolYield is the fuel economy of the numerator product relative to the denominator.
	EthanolYield = stats.ParityThresholdPct / 100
)

// Defaults for Options.
const (
	DefaultWeeklyVolume      = 40.0
	DefaultParityNumerator   = "ETANOL"
	DefaultParityDenominator = "GASOLINA"
)

// Options tunes the monetary projections and the parity pair.
type Options struct {
	WeeklyVolume      float64
	ParityNumerator   string
	ParityDenominator string
}

// DefaultOptions returns the standard options.
func DefaultOptions() Options {
	return Options{
		WeeklyVolume:      DefaultWeeklyVolume,
		ParityNumerator:   DefaultParityNumerator,
		ParityDenominator: DefaultParityDenominator,
	}
}

// WithDefaults fills unset fields with the package defaults.
func (o Options) WithDefaults() Options {
	if o.WeeklyVolume <= 0 {
		o.WeeklyVolume = DefaultWeeklyVolume
	}
	if o.ParityNumerator == "" {
		o.ParityNumerator = DefaultParityNumerator
	}
	if o.ParityDenominator == "" {
		o.ParityDenominator = DefaultParityDenominator
	}
	return o
}

// Insight is one finding. Impact is nil when the rule has no monetary projection.
type Insight struct {
	Kind    Kind     `json:"kind" yaml:"kind"`
	Title   string   `json:"title" yaml:"title"`
	Summary string   `json:"summary" yaml:"summary"`
	Details []string `json:"details" yaml:"details"`
	Impact  *float64 `json:"impact" yaml:"impact"`
	Payload Payload  `json:"payload" yaml:"payload"`
}

// Payload carries the figures behind an insight. The set of implementations is closed.
type Payload interface {
	kind() Kind
}

// TrendPayload backs a KindTrend insight.
type TrendPayload struct {
	FirstPeriod    stats.PeriodMean `json:"first_period" yaml:"first_period"`
	LastPeriod     stats.PeriodMean `json:"last_period" yaml:"last_period"`
	TotalVariation float64          `json:"total_variation" yaml:"total_variation"`
	Direction      stats.Direction  `json:"direction" yaml:"direction"`
	Seasonal       bool             `json:"seasonal" yaml:"seasonal"`
}

// RegionalPayload backs a KindRegionalDisparity insight.
type RegionalPayload struct {
	Cheapest      stats.RegionStats `json:"cheapest" yaml:"cheapest"`
	MostExpensive stats.RegionStats `json:"most_expensive" yaml:"most_expensive"`
	Spread        float64           `json:"spread" yaml:"spread"`
}

// VariabilityLevel classifies a coefficient of variation.
type VariabilityLevel string

// Variability levels.
const (
	VariabilityHigh     VariabilityLevel = "high"
	VariabilityModerate VariabilityLevel = "moderate"
	VariabilityLow      VariabilityLevel = "low"
)

// VariabilityPayload backs a KindVariability insight.
type VariabilityPayload struct {
	CV    float64          `json:"cv" yaml:"cv"`
	Level VariabilityLevel `json:"level" yaml:"level"`
	Min   float64          `json:"min" yaml:"min"`
	Max   float64          `json:"max" yaml:"max"`
	Count int              `json:"count" yaml:"count"`
}

// ParityPayload backs a KindParity insight.
type ParityPayload struct {
	Parity stats.ParityRatio `json:"parity" yaml:"parity"`
}

// OutlierPayload backs a KindOutliers insight.
type OutlierPayload struct {
	Count      int     `json:"count" yaml:"count"`
	Total      int     `json:"total" yaml:"total"`
	Fraction   float64 `json:"fraction" yaml:"fraction"`
	LowerFence float64 `json:"lower_fence" yaml:"lower_fence"`
	UpperFence float64 `json:"upper_fence" yaml:"upper_fence"`
}

func (TrendPayload) kind() Kind       { return KindTrend }
func (RegionalPayload) kind() Kind    { return KindRegionalDisparity }
func (VariabilityPayload) kind() Kind { return KindVariability }
func (ParityPayload) kind() Kind      { return KindParity }
func (OutlierPayload) kind() Kind     { return KindOutliers }

// ClassifyVariability maps a coefficient of variation to a level.
func ClassifyVariability(cv float64) VariabilityLevel {
	switch {
	case cv > HighVariabilityPct:
		return VariabilityHigh
	case cv > ModerateVariabilityPct:
		return VariabilityModerate
	default:
		return VariabilityLow
	}
}

// Synthesize derives insights from the full dataset and the filtered subset.
// Insights appear in a fixed order: trend, regional disparity, variability, parity, outliers.
// Rules whose inputs are unavailable are skipped.
func Synthesize(all, filtered []model.Record, opts Options) []Insight {
	opts = opts.WithDefaults()
	out := make([]Insight, 0, 5)
	if in, ok := trendInsight(stats.AnalyzeTrend(filtered), opts); ok {
		out = append(out, in)
	}
	if in, ok := regionalInsight(stats.AnalyzeRegions(filtered), opts); ok {
		out = append(out, in)
	}
	out = append(out, variabilityInsight(stats.Describe(model.Prices(filtered)), opts))
	if p, ok := stats.Parity(filtered, opts.ParityNumerator, opts.ParityDenominator); ok {
		out = append(out, parityInsight(p, opts))
	}
	if in, ok := outlierInsight(stats.Describe(model.Prices(all))); ok {
		out = append(out, in)
	}
	return out
}

func trendInsight(t stats.Trend, opts Options) (Insight, bool) {
	if len(t.Periods) < 2 {
		return Insight{}, false
	}
	first, _ := t.First()
	last, _ := t.Last()
	impact := (last.Mean - first.Mean) * opts.WeeklyVolume * WeeksPerYear
	details := []string{
		fmt.Sprintf("%s mean %.3f, %s mean %.3f", first.Period, first.Mean, last.Period, last.Mean),
		fmt.Sprintf("Average period-to-period volatility %.2f%%", t.AverageVolatility),
	}
	if t.Fit.Valid && len(t.Projection) > 0 {
		details = append(details, fmt.Sprintf("Linear projection for the next period: %.3f", t.Projection[0].Price))
	}
	if t.Seasonal {
		details = append(details, fmt.Sprintf("Seasonal gap between first and second halves (S1 %.3f, S2 %.3f)", t.FirstHalfAvg, t.SecondHalfAvg))
	}
	return Insight{
		Kind:    KindTrend,
		Title:   "Price trend",
		Summary: fmt.Sprintf("Prices are %s: %+.1f%% from %s to %s.", t.Direction, t.TotalVariation, first.Period, last.Period),
		Details: details,
		Impact:  &impact,
		Payload: TrendPayload{
			FirstPeriod:    first,
			LastPeriod:     last,
			TotalVariation: t.TotalVariation,
			Direction:      t.Direction,
			Seasonal:       t.Seasonal,
		},
	}, true
}

func regionalInsight(r stats.RegionalAnalysis, opts Options) (Insight, bool) {
	if !r.HasSpread {
		return Insight{}, false
	}
	cheap, _ := r.Cheapest()
	expensive, _ := r.MostExpensive()
	impact := (expensive.Mean - cheap.Mean) * opts.WeeklyVolume * WeeksPerYear
	return Insight{
		Kind:    KindRegionalDisparity,
		Title:   "Regional disparity",
		Summary: fmt.Sprintf("%s is %.1f%% more expensive than %s.", expensive.Region, r.Spread, cheap.Region),
		Details: []string{
			fmt.Sprintf("Cheapest: %s (mean %.3f over %d records)", cheap.Region, cheap.Mean, cheap.Count),
			fmt.Sprintf("Most expensive: %s (mean %.3f over %d records)", expensive.Region, expensive.Mean, expensive.Count),
			fmt.Sprintf("%d regions compared", len(r.Ranking)),
		},
		Impact: &impact,
		Payload: RegionalPayload{
			Cheapest:      cheap,
			MostExpensive: expensive,
			Spread:        r.Spread,
		},
	}, true
}

func variabilityInsight(d stats.Descriptive, opts Options) Insight {
	level := ClassifyVariability(d.CV)
	in := Insight{
		Kind:    KindVariability,
		Title:   "Price variability",
		Summary: fmt.Sprintf("Variability is %s (coefficient of variation %.1f%%).", level, d.CV),
		Details: []string{fmt.Sprintf("%d observations", d.Count)},
		Payload: VariabilityPayload{CV: d.CV, Level: level, Min: d.Min, Max: d.Max, Count: d.Count},
	}
	if d.Count > 0 {
		impact := (d.Max - d.Min) * opts.WeeklyVolume
		in.Details = append(in.Details, fmt.Sprintf("Prices range from %.3f to %.3f", d.Min, d.Max))
		in.Impact = &impact
	}
	return in
}

func parityInsight(p stats.ParityRatio, opts Options) Insight {
	impact := (p.DenominatorMean - p.NumeratorMean/EthanolYield) * opts.WeeklyVolume * WeeksPerYear
	choice := p.Denominator
	if p.Preferable {
		choice = p.Numerator
	}
	return Insight{
		Kind:    KindParity,
		Title:   "Fuel parity",
		Summary: fmt.Sprintf("%s costs %.1f%% of %s; %s is the better buy.", p.Numerator, p.Ratio, p.Denominator, choice),
		Details: []string{
			fmt.Sprintf("%s mean %.3f, %s mean %.3f", p.Numerator, p.NumeratorMean, p.Denominator, p.DenominatorMean),
			fmt.Sprintf("%s pays off at or below %.0f%%", p.Numerator, stats.ParityThresholdPct),
		},
		Impact:  &impact,
		Payload: ParityPayload{Parity: p},
	}
}

func outlierInsight(d stats.Descriptive) (Insight, bool) {
	if d.Count == 0 {
		return Insight{}, false
	}
	fraction := float64(len(d.Outliers)) / float64(d.Count) * 100
	if fraction <= OutlierFractionPct {
		return Insight{}, false
	}
	return Insight{
		Kind:    KindOutliers,
		Title:   "Atypical prices",
		Summary: fmt.Sprintf("%d observations (%.1f%%) fall outside the IQR fences.", len(d.Outliers), fraction),
		Details: []string{
			fmt.Sprintf("Fences: %.3f to %.3f", d.LowerFence(), d.UpperFence()),
		},
		Payload: OutlierPayload{
			Count:      len(d.Outliers),
			Total:      d.Count,
			Fraction:   fraction,
			LowerFence: d.LowerFence(),
			UpperFence: d.UpperFence(),
		},
	}, true
}
