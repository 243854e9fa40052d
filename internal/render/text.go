// Package render writes report results as text, JSON or YAML.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/fuelstat/internal/insight"
	"github.com/verte-zerg/fuelstat/internal/model"
	"github.com/verte-zerg/fuelstat/internal/report"
	"github.com/verte-zerg/fuelstat/internal/stats"
)

var (
	headingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	subheadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Options controls text output.
type Options struct {
	Color bool
}

type printer struct {
	color bool
	lines []string
}

func (p *printer) styled(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *printer) heading(s string) {
	p.lines = append(p.lines, p.styled(headingStyle, s))
}

func (p *printer) section(s string) {
	p.lines = append(p.lines, "", p.styled(subheadingStyle, s))
}

func (p *printer) line(format string, args ...any) {
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

func (p *printer) muted(s string) {
	p.lines = append(p.lines, p.styled(mutedStyle, s))
}

func (p *printer) table(headers []string, rows [][]string, rightAlign map[int]bool) {
	lines := formatTable(headers, rows, rightAlign)
	if len(lines) == 0 {
		return
	}
	p.lines = append(p.lines, p.styled(mutedStyle, lines[0]))
	p.lines = append(p.lines, lines[1:]...)
}

func (p *printer) flush(w io.Writer) error {
	for _, line := range p.lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Text writes a human-readable rendering of a view result.
func Text(w io.Writer, v report.View, result any, opts Options) error {
	p := &printer{color: opts.Color}
	p.heading(v.Title())
	if err := p.view(result); err != nil {
		return err
	}
	return p.flush(w)
}

// String renders a view result as text without a heading.
func String(result any, opts Options) (string, error) {
	p := &printer{color: opts.Color}
	if err := p.view(result); err != nil {
		return "", err
	}
	return strings.TrimLeft(strings.Join(p.lines, "\n"), "\n"), nil
}

func (p *printer) view(result any) error {
	switch r := result.(type) {
	case stats.Overview:
		p.overview(r)
	case report.Distribution:
		p.distribution(r)
	case stats.Trend:
		p.temporal(r)
	case stats.RegionalAnalysis:
		p.regional(r)
	case report.Correlation:
		p.correlation(r)
	case []insight.Insight:
		p.insights(r)
	case report.Catalog:
		p.catalog(r)
	default:
		return fmt.Errorf("no text rendering for %T", result)
	}
	return nil
}

func (p *printer) overview(o stats.Overview) {
	if o.TotalRecords == 0 {
		p.muted("No records loaded.")
		return
	}
	p.line("Records:  %s", count(o.TotalRecords))
	p.line("Stations: %s", count(o.UniqueStations))
	p.line("Products: %d", o.ProductCount)
	p.line("Regions:  %d", o.RegionCount)

	p.countTable("By period", "Period", o.ByPeriod)
	p.countTable("By product", "Product", o.ByProduct)
	p.countTable("By region", "Region", o.ByRegion)
	p.countTable("Top brands", "Brand", o.TopBrands)
}

func (p *printer) countTable(title, label string, counts []stats.Count) {
	if len(counts) == 0 {
		return
	}
	p.section(title)
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Key, count(c.Count)})
	}
	p.table([]string{label, "Records"}, rows, map[int]bool{1: true})
}

func (p *printer) distribution(d report.Distribution) {
	if d.Overall.Count == 0 {
		p.muted("No records match the current filter.")
		return
	}
	o := d.Overall
	rows := [][]string{
		{"Count", count(o.Count)},
		{"Mean", price(o.Mean)},
		{"Median", price(o.Median)},
		{"Mode", o.ModeLabel()},
		{"Std dev", price(o.Std)},
		{"Min", price(o.Min)},
		{"Max", price(o.Max)},
		{"Q1", price(o.Q1)},
		{"Q3", price(o.Q3)},
		{"IQR", price(o.IQR)},
		{"CV", pct(o.CV)},
		{"Outliers", fmt.Sprintf("%d (fences %s to %s)", len(o.Outliers), price(o.LowerFence()), price(o.UpperFence()))},
	}
	p.table([]string{"Statistic", "Value"}, rows, nil)

	if len(d.ByProduct) == 0 {
		return
	}
	p.section("By product")
	productRows := make([][]string, 0, len(d.ByProduct))
	for _, ps := range d.ByProduct {
		s := ps.Stats
		productRows = append(productRows, []string{
			ps.Product,
			count(s.Count),
			price(s.Mean),
			price(s.Median),
			price(s.Std),
			price(s.Min),
			price(s.Max),
			pct(s.CV),
			strconv.Itoa(len(s.Outliers)),
		})
	}
	p.table([]string{"Product", "Count", "Mean", "Median", "Std", "Min", "Max", "CV", "Outliers"}, productRows,
		map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true})
}

func (p *printer) temporal(t stats.Trend) {
	if len(t.Periods) == 0 {
		p.muted("No records match the current filter.")
		return
	}
	means := make([]float64, len(t.Periods))
	rows := make([][]string, 0, len(t.Periods))
	for i, pm := range t.Periods {
		means[i] = pm.Mean
		change := "-"
		if i > 0 && i-1 < len(t.Variations) {
			change = signedPct(t.Variations[i-1])
		}
		rows = append(rows, []string{pm.Period, price(pm.Mean), count(pm.Count), change})
	}
	p.table([]string{"Period", "Mean", "Records", "Change"}, rows, map[int]bool{1: true, 2: true, 3: true})
	p.line("")
	p.line("Trend: %s  [%s]", Sparkline(means), t.Direction)

	if len(t.Periods) < 2 {
		p.muted("At least two periods are needed for a trend.")
		return
	}
	p.line("Total variation: %s", signedPct(t.TotalVariation))
	p.line("Average volatility: %s", pct(t.AverageVolatility))
	if t.Fit.Valid {
		p.line("Linear fit: price = %.4f * period + %.4f", t.Fit.Slope, t.Fit.Intercept)
	}
	if t.FirstHalfAvg > 0 && t.SecondHalfAvg > 0 {
		seasonal := "no"
		if t.Seasonal {
			seasonal = "yes"
		}
		p.line("Half-year means: S1 %s, S2 %s (seasonal: %s)", price(t.FirstHalfAvg), price(t.SecondHalfAvg), seasonal)
	}

	if len(t.Projection) > 0 {
		p.section("Projection")
		projRows := make([][]string, 0, len(t.Projection))
		for _, pp := range t.Projection {
			projRows = append(projRows, []string{fmt.Sprintf("+%d", pp.Offset+1), price(pp.Price)})
		}
		p.table([]string{"Periods ahead", "Price"}, projRows, map[int]bool{1: true})
	}

	if len(t.ByProduct) > 0 {
		p.section("By product")
		headers := make([]string, 0, len(t.Periods)+1)
		headers = append(headers, "Product")
		rightAlign := make(map[int]bool, len(t.Periods))
		for i, pm := range t.Periods {
			headers = append(headers, pm.Period)
			rightAlign[i+1] = true
		}
		productRows := make([][]string, 0, len(t.ByProduct))
		for _, ps := range t.ByProduct {
			row := []string{ps.Product}
			for _, v := range ps.Values {
				if v.Valid {
					row = append(row, price(v.Value))
				} else {
					row = append(row, "-")
				}
			}
			productRows = append(productRows, row)
		}
		p.table(headers, productRows, rightAlign)
	}
}

func (p *printer) regional(r stats.RegionalAnalysis) {
	if len(r.Ranking) == 0 {
		p.muted("No region has enough records under the current filter.")
		return
	}
	rows := make([][]string, 0, len(r.Ranking))
	for i, rs := range r.Ranking {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			regionLabel(rs.Region),
			price(rs.Mean),
			price(rs.Median),
			price(rs.Std),
			price(rs.Min),
			price(rs.Max),
			count(rs.Count),
		})
	}
	p.table([]string{"#", "Region", "Mean", "Median", "Std", "Min", "Max", "Records"}, rows,
		map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true})
	if r.HasSpread {
		cheap, _ := r.Cheapest()
		expensive, _ := r.MostExpensive()
		p.line("")
		p.line("Spread: %s between %s and %s", pct(r.Spread), regionLabel(cheap.Region), regionLabel(expensive.Region))
	}
}

func (p *printer) correlation(c report.Correlation) {
	if c.PriceTime.N == 0 {
		p.muted("No records match the current filter.")
		return
	}
	p.line("Price vs time: r = %.3f (%s, n = %s)", c.PriceTime.R, c.PriceTime.Strength, count(c.PriceTime.N))
	if len(c.ByProduct) > 0 {
		p.section("By product")
		rows := make([][]string, 0, len(c.ByProduct))
		for _, pc := range c.ByProduct {
			rows = append(rows, []string{pc.Product, fmt.Sprintf("%.3f", pc.Correlation.R), pc.Correlation.Strength, count(pc.Correlation.N)})
		}
		p.table([]string{"Product", "r", "Strength", "Records"}, rows, map[int]bool{1: true, 3: true})
	}
	p.section("Parity")
	if !c.HasParity {
		p.muted("Parity needs records for both products under the current filter.")
		return
	}
	pr := c.Parity
	verdict := pr.Denominator
	if pr.Preferable {
		verdict = pr.Numerator
	}
	p.line("%s / %s = %s (threshold %.0f%%, better buy: %s)", pr.Numerator, pr.Denominator, pct(pr.Ratio), stats.ParityThresholdPct, verdict)
	p.line("%s mean %s, %s mean %s", pr.Numerator, price(pr.NumeratorMean), pr.Denominator, price(pr.DenominatorMean))
}

func (p *printer) insights(ins []insight.Insight) {
	if len(ins) == 0 {
		p.muted("No insights for the current filter.")
		return
	}
	for i, in := range ins {
		if i > 0 {
			p.line("")
		}
		p.lines = append(p.lines, p.styled(subheadingStyle, fmt.Sprintf("%d. %s", i+1, in.Title)))
		p.line("   %s", in.Summary)
		for _, d := range in.Details {
			p.line("   - %s", d)
		}
		if in.Impact != nil {
			p.line("   Estimated impact: %s", money(*in.Impact))
		}
	}
}

func (p *printer) catalog(c report.Catalog) {
	p.line("Periods:  %s", joinOrNone(c.Periods))
	p.line("Products: %s", joinOrNone(c.Products))
	regions := make([]string, len(c.Regions))
	for i, r := range c.Regions {
		regions[i] = regionLabel(r)
	}
	p.line("Regions:  %s", joinOrNone(regions))
	p.line("Brands:   %s", count(len(c.Brands)))
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func regionLabel(region string) string {
	if region == model.RegionUnidentified {
		return "(unidentified)"
	}
	return region
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func price(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func signedPct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f%%", v)
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "R$ " + humanize.FormatFloat("#,###.##", v)
}
