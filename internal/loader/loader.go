// Package loader parses price survey CSV files into records.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// DefaultDelimiter matches the ANP survey exports.
const DefaultDelimiter = ';'

var dateLayouts = []string{"02/01/2006", "2006-01-02", "02/01/2006 15:04:05", "2006-01-02T15:04:05Z07:00"}

type field int

const (
	fieldStation field = iota
	fieldProduct
	fieldDate
	fieldPrice
	fieldBrand
	fieldNeighborhood
	fieldRegion
	fieldCount
)

// Header aliases after accent folding and lowercasing.
var headerAliases = map[string]field{
	"cnpj da revenda": fieldStation,
	"cnpj":            fieldStation,
	"station id":      fieldStation,
	"station":         fieldStation,
	"produto":         fieldProduct,
	"product":         fieldProduct,
	"data da coleta":  fieldDate,
	"data":            fieldDate,
	"date":            fieldDate,
	"valor de venda":  fieldPrice,
	"preco":           fieldPrice,
	"price":           fieldPrice,
	"bandeira":        fieldBrand,
	"brand":           fieldBrand,
	"bairro":          fieldNeighborhood,
	"neighborhood":    fieldNeighborhood,
	"regional":        fieldRegion,
	"region":          fieldRegion,
}

var requiredFields = []struct {
	f    field
	name string
}{
	{fieldStation, "station (CNPJ da Revenda)"},
	{fieldProduct, "product (Produto)"},
	{fieldDate, "date (Data da Coleta)"},
	{fieldPrice, "price (Valor de Venda)"},
}

// Options controls CSV parsing.
type Options struct {
	Delimiter rune
	Regions   RegionMap
	Log       logrus.FieldLogger
}

// RowError describes a skipped data row.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result is the outcome of a load.
type Result struct {
	Records []model.Record
	Skipped []*RowError
}

// Load reads a CSV stream. Rows that fail validation are skipped and reported in Result.Skipped;
// only an unreadable header is fatal.
func Load(r io.Reader, opts Options) (Result, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = DefaultDelimiter
	}
	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	columns, err := mapColumns(headers)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			res.skip(opts.Log, &RowError{Line: line, Reason: err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		rec, rerr := parseRow(row, columns, opts.Regions)
		if rerr != nil {
			rerr.Line = line
			res.skip(opts.Log, rerr)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func (r *Result) skip(log logrus.FieldLogger, e *RowError) {
	r.Skipped = append(r.Skipped, e)
	if log != nil {
		log.WithField("line", e.Line).Warnf("skipping row: %s", e.Reason)
	}
}

func mapColumns(headers []string) ([fieldCount]int, error) {
	var columns [fieldCount]int
	for i := range columns {
		columns[i] = -1
	}
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		f, ok := headerAliases[foldKey(h)]
		if !ok || columns[f] >= 0 {
			continue
		}
		columns[f] = i
	}
	var missing []string
	for _, req := range requiredFields {
		if columns[req.f] < 0 {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return columns, fmt.Errorf("CSV header is missing columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseRow(row []string, columns [fieldCount]int, regions RegionMap) (model.Record, *RowError) {
	get := func(f field) string {
		idx := columns[f]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	station := get(fieldStation)
	if station == "" {
		return model.Record{}, &RowError{Reason: "missing station id"}
	}
	product := strings.ToUpper(get(fieldProduct))
	if product == "" {
		return model.Record{}, &RowError{Reason: "missing product"}
	}
	date, err := ParseDate(get(fieldDate))
	if err != nil {
		return model.Record{}, &RowError{Reason: err.Error()}
	}
	price, err := ParsePrice(get(fieldPrice))
	if err != nil {
		return model.Record{}, &RowError{Reason: err.Error()}
	}

	brand := strings.ToUpper(get(fieldBrand))
	if brand == "" {
		brand = "BRANCA"
	}
	return model.Record{
		Date:      date,
		Period:    model.PeriodOf(date),
		Product:   product,
		Price:     price,
		Region:    resolveRegion(get(fieldRegion), get(fieldNeighborhood), regions),
		Brand:     brand,
		StationID: station,
	}, nil
}

func resolveRegion(region, neighborhood string, regions RegionMap) string {
	if r, ok := canonicalRegion(region); ok {
		return r
	}
	return regions.Lookup(neighborhood)
}

// ParsePrice accepts "5,49", "5.49" and "R$ 5,49". The price must be positive.
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("price must be positive, got %v", v)
	}
	return v, nil
}

// ParseDate accepts DD/MM/YYYY and ISO dates.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// foldKey lowercases, strips accents and collapses separators.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer("_", " ", "-", " ").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
