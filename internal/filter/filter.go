// Package filter reduces the full record set to the active view's subset.
package filter

import "github.com/verte-zerg/fuelstat/internal/model"

// Result is the outcome of applying a FilterSpec.
// The zero value means "not yet filtered" and is distinct from an applied filter that matched nothing.
type Result struct {
	Records []model.Record
	applied bool
}

// Applied reports whether the result came from Apply.
func (r Result) Applied() bool {
	return r.applied
}

// Len returns the number of matching records.
func (r Result) Len() int {
	return len(r.Records)
}

// Empty reports whether an applied filter matched no records.
func (r Result) Empty() bool {
	return r.applied && len(r.Records) == 0
}

// Apply returns the records passing every active criterion, in input order.
// An empty Products set matches any product.
func Apply(records []model.Record, spec model.FilterSpec) Result {
	spec = spec.Normalized()
	var products map[string]struct{}
	if len(spec.Products) > 0 {
		products = make(map[string]struct{}, len(spec.Products))
		for _, p := range spec.Products {
			products[p] = struct{}{}
		}
	}

	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if spec.Period != model.All && rec.Period != spec.Period {
			continue
		}
		if products != nil {
			if _, ok := products[rec.Product]; !ok {
				continue
			}
		}
		if spec.Region != model.All && rec.Region != spec.Region {
			continue
		}
		out = append(out, rec)
	}
	return Result{Records: out, applied: true}
}
