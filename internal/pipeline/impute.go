package pipeline

import (
	"sort"

	"insights/internal/schema"
	"insights/pkg/records"
)

// Sentinel written into missing free-text review fields. Reporting-only:
// no analytic step treats it as a genuine customer response.
const noComment = "No Comment"

// dimensionFields are the numeric product fields eligible for per-category
// median imputation.
var dimensionFields = []string{
	"product_weight_g",
	"product_length_cm",
	"product_height_cm",
	"product_width_cm",
}

// textFields are the review fields that get the display sentinel.
var textFields = []string{
	"review_comment_title",
	"review_comment_message",
}

// presenceFlags pairs each derived boolean column with the synonym list of
// the lifecycle timestamp it reflects. Timestamps themselves are never
// imputed; the flags carry the signal instead.
var presenceFlags = []struct {
	column string
	ts     []string
}{
	{"is_order_approved", schema.ApprovedTS},
	{"is_delivered_to_carrier", schema.CarrierTS},
	{"is_delivered_to_customer", schema.CustomerDeliverTS},
}

// Impute returns a new fact table with category-aware numeric fills, text
// sentinels, and timestamp presence flags. The input fact is not mutated.
func Impute(fact Fact) Fact {
	catCol, haveCat := schema.Resolve(fact.Columns, schema.CategoryEN)
	if !haveCat {
		catCol, haveCat = schema.Resolve(fact.Columns, schema.Category)
	}

	// Per-category medians, computed over present values only. A category
	// where every row misses a field gets no entry: the value stays missing
	// rather than borrowing a global median.
	medians := make(map[string]map[string]float64, len(dimensionFields))
	if haveCat {
		for _, field := range dimensionFields {
			medians[field] = categoryMedians(fact.Rows, catCol, field)
		}
	}

	tsCols := make([]string, len(presenceFlags))
	for i, pf := range presenceFlags {
		tsCols[i], _ = schema.Resolve(fact.Columns, pf.ts)
	}

	out := Fact{
		Columns: append([]string(nil), fact.Columns...),
		Rows:    make([]records.Record, 0, len(fact.Rows)),
	}
	for _, pf := range presenceFlags {
		out.Columns = append(out.Columns, pf.column)
	}

	for _, row := range fact.Rows {
		r := row.Clone()

		if haveCat {
			if cat, ok := r.String(catCol); ok {
				for _, field := range dimensionFields {
					if r.Has(field) {
						continue
					}
					if m, ok := medians[field][cat]; ok {
						r[field] = m
					}
				}
			}
		}

		for _, field := range textFields {
			if _, present := r[field]; present && !r.Has(field) {
				r[field] = noComment
			}
		}

		for i, pf := range presenceFlags {
			r[pf.column] = tsCols[i] != "" && r.Has(tsCols[i])
		}

		out.Rows = append(out.Rows, r)
	}

	return out
}

// categoryMedians computes the median of field per category value, skipping
// missing and unparseable entries.
func categoryMedians(rows []records.Record, catCol, field string) map[string]float64 {
	groups := map[string][]float64{}
	for _, r := range rows {
		cat, ok := r.String(catCol)
		if !ok {
			continue
		}
		if v, ok := r.Float(field); ok {
			groups[cat] = append(groups[cat], v)
		}
	}

	out := make(map[string]float64, len(groups))
	for cat, vals := range groups {
		out[cat] = median(vals)
	}
	return out
}

// median returns the middle value of vals; for even counts, the mean of the
// two middle values. vals must be non-empty and is sorted in place.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
