package pipeline

import (
	"log"
	"time"

	"insights/internal/schema"
	"insights/pkg/records"
)

// tsLayouts are tried in order when normalizing timestamp strings. The
// first layout is the native export format.
var tsLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// tsFields lists every timestamp column the pipeline normalizes, by synonym
// list. Columns absent from the fact table are skipped.
var tsFields = [][]string{
	schema.PurchaseTS,
	schema.ApprovedTS,
	schema.CarrierTS,
	schema.CustomerDeliverTS,
	schema.EstimatedTS,
	{"shipping_limit_date"},
	{"review_creation_date"},
	{"review_answer_timestamp"},
}

// DeriveStats reports data-quality counts from the derivation pass.
type DeriveStats struct {
	// BadTimestamps counts values that were present but unparseable under
	// every known layout. Each becomes missing, never an error.
	BadTimestamps int
}

// Derive returns a new fact table with timestamps normalized to time.Time
// and the delivery latency and calendar features appended. The input fact
// is not mutated.
func Derive(fact Fact) (Fact, DeriveStats) {
	var resolved []string
	for _, cands := range tsFields {
		if col, ok := schema.Resolve(fact.Columns, cands); ok {
			resolved = append(resolved, col)
		}
	}

	purchaseCol, _ := schema.Resolve(fact.Columns, schema.PurchaseTS)
	deliveredCol, _ := schema.Resolve(fact.Columns, schema.CustomerDeliverTS)

	out := Fact{
		Columns: append(append([]string(nil), fact.Columns...),
			"delivery_time_days", "purchase_year", "purchase_month", "purchase_dayofweek"),
		Rows: make([]records.Record, 0, len(fact.Rows)),
	}

	var stats DeriveStats
	for _, row := range fact.Rows {
		r := row.Clone()

		for _, col := range resolved {
			v, present := r[col]
			if !present || v == nil {
				continue
			}
			if _, already := v.(time.Time); already {
				continue
			}
			s, ok := r.String(col)
			if !ok {
				continue
			}
			if t, ok := parseTimestamp(s); ok {
				r[col] = t
			} else {
				r[col] = nil
				stats.BadTimestamps++
			}
		}

		r["delivery_time_days"] = nil
		r["purchase_year"] = nil
		r["purchase_month"] = nil
		r["purchase_dayofweek"] = nil

		purchase, haveP := r.Time(purchaseCol)
		if haveP {
			r["purchase_year"] = purchase.Year()
			r["purchase_month"] = int(purchase.Month())
			r["purchase_dayofweek"] = purchase.Weekday().String()
		}
		if delivered, haveD := r.Time(deliveredCol); haveD && haveP {
			r["delivery_time_days"] = int(delivered.Sub(purchase) / (24 * time.Hour))
		}

		out.Rows = append(out.Rows, r)
	}

	if stats.BadTimestamps > 0 {
		log.Printf("derive: unparseable_timestamps=%d", stats.BadTimestamps)
	}
	return out, stats
}

// parseTimestamp tries each known layout against s.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range tsLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
