package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"insights/internal/schema"
	"insights/pkg/records"
)

// RFMRecord is one customer's Recency/Frequency/Monetary profile with its
// quartile scores and segment label. Computed once per run; never partially
// updated.
type RFMRecord struct {
	CustomerID string
	Recency    int     // days since last purchase, relative to the snapshot
	Frequency  int     // distinct orders
	Monetary   float64 // payment value over distinct (order, payment) pairs
	RScore     int
	FScore     int
	MScore     int
	Score      string // concatenated three-digit score, e.g. "443"
	Segment    string
}

// segmentRules maps leading score-string prefixes to segment labels, in
// match order. Adding a segment is a table edit, not new branching logic.
var segmentRules = []struct {
	prefixes []string
	label    string
}{
	{[]string{"44", "43"}, "Champions"},
	{[]string{"34", "33"}, "Loyal"},
}

// segmentDefault catches every score the rule table does not claim.
const segmentDefault = "At Risk"

// SegmentFor returns the label for a score string by ordered prefix match.
func SegmentFor(score string) string {
	for _, rule := range segmentRules {
		for _, p := range rule.prefixes {
			if len(score) >= len(p) && score[:len(p)] == p {
				return rule.label
			}
		}
	}
	return segmentDefault
}

// customerAgg accumulates one customer's raw metrics during the group pass.
type customerAgg struct {
	last     time.Time
	orders   map[string]struct{}
	payments map[uint64]struct{}
	monetary float64
}

// ComputeRFM aggregates the enriched fact table into one RFMRecord per
// unique customer.
//
// The snapshot date is the maximum purchase timestamp across all fact rows
// plus one day, fixed once for the whole run. Monetary sums payment values
// over distinct (order, payment) pairs so item-level fan-out cannot double
// count a payment. Results are sorted by customer id, which also serves as
// the deterministic tie-break order for binning.
func ComputeRFM(fact Fact) ([]RFMRecord, error) {
	custCol, ok := schema.Resolve(fact.Columns, schema.CustomerUnique)
	if !ok {
		custCol, ok = schema.Resolve(fact.Columns, schema.CustomerID)
	}
	if !ok {
		return nil, fmt.Errorf("rfm: no customer id column among %v", schema.CustomerUnique)
	}
	purchaseCol, ok := schema.Resolve(fact.Columns, schema.PurchaseTS)
	if !ok {
		return nil, fmt.Errorf("rfm: no purchase timestamp column among %v", schema.PurchaseTS)
	}
	orderCol, ok := schema.Resolve(fact.Columns, schema.OrderID)
	if !ok {
		return nil, fmt.Errorf("rfm: no order id column among %v", schema.OrderID)
	}
	valueCol, ok := schema.Resolve(fact.Columns, schema.PaymentValue)
	if !ok {
		// Monetary without a value column would silently score every
		// customer at zero.
		return nil, fmt.Errorf("rfm: no payment value column among %v", schema.PaymentValue)
	}
	seqCol, _ := schema.Resolve(fact.Columns, schema.PaymentSeq)
	typeCol, _ := schema.Resolve(fact.Columns, schema.PaymentType)

	var snapshot time.Time
	for _, r := range fact.Rows {
		if t, ok := r.Time(purchaseCol); ok && t.After(snapshot) {
			snapshot = t
		}
	}
	if snapshot.IsZero() {
		return nil, fmt.Errorf("rfm: no parseable purchase timestamps in %d fact rows", len(fact.Rows))
	}
	snapshot = snapshot.Add(24 * time.Hour)

	aggs := map[string]*customerAgg{}
	for _, r := range fact.Rows {
		cust, ok := r.String(custCol)
		if !ok {
			continue
		}
		purchase, ok := r.Time(purchaseCol)
		if !ok {
			continue
		}
		orderID, ok := r.String(orderCol)
		if !ok {
			continue
		}

		a := aggs[cust]
		if a == nil {
			a = &customerAgg{
				orders:   map[string]struct{}{},
				payments: map[uint64]struct{}{},
			}
			aggs[cust] = a
		}

		if purchase.After(a.last) {
			a.last = purchase
		}
		a.orders[orderID] = struct{}{}

		if value, ok := r.Float(valueCol); ok {
			key := paymentKey(r, orderID, seqCol, typeCol, value)
			if _, dup := a.payments[key]; !dup {
				a.payments[key] = struct{}{}
				a.monetary += value
			}
		}
	}

	out := make([]RFMRecord, 0, len(aggs))
	for cust, a := range aggs {
		out = append(out, RFMRecord{
			CustomerID: cust,
			Recency:    int(snapshot.Sub(a.last) / (24 * time.Hour)),
			Frequency:  len(a.orders),
			Monetary:   a.monetary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })

	score(out)

	for i := range out {
		out[i].Score = fmt.Sprintf("%d%d%d", out[i].RScore, out[i].FScore, out[i].MScore)
		out[i].Segment = SegmentFor(out[i].Score)
	}
	return out, nil
}

// paymentKey identifies one payment row within an order. The sequential
// column is the split-payment discriminator when the source has it;
// otherwise (type, value) approximates it.
func paymentKey(r records.Record, orderID, seqCol, typeCol string, value float64) uint64 {
	disc := ""
	if seqCol != "" {
		disc, _ = r.String(seqCol)
	}
	if disc == "" && typeCol != "" {
		t, _ := r.String(typeCol)
		disc = fmt.Sprintf("%s|%.2f", t, value)
	}
	return xxh3.HashString(orderID + "\x1f" + disc)
}

// score fills the three quartile scores in place. recs must already be
// sorted by CustomerID: that order is the secondary sort key that makes
// tied-value bin assignment reproducible.
func score(recs []RFMRecord) {
	n := len(recs)
	if n == 0 {
		return
	}

	// Recency: smallest value (most recent) scores 4; equal values share a
	// bin, so heavily tied distributions collapse to fewer levels.
	rb := valueBins(n, func(i int) float64 { return float64(recs[i].Recency) })
	// Frequency: rank-first semantics; ties split across bins but in the
	// deterministic customer-id order.
	fb := rankBins(n, func(i int) float64 { return float64(recs[i].Frequency) })
	// Monetary: equal values share a bin, like Recency.
	mb := valueBins(n, func(i int) float64 { return recs[i].Monetary })

	for i := range recs {
		recs[i].RScore = 4 - rb[i]
		recs[i].FScore = fb[i] + 1
		recs[i].MScore = mb[i] + 1
	}
}

// sortedOrder returns index positions stable-sorted by (value, position).
// Positions are pre-sorted by customer id, so the secondary key is the
// deterministic tie-break.
func sortedOrder(n int, value func(int) float64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return value(order[a]) < value(order[b])
	})
	return order
}

// rankBins assigns bin 0..3 purely by sorted position. With fewer than four
// records some bins are simply unoccupied.
func rankBins(n int, value func(int) float64) []int {
	bins := make([]int, n)
	for pos, idx := range sortedOrder(n, value) {
		bins[idx] = pos * 4 / n
	}
	return bins
}

// valueBins assigns positional bins like rankBins, then forces equal values
// into the same (first-seen) bin. When the distribution has too few
// distinct values for four cut points, bins collapse instead of erroring.
func valueBins(n int, value func(int) float64) []int {
	bins := make([]int, n)
	order := sortedOrder(n, value)
	for pos, idx := range order {
		b := pos * 4 / n
		if pos > 0 {
			prev := order[pos-1]
			if value(idx) == value(prev) {
				b = bins[prev]
			}
		}
		bins[idx] = b
	}
	return bins
}
