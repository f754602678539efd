// Package export shapes pipeline outputs for downstream reporting. It
// builds the fixed family of pre-aggregated summary tables plus the full
// fact and RFM exports, and writes them through interchangeable sinks. No
// decision logic lives here; the column contracts are the product.
package export

import (
	"fmt"
	"sort"

	"insights/internal/pipeline"
	"insights/internal/schema"
)

// Table is one export-ready table: ordered columns and row values aligned
// to them. Cell values are nil, string, int, float64, bool, or time.Time.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// FactTable flattens the fact table into export form, preserving its
// column order.
func FactTable(fact pipeline.Fact) Table {
	rows := make([][]any, 0, len(fact.Rows))
	for _, r := range fact.Rows {
		row := make([]any, len(fact.Columns))
		for i, c := range fact.Columns {
			row[i] = r[c]
		}
		rows = append(rows, row)
	}
	return Table{Name: "fact", Columns: append([]string(nil), fact.Columns...), Rows: rows}
}

// rfmColumns is the fixed RFM export contract.
var rfmColumns = []string{
	"customer_unique_id",
	"Recency", "Frequency", "Monetary",
	"R_score", "F_score", "M_score",
	"RFM_Score", "Segment",
}

// RFMTable renders the RFM records under the fixed column contract. Input
// order (customer id) is preserved, which keeps exports byte-identical
// across runs over the same snapshot.
func RFMTable(recs []pipeline.RFMRecord) Table {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.CustomerID,
			r.Recency, r.Frequency, r.Monetary,
			r.RScore, r.FScore, r.MScore,
			r.Score, r.Segment,
		})
	}
	return Table{Name: "rfm", Columns: append([]string(nil), rfmColumns...), Rows: rows}
}

// Summaries builds every pre-aggregated summary table from the enriched
// fact table and the RFM records.
func Summaries(fact pipeline.Fact, recs []pipeline.RFMRecord) []Table {
	return []Table{
		MonthlySales(fact),
		CategorySales(fact),
		StateSales(fact),
		OrderStatusCounts(fact),
		PaymentTypeCounts(fact),
		DeliveryByState(fact),
		SegmentCounts(recs),
	}
}

// MonthlySales sums payment value per (purchase_year, purchase_month) with
// a zero-padded year_month key, sorted chronologically.
func MonthlySales(fact pipeline.Fact) Table {
	valueCol, _ := schema.Resolve(fact.Columns, schema.PaymentValue)

	type ym struct{ y, m int }
	sums := map[ym]float64{}
	for _, r := range fact.Rows {
		y, okY := r.Int("purchase_year")
		m, okM := r.Int("purchase_month")
		v, okV := r.Float(valueCol)
		if !okY || !okM || !okV {
			continue
		}
		sums[ym{y, m}] += v
	}

	keys := make([]ym, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].y != keys[j].y {
			return keys[i].y < keys[j].y
		}
		return keys[i].m < keys[j].m
	})

	t := Table{Name: "sales_monthly", Columns: []string{"purchase_year", "purchase_month", "year_month", "payment_value"}}
	for _, k := range keys {
		t.Rows = append(t.Rows, []any{k.y, k.m, fmt.Sprintf("%d-%02d", k.y, k.m), sums[k]})
	}
	return t
}

// CategorySales sums payment value per English category, sorted by value
// descending so reporting consumers can take the head for top-N charts.
func CategorySales(fact pipeline.Fact) Table {
	return groupSum(fact, schema.CategoryEN, "product_category_name_english", "sales_by_category", byValueDesc)
}

// StateSales sums payment value per customer state, sorted by state.
func StateSales(fact pipeline.Fact) Table {
	return groupSum(fact, schema.CustomerState, "customer_state", "sales_by_state", byKeyAsc)
}

// OrderStatusCounts counts fact rows per order status, most frequent first.
func OrderStatusCounts(fact pipeline.Fact) Table {
	return groupCount(fact, schema.OrderStatus, "order_status", "order_status")
}

// PaymentTypeCounts counts fact rows per payment type, most frequent first.
func PaymentTypeCounts(fact pipeline.Fact) Table {
	return groupCount(fact, schema.PaymentType, "payment_type", "payment_methods")
}

// DeliveryByState averages delivery_time_days per customer state over rows
// where the latency is present, sorted by state.
func DeliveryByState(fact pipeline.Fact) Table {
	stateCol, _ := schema.Resolve(fact.Columns, schema.CustomerState)

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range fact.Rows {
		state, ok := r.String(stateCol)
		if !ok {
			continue
		}
		d, ok := r.Float("delivery_time_days")
		if !ok {
			continue
		}
		sums[state] += d
		counts[state]++
	}

	keys := sortedKeys(sums)
	t := Table{Name: "delivery_by_state", Columns: []string{"customer_state", "avg_delivery_days"}}
	for _, k := range keys {
		t.Rows = append(t.Rows, []any{k, sums[k] / float64(counts[k])})
	}
	return t
}

// SegmentCounts counts customers per RFM segment, largest first.
func SegmentCounts(recs []pipeline.RFMRecord) Table {
	counts := map[string]int{}
	for _, r := range recs {
		counts[r.Segment]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	t := Table{Name: "rfm_segment_counts", Columns: []string{"Segment", "count"}}
	for _, k := range keys {
		t.Rows = append(t.Rows, []any{k, counts[k]})
	}
	return t
}

type sortMode int

const (
	byKeyAsc sortMode = iota
	byValueDesc
)

// groupSum sums payment value per value of the resolved key column.
func groupSum(fact pipeline.Fact, keyCands []string, outCol, name string, mode sortMode) Table {
	keyCol, _ := schema.Resolve(fact.Columns, keyCands)
	valueCol, _ := schema.Resolve(fact.Columns, schema.PaymentValue)

	sums := map[string]float64{}
	for _, r := range fact.Rows {
		k, ok := r.String(keyCol)
		if !ok {
			continue
		}
		v, ok := r.Float(valueCol)
		if !ok {
			continue
		}
		sums[k] += v
	}

	keys := sortedKeys(sums)
	if mode == byValueDesc {
		sort.SliceStable(keys, func(i, j int) bool { return sums[keys[i]] > sums[keys[j]] })
	}

	t := Table{Name: name, Columns: []string{outCol, "payment_value"}}
	for _, k := range keys {
		t.Rows = append(t.Rows, []any{k, sums[k]})
	}
	return t
}

// groupCount counts fact rows per value of the resolved key column, sorted
// by count descending then key for determinism.
func groupCount(fact pipeline.Fact, keyCands []string, outCol, name string) Table {
	keyCol, _ := schema.Resolve(fact.Columns, keyCands)

	counts := map[string]int{}
	for _, r := range fact.Rows {
		if k, ok := r.String(keyCol); ok {
			counts[k]++
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	t := Table{Name: name, Columns: []string{outCol, "count"}}
	for _, k := range keys {
		t.Rows = append(t.Rows, []any{k, counts[k]})
	}
	return t
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
