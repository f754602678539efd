// Package pipeline implements the consolidation-and-scoring core: the fixed
// join of the source tables into one denormalized fact table, the
// imputation and feature-derivation passes over it, and the RFM customer
// segmentation. Stages are pure functions from inputs to new outputs; no
// stage mutates a prior stage's rows.
package pipeline

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"insights/internal/dataset"
	"insights/internal/schema"
	"insights/pkg/records"
)

// Fact is the denormalized fact table: one row per fully resolved
// (order, item, payment, review) combination.
type Fact struct {
	Columns []string
	Rows    []records.Record
}

// JoinStat records per-step row counts for diagnostics.
type JoinStat struct {
	Step    string
	In, Out int
}

// SchemaError reports a join key column that could not be resolved in a
// source table. The run must not proceed past it: an unresolvable key would
// silently produce an empty fact table.
type SchemaError struct {
	Step       string
	Table      string
	Candidates []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("join %s: table %q has no column matching %v", e.Step, e.Table, e.Candidates)
}

// joinStep describes one link in the fixed join chain: which table joins in
// and which synonym list resolves the key on both sides.
type joinStep struct {
	table string
	key   []string
	// fold applies accent/case folding to key values before matching; only
	// the category-translation link needs it (Portuguese category names).
	fold bool
}

// The join order mirrors the source consolidation: each step either fans
// rows out (one-to-many) or filters them (unmatched keys drop).
var joinChain = []joinStep{
	{table: "customers", key: schema.CustomerID},
	{table: "order_items", key: schema.OrderID},
	{table: "payments", key: schema.OrderID},
	{table: "reviews", key: schema.OrderID},
	{table: "products", key: schema.ProductID},
	{table: "sellers", key: schema.SellerID},
	{table: "category_translation", key: schema.Category, fold: true},
}

// Join builds the fact table from the loaded snapshot by chained inner
// joins starting from orders. Rows whose key has no match on the other side
// are dropped silently; a missing key column fails fast with a SchemaError.
func Join(snap dataset.Snapshot) (Fact, []JoinStat, error) {
	orders, ok := snap["orders"]
	if !ok {
		return Fact{}, nil, fmt.Errorf("join: snapshot has no orders table")
	}

	fact := Fact{
		Columns: append([]string(nil), orders.Columns...),
		Rows:    orders.Rows,
	}

	var stats []JoinStat
	emptiedAt := ""

	for _, step := range joinChain {
		right, ok := snap[step.table]
		if !ok {
			return Fact{}, stats, fmt.Errorf("join %s: table not loaded", step.table)
		}

		leftKey, ok := schema.Resolve(fact.Columns, step.key)
		if !ok {
			return Fact{}, stats, &SchemaError{Step: step.table, Table: "fact", Candidates: step.key}
		}
		rightKey, ok := schema.Resolve(right.Columns, step.key)
		if !ok {
			return Fact{}, stats, &SchemaError{Step: step.table, Table: step.table, Candidates: step.key}
		}

		in := len(fact.Rows)
		fact = innerJoin(fact, right, leftKey, rightKey, step.fold)
		stats = append(stats, JoinStat{Step: step.table, In: in, Out: len(fact.Rows)})
		log.Printf("join %s: in=%d out=%d", step.table, in, len(fact.Rows))

		if len(fact.Rows) == 0 && emptiedAt == "" {
			emptiedAt = step.table
		}
	}

	if len(fact.Rows) == 0 && len(orders.Rows) > 0 {
		return Fact{}, stats, fmt.Errorf(
			"join: no joinable rows remain (emptied at step %q, key %v)",
			emptiedAt, keyForStep(emptiedAt))
	}

	return fact, stats, nil
}

func keyForStep(table string) []string {
	for _, s := range joinChain {
		if s.table == table {
			return s.key
		}
	}
	return nil
}

// innerJoin matches fact rows against right rows on the resolved key
// columns and emits one merged row per pairing. Right-side columns are
// appended to the fact column order the first time they appear; on a name
// collision the fact value wins, so order-level fields are never
// overwritten by fan-out.
func innerJoin(fact Fact, right dataset.Table, leftKey, rightKey string, fold bool) Fact {
	idx := make(map[string][]records.Record, len(right.Rows))
	for _, r := range right.Rows {
		k, ok := keyValue(r, rightKey, fold)
		if !ok {
			continue
		}
		idx[k] = append(idx[k], r)
	}

	have := make(map[string]bool, len(fact.Columns))
	for _, c := range fact.Columns {
		have[c] = true
	}
	cols := fact.Columns
	for _, c := range right.Columns {
		if !have[c] {
			have[c] = true
			cols = append(cols, c)
		}
	}

	var out []records.Record
	for _, l := range fact.Rows {
		k, ok := keyValue(l, leftKey, fold)
		if !ok {
			continue
		}
		for _, r := range idx[k] {
			merged := l.Clone()
			for c, v := range r {
				if _, exists := merged[c]; !exists {
					merged[c] = v
				}
			}
			out = append(out, merged)
		}
	}

	return Fact{Columns: cols, Rows: out}
}

// keyValue extracts a join key as a string; rows with a missing key fall
// out of the join domain.
func keyValue(r records.Record, col string, fold bool) (string, bool) {
	s, ok := r.String(col)
	if !ok || s == "" {
		return "", false
	}
	if fold {
		return foldKey(s), true
	}
	return s, true
}

// foldT strips combining marks after NFD decomposition, so "bebês" and
// "bebes" resolve to the same translation entry.
var foldT = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lowercases and de-accents a category key.
func foldKey(s string) string {
	out, _, err := transform.String(foldT, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
