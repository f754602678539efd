// Package dataset loads the source tables into memory. The pipeline is a
// batch transform over a complete snapshot: every table is fully
// materialized here before any join starts, so later stages never block on
// I/O mid-computation.
package dataset

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"insights/internal/config"
	csvparser "insights/internal/parser/csv"
	"insights/pkg/records"
)

// Table is one fully loaded source table. Columns preserves file order so
// the schema resolver and exporters see columns the way the source wrote
// them.
type Table struct {
	Name    string
	Columns []string
	Rows    []records.Record

	// Skipped counts rows dropped by the parser (malformed lines, width
	// mismatches). Surfaced as a data-quality signal, not an error.
	Skipped int
}

// Snapshot holds every loaded source table keyed by logical name.
type Snapshot map[string]Table

// Load reads a single CSV file into a Table.
func Load(name, path string, opt csvparser.Options) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("dataset %s: %w", name, err)
	}
	defer f.Close()

	rows, cols, skipped, err := csvparser.NewParser(opt).Parse(f)
	if err != nil {
		return Table{}, fmt.Errorf("dataset %s: %w", name, err)
	}
	if skipped > 0 {
		log.Printf("dataset %s: skipped=%d rows=%d", name, skipped, len(rows))
	}
	return Table{Name: name, Columns: cols, Rows: rows, Skipped: skipped}, nil
}

// LoadAll loads every configured source table concurrently and returns only
// when all of them are in memory. A failure to read or parse any required
// table fails the whole load; the join cannot run on a partial snapshot.
func LoadAll(ctx context.Context, src config.Sources, opt csvparser.Options) (Snapshot, error) {
	paths := src.Required()
	if src.Geolocation != "" {
		paths = append(paths, config.NamedPath{Name: "geolocation", Path: src.Geolocation})
	}

	var mu sync.Mutex
	snap := make(Snapshot, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for _, np := range paths {
		np := np
		g.Go(func() error {
			t, err := Load(np.Name, np.Path, opt)
			if err != nil {
				return err
			}
			mu.Lock()
			snap[np.Name] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// SkippedTotal sums parser-skipped rows across all tables.
func (s Snapshot) SkippedTotal() int {
	total := 0
	for _, t := range s {
		total += t.Skipped
	}
	return total
}
