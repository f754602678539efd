// Package main wires the consolidation-and-scoring pipeline end-to-end. This
// file keeps the CLI layer thin: it sequences the stages and picks an export
// sink, but never imports database drivers or backend-specific packages
// directly.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"insights/internal/config"
	"insights/internal/dataset"
	"insights/internal/export"
	"insights/internal/metrics"
	"insights/internal/pipeline"
	"insights/internal/storage"

	csvparser "insights/internal/parser/csv"
)

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}

	loadAllFn = dataset.LoadAll
)

// run executes a full load → join → impute → derive → score → export pass
// over one configured snapshot.
//
// Stats reported per run:
//
//   - parse_skipped:    malformed source rows the CSV reader dropped
//   - fact_rows:        rows in the consolidated fact table
//   - bad_timestamps:   timestamp values present but unparseable
//   - customers_scored: customers that received an RFM score
//   - exported:         rows written across all output tables
func run(ctx context.Context, p config.Pipeline) error {
	opt := parserOptions(p.Parser)

	var snap dataset.Snapshot
	if err := step(p.Job, "load", func() error {
		var err error
		snap, err = loadAllFn(ctx, p.Sources, opt)
		return err
	}); err != nil {
		return err
	}
	metrics.RecordRows(p.Job, "parse_skipped", int64(snap.SkippedTotal()))

	var fact pipeline.Fact
	if err := step(p.Job, "join", func() error {
		var err error
		fact, _, err = pipeline.Join(snap)
		return err
	}); err != nil {
		return err
	}
	metrics.RecordRows(p.Job, "fact_rows", int64(len(fact.Rows)))

	if err := step(p.Job, "impute", func() error {
		fact = pipeline.Impute(fact)
		return nil
	}); err != nil {
		return err
	}

	var deriveStats pipeline.DeriveStats
	if err := step(p.Job, "derive", func() error {
		fact, deriveStats = pipeline.Derive(fact)
		return nil
	}); err != nil {
		return err
	}
	metrics.RecordRows(p.Job, "bad_timestamps", int64(deriveStats.BadTimestamps))

	var recs []pipeline.RFMRecord
	if err := step(p.Job, "rfm", func() error {
		var err error
		recs, err = pipeline.ComputeRFM(fact)
		return err
	}); err != nil {
		return err
	}
	metrics.RecordRows(p.Job, "customers_scored", int64(len(recs)))

	tables := append(
		[]export.Table{export.FactTable(fact), export.RFMTable(recs)},
		export.Summaries(fact, recs)...,
	)

	var exported int64
	if err := step(p.Job, "export", func() error {
		var err error
		exported, err = writeTables(ctx, p.Export, tables)
		return err
	}); err != nil {
		return err
	}
	metrics.RecordRows(p.Job, "exported", exported)

	log.Printf(
		"summary: fact_rows=%d customers=%d tables=%d exported_rows=%d skipped=%d",
		len(fact.Rows), len(recs), len(tables), exported, snap.SkippedTotal(),
	)
	return nil
}

// writeTables sends every export table through the configured sink and
// returns the total row count written.
func writeTables(ctx context.Context, cfg config.Export, tables []export.Table) (int64, error) {
	var total int64

	switch cfg.Kind {
	case "csv":
		w, err := export.NewCSVWriter(cfg.Dir)
		if err != nil {
			return 0, err
		}
		for _, t := range tables {
			if err := w.Write(t); err != nil {
				return total, err
			}
			total += int64(len(t.Rows))
			log.Printf("export %s: rows=%d", t.Name, len(t.Rows))
		}
		return total, nil

	case "sqlite", "postgres":
		repo, err := newRepositoryFn(ctx, storage.Config{Kind: cfg.Kind, DSN: cfg.DB.DSN})
		if err != nil {
			return 0, fmt.Errorf("init repo: %w", err)
		}
		defer repo.Close()

		w := &export.SQLWriter{Repo: repo, TablePrefix: cfg.DB.TablePrefix}
		for _, t := range tables {
			if err := w.Write(ctx, t); err != nil {
				return total, err
			}
			total += int64(len(t.Rows))
			log.Printf("export %s%s: rows=%d", cfg.DB.TablePrefix, t.Name, len(t.Rows))
		}
		return total, nil

	default:
		return 0, fmt.Errorf("unsupported export.kind=%s", cfg.Kind)
	}
}

// step runs one pipeline stage, records its outcome, and wraps any failure
// with the stage name.
func step(job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, name, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Printf("%s: done in %s", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}

// parserOptions maps parser configuration onto concrete CSV reader options.
func parserOptions(p config.Parser) csvparser.Options {
	return csvparser.Options{
		HasHeader: p.Options.Bool("has_header", true),
		Comma:     p.Options.Rune("comma", ','),
		TrimSpace: p.Options.Bool("trim_space", true),
		HeaderMap: p.Options.StringMap("header_map"),
	}
}
