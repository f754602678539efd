package export

import (
	"context"
	"fmt"
	"time"

	"insights/internal/storage"
)

// SQLWriter materializes export tables through a storage.Repository. Each
// table is recreated and bulk-loaded in batches.
type SQLWriter struct {
	Repo        storage.Repository
	TablePrefix string
	BatchSize   int
}

// Write recreates the table and loads every row.
func (w *SQLWriter) Write(ctx context.Context, t Table) error {
	name := w.TablePrefix + t.Name

	cols := inferColumns(t)
	if err := w.Repo.CreateTable(ctx, name, cols); err != nil {
		return fmt.Errorf("export: %s: %w", name, err)
	}

	n, err := storage.LoadBatches(ctx, w.Repo, name, t.Columns, t.Rows, w.BatchSize)
	if err != nil {
		return err
	}
	if n != int64(len(t.Rows)) {
		return fmt.Errorf("export: %s: inserted %d of %d rows", name, n, len(t.Rows))
	}
	return nil
}

// inferColumns derives backend-neutral column kinds from the first non-nil
// value in each column. A column that is nil throughout falls back to text,
// which every backend can hold.
func inferColumns(t Table) []storage.Column {
	cols := make([]storage.Column, len(t.Columns))
	for i, name := range t.Columns {
		cols[i] = storage.Column{Name: name, Kind: storage.KindText}
		for _, row := range t.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			cols[i].Kind = kindOf(row[i])
			break
		}
	}
	return cols
}

func kindOf(v any) storage.ColumnKind {
	switch v.(type) {
	case int, int64:
		return storage.KindInteger
	case float64:
		return storage.KindReal
	case bool:
		return storage.KindBool
	case time.Time:
		return storage.KindTimestamp
	default:
		return storage.KindText
	}
}
