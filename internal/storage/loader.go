// This file implements a generic batched loader: it slices a fully
// materialized row set into batches and pushes each through the
// repository's bulk-insert path, logging progress with running totals and
// instantaneous rows/sec.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// DefaultBatchSize is used when callers pass a non-positive batch size.
const DefaultBatchSize = 500

// LoadBatches inserts rows into table through repo in batches of batchSize
// and returns the total number of rows reported inserted. It stops at the
// first failed batch and returns the rows inserted so far with the error.
func LoadBatches(
	ctx context.Context,
	repo Repository,
	table string,
	columns []string,
	rows [][]any,
	batchSize int,
) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("loader: columns must not be empty")
	}

	var (
		total   int64
		batches int64
		start   = time.Now()
	)

	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := lo + batchSize
		if hi > len(rows) {
			hi = len(rows)
		}

		flushStart := time.Now()
		n, err := repo.CopyFrom(ctx, table, columns, rows[lo:hi])
		total += n
		if err != nil {
			log.Printf("loader: %s: insert failed after=%d total=%d err=%v", table, n, total, err)
			return total, fmt.Errorf("loader: %s: %w", table, err)
		}

		batches++
		elapsed := time.Since(flushStart)
		rps := float64(0)
		if elapsed > 0 {
			rps = float64(n) / elapsed.Seconds()
		}
		log.Printf("loader: %s batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			table, batches, rps, n, total, time.Since(start).Truncate(time.Millisecond))
	}

	return total, nil
}
