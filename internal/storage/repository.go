// Package storage contains storage-agnostic contracts and utilities for
// the export sinks. Concrete backends live in subpackages and register
// themselves with the factory here; importing internal/storage/all (even
// blank) makes every built-in backend available at runtime.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ColumnKind is a backend-neutral column type; each backend maps it to its
// own SQL type.
type ColumnKind string

const (
	KindText      ColumnKind = "text"
	KindInteger   ColumnKind = "integer"
	KindReal      ColumnKind = "real"
	KindBool      ColumnKind = "bool"
	KindTimestamp ColumnKind = "timestamp"
)

// Column describes one column of an export table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Repository is the sink contract the exporter writes through. A run
// recreates each export table, so CreateTable replaces any existing table
// of the same name.
type Repository interface {
	// CreateTable (re)creates the named table with the given columns.
	CreateTable(ctx context.Context, table string, cols []Column) error

	// CopyFrom bulk-inserts rows aligned to columns and returns the number
	// of rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Close releases the underlying connection resources.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the backend implementation, e.g. "sqlite" or "postgres".
	Kind string

	// DSN is the backend connection string.
	DSN string
}

// Factory constructs a Repository for its registered kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a backend factory under kind. Backends call this from
// init; a duplicate registration panics because it is a wiring bug.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[kind]; dup {
		panic(fmt.Sprintf("storage: duplicate backend registration for %q", kind))
	}
	factories[kind] = f
}

// New opens a Repository of the configured kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
