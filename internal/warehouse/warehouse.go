// Package warehouse loads the published star schema into a relational
// database for SQL access.
//
// Concrete backends register themselves by kind at init time; callers open
// repositories through New and stay backend-agnostic.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and parameterizes a warehouse backend.
type Config struct {
	Kind string // registered backend name, e.g. "postgres"
	DSN  string // backend connection string
}

// Repository is a relational destination for star-schema tables.
//
// Replace swaps a table's full contents inside one transaction, so the old
// rows are only gone once every new row made it in. EnsureTable applies the
// backend's CREATE TABLE IF NOT EXISTS for one of the known tables.
type Repository interface {
	EnsureTable(ctx context.Context, table string) error
	Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Close()
}

// Factory constructs a Repository from Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under the given kind. Re-registering a
// kind replaces the previous factory, which tests use to install fakes.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported warehouse.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered backend names, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
