package mssql

import (
	"context"

	"songlake/internal/warehouse"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo adapts *mssql.Repository to the warehouse.Repository
// interface, adding a Close method that calls the cleanup function returned
// by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ warehouse.Repository = (*wrappedRepo)(nil)

func init() {
	warehouse.Register("mssql", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}
