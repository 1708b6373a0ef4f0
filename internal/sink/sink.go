// Package sink publishes star-schema tables to the lake as partitioned
// parquet files.
//
// Writes are staged: every partition file is materialized in a local scratch
// directory first. Only once the whole table exists on disk is the previous
// table prefix deleted and the new files uploaded, so a job that dies
// mid-write leaves the old table intact.
package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go/parquet"

	"songlake/internal/lake"
)

// Row is one record of a publishable table. PartitionPath returns the
// partition directory relative to the table root ("year=2018/month=11"),
// or "" for unpartitioned tables.
type Row interface {
	PartitionPath() string
}

// partFile is the single data file written per partition.
const partFile = "part-00000.parquet"

// WriteTable stages rows as one parquet file per partition under a scratch
// directory, then replaces the table prefix in st with the staged files.
// Returns the number of partition files published.
func WriteTable[T Row](ctx context.Context, st lake.Store, table string, rows []T, codec parquet.CompressionCodec) (int, error) {
	start := time.Now()
	groups, order := groupByPartition(rows)

	stage, err := os.MkdirTemp("", "songlake-"+path.Base(table)+"-")
	if err != nil {
		return 0, fmt.Errorf("stage %s: %w", table, err)
	}
	defer os.RemoveAll(stage)

	keys := make([]string, 0, len(order))
	for _, part := range order {
		key := lake.JoinKey(part, partFile)
		if err := writeParquet(filepath.Join(stage, filepath.FromSlash(key)), groups[part], codec); err != nil {
			return 0, fmt.Errorf("write %s/%s: %w", table, key, err)
		}
		keys = append(keys, key)
	}

	// The old table survives until every new file exists on local disk.
	if err := st.DeletePrefix(ctx, table); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	for _, key := range keys {
		if err := publish(ctx, st, filepath.Join(stage, filepath.FromSlash(key)), lake.JoinKey(table, key)); err != nil {
			return 0, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"table":      table,
		"rows":       len(rows),
		"partitions": len(keys),
		"elapsed":    time.Since(start).Truncate(time.Millisecond).String(),
	}).Info("table published")

	return len(keys), nil
}

// groupByPartition splits rows by partition path. Partition order follows
// first appearance in rows, which keeps output layout deterministic for
// deterministic input.
func groupByPartition[T Row](rows []T) (map[string][]T, []string) {
	groups := make(map[string][]T)
	order := make([]string, 0, 8)
	for _, r := range rows {
		p := r.PartitionPath()
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}
		groups[p] = append(groups[p], r)
	}
	return groups, order
}

func publish(ctx context.Context, st lake.Store, src, key string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	defer f.Close()
	if err := st.Put(ctx, key, f); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}
