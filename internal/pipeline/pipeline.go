// Package pipeline orchestrates a full run: read the raw catalog and event
// logs, derive the five star-schema tables in memory, publish them to the
// lake as parquet, and optionally load a relational warehouse.
//
// A run is all-or-nothing: every failure aborts it with an error, and each
// table's previous data survives until its replacement is fully staged.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go/parquet"
	"golang.org/x/sync/errgroup"

	"songlake/internal/catalog"
	"songlake/internal/config"
	"songlake/internal/events"
	"songlake/internal/facts"
	"songlake/internal/lake"
	"songlake/internal/metrics"
	"songlake/internal/schema"
	"songlake/internal/sink"
	"songlake/internal/warehouse"
)

// newRepository is a test hook that points to warehouse.New by default.
var newRepository = warehouse.New

// Summary reports what one run produced.
type Summary struct {
	RunID      string
	Songs      int
	Artists    int
	Users      int
	Times      int
	Songplays  int
	Partitions int
	Elapsed    time.Duration
}

// Run executes one complete run for cfg and returns its Summary.
func Run(ctx context.Context, cfg config.Config) (Summary, error) {
	runStart := time.Now()
	runID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"run_id": runID, "job": cfg.Job})

	loc, err := cfg.Location()
	if err != nil {
		return Summary{}, err
	}
	creds := lake.Credentials{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	}
	in, err := lake.Open(cfg.InputRoot, creds)
	if err != nil {
		return Summary{}, fmt.Errorf("open input root: %w", err)
	}
	out, err := lake.Open(cfg.OutputRoot, creds)
	if err != nil {
		return Summary{}, fmt.Errorf("open output root: %w", err)
	}
	codec, err := sink.Codec(cfg.Sink.Compression)
	if err != nil {
		return Summary{}, err
	}

	log.WithFields(logrus.Fields{
		"input_root":  cfg.InputRoot,
		"output_root": cfg.OutputRoot,
		"time_zone":   loc.String(),
	}).Info("run started")

	// Extract: the catalog and the event logs are independent reads.
	var (
		raw   []schema.SongRecord
		plays []schema.PlayEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		raw, err = catalog.ReadRaw(gctx, in)
		metrics.RecordStep(cfg.Job, "read_catalog", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		log.WithField("records", len(raw)).Info("catalog read")
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		plays, err = events.Read(gctx, in, loc)
		metrics.RecordStep(cfg.Job, "read_events", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		log.WithField("events", len(plays)).Info("events read")
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	// Transform: pure in-memory projections of what was read.
	start := time.Now()
	ds := schema.Dataset{
		Songs:     catalog.Songs(raw),
		Artists:   catalog.Artists(raw),
		Users:     events.Users(plays),
		Times:     events.TimeDims(plays),
		Songplays: facts.Build(plays, raw),
	}
	metrics.RecordStep(cfg.Job, "transform", nil, time.Since(start))
	log.WithFields(logrus.Fields{
		"songs":     len(ds.Songs),
		"artists":   len(ds.Artists),
		"users":     len(ds.Users),
		"times":     len(ds.Times),
		"songplays": len(ds.Songplays),
	}).Info("tables derived")

	// Publish: each table independently, bounded by TableWorkers.
	var partitions atomic.Int64
	pub, pctx := errgroup.WithContext(ctx)
	if w := cfg.Runtime.TableWorkers; w > 0 {
		pub.SetLimit(w)
	}
	pub.Go(func() error {
		n, err := publishTable(pctx, cfg.Job, out, schema.TableSongs, ds.Songs, codec)
		partitions.Add(int64(n))
		return err
	})
	pub.Go(func() error {
		n, err := publishTable(pctx, cfg.Job, out, schema.TableArtists, ds.Artists, codec)
		partitions.Add(int64(n))
		return err
	})
	pub.Go(func() error {
		n, err := publishTable(pctx, cfg.Job, out, schema.TableUsers, ds.Users, codec)
		partitions.Add(int64(n))
		return err
	})
	pub.Go(func() error {
		n, err := publishTable(pctx, cfg.Job, out, schema.TableTime, ds.Times, codec)
		partitions.Add(int64(n))
		return err
	})
	pub.Go(func() error {
		n, err := publishTable(pctx, cfg.Job, out, schema.TableSongplays, ds.Songplays, codec)
		partitions.Add(int64(n))
		return err
	})
	if err := pub.Wait(); err != nil {
		return Summary{}, err
	}

	// Warehouse: optional relational load after the lake is published.
	if cfg.Warehouse.Kind != "" {
		start := time.Now()
		err := loadWarehouse(ctx, cfg, ds)
		metrics.RecordStep(cfg.Job, "warehouse_load", err, time.Since(start))
		if err != nil {
			return Summary{}, fmt.Errorf("warehouse: %w", err)
		}
	}

	sum := Summary{
		RunID:      runID,
		Songs:      len(ds.Songs),
		Artists:    len(ds.Artists),
		Users:      len(ds.Users),
		Times:      len(ds.Times),
		Songplays:  len(ds.Songplays),
		Partitions: int(partitions.Load()),
		Elapsed:    time.Since(runStart),
	}
	log.WithFields(logrus.Fields{
		"partitions": sum.Partitions,
		"elapsed":    sum.Elapsed.Truncate(time.Millisecond).String(),
	}).Info("run complete")
	return sum, nil
}

func publishTable[T sink.Row](ctx context.Context, job string, st lake.Store, table string, rows []T, codec parquet.CompressionCodec) (int, error) {
	start := time.Now()
	n, err := sink.WriteTable(ctx, st, table, rows, codec)
	metrics.RecordStep(job, "publish_"+table, err, time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", table, err)
	}
	metrics.RecordTableRows(job, table, int64(len(rows)))
	metrics.RecordPartitions(job, table, int64(n))
	return n, nil
}

func loadWarehouse(ctx context.Context, cfg config.Config, ds schema.Dataset) error {
	repo, err := newRepository(ctx, warehouse.Config{
		Kind: cfg.Warehouse.Kind,
		DSN:  cfg.Warehouse.DSN,
	})
	if err != nil {
		return err
	}
	defer repo.Close()
	return warehouse.Load(ctx, repo, ds)
}
