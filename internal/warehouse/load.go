package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"songlake/internal/schema"
)

// Load replaces the five star-schema tables with the dataset's rows.
// Dimensions load before the fact table so its references land on rows that
// already exist.
func Load(ctx context.Context, repo Repository, ds schema.Dataset) error {
	if err := loadTable(ctx, repo, schema.TableSongs, schema.SongColumns, valueRows(ds.Songs, schema.Song.Values)); err != nil {
		return err
	}
	if err := loadTable(ctx, repo, schema.TableArtists, schema.ArtistColumns, valueRows(ds.Artists, schema.Artist.Values)); err != nil {
		return err
	}
	if err := loadTable(ctx, repo, schema.TableUsers, schema.UserColumns, valueRows(ds.Users, schema.User.Values)); err != nil {
		return err
	}
	if err := loadTable(ctx, repo, schema.TableTime, schema.TimeColumns, valueRows(ds.Times, schema.TimeDim.Values)); err != nil {
		return err
	}
	return loadTable(ctx, repo, schema.TableSongplays, schema.SongplayColumns, valueRows(ds.Songplays, schema.Songplay.Values))
}

func loadTable(ctx context.Context, repo Repository, table string, columns []string, rows [][]any) error {
	start := time.Now()
	if err := repo.EnsureTable(ctx, table); err != nil {
		return fmt.Errorf("ensure %s: %w", table, err)
	}
	n, err := repo.Replace(ctx, table, columns, rows)
	if err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	logrus.WithFields(logrus.Fields{
		"table":   table,
		"rows":    n,
		"elapsed": time.Since(start).Truncate(time.Millisecond).String(),
	}).Info("table loaded")
	return nil
}

// valueRows flattens typed rows into column-ordered value slices.
func valueRows[T any](rows []T, values func(T) []any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = values(r)
	}
	return out
}
