// Package catalog extracts the songs and artists dimensions from the raw
// song catalog feed.
//
// The feed is NDJSON, one file per track, nested four directory levels below
// the input root. Projections carry fields through as-is: no trimming, no
// case folding, no validation. Rows that are exact duplicates after
// projection collapse to one.
package catalog

import (
	"context"
	"fmt"

	"songlake/internal/dedup"
	"songlake/internal/lake"
	"songlake/internal/parser/ndjson"
	"songlake/internal/schema"
	"songlake/pkg/records"
)

// Glob locates the catalog files under the input root.
const Glob = "song_data/*/*/*/*.json"

// ReadRaw reads the full catalog. The raw records are the source of truth
// for both the dimension projections and the fact join; the reduced tables
// are never read back.
func ReadRaw(ctx context.Context, st lake.Store) ([]schema.SongRecord, error) {
	recs, err := ndjson.ReadGlob(ctx, st, Glob)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	out := make([]schema.SongRecord, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return out, nil
}

func fromRecord(r records.Record) schema.SongRecord {
	year, _ := r.Int("year")
	return schema.SongRecord{
		SongID:          r.String("song_id"),
		Title:           r.String("title"),
		ArtistID:        r.String("artist_id"),
		ArtistName:      r.String("artist_name"),
		ArtistLocation:  r.String("artist_location"),
		ArtistLatitude:  r.Float("artist_latitude"),
		ArtistLongitude: r.Float("artist_longitude"),
		Year:            int32(year),
		Duration:        r.Float("duration"),
	}
}

// Songs projects the songs dimension and removes exact-duplicate rows,
// keeping first occurrences in feed order.
func Songs(raw []schema.SongRecord) []schema.Song {
	rows := make([]schema.Song, len(raw))
	for i, r := range raw {
		rows[i] = schema.Song{
			SongID:   r.SongID,
			Title:    r.Title,
			ArtistID: r.ArtistID,
			Year:     r.Year,
			Duration: r.Duration,
		}
	}
	return dedup.Rows(rows, songKey)
}

func songKey(s schema.Song) string {
	return dedup.Key(s.SongID, s.Title, s.ArtistID, s.Year, s.Duration)
}

// Artists projects the artists dimension and removes exact-duplicate rows.
// Two records for the same artist that differ in any field (say, one has
// coordinates and one does not) both survive; only full-row duplicates
// collapse.
func Artists(raw []schema.SongRecord) []schema.Artist {
	rows := make([]schema.Artist, len(raw))
	for i, r := range raw {
		rows[i] = schema.Artist{
			ArtistID:  r.ArtistID,
			Name:      r.ArtistName,
			Location:  r.ArtistLocation,
			Latitude:  r.ArtistLatitude,
			Longitude: r.ArtistLongitude,
		}
	}
	return dedup.Rows(rows, artistKey)
}

func artistKey(a schema.Artist) string {
	return dedup.Key(a.ArtistID, a.Name, a.Location, a.Latitude, a.Longitude)
}
