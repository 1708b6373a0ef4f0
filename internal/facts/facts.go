// Package facts builds the songplays fact table by joining playback events
// against the raw song catalog.
package facts

import (
	"songlake/internal/dedup"
	"songlake/internal/schema"
)

// matched carries the catalog side of a successful join.
type matched struct {
	songID   string
	artistID string
}

// joinKey is the one place the match condition lives: an event joins a
// catalog row when song equals title, artist equals artist name and length
// equals duration. A missing value on either side never matches, mirroring
// SQL null comparison, so an empty title or artist or a nil duration yields
// no key at all.
func joinKey(song, artist string, length *float64) (string, bool) {
	if song == "" || artist == "" || length == nil {
		return "", false
	}
	return dedup.Key(song, artist, length), true
}

// Build produces exactly one fact row per playback event. Events matching no
// catalog row keep nil song and artist references instead of being dropped.
// When several catalog rows share a title, artist name and duration, the
// first in catalog order wins, so the output length always equals the input
// length.
func Build(plays []schema.PlayEvent, catalog []schema.SongRecord) []schema.Songplay {
	idx := make(map[string]matched, len(catalog))
	for _, s := range catalog {
		k, ok := joinKey(s.Title, s.ArtistName, s.Duration)
		if !ok {
			continue
		}
		if _, dup := idx[k]; dup {
			continue
		}
		idx[k] = matched{songID: s.SongID, artistID: s.ArtistID}
	}

	out := make([]schema.Songplay, 0, len(plays))
	for _, e := range plays {
		row := schema.Songplay{
			StartTime: e.StartTime,
			UserID:    e.UserID,
			Level:     e.Level,
			SessionID: e.SessionID,
			Location:  e.Location,
			UserAgent: e.UserAgent,
			Year:      e.Year,
			Month:     e.Month,
		}
		if k, ok := joinKey(e.Song, e.Artist, e.Length); ok {
			if m, hit := idx[k]; hit {
				songID, artistID := m.songID, m.artistID
				row.SongID = &songID
				row.ArtistID = &artistID
			}
		}
		out = append(out, row)
	}
	return out
}
