// Package events extracts the users and time dimensions from the listening
// event logs.
//
// Log files are NDJSON, nested three directory levels below the input root.
// Only "NextSong" page events describe playback; everything else (auth,
// navigation, logout) is discarded up front, and all further derivation
// operates on the filtered set.
package events

import (
	"context"
	"fmt"
	"sort"
	"time"

	"songlake/internal/dedup"
	"songlake/internal/lake"
	"songlake/internal/parser/ndjson"
	"songlake/internal/schema"
	"songlake/pkg/records"
)

// Glob locates the event log files under the input root.
const Glob = "log_data/*/*/*.json"

// PageNextSong marks playback events. The comparison is exact.
const PageNextSong = "NextSong"

// Read returns every playback event under the input root with calendar
// fields derived in loc. A nil loc means UTC.
func Read(ctx context.Context, st lake.Store, loc *time.Location) ([]schema.PlayEvent, error) {
	recs, err := ndjson.ReadGlob(ctx, st, Glob)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	var out []schema.PlayEvent
	for _, r := range recs {
		if r.String("page") != PageNextSong {
			continue
		}
		e, err := FromRecord(r, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FromRecord converts one filtered log record into a PlayEvent. The ts
// field is mandatory: a playback event without a numeric timestamp cannot
// be placed in the time dimension or the fact table, so it fails the run.
// Every other field passes through best-effort.
func FromRecord(r records.Record, loc *time.Location) (schema.PlayEvent, error) {
	ts, err := r.MustInt("ts")
	if err != nil {
		return schema.PlayEvent{}, fmt.Errorf("events: %w", err)
	}
	session, _ := r.Int("sessionId")

	e := schema.PlayEvent{
		TS:        ts,
		UserID:    r.String("userId"),
		FirstName: r.String("firstName"),
		LastName:  r.String("lastName"),
		Gender:    r.String("gender"),
		Level:     r.String("level"),
		Song:      r.String("song"),
		Artist:    r.String("artist"),
		Length:    r.Float("length"),
		SessionID: session,
		Location:  r.String("location"),
		UserAgent: r.String("userAgent"),
	}
	deriveCalendar(&e, loc)
	return e, nil
}

// deriveCalendar fills the calendar fields from TS. The source timestamp is
// epoch milliseconds; start_time is whole seconds, truncated. Week is the
// ISO 8601 week of year and Weekday the full English day name.
func deriveCalendar(e *schema.PlayEvent, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	e.StartTime = e.TS / 1000
	t := time.Unix(e.StartTime, 0).In(loc)
	_, week := t.ISOWeek()

	e.Hour = int32(t.Hour())
	e.Day = int32(t.Day())
	e.Week = int32(week)
	e.Month = int32(t.Month())
	e.Year = int32(t.Year())
	e.Weekday = t.Weekday().String()
}

// Users reduces the playback events to one row per user: the fields of that
// user's most recent event. Among events sharing the maximum timestamp the
// earliest in input order wins. Rows come back sorted by user id so output
// is stable across runs.
func Users(plays []schema.PlayEvent) []schema.User {
	type latest struct {
		ts int64
		u  schema.User
	}
	byUser := make(map[string]latest, len(plays))
	for _, e := range plays {
		prev, ok := byUser[e.UserID]
		if ok && e.TS <= prev.ts {
			continue
		}
		byUser[e.UserID] = latest{ts: e.TS, u: schema.User{
			UserID:    e.UserID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Gender:    e.Gender,
			Level:     e.Level,
		}}
	}

	out := make([]schema.User, 0, len(byUser))
	for _, l := range byUser {
		out = append(out, l.u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// TimeDims projects the time dimension from the playback events and removes
// exact-duplicate rows: events sharing the same playback second collapse to
// one row, in first-occurrence order.
func TimeDims(plays []schema.PlayEvent) []schema.TimeDim {
	rows := make([]schema.TimeDim, len(plays))
	for i, e := range plays {
		rows[i] = schema.TimeDim{
			StartTime: e.StartTime,
			Hour:      e.Hour,
			Day:       e.Day,
			Week:      e.Week,
			Month:     e.Month,
			Year:      e.Year,
			Weekday:   e.Weekday,
		}
	}
	return dedup.Rows(rows, timeKey)
}

func timeKey(t schema.TimeDim) string {
	return dedup.Key(t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday)
}
