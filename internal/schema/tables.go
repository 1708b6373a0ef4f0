// Package schema defines the star-schema row types the pipeline produces.
//
// Each derived table type carries parquet tags for the columnar sink and db
// tags for the optional warehouse load. PartitionPath returns the
// hive-style partition directory for a row ("" for unpartitioned tables);
// partition column values stay in the row data as well so every shard is
// self-describing.
package schema

import "fmt"

// Table names as written under the output root and in the warehouse.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongplays = "songplays"
)

// Column orders for the warehouse load. Values() methods must stay aligned
// with these.
var (
	SongColumns     = []string{"song_id", "title", "artist_id", "year", "duration"}
	ArtistColumns   = []string{"artist_id", "name", "location", "latitude", "longitude"}
	UserColumns     = []string{"user_id", "first_name", "last_name", "gender", "level"}
	TimeColumns     = []string{"start_time", "hour", "day", "week", "month", "year", "weekday"}
	SongplayColumns = []string{"start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent", "year", "month"}
)

// Song is one row of the songs dimension.
type Song struct {
	SongID   string   `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8" db:"song_id"`
	Title    string   `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8" db:"title"`
	ArtistID string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8" db:"artist_id"`
	Year     int32    `parquet:"name=year, type=INT32" db:"year"`
	Duration *float64 `parquet:"name=duration, type=DOUBLE, repetitiontype=OPTIONAL" db:"duration"`
}

func (s Song) PartitionPath() string {
	return fmt.Sprintf("year=%d/artist_id=%s", s.Year, s.ArtistID)
}

func (s Song) Values() []any {
	return []any{s.SongID, s.Title, s.ArtistID, s.Year, s.Duration}
}

// Artist is one row of the artists dimension.
type Artist struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8" db:"artist_id"`
	Name      string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8" db:"name"`
	Location  string   `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8" db:"location"`
	Latitude  *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL" db:"latitude"`
	Longitude *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL" db:"longitude"`
}

func (a Artist) PartitionPath() string { return "" }

func (a Artist) Values() []any {
	return []any{a.ArtistID, a.Name, a.Location, a.Latitude, a.Longitude}
}

// User is one row of the users dimension: the state of a user at their most
// recent listening event.
type User struct {
	UserID    string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8" db:"user_id"`
	FirstName string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8" db:"first_name"`
	LastName  string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8" db:"last_name"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8" db:"gender"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8" db:"level"`
}

func (u User) PartitionPath() string { return "" }

func (u User) Values() []any {
	return []any{u.UserID, u.FirstName, u.LastName, u.Gender, u.Level}
}

// TimeDim is one row of the time dimension: one distinct playback second
// decomposed into calendar units.
type TimeDim struct {
	StartTime int64  `parquet:"name=start_time, type=INT64" db:"start_time"`
	Hour      int32  `parquet:"name=hour, type=INT32" db:"hour"`
	Day       int32  `parquet:"name=day, type=INT32" db:"day"`
	Week      int32  `parquet:"name=week, type=INT32" db:"week"`
	Month     int32  `parquet:"name=month, type=INT32" db:"month"`
	Year      int32  `parquet:"name=year, type=INT32" db:"year"`
	Weekday   string `parquet:"name=weekday, type=BYTE_ARRAY, convertedtype=UTF8" db:"weekday"`
}

func (t TimeDim) PartitionPath() string {
	return fmt.Sprintf("year=%d/month=%d", t.Year, t.Month)
}

func (t TimeDim) Values() []any {
	return []any{t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday}
}

// Songplay is one row of the fact table: a single NextSong event, resolved
// against the catalog. SongID and ArtistID are nil when the played track
// has no exact catalog match.
type Songplay struct {
	StartTime int64   `parquet:"name=start_time, type=INT64" db:"start_time"`
	UserID    string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8" db:"user_id"`
	Level     string  `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8" db:"level"`
	SongID    *string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" db:"song_id"`
	ArtistID  *string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" db:"artist_id"`
	SessionID int64   `parquet:"name=session_id, type=INT64" db:"session_id"`
	Location  string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8" db:"location"`
	UserAgent string  `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8" db:"user_agent"`
	Year      int32   `parquet:"name=year, type=INT32" db:"year"`
	Month     int32   `parquet:"name=month, type=INT32" db:"month"`
}

func (p Songplay) PartitionPath() string {
	return fmt.Sprintf("year=%d/month=%d", p.Year, p.Month)
}

func (p Songplay) Values() []any {
	return []any{p.StartTime, p.UserID, p.Level, p.SongID, p.ArtistID, p.SessionID, p.Location, p.UserAgent, p.Year, p.Month}
}
