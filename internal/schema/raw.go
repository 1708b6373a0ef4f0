package schema

// SongRecord is one row of the raw song catalog feed. Text fields that are
// null or absent in the source decode to ""; numeric nulls stay nil. Year 0
// means unknown, as in the feed itself.
type SongRecord struct {
	SongID          string
	Title           string
	ArtistID        string
	ArtistName      string
	ArtistLocation  string
	ArtistLatitude  *float64
	ArtistLongitude *float64
	Year            int32
	Duration        *float64
}

// PlayEvent is one listening event that passed the NextSong filter, carrying
// both the raw fields and the calendar fields derived from its timestamp.
type PlayEvent struct {
	TS        int64 // source timestamp, epoch milliseconds
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
	Song      string
	Artist    string
	Length    *float64
	SessionID int64
	Location  string
	UserAgent string

	// Derived from TS in the configured zone.
	StartTime int64 // epoch seconds, TS/1000 truncated
	Hour      int32
	Day       int32
	Week      int32 // ISO week of year
	Month     int32
	Year      int32
	Weekday   string // full English name, e.g. "Wednesday"
}
