package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	_ "modernc.org/sqlite"

	"songlake/internal/config"
	"songlake/internal/schema"
	"songlake/internal/warehouse"
	_ "songlake/internal/warehouse/all"
)

const (
	songS1    = `{"num_songs":1,"artist_id":"A1","artist_latitude":37.77916,"artist_longitude":-122.42005,"artist_location":"San Francisco, CA","artist_name":"Elena","song_id":"S1","title":"Setanta matins","duration":269.58322,"year":2018}`
	songS2    = `{"num_songs":1,"artist_id":"A2","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"Manowar","song_id":"S2","title":"Shell Shock","duration":null,"year":0}`
	playS1    = `{"artist":"Elena","auth":"Logged In","firstName":"Ryan","gender":"M","itemInSession":0,"lastName":"Smith","length":269.58322,"level":"free","location":"San Jose-Sunnyvale-Santa Clara, CA","method":"PUT","page":"NextSong","registration":1541016707796.0,"sessionId":583,"song":"Setanta matins","status":200,"ts":1542837407796,"userId":"26","userAgent":"\"Mozilla/5.0\""}`
	playMiss  = `{"artist":"Nirvana","auth":"Logged In","firstName":"Ryan","gender":"M","itemInSession":1,"lastName":"Smith","length":121.83465,"level":"paid","location":"San Jose-Sunnyvale-Santa Clara, CA","method":"PUT","page":"NextSong","registration":1541016707796.0,"sessionId":583,"song":"Intro","status":200,"ts":1542841007796,"userId":"26","userAgent":"\"Mozilla/5.0\""}`
	visitHome = `{"auth":"Logged In","firstName":"Ryan","gender":"M","itemInSession":2,"lastName":"Smith","level":"paid","location":"San Jose-Sunnyvale-Santa Clara, CA","method":"GET","page":"Home","registration":1541016707796.0,"sessionId":583,"status":200,"ts":1542841031796,"userId":"26"}`
)

// writeInput lays out a miniature raw data set: three catalog files (one an
// exact duplicate) and one event log with two playback rows and one page
// visit.
func writeInput(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"song_data/A/A/A/TRAAAAW128F429D538.json": songS1 + "\n",
		"song_data/A/B/C/TRABCAJ12903CDFCC2.json": songS1 + "\n",
		"song_data/B/A/A/TRBAAAA128F9306AE7.json": songS2 + "\n",
		"log_data/2018/11/2018-11-21-events.json": playS1 + "\n" + playMiss + "\n" + visitHome + "\n",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readSongplays(t *testing.T, path string) []schema.Songplay {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(schema.Songplay), 4)
	if err != nil {
		t.Fatalf("NewParquetReader: %v", err)
	}
	defer pr.ReadStop()
	got := make([]schema.Songplay, pr.GetNumRows())
	if err := pr.Read(&got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	return got
}

func TestRun_EndToEnd(t *testing.T) {
	inRoot := t.TempDir()
	outRoot := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "warehouse.db")
	writeInput(t, inRoot)

	cfg := config.Config{
		Job:        "sparkify-test",
		InputRoot:  inRoot,
		OutputRoot: outRoot,
		Warehouse:  config.WarehouseConfig{Kind: "sqlite", DSN: dbPath},
		Runtime:    config.RuntimeConfig{TableWorkers: 2},
	}

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.RunID == "" {
		t.Error("Run returned empty RunID")
	}
	if sum.Elapsed <= 0 {
		t.Errorf("Elapsed = %v, want > 0", sum.Elapsed)
	}
	sum.RunID, sum.Elapsed = "", 0
	want := Summary{Songs: 2, Artists: 2, Users: 1, Times: 2, Songplays: 2, Partitions: 6}
	if !reflect.DeepEqual(sum, want) {
		t.Errorf("Summary = %+v, want %+v", sum, want)
	}

	// Hive-style layout under the output root.
	wantFiles := []string{
		"artists/part-00000.parquet",
		"songplays/year=2018/month=11/part-00000.parquet",
		"songs/year=0/artist_id=A2/part-00000.parquet",
		"songs/year=2018/artist_id=A1/part-00000.parquet",
		"time/year=2018/month=11/part-00000.parquet",
		"users/part-00000.parquet",
	}
	for _, f := range wantFiles {
		if _, err := os.Stat(filepath.Join(outRoot, filepath.FromSlash(f))); err != nil {
			t.Errorf("missing output file %s: %v", f, err)
		}
	}

	// The fact table keeps both playback events, resolved against the catalog.
	s1, a1 := "S1", "A1"
	wantPlays := []schema.Songplay{
		{
			StartTime: 1542837407, UserID: "26", Level: "free",
			SongID: &s1, ArtistID: &a1, SessionID: 583,
			Location: "San Jose-Sunnyvale-Santa Clara, CA", UserAgent: `"Mozilla/5.0"`,
			Year: 2018, Month: 11,
		},
		{
			StartTime: 1542841007, UserID: "26", Level: "paid",
			SongID: nil, ArtistID: nil, SessionID: 583,
			Location: "San Jose-Sunnyvale-Santa Clara, CA", UserAgent: `"Mozilla/5.0"`,
			Year: 2018, Month: 11,
		},
	}
	gotPlays := readSongplays(t, filepath.Join(outRoot, "songplays", "year=2018", "month=11", "part-00000.parquet"))
	if !reflect.DeepEqual(gotPlays, wantPlays) {
		t.Errorf("songplays rows = %+v, want %+v", gotPlays, wantPlays)
	}

	// The warehouse got the same tables.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for table, wantRows := range map[string]int{
		"songs": 2, "artists": 2, "users": 1, "time": 2, "songplays": 2,
	} {
		var n int
		if err := db.QueryRow(`SELECT count(*) FROM "` + table + `"`).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != wantRows {
			t.Errorf("warehouse %s has %d rows, want %d", table, n, wantRows)
		}
	}
	var level string
	if err := db.QueryRow(`SELECT level FROM users WHERE user_id = '26'`).Scan(&level); err != nil {
		t.Fatal(err)
	}
	if level != "paid" {
		t.Errorf("user 26 level = %q, want %q (latest event wins)", level, "paid")
	}
	var songID string
	if err := db.QueryRow(`SELECT song_id FROM songplays WHERE song_id IS NOT NULL`).Scan(&songID); err != nil {
		t.Fatal(err)
	}
	if songID != "S1" {
		t.Errorf("matched songplay song_id = %q, want %q", songID, "S1")
	}

	// A second run over the same input replaces everything instead of
	// appending.
	again, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	again.RunID, again.Elapsed = "", 0
	if !reflect.DeepEqual(again, want) {
		t.Errorf("second Summary = %+v, want %+v", again, want)
	}
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM songplays`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("songplays after second run = %d rows, want 2", n)
	}
	gotPlays = readSongplays(t, filepath.Join(outRoot, "songplays", "year=2018", "month=11", "part-00000.parquet"))
	if len(gotPlays) != 2 {
		t.Errorf("songplays parquet after second run = %d rows, want 2", len(gotPlays))
	}
}

func TestRun_NoWarehouseConfigured(t *testing.T) {
	inRoot := t.TempDir()
	writeInput(t, inRoot)

	orig := newRepository
	defer func() { newRepository = orig }()
	newRepository = func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		t.Errorf("repository opened despite warehouse.kind being empty (cfg=%+v)", cfg)
		return nil, errors.New("unreachable")
	}

	cfg := config.Config{Job: "j", InputRoot: inRoot, OutputRoot: t.TempDir()}
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_WarehouseOpenFailureIsFatal(t *testing.T) {
	inRoot := t.TempDir()
	writeInput(t, inRoot)

	orig := newRepository
	defer func() { newRepository = orig }()
	boom := errors.New("connect refused")
	newRepository = func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		if cfg.Kind != "postgres" || cfg.DSN != "dsn://x" {
			t.Errorf("repository cfg = %+v, want kind=postgres dsn=dsn://x", cfg)
		}
		return nil, boom
	}

	cfg := config.Config{
		Job:        "j",
		InputRoot:  inRoot,
		OutputRoot: t.TempDir(),
		Warehouse:  config.WarehouseConfig{Kind: "postgres", DSN: "dsn://x"},
	}
	_, err := Run(context.Background(), cfg)
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), "warehouse") {
		t.Errorf("Run error = %q, want mention of warehouse", err)
	}
}

func TestRun_BadEventRowIsFatal(t *testing.T) {
	t.Parallel()
	inRoot := t.TempDir()
	writeInput(t, inRoot)
	bad := filepath.Join(inRoot, "log_data", "2018", "11", "2018-11-22-events.json")
	if err := os.WriteFile(bad, []byte(`{"page":"NextSong","ts":"not a number"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{Job: "j", InputRoot: inRoot, OutputRoot: t.TempDir()}
	_, err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("Run succeeded with a bad ts in the event log")
	}
	if !strings.Contains(err.Error(), "read events") {
		t.Errorf("Run error = %q, want mention of read events", err)
	}
}

func TestRun_UnknownCompression(t *testing.T) {
	t.Parallel()
	cfg := config.Config{
		Job:        "j",
		InputRoot:  t.TempDir(),
		OutputRoot: t.TempDir(),
		Sink:       config.SinkConfig{Compression: "lz4"},
	}
	_, err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported sink.compression") {
		t.Fatalf("Run error = %v, want unsupported sink.compression", err)
	}
}

func TestRun_UnknownTimeZone(t *testing.T) {
	t.Parallel()
	cfg := config.Config{
		Job:        "j",
		InputRoot:  t.TempDir(),
		OutputRoot: t.TempDir(),
		TimeZone:   "Mars/Olympus_Mons",
	}
	_, err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "time_zone") {
		t.Fatalf("Run error = %v, want time_zone failure", err)
	}
}

func TestRun_EmptyInputStillPublishes(t *testing.T) {
	t.Parallel()
	outRoot := t.TempDir()
	cfg := config.Config{Job: "j", InputRoot: t.TempDir(), OutputRoot: outRoot}

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	sum.RunID, sum.Elapsed = "", 0
	if !reflect.DeepEqual(sum, Summary{}) {
		t.Errorf("Summary = %+v, want all-zero counts", sum)
	}
}
