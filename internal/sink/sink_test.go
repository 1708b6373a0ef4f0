package sink

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"

	"songlake/internal/lake"
	"songlake/internal/schema"
)

func fp(v float64) *float64 { return &v }

func TestCodec(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]parquet.CompressionCodec{
		"":             parquet.CompressionCodec_SNAPPY,
		"snappy":       parquet.CompressionCodec_SNAPPY,
		"SNAPPY":       parquet.CompressionCodec_SNAPPY,
		"gzip":         parquet.CompressionCodec_GZIP,
		"none":         parquet.CompressionCodec_UNCOMPRESSED,
		"uncompressed": parquet.CompressionCodec_UNCOMPRESSED,
	} {
		got, err := Codec(name)
		if err != nil || got != want {
			t.Fatalf("Codec(%q) = %v, %v; want %v", name, got, err, want)
		}
	}

	if _, err := Codec("lz4"); err == nil || !strings.Contains(err.Error(), "unsupported sink.compression") {
		t.Fatalf("Codec(lz4) err = %v", err)
	}
}

func TestWriteTable_PartitionLayout(t *testing.T) {
	t.Parallel()

	st := lake.NewLocal(t.TempDir())
	ctx := context.Background()
	rows := []schema.Song{
		{SongID: "S1", Title: "One", ArtistID: "A1", Year: 2018, Duration: fp(100.5)},
		{SongID: "S2", Title: "Two", ArtistID: "A1", Year: 2018, Duration: fp(200.5)},
		{SongID: "S3", Title: "Three", ArtistID: "A2", Year: 1999, Duration: nil},
	}

	n, err := WriteTable(ctx, st, schema.TableSongs, rows, parquet.CompressionCodec_SNAPPY)
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if n != 2 {
		t.Fatalf("partitions = %d, want 2", n)
	}

	keys, err := st.List(ctx, "songs/*/*/*.parquet")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{
		"songs/year=1999/artist_id=A2/part-00000.parquet",
		"songs/year=2018/artist_id=A1/part-00000.parquet",
	}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}
}

func TestWriteTable_Unpartitioned(t *testing.T) {
	t.Parallel()

	st := lake.NewLocal(t.TempDir())
	ctx := context.Background()
	rows := []schema.Artist{
		{ArtistID: "A1", Name: "Elena", Location: "Dublin", Latitude: fp(53.3), Longitude: fp(-6.2)},
		{ArtistID: "A2", Name: "Harmonia"},
	}

	n, err := WriteTable(ctx, st, schema.TableArtists, rows, parquet.CompressionCodec_SNAPPY)
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if n != 1 {
		t.Fatalf("partitions = %d, want 1", n)
	}
	keys, err := st.List(ctx, "artists/*.parquet")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"artists/part-00000.parquet"}) {
		t.Fatalf("List = %v", keys)
	}
}

func TestWriteTable_ReplacesOldData(t *testing.T) {
	t.Parallel()

	st := lake.NewLocal(t.TempDir())
	ctx := context.Background()
	if err := st.Put(ctx, "users/part-00000.parquet", strings.NewReader("stale")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Put(ctx, "users/year=2017/part-00000.parquet", strings.NewReader("stale")); err != nil {
		t.Fatalf("put: %v", err)
	}

	rows := []schema.User{{UserID: "1", FirstName: "Ryan", Level: "paid"}}
	if _, err := WriteTable(ctx, st, schema.TableUsers, rows, parquet.CompressionCodec_UNCOMPRESSED); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	keys, err := st.List(ctx, "users/*")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"users/part-00000.parquet"}) {
		t.Fatalf("stale data survived: %v", keys)
	}
	if _, err := st.Open(ctx, "users/year=2017/part-00000.parquet"); err == nil {
		t.Fatalf("stale partition survived the rewrite")
	}
}

// An empty table still replaces whatever the previous run left behind.
func TestWriteTable_EmptyInputClearsTable(t *testing.T) {
	t.Parallel()

	st := lake.NewLocal(t.TempDir())
	ctx := context.Background()
	if err := st.Put(ctx, "artists/part-00000.parquet", strings.NewReader("stale")); err != nil {
		t.Fatalf("put: %v", err)
	}

	n, err := WriteTable(ctx, st, schema.TableArtists, []schema.Artist{}, parquet.CompressionCodec_SNAPPY)
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if n != 0 {
		t.Fatalf("partitions = %d, want 0", n)
	}
	if _, err := st.Open(ctx, "artists/part-00000.parquet"); err == nil {
		t.Fatalf("stale file survived an empty rewrite")
	}
}

func TestWriteTable_RoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	st := lake.NewLocal(root)
	ctx := context.Background()
	rows := []schema.Song{
		{SongID: "S1", Title: "One", ArtistID: "A1", Year: 2018, Duration: fp(269.58322)},
		{SongID: "S2", Title: "Two", ArtistID: "A1", Year: 2018, Duration: nil},
	}

	if _, err := WriteTable(ctx, st, schema.TableSongs, rows, parquet.CompressionCodec_SNAPPY); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	fr, err := local.NewLocalFileReader(filepath.Join(root, "songs", "year=2018", "artist_id=A1", "part-00000.parquet"))
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(schema.Song), 4)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer pr.ReadStop()

	got := make([]schema.Song, pr.GetNumRows())
	if err := pr.Read(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Fatalf("round trip = %+v, want %+v", got, rows)
	}
}
