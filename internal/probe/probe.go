// Package probe samples NDJSON feeds in a lake store and reports the shape
// of their records: which fields occur, what type each one carries, and how
// often it is null.
//
// The report is a starting point for wiring a new feed into the pipeline.
// Field types map onto warehouse column types (bigint, double, boolean,
// text), and integer fields whose values sit in the epoch-milliseconds range
// are called out as timestamp_ms since that is how the event logs encode
// time.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"songlake/internal/lake"
	"songlake/internal/parser/ndjson"
	"songlake/pkg/records"
)

// Options control sampling.
type Options struct {
	// Pattern is the store glob to sample, e.g. "log_data/*/*/*.json".
	Pattern string
	// MaxRows caps the total number of sampled rows. Zero means 10000.
	MaxRows int
	// MaxFiles caps the number of matching files opened. Zero means all.
	MaxFiles int
	// SavePath, when non-empty, writes the sampled rows there as NDJSON so
	// they can be inspected or replayed locally.
	SavePath string
}

// FieldReport describes one field across the sampled rows.
type FieldReport struct {
	// Name is the field name as it appears in the feed.
	Name string `json:"name"`
	// Column is the normalized SQL-safe column name suggested for Name.
	Column string `json:"column"`
	// Type is the inferred column type: bigint, double, boolean, text, or
	// timestamp_ms.
	Type string `json:"type"`
	// Seen counts rows where the field holds a non-null value.
	Seen int `json:"seen"`
	// Nulls counts rows where the field is present but null. Rows where the
	// field is absent entirely count in neither; compare Seen+Nulls against
	// Report.Rows to spot those.
	Nulls int `json:"nulls"`
}

// Report is the result of sampling one pattern.
type Report struct {
	Pattern string        `json:"pattern"`
	Files   int           `json:"files"`
	Rows    int           `json:"rows"`
	Fields  []FieldReport `json:"fields"`
}

// Sample reads up to MaxRows rows matching opt.Pattern from st and infers a
// FieldReport per field, sorted by field name.
func Sample(ctx context.Context, st lake.Store, opt Options) (Report, error) {
	if opt.MaxRows <= 0 {
		opt.MaxRows = 10000
	}
	keys, err := st.List(ctx, opt.Pattern)
	if err != nil {
		return Report{}, fmt.Errorf("probe: %w", err)
	}
	if opt.MaxFiles > 0 && len(keys) > opt.MaxFiles {
		keys = keys[:opt.MaxFiles]
	}

	rep := Report{Pattern: opt.Pattern}
	stats := make(map[string]*fieldStats)
	var sampled []records.Record
	for _, key := range keys {
		if rep.Rows >= opt.MaxRows {
			break
		}
		rows, err := sampleKey(ctx, st, key, opt.MaxRows-rep.Rows, stats)
		if err != nil {
			return Report{}, err
		}
		rep.Files++
		rep.Rows += len(rows)
		if opt.SavePath != "" {
			sampled = append(sampled, rows...)
		}
	}

	if opt.SavePath != "" {
		if err := writeSample(opt.SavePath, sampled); err != nil {
			return Report{}, fmt.Errorf("save sample: %w", err)
		}
	}

	rep.Fields = make([]FieldReport, 0, len(stats))
	for name, s := range stats {
		rep.Fields = append(rep.Fields, FieldReport{
			Name:   name,
			Column: truncateFieldName(normalizeFieldName(name)),
			Type:   s.inferType(),
			Seen:   s.seen,
			Nulls:  s.nulls,
		})
	}
	sort.Slice(rep.Fields, func(i, j int) bool { return rep.Fields[i].Name < rep.Fields[j].Name })
	return rep, nil
}

// Render returns the report as CSV-like summary lines, one field per line:
// name,column,type,seen,nulls.
func (r Report) Render() []byte {
	var buf []byte
	for _, f := range r.Fields {
		buf = append(buf, fmt.Sprintf("%s,%s,%s,%d,%d\n", f.Name, f.Column, f.Type, f.Seen, f.Nulls)...)
	}
	return buf
}

func sampleKey(ctx context.Context, st lake.Store, key string, budget int, stats map[string]*fieldStats) ([]records.Record, error) {
	rc, err := st.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", key, err)
	}
	defer rc.Close()

	d := ndjson.NewDecoder(rc)
	var rows []records.Record
	for len(rows) < budget {
		rec, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", key, err)
		}
		for name, v := range rec {
			s := stats[name]
			if s == nil {
				s = &fieldStats{}
				stats[name] = s
			}
			s.observe(v)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// writeSample writes rows to path as NDJSON, one object per line. It
// overwrites the file if it already exists.
func writeSample(path string, rows []records.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// Integer values inside this range are taken to be epoch milliseconds; it
// spans 2001-09-09 through 2096-10-02, which comfortably covers the event
// logs without capturing ids, counts, or years.
const (
	epochMillisMin = 1_000_000_000_000
	epochMillisMax = 4_000_000_000_000
)

// fieldStats accumulates per-field observations across the sampled rows.
type fieldStats struct {
	seen    int
	nulls   int
	ints    int
	floats  int
	bools   int
	strings int
	others  int
	minInt  int64
	maxInt  int64
}

func (s *fieldStats) observe(v any) {
	switch t := v.(type) {
	case nil:
		s.nulls++
		return
	case bool:
		s.bools++
	case string:
		s.strings++
	case json.Number:
		if i, err := t.Int64(); err == nil {
			if s.ints == 0 || i < s.minInt {
				s.minInt = i
			}
			if s.ints == 0 || i > s.maxInt {
				s.maxInt = i
			}
			s.ints++
		} else {
			s.floats++
		}
	default:
		// arrays and nested objects
		s.others++
	}
	s.seen++
}

// inferType guesses a column type. The heuristic requires every non-null
// value to satisfy the narrower type; any mix falls back to text.
func (s *fieldStats) inferType() string {
	switch {
	case s.seen == 0:
		return "text"
	case s.strings == s.seen:
		return "text"
	case s.bools == s.seen:
		return "boolean"
	case s.ints == s.seen:
		if s.minInt >= epochMillisMin && s.maxInt <= epochMillisMax {
			return "timestamp_ms"
		}
		return "bigint"
	case s.ints+s.floats == s.seen:
		return "double"
	default:
		return "text"
	}
}
