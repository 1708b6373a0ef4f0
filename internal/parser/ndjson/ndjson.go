// Package ndjson decodes newline-delimited JSON objects into records.Record
// maps.
//
// Both raw feeds (the song catalog and the listening-event logs) are NDJSON:
// one JSON object per line, possibly many objects per file. Decoding is
// strict: a malformed document or a non-object top-level value is an error,
// because a bad input file must fail the whole run rather than silently
// shrink a table.
package ndjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"songlake/internal/lake"
	"songlake/pkg/records"
)

// Decoder reads a stream of JSON objects.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder constructs a Decoder. Numbers decode as json.Number so the
// typed projections decide integer/float mapping.
func NewDecoder(r io.Reader) *Decoder {
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d}
}

// Next returns the next object in the stream, io.EOF when exhausted, or an
// error for malformed input.
func (d *Decoder) Next() (records.Record, error) {
	var raw any
	if err := d.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("ndjson: decode: %w", err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ndjson: top-level value is %T, want object", raw)
	}
	return records.Record(m), nil
}

// DecodeAll reads every object from r.
func DecodeAll(r io.Reader) ([]records.Record, error) {
	d := NewDecoder(r)
	var out []records.Record
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// ReadKeys decodes the objects of each key in order and concatenates them.
func ReadKeys(ctx context.Context, st lake.Store, keys []string) ([]records.Record, error) {
	var out []records.Record
	for _, key := range keys {
		rc, err := st.Open(ctx, key)
		if err != nil {
			return nil, err
		}
		recs, err := DecodeAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ReadGlob lists pattern on the store and decodes every matching object in
// key order.
func ReadGlob(ctx context.Context, st lake.Store, pattern string) ([]records.Record, error) {
	keys, err := st.List(ctx, pattern)
	if err != nil {
		return nil, err
	}
	return ReadKeys(ctx, st, keys)
}
