// Package lake abstracts the object stores the pipeline reads raw data from
// and writes tables to.
//
// A Store addresses objects by slash-separated keys relative to a root. Two
// implementations exist:
//
//   - Local: a directory on the local filesystem.
//   - S3: a bucket (plus optional key prefix) on Amazon S3.
//
// Roots are given as plain paths or as "s3://bucket/prefix" URIs; Open
// dispatches on the scheme. Listing uses glob patterns where '*' matches one
// path segment, e.g. "song_data/*/*/*/*.json".
package lake

import (
	"context"
	"io"
	"strings"
)

// Store is the minimal object-store contract used by the pipeline.
//
// Keys and patterns are slash-separated and relative to the store root.
// List returns matching keys in lexical order so downstream processing is
// deterministic. Implementations must be safe for concurrent use.
type Store interface {
	// List returns the keys matching the glob pattern, sorted.
	List(ctx context.Context, pattern string) ([]string, error)

	// Open opens the object at key for reading.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Put creates or replaces the object at key with the contents of r.
	Put(ctx context.Context, key string, r io.Reader) error

	// DeletePrefix removes every object whose key starts with prefix.
	// Removing a prefix that holds no objects is not an error.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Credentials carries the settings needed to reach S3-rooted stores. Local
// roots ignore it.
type Credentials struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Open returns the Store for root: an S3 store for "s3://bucket/prefix"
// URIs, a Local store for anything else.
func Open(root string, creds Credentials) (Store, error) {
	if bucket, prefix, ok := SplitS3URI(root); ok {
		return NewS3(bucket, prefix, creds)
	}
	return NewLocal(root), nil
}

// SplitS3URI splits "s3://bucket/prefix" into bucket and prefix. ok is false
// when uri does not carry the s3 scheme.
func SplitS3URI(uri string) (bucket, prefix string, ok bool) {
	const scheme = "s3://"
	if !strings.HasPrefix(uri, scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(uri, scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/"), bucket != ""
}

// JoinKey joins key segments with slashes, skipping empty segments.
func JoinKey(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
