// Package dedup removes exact-duplicate rows from in-memory table slices.
//
// A row's identity is the composite key of all its fields, joined by Key.
// The winner among duplicates is the first occurrence and input order is
// preserved, so repeated runs over the same input produce identical output.
// The seen-set stores 64-bit xxh3 hashes of the keys rather than the keys
// themselves, which keeps memory flat on wide rows.
package dedup

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Key builds a composite key from field values. Parts are joined with an
// unlikely separator; nil values (including typed nil pointers) encode as
// "\x00" so a null field never collides with an empty string.
func Key(parts ...any) string {
	var b strings.Builder
	for i, v := range parts {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(t)
		case *string:
			if t == nil {
				b.WriteByte('\x00')
			} else {
				b.WriteString(*t)
			}
		case *float64:
			if t == nil {
				b.WriteByte('\x00')
			} else {
				fmt.Fprint(&b, *t)
			}
		default:
			fmt.Fprint(&b, t)
		}
	}
	return b.String()
}

// Rows returns in with exact duplicates removed, keeping the first
// occurrence of each key. The input slice is not modified.
func Rows[T any](in []T, key func(T) string) []T {
	if len(in) < 2 {
		return in
	}
	seen := make(map[uint64]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, r := range in {
		h := xxh3.HashString(key(r))
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, r)
	}
	return out
}
