package lake

import (
	"path"
	"strings"
)

// matchKey reports whether key matches the glob pattern. Matching is
// path.Match semantics: '*' never crosses a '/' boundary, so the pattern
// "log_data/*/*/*.json" matches keys exactly three levels below log_data.
func matchKey(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}

// globPrefix returns the literal leading portion of pattern up to the last
// '/' before any glob metacharacter. Stores use it to narrow listings before
// per-key matching.
func globPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		pattern = pattern[:i]
	} else {
		return pattern
	}
	if j := strings.LastIndexByte(pattern, '/'); j >= 0 {
		return pattern[:j+1]
	}
	return ""
}
