package lake

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Local is a filesystem-backed Store rooted at a directory.
type Local struct{ root string }

// NewLocal returns a Local store bound to the provided directory. The
// returned value is safe for concurrent use as long as the underlying
// directory is valid for concurrent access.
func NewLocal(root string) *Local { return &Local{root: root} }

// List walks the root directory and returns the relative slash-separated
// paths of regular files matching pattern, sorted.
func (l *Local) List(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	start := filepath.Join(l.root, filepath.FromSlash(globPrefix(pattern)))
	if _, err := os.Stat(start); os.IsNotExist(err) {
		// Nothing under the literal prefix; an empty listing, not an error.
		return nil, nil
	}
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if matchKey(pattern, key) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", pattern, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open opens the file at key for reading.
func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	p := filepath.Join(l.root, filepath.FromSlash(key))
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// Put writes the contents of r to the file at key, creating parent
// directories as needed.
func (l *Local) Put(ctx context.Context, key string, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", p, err)
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p, err)
	}
	return nil
}

// DeletePrefix removes the directory (or file) at prefix and everything
// below it. A missing prefix is not an error.
func (l *Local) DeletePrefix(ctx context.Context, prefix string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p := filepath.Join(l.root, filepath.FromSlash(prefix))
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}
