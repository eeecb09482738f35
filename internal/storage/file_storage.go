package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileFetcher reads network definitions from a local directory tree
type FileFetcher struct {
	root string
}

// NewFileFetcher creates a fetcher rooted at dir
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{root: dir}
}

func (f *FileFetcher) FetchNet(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return file, nil
}

// List walks the tree below prefix and returns every regular file
func (f *FileFetcher) List(ctx context.Context, prefix string) ([]string, error) {
	base, err := f.resolve(prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return names, nil
}

// resolve keeps every name inside the root; cleaning a rooted path drops
// any leading "..".
func (f *FileFetcher) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty resource name")
	}
	clean := path.Clean("/" + filepath.ToSlash(name))
	return filepath.Join(f.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
