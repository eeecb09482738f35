package storage

import (
	"context"
	"io"
)

// NetFetcher resolves a network definition by resource name
type NetFetcher interface {
	FetchNet(ctx context.Context, name string) (io.ReadCloser, error)
}

// Lister enumerates the resource names below a prefix. Names are returned
// with '/' separators, relative to the fetcher root.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}
