package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.StateStore = (*StateStore)(nil)

// StateStore is a mock implementation of sitecrawl.StateStore.
type StateStore struct {
	LoadFn func(ctx context.Context) (*sitecrawl.CrawlState, error)
	SaveFn func(ctx context.Context, state *sitecrawl.CrawlState) error
}

func (s *StateStore) Load(ctx context.Context) (*sitecrawl.CrawlState, error) {
	return s.LoadFn(ctx)
}

func (s *StateStore) Save(ctx context.Context, state *sitecrawl.CrawlState) error {
	return s.SaveFn(ctx, state)
}

var _ sitecrawl.ResultWriter = (*ResultWriter)(nil)

// ResultWriter is a mock implementation of sitecrawl.ResultWriter.
type ResultWriter struct {
	WriteExportFn func(ctx context.Context, export *sitecrawl.Export) error
}

func (w *ResultWriter) WriteExport(ctx context.Context, export *sitecrawl.Export) error {
	return w.WriteExportFn(ctx, export)
}
