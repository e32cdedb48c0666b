package sitecrawl

import "context"

// StateStore persists crawl state between runs.
type StateStore interface {
	// Load returns the most recently saved state.
	// Returns ENOTFOUND if nothing has been saved and EINVALID if the
	// stored content cannot be parsed.
	Load(ctx context.Context) (*CrawlState, error)

	// Save writes a complete snapshot of the state, replacing any prior one.
	Save(ctx context.Context, state *CrawlState) error
}

// ResultWriter writes the export of a finished crawl.
type ResultWriter interface {
	WriteExport(ctx context.Context, export *Export) error
}
