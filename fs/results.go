package fs

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

// Ensure ResultWriter implements sitecrawl.ResultWriter at compile time.
var _ sitecrawl.ResultWriter = (*ResultWriter)(nil)

// ResultWriter writes the crawl export as a JSON document.
type ResultWriter struct {
	path string
}

// NewResultWriter creates a ResultWriter targeting path.
func NewResultWriter(path string) *ResultWriter {
	return &ResultWriter{path: path}
}

// WriteExport writes export to the output file, replacing it atomically.
func (w *ResultWriter) WriteExport(ctx context.Context, export *sitecrawl.Export) error {
	data, err := encodeJSON(export)
	if err != nil {
		return err
	}
	return writeFileAtomic(w.path, data)
}
