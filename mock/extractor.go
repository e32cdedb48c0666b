package mock

import "github.com/fwojciec/sitecrawl"

var _ sitecrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of sitecrawl.LinkExtractor.
type LinkExtractor struct {
	ExtractFn func(html string, pageURL string) (*sitecrawl.Extraction, error)
}

func (e *LinkExtractor) Extract(html string, pageURL string) (*sitecrawl.Extraction, error) {
	return e.ExtractFn(html, pageURL)
}
