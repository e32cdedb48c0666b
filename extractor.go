package sitecrawl

// Extraction holds what the crawler reads out of a fetched page.
type Extraction struct {
	Title string
	Links []string // absolute, in document order, not deduplicated
}

// LinkExtractor reads the title and anchor targets of an HTML document.
type LinkExtractor interface {
	// Extract parses html and resolves every anchor href against pageURL.
	// Returns EINVALID if the page URL or markup cannot be parsed.
	Extract(html string, pageURL string) (*Extraction, error)
}
