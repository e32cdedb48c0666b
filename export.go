package sitecrawl

// Summary describes the outcome of a crawl.
type Summary struct {
	TotalURLsCrawled int    `json:"total_urls_crawled"`
	TotalURLsQueued  int    `json:"total_urls_queued"`
	StartURL         string `json:"start_url"`
	MaxDepth         int    `json:"max_depth"`
	Domain           string `json:"domain"`
	SuccessfulCrawls int    `json:"successful_crawls"`
	FailedCrawls     int    `json:"failed_crawls"`
}

// Export is the document produced from a final crawl state.
type Export struct {
	Summary     Summary                `json:"summary"`
	CrawledData map[string]*PageRecord `json:"crawled_data"`
}

// Summarize computes the summary of a crawl state without modifying it.
func Summarize(state *CrawlState) Summary {
	sum := Summary{
		TotalURLsCrawled: state.Visited.Len(),
		TotalURLsQueued:  len(state.Queue),
		StartURL:         state.StartURL,
		MaxDepth:         state.MaxDepth,
		Domain:           state.Domain(),
	}
	for _, rec := range state.Crawled {
		if rec.Successful() {
			sum.SuccessfulCrawls++
		} else {
			sum.FailedCrawls++
		}
	}
	return sum
}

// NewExport builds the export document for a crawl state.
// The state is only read; the returned export holds its own map.
func NewExport(state *CrawlState) *Export {
	data := make(map[string]*PageRecord, len(state.Crawled))
	for url, rec := range state.Crawled {
		data[url] = rec
	}
	return &Export{
		Summary:     Summarize(state),
		CrawledData: data,
	}
}
