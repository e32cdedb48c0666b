package sitecrawl

import (
	"encoding/json"
	"net/url"
)

// CrawlTask is a pending unit of work in the frontier.
type CrawlTask struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

// VisitedSet is the set of URLs that have been dequeued for crawling.
// Insertion order is kept so that snapshots serialize deterministically.
// The zero value is not usable; create one with NewVisitedSet.
type VisitedSet struct {
	index map[string]struct{}
	urls  []string
}

// NewVisitedSet returns a set containing the given URLs.
// Duplicate URLs are collapsed, keeping the first occurrence.
func NewVisitedSet(urls ...string) *VisitedSet {
	s := &VisitedSet{index: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

// Add records a URL. Returns false if it was already present.
func (s *VisitedSet) Add(url string) bool {
	if _, ok := s.index[url]; ok {
		return false
	}
	s.index[url] = struct{}{}
	s.urls = append(s.urls, url)
	return true
}

// Has reports whether the URL has been visited.
func (s *VisitedSet) Has(url string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[url]
	return ok
}

// Len returns the number of visited URLs.
func (s *VisitedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.urls)
}

// URLs returns the visited URLs in the order they were added.
func (s *VisitedSet) URLs() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}

// MarshalJSON encodes the set as a JSON array.
func (s *VisitedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.URLs())
}

// UnmarshalJSON decodes a JSON array into the set.
func (s *VisitedSet) UnmarshalJSON(data []byte) error {
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return err
	}
	*s = *NewVisitedSet(urls...)
	return nil
}

// CrawlState is the full persisted state of a crawl: the frontier, the
// visited set and every record produced so far. It is mutated only by the
// crawl controller and is the unit written by a StateStore.
type CrawlState struct {
	StartURL string
	MaxDepth int
	Visited  *VisitedSet
	Queue    []CrawlTask
	Crawled  map[string]*PageRecord
}

// NewCrawlState returns an empty state for a crawl rooted at startURL.
func NewCrawlState(startURL string, maxDepth int) *CrawlState {
	return &CrawlState{
		StartURL: startURL,
		MaxDepth: maxDepth,
		Visited:  NewVisitedSet(),
		Queue:    []CrawlTask{},
		Crawled:  make(map[string]*PageRecord),
	}
}

// Domain returns the network location (host and optional port) of the start URL.
func (s *CrawlState) Domain() string {
	u, err := url.Parse(s.StartURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Fresh reports whether nothing has been queued or visited yet.
func (s *CrawlState) Fresh() bool {
	return len(s.Queue) == 0 && s.Visited.Len() == 0
}

// SetMaxDepth changes the depth bound and drops queued tasks that now exceed it.
func (s *CrawlState) SetMaxDepth(depth int) {
	s.MaxDepth = depth
	kept := s.Queue[:0]
	for _, task := range s.Queue {
		if task.Depth <= depth {
			kept = append(kept, task)
		}
	}
	s.Queue = kept
}

// Validate returns an error if the state violates the crawl invariants.
func (s *CrawlState) Validate() error {
	if s.MaxDepth < 0 {
		return Errorf(EINVALID, "max depth must be non-negative, got %d", s.MaxDepth)
	}
	for i, task := range s.Queue {
		if task.URL == "" {
			return Errorf(EINVALID, "queued task %d has no url", i)
		}
		if task.Depth < 0 {
			return Errorf(EINVALID, "queued task %q has negative depth %d", task.URL, task.Depth)
		}
	}
	for key, rec := range s.Crawled {
		if rec == nil {
			return Errorf(EINVALID, "crawled entry %q has no record", key)
		}
		if rec.URL != key {
			return Errorf(EINVALID, "crawled entry %q holds record for %q", key, rec.URL)
		}
		if !s.Visited.Has(key) {
			return Errorf(EINVALID, "crawled url %q is not in the visited set", key)
		}
	}
	return nil
}

// stateJSON is the persisted schema of a CrawlState.
type stateJSON struct {
	VisitedURLs []string               `json:"visited_urls"`
	URLQueue    []CrawlTask            `json:"url_queue"`
	CrawledData map[string]*PageRecord `json:"crawled_data"`
	StartURL    string                 `json:"start_url"`
	MaxDepth    int                    `json:"max_depth"`
}

// MarshalJSON encodes the state using the persisted schema.
func (s *CrawlState) MarshalJSON() ([]byte, error) {
	doc := stateJSON{
		VisitedURLs: s.Visited.URLs(),
		URLQueue:    s.Queue,
		CrawledData: s.Crawled,
		StartURL:    s.StartURL,
		MaxDepth:    s.MaxDepth,
	}
	if doc.URLQueue == nil {
		doc.URLQueue = []CrawlTask{}
	}
	if doc.CrawledData == nil {
		doc.CrawledData = map[string]*PageRecord{}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes the persisted schema. Missing fields fall back to
// empty values. Records without a url take it from their key, and crawled
// urls missing from the visited list are added to it. The decoded state is
// validated; violations are reported as EINVALID.
func (s *CrawlState) UnmarshalJSON(data []byte) error {
	var doc stateJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Errorf(EINVALID, "malformed state: %v", err)
	}

	st := NewCrawlState(doc.StartURL, doc.MaxDepth)
	st.Visited = NewVisitedSet(doc.VisitedURLs...)
	if doc.URLQueue != nil {
		st.Queue = doc.URLQueue
	}
	for key, rec := range doc.CrawledData {
		if rec != nil && rec.URL == "" {
			rec.URL = key
		}
		st.Crawled[key] = rec
		st.Visited.Add(key)
	}

	if err := st.Validate(); err != nil {
		return err
	}
	*s = *st
	return nil
}
