package sitecrawl

import (
	"encoding/json"
	"math"
	"net/http"
	"time"
)

// StatusFailed is the status code recorded for pages that could not be crawled.
const StatusFailed = -1

// PageRecord is the result of crawling a single URL.
// Exactly one record exists per crawled URL. Failed crawls carry
// StatusFailed and an Error message; their title, length and links are empty.
type PageRecord struct {
	URL           string
	Title         string
	StatusCode    int
	ContentLength int
	LinksFound    []string
	CrawlTime     time.Time
	Error         string
	ContentHash   string // xxhash of the body, informational only
}

// NewErrorRecord returns the record for a URL whose crawl failed.
func NewErrorRecord(url string, err error, at time.Time) *PageRecord {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &PageRecord{
		URL:        url,
		StatusCode: StatusFailed,
		CrawlTime:  at,
		Error:      msg,
	}
}

// Failed reports whether the record describes an error crawl.
func (r *PageRecord) Failed() bool {
	return r.Error != "" || r.StatusCode == StatusFailed
}

// Successful reports whether the page was fetched with status 200.
// Any other status, including other 2xx codes, counts as unsuccessful.
func (r *PageRecord) Successful() bool {
	return r.StatusCode == http.StatusOK
}

type pageRecordJSON struct {
	URL           string    `json:"url"`
	Title         *string   `json:"title,omitempty"`
	StatusCode    int       `json:"status_code"`
	ContentLength *int      `json:"content_length,omitempty"`
	LinksFound    *[]string `json:"links_found,omitempty"`
	CrawlTime     float64   `json:"crawl_time"`
	Error         string    `json:"error,omitempty"`
	ContentHash   string    `json:"content_hash,omitempty"`
}

// MarshalJSON encodes the record with crawl_time as epoch seconds.
// Error records omit the fields that only apply to fetched pages.
func (r *PageRecord) MarshalJSON() ([]byte, error) {
	doc := pageRecordJSON{
		URL:        r.URL,
		StatusCode: r.StatusCode,
		CrawlTime:  epochSeconds(r.CrawlTime),
		Error:      r.Error,
	}
	if !r.Failed() {
		links := r.LinksFound
		if links == nil {
			links = []string{}
		}
		doc.Title = &r.Title
		doc.ContentLength = &r.ContentLength
		doc.LinksFound = &links
		doc.ContentHash = r.ContentHash
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a record. Missing fields take their zero values,
// except status_code which defaults to StatusFailed.
func (r *PageRecord) UnmarshalJSON(data []byte) error {
	doc := pageRecordJSON{StatusCode: StatusFailed}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = PageRecord{
		URL:         doc.URL,
		StatusCode:  doc.StatusCode,
		CrawlTime:   fromEpochSeconds(doc.CrawlTime),
		Error:       doc.Error,
		ContentHash: doc.ContentHash,
	}
	if doc.Title != nil {
		r.Title = *doc.Title
	}
	if doc.ContentLength != nil {
		r.ContentLength = *doc.ContentLength
	}
	if doc.LinksFound != nil {
		r.LinksFound = *doc.LinksFound
	}
	return nil
}

func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpochSeconds(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}
