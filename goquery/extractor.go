// Package goquery implements sitecrawl.LinkExtractor using goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.LinkExtractor = (*Extractor)(nil)

// Extractor reads the page title and every anchor target from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the trimmed text of the first <title> element and the
// href of every <a href> element, resolved against pageURL, in document
// order. Fragments are stripped; javascript:, mailto:, tel: and data: links
// and hrefs that cannot be parsed are skipped. Duplicates are kept.
func (e *Extractor) Extract(html string, pageURL string) (*sitecrawl.Extraction, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	result := &sitecrawl.Extraction{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: []string{},
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || isNonHTTPLink(href) {
			return
		}
		if resolved := resolveURL(base, href); resolved != "" {
			result.Links = append(result.Links, resolved)
		}
	})

	return result, nil
}

// resolveURL resolves href against base and strips the fragment.
// Returns empty string if the href cannot be parsed.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
