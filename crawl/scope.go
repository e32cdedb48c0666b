package crawl

import (
	"net/url"
	"strings"

	"github.com/fwojciec/sitecrawl"
)

// Scope restricts a crawl to the network location of its start URL.
// Only http and https URLs whose host (including any port) equals the
// start URL's are in scope; subdomains are not. Hosts are compared in
// canonical lower case.
type Scope struct {
	domain string
}

// NewScope returns the scope of a crawl starting at startURL.
func NewScope(startURL string) (*Scope, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid start URL: %v", err)
	}
	if u.Host == "" {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "start URL %q has no host", startURL)
	}
	return &Scope{domain: strings.ToLower(u.Host)}, nil
}

// Domain returns the network location the crawl is limited to.
func (s *Scope) Domain() string {
	return s.domain
}

// Admits reports whether rawURL is an http(s) URL on the crawl's domain.
func (s *Scope) Admits(rawURL string) bool {
	_, ok := s.canonical(rawURL)
	return ok
}

// Filter returns the in-scope links in canonical form, preserving order
// and duplicates.
func (s *Scope) Filter(links []string) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		if u, ok := s.canonical(link); ok {
			out = append(out, u)
		}
	}
	return out
}

// canonical returns the canonical form of rawURL if it is in scope.
func (s *Scope) canonical(rawURL string) (string, bool) {
	u, ok := parseCanonical(rawURL)
	if !ok || u.Host != s.domain {
		return "", false
	}
	return u.String(), true
}

// parseCanonical parses an http(s) URL with its scheme and host lower-cased
// and its fragment dropped, so that spellings of the same page share one
// visited key.
func parseCanonical(rawURL string) (*url.URL, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u, true
}
