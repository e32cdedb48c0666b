// Package bloom provides a probabilistic pre-check for visited-URL lookups.
// A negative answer is definite; a positive answer must be confirmed against
// the exact visited set.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// minCapacity is the smallest number of URLs a filter is sized for.
const minCapacity = 10000

// Filter wraps a Bloom filter keyed by URL.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs (at least minCapacity)
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(max(n, minCapacity), fpRate),
	}
}

// NewFilterFrom creates a filter holding urls, with room for the crawl to
// grow to twice its current size.
func NewFilterFrom(urls []string, fpRate float64) *Filter {
	f := NewFilter(uint(2*len(urls)), fpRate)
	for _, u := range urls {
		f.Add(u)
	}
	return f
}

// Add records a URL.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// MayContain returns false if the URL was definitely never added.
func (f *Filter) MayContain(url string) bool {
	return f.f.TestString(url)
}

// EstimatedCount returns the approximate number of URLs in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
