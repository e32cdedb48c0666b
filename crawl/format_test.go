package crawl_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/stretchr/testify/assert"
)

func TestTruncateURL(t *testing.T) {
	t.Parallel()

	t.Run("returns URL unchanged when shorter than max", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "https://x.com", crawl.TruncateURL("https://x.com", 50))
	})

	t.Run("truncates with ellipsis when longer than max", func(t *testing.T) {
		t.Parallel()
		url := "https://example.com/very/long/path/to/documentation"
		result := crawl.TruncateURL(url, 20)
		assert.Equal(t, ".../to/documentation", result)
		assert.Len(t, result, 20)
	})

	t.Run("returns URL unchanged when exactly max length", func(t *testing.T) {
		t.Parallel()
		url := "https://example.com"
		assert.Equal(t, url, crawl.TruncateURL(url, len(url)))
	})

	t.Run("returns empty string when maxLen is not positive", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, crawl.TruncateURL("https://example.com", 0))
		assert.Empty(t, crawl.TruncateURL("https://example.com", -1))
	})

	t.Run("returns prefix of URL when maxLen is very small", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "htt", crawl.TruncateURL("https://example.com", 3))
		assert.Equal(t, "h", crawl.TruncateURL("https://example.com", 1))
		assert.Equal(t, "ab", crawl.TruncateURL("ab", 3))
	})
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	t.Run("formats bytes as B", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "512 B", crawl.FormatBytes(512))
	})

	t.Run("formats kilobytes as KB", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "1.5 KB", crawl.FormatBytes(1536))
	})

	t.Run("formats megabytes as MB", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "2.0 MB", crawl.FormatBytes(2*1024*1024))
	})
}

func TestFormatProgress(t *testing.T) {
	t.Parallel()

	t.Run("shows counts, depth, status and URL", func(t *testing.T) {
		t.Parallel()

		line := crawl.FormatProgress(crawl.ProgressEvent{
			URL:        "https://example.com/a",
			Depth:      1,
			Outcome:    crawl.OutcomeSuccess,
			StatusCode: 200,
			Visited:    3,
			Queued:     7,
		}, 60)

		assert.Equal(t, "[3 crawled, 7 queued] d=1 200 https://example.com/a", line)
	})

	t.Run("shows ERR for fetch errors", func(t *testing.T) {
		t.Parallel()

		line := crawl.FormatProgress(crawl.ProgressEvent{
			URL:        "https://example.com/",
			Outcome:    crawl.OutcomeFetchError,
			StatusCode: -1,
			Visited:    1,
			Error:      errors.New("timeout"),
		}, 60)

		assert.Equal(t, "[1 crawled, 0 queued] d=0 ERR https://example.com/", line)
	})

	t.Run("truncates long URLs", func(t *testing.T) {
		t.Parallel()

		line := crawl.FormatProgress(crawl.ProgressEvent{
			URL:        "https://example.com/very/long/path/to/documentation",
			StatusCode: 200,
		}, 20)

		assert.Contains(t, line, ".../to/documentation")
	})
}
