package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fwojciec/sitecrawl"
	main "github.com/fwojciec/sitecrawl/cmd/sitecrawl"
	"github.com/fwojciec/sitecrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSite serves a small site and counts requests per path.
type testSite struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

// newTestSite serves:
//
//	/   -> /a, /b, external link
//	/a  -> /c
//	/b  -> HTTP 500
//	/c  -> leaf
func newTestSite(t *testing.T) *testSite {
	t.Helper()
	site := &testSite{hits: map[string]int{}}
	site.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.hits[r.URL.Path]++
		site.mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><head><title>Home</title></head><body>
<a href="/a">A</a> <a href="b#frag">B</a> <a href="https://other.test/x">X</a>
</body></html>`)
		case "/a":
			fmt.Fprint(w, `<html><head><title>A</title></head><body><a href="/c">C</a></body></html>`)
		case "/b":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/c":
			fmt.Fprint(w, `<html><head><title>C</title></head><body>leaf</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(site.Close)
	return site
}

func (s *testSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newTestMain() *main.Main {
	m := main.NewMain()
	m.ConfigPaths = nil
	return m
}

type exportDoc struct {
	Summary     sitecrawl.Summary                 `json:"summary"`
	CrawledData map[string]*sitecrawl.PageRecord `json:"crawled_data"`
}

func readExport(t *testing.T, path string) exportDoc {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc exportDoc
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	m := newTestMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "sitecrawl")
	assert.Contains(t, stdout.String(), "--state-file")
	assert.Contains(t, stdout.String(), "--resume")
}

func TestMain_Run_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"negative depth", []string{"--depth=-1"}, main.ErrInvalidDepth},
		{"non-http URL", []string{"--url=ftp://example.test/"}, main.ErrInvalidURL},
		{"relative URL", []string{"--url=/docs"}, main.ErrInvalidURL},
		{"negative delay", []string{"--delay=-1s"}, main.ErrInvalidDelay},
		{"zero timeout", []string{"--timeout=0"}, main.ErrInvalidTimeout},
		{"negative checkpoint interval", []string{"--checkpoint-every=-2"}, main.ErrInvalidCheckpointEvery},
		{"output equals state file", []string{"--output=state.json", "--state-file=./state.json"}, main.ErrOutputIsStateFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			err := newTestMain().Run(context.Background(), tt.args, &stdout, &stderr)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMain_Run_RejectsMalformedDelay(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(context.Background(), []string{"--delay=soon"}, &stdout, &stderr)

	require.Error(t, err)
}

func TestMain_Run_CrawlsSite(t *testing.T) {
	t.Parallel()

	// Given a small site
	site := newTestSite(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	outputPath := filepath.Join(dir, "results.json")
	reportPath := filepath.Join(dir, "report.md")

	// When I crawl it to depth 1
	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(context.Background(), []string{
		"--url=" + site.URL + "/",
		"--depth=1",
		"--delay=0",
		"--state-file=" + statePath,
		"--output=" + outputPath,
		"--report=" + reportPath,
	}, &stdout, &stderr)

	// Then the start page and its same-domain children are crawled
	require.NoError(t, err, stderr.String())
	doc := readExport(t, outputPath)
	assert.Equal(t, 3, doc.Summary.TotalURLsCrawled)
	assert.Equal(t, 0, doc.Summary.TotalURLsQueued)
	assert.Equal(t, 2, doc.Summary.SuccessfulCrawls)
	assert.Equal(t, 1, doc.Summary.FailedCrawls)
	assert.Equal(t, site.Listener.Addr().String(), doc.Summary.Domain)

	home := doc.CrawledData[site.URL+"/"]
	require.NotNil(t, home)
	assert.Equal(t, "Home", home.Title)
	assert.Equal(t, []string{site.URL + "/a", site.URL + "/b"}, home.LinksFound)

	failed := doc.CrawledData[site.URL+"/b"]
	require.NotNil(t, failed)
	assert.Equal(t, sitecrawl.StatusFailed, failed.StatusCode)
	assert.Contains(t, failed.Error, "HTTP 500")

	// And depth-2 pages are not fetched
	assert.Equal(t, 0, site.hitCount("/c"))

	// And the state file holds the final state
	_, err = os.Stat(statePath)
	require.NoError(t, err)

	// And the report and summary are written
	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "# Crawl Report")
	assert.Contains(t, stdout.String(), "=== Crawling Summary ===")
	assert.Contains(t, stdout.String(), "Successful Crawls: 2")
	assert.Contains(t, stdout.String(), "Failed Crawls: 1")
	assert.Contains(t, stdout.String(), "crawled,")
}

func TestMain_Run_ResumesFromStateFile(t *testing.T) {
	t.Parallel()

	// Given a saved state where the start page was already crawled
	site := newTestSite(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	outputPath := filepath.Join(dir, "results.json")

	state := sitecrawl.NewCrawlState(site.URL+"/", 2)
	state.Visited.Add(site.URL + "/")
	state.Queue = []sitecrawl.CrawlTask{{URL: site.URL + "/a", Depth: 1}}
	state.Crawled[site.URL+"/"] = &sitecrawl.PageRecord{URL: site.URL + "/", StatusCode: 200, LinksFound: []string{site.URL + "/a"}}
	data, err := json.Marshal(state)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(statePath, data, 0644))

	// When I resume
	var stdout, stderr bytes.Buffer
	err = newTestMain().Run(context.Background(), []string{
		"--url=" + site.URL + "/",
		"--depth=2",
		"--delay=0",
		"--state-file=" + statePath,
		"--output=" + outputPath,
		"--resume",
	}, &stdout, &stderr)

	// Then only queued pages are fetched
	require.NoError(t, err, stderr.String())
	assert.Equal(t, 0, site.hitCount("/"))
	assert.Equal(t, 1, site.hitCount("/a"))
	assert.Equal(t, 1, site.hitCount("/c"))

	doc := readExport(t, outputPath)
	assert.Equal(t, 3, doc.Summary.TotalURLsCrawled)
	assert.Contains(t, doc.CrawledData, site.URL+"/")
	assert.Contains(t, doc.CrawledData, site.URL+"/c")
}

func TestMain_Run_WithoutResumeStartsFresh(t *testing.T) {
	t.Parallel()

	// Given a state file from an earlier run
	site := newTestSite(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	outputPath := filepath.Join(dir, "results.json")

	state := sitecrawl.NewCrawlState(site.URL+"/", 0)
	state.Visited.Add(site.URL + "/")
	data, err := json.Marshal(state)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(statePath, data, 0644))

	// When I run without --resume
	var stdout, stderr bytes.Buffer
	err = newTestMain().Run(context.Background(), []string{
		"--url=" + site.URL + "/",
		"--depth=0",
		"--delay=0",
		"--state-file=" + statePath,
		"--output=" + outputPath,
	}, &stdout, &stderr)

	// Then the start page is crawled again
	require.NoError(t, err)
	assert.Equal(t, 1, site.hitCount("/"))
}

func TestMain_Run_InvalidStateFileStartsFresh(t *testing.T) {
	t.Parallel()

	// Given a corrupt state file
	site := newTestSite(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	outputPath := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(statePath, []byte("{not json"), 0644))

	// When I resume
	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(context.Background(), []string{
		"--url=" + site.URL + "/",
		"--depth=0",
		"--delay=0",
		"--state-file=" + statePath,
		"--output=" + outputPath,
		"--resume",
	}, &stdout, &stderr)

	// Then the crawl proceeds from the start URL
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "starting fresh")
	doc := readExport(t, outputPath)
	assert.Equal(t, 1, doc.Summary.TotalURLsCrawled)
	assert.Equal(t, 1, doc.Summary.SuccessfulCrawls)
}

func TestMain_Run_SQLiteStateFile(t *testing.T) {
	t.Parallel()

	site := newTestSite(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.db")
	outputPath := filepath.Join(dir, "results.json")

	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(context.Background(), []string{
		"--url=" + site.URL + "/",
		"--depth=1",
		"--delay=0",
		"--state-file=" + statePath,
		"--output=" + outputPath,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	db := sqlite.NewDB(statePath)
	require.NoError(t, db.Open())
	defer db.Close()
	state, err := sqlite.NewStateStore(db).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, state.Visited.Len())
	assert.Len(t, state.Crawled, 3)
}

func TestMain_Run_CorruptSQLiteStateFileStartsFresh(t *testing.T) {
	t.Parallel()

	// Given a .db state file that is not a SQLite database
	site := newTestSite(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.db")
	outputPath := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(statePath, []byte("this is not a database"), 0644))

	// When I resume
	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(context.Background(), []string{
		"--url=" + site.URL + "/",
		"--depth=0",
		"--delay=0",
		"--state-file=" + statePath,
		"--output=" + outputPath,
		"--resume",
	}, &stdout, &stderr)

	// Then the crawl starts fresh and the old file is kept aside
	require.NoError(t, err, stderr.String())
	assert.Equal(t, 1, site.hitCount("/"))
	assert.Contains(t, stderr.String(), "starting fresh")

	kept, err := os.ReadFile(statePath + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "this is not a database", string(kept))

	// And the new database holds the crawl
	db := sqlite.NewDB(statePath)
	require.NoError(t, db.Open())
	defer db.Close()
	state, err := sqlite.NewStateStore(db).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, state.Visited.Len())
}

func TestMain_Run_InterruptedCrawlIsSavedAndExported(t *testing.T) {
	t.Parallel()

	// Given an interruption before the first fetch
	site := newTestSite(t)
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	outputPath := filepath.Join(dir, "results.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When I run
	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(ctx, []string{
		"--url=" + site.URL + "/",
		"--delay=0",
		"--state-file=" + statePath,
		"--output=" + outputPath,
	}, &stdout, &stderr)

	// Then the seeded state is saved and exported
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Crawl interrupted.")
	assert.Equal(t, 0, site.hitCount("/"))

	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var saved sitecrawl.CrawlState
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, []sitecrawl.CrawlTask{{URL: site.URL + "/", Depth: 0}}, saved.Queue)

	doc := readExport(t, outputPath)
	assert.Equal(t, 1, doc.Summary.TotalURLsQueued)
	assert.Equal(t, 0, doc.Summary.TotalURLsCrawled)
}

func TestMain_Run_OutputWriteFailure(t *testing.T) {
	t.Parallel()

	site := newTestSite(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(context.Background(), []string{
		"--url=" + site.URL + "/",
		"--depth=0",
		"--delay=0",
		"--state-file=" + filepath.Join(dir, "state.json"),
		"--output=" + filepath.Join(blocker, "results.json"),
	}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, stderr.String(), "Failed to write results")
}

func TestMain_Run_ReadsConfigFile(t *testing.T) {
	t.Parallel()

	// Given a config file setting depth and delay
	site := newTestSite(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	outputPath := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(
		"url: %s/\ndepth: 0\ndelay: 0\nstate_file: %s\n", site.URL, filepath.Join(dir, "state.json"),
	)), 0644))

	// When I run with only the output flag
	m := newTestMain()
	m.ConfigPaths = []string{configPath}
	var stdout, stderr bytes.Buffer
	err := m.Run(context.Background(), []string{"--output=" + outputPath}, &stdout, &stderr)

	// Then the config values are used
	require.NoError(t, err, stderr.String())
	doc := readExport(t, outputPath)
	assert.Equal(t, 0, doc.Summary.MaxDepth)
	assert.Equal(t, site.URL+"/", doc.Summary.StartURL)
	_, err = os.Stat(filepath.Join(dir, "state.json"))
	assert.NoError(t, err)
}

func TestMain_Run_ConfigFlagOverriddenByArgs(t *testing.T) {
	t.Parallel()

	site := newTestSite(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sitecrawl.yaml")
	outputPath := filepath.Join(dir, "results.json")
	require.NoError(t, os.WriteFile(configPath, []byte("depth: 3\ndelay: 0.001\n"), 0644))

	var stdout, stderr bytes.Buffer
	err := newTestMain().Run(context.Background(), []string{
		"--config=" + configPath,
		"--url=" + site.URL + "/",
		"--depth=0",
		"--state-file=" + filepath.Join(dir, "state.json"),
		"--output=" + outputPath,
	}, &stdout, &stderr)

	require.NoError(t, err, stderr.String())
	doc := readExport(t, outputPath)
	assert.Equal(t, 0, doc.Summary.MaxDepth)
}
