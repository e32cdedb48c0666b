package main

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
)

// Validation errors for CLI options.
var (
	ErrInvalidURL             = errors.New("invalid start URL: must be an absolute http or https URL")
	ErrInvalidDepth           = errors.New("invalid depth: must be non-negative")
	ErrInvalidDelay           = errors.New("invalid delay: must be non-negative")
	ErrInvalidTimeout         = errors.New("invalid timeout: must be positive")
	ErrInvalidCheckpointEvery = errors.New("invalid checkpoint interval: must be non-negative")
	ErrOutputIsStateFile      = errors.New("output file and state file must differ")
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL             string          `default:"https://www.jean.land/" help:"Starting URL to crawl"`
	Depth           int             `default:"5" help:"Maximum crawling depth"`
	Delay           Seconds         `default:"1s" help:"Delay between requests (e.g. 1.5 or 1500ms)"`
	StateFile       string          `default:"crawler_state.json" help:"State file for resume functionality (.db/.sqlite uses SQLite)"`
	Output          string          `default:"crawl_results.json" help:"Output file for results"`
	Resume          bool            `help:"Resume from existing state file"`
	Timeout         Seconds         `default:"10s" help:"Per-request timeout"`
	CheckpointEvery int             `default:"10" help:"Save state every N crawled URLs (0 saves only at the end)"`
	UserAgent       string          `default:"Mozilla/5.0 (compatible; WebCrawler/1.0)" help:"User-Agent header sent with requests"`
	Report          string          `help:"Also write a Markdown report to this path"`
	Verbose         bool            `short:"v" help:"Enable debug logging"`
	Config          kong.ConfigFlag `help:"YAML file with option defaults"`
}

// validate checks option values after parsing.
func (c *CLI) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return ErrInvalidURL
	}
	if c.Depth < 0 {
		return ErrInvalidDepth
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CheckpointEvery < 0 {
		return ErrInvalidCheckpointEvery
	}
	if filepath.Clean(c.Output) == filepath.Clean(c.StateFile) {
		return ErrOutputIsStateFile
	}
	return nil
}

// checkpointInterval maps the flag to crawl.Crawler.CheckpointEvery,
// where a negative value disables periodic saves.
func (c *CLI) checkpointInterval() int {
	if c.CheckpointEvery == 0 {
		return -1
	}
	return c.CheckpointEvery
}

// Seconds is a duration flag that also accepts a plain number of seconds.
type Seconds time.Duration

// Duration returns s as a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// Decode implements kong.MapperValue.
func (s *Seconds) Decode(ctx *kong.DecodeContext) error {
	token, err := ctx.Scan.PopValue("duration")
	if err != nil {
		return err
	}
	switch v := token.Value.(type) {
	case string:
		d, err := parseSeconds(v)
		if err != nil {
			return err
		}
		*s = Seconds(d)
	case int:
		*s = Seconds(time.Duration(v) * time.Second)
	case float64:
		*s = Seconds(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("expected a duration but got %v (%T)", token.Value, token.Value)
	}
	return nil
}

// parseSeconds parses a Go duration string or a bare number of seconds.
func parseSeconds(v string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("expected a duration or number of seconds but got %q", v)
	}
	return d, nil
}
