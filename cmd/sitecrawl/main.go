package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/fs"
	"github.com/fwojciec/sitecrawl/goquery"
	sitecrawlhttp "github.com/fwojciec/sitecrawl/http"
	"github.com/fwojciec/sitecrawl/markdown"
	sitecrawlslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/fwojciec/sitecrawl/sqlite"
	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// progressURLWidth is the widest URL shown in progress lines.
const progressURLWidth = 80

// Main represents the program.
type Main struct {
	// ConfigPaths are YAML files read for option defaults, in order.
	ConfigPaths []string

	// Fetcher overrides the HTTP fetcher. Used by tests.
	Fetcher sitecrawl.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{DefaultConfigPath()},
	}
}

// Run executes the CLI with the given arguments. An interrupted crawl is
// saved and exported like a finished one and is not an error.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitecrawl"),
		kong.Description("Resumable, depth-bounded crawler for a single website"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(YAMLLoader, m.ConfigPaths...),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}
	if err := cli.validate(); err != nil {
		return err
	}

	logger := newLogger(stderr, cli.Verbose).With("run", uuid.NewString())

	store, closeStore, err := openStateStore(cli.StateFile, logger)
	if err != nil {
		return fmt.Errorf("failed to open state file %q: %w", cli.StateFile, err)
	}
	defer closeStore()
	loggedStore := sitecrawlslog.NewLoggingStateStore(store, logger)

	var state *sitecrawl.CrawlState
	if cli.Resume {
		state = crawl.Restore(ctx, loggedStore, cli.URL, cli.Depth, logger)
	} else {
		state = sitecrawl.NewCrawlState(cli.URL, cli.Depth)
	}

	fetcher := m.Fetcher
	if fetcher == nil {
		fetcher = sitecrawlhttp.NewFetcher(
			sitecrawlhttp.WithTimeout(cli.Timeout.Duration()),
			sitecrawlhttp.WithUserAgent(cli.UserAgent),
		)
	}
	fetcher = sitecrawlslog.NewLoggingFetcher(fetcher, logger)
	defer fetcher.Close()

	crawler := &crawl.Crawler{
		Fetcher:         fetcher,
		Extractor:       goquery.NewExtractor(),
		Store:           loggedStore,
		Throttle:        crawl.NewThrottle(cli.Delay.Duration()),
		CheckpointEvery: cli.checkpointInterval(),
		Logger:          logger,
		Progress: func(event crawl.ProgressEvent) {
			fmt.Fprintln(stdout, crawl.FormatProgress(event, progressURLWidth))
		},
	}

	fmt.Fprintf(stdout, "Starting crawl of %s with max depth %d\n", cli.URL, cli.Depth)
	fmt.Fprintf(stdout, "State file: %s\n", cli.StateFile)
	fmt.Fprintf(stdout, "Delay between requests: %s\n", cli.Delay.Duration())
	fmt.Fprintf(stdout, "Press Ctrl+C to interrupt and save state\n\n")

	result, err := crawler.Run(ctx, state)
	if err != nil {
		return err
	}

	if result.Termination == crawl.PhaseInterrupted {
		fmt.Fprintln(stdout, "\nCrawl interrupted.")
	}
	if result.CheckpointErr != nil {
		fmt.Fprintf(stderr, "Warning: crawl state could not be saved to %s: %v\n", cli.StateFile, result.CheckpointErr)
	}

	// Exports run even after interruption, so they must not see the canceled context.
	exportCtx := context.WithoutCancel(ctx)
	export := sitecrawl.NewExport(result.State)
	outputs := []output{{cli.Output, fs.NewResultWriter(cli.Output)}}
	if cli.Report != "" {
		outputs = append(outputs, output{cli.Report, markdown.NewReportWriter(cli.Report)})
	}
	for _, out := range outputs {
		w := sitecrawlslog.NewLoggingResultWriter(out.writer, out.path, logger)
		if err := w.WriteExport(exportCtx, export); err != nil {
			fmt.Fprintf(stderr, "Failed to write results to %s: %v\n", out.path, err)
			return fmt.Errorf("failed to write results: %w", err)
		}
	}
	fmt.Fprintf(stdout, "Results exported to %s\n", cli.Output)

	printSummary(stdout, export.Summary)
	return nil
}

// output is a destination for the crawl export.
type output struct {
	path   string
	writer sitecrawl.ResultWriter
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStateStore picks the store for path by its extension: SQLite for
// .db, .sqlite and .sqlite3 files, JSON otherwise. A database that cannot
// be opened is moved aside to path+".corrupt" and replaced by an empty
// one, so an unreadable state file means a fresh crawl.
func openStateStore(path string, logger *slog.Logger) (sitecrawl.StateStore, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		db := sqlite.NewDB(path)
		if err := db.Open(); err != nil {
			aside := path + ".corrupt"
			if renameErr := os.Rename(path, aside); renameErr != nil {
				return nil, nil, err
			}
			logger.Warn("could not open state database, starting fresh", "path", path, "moved_to", aside, "err", err)
			if err := db.Open(); err != nil {
				return nil, nil, err
			}
		}
		return sqlite.NewStateStore(db), func() { _ = db.Close() }, nil
	default:
		return fs.NewStateStore(path), func() {}, nil
	}
}

func printSummary(w io.Writer, s sitecrawl.Summary) {
	fmt.Fprintln(w, "\n=== Crawling Summary ===")
	fmt.Fprintf(w, "Domain: %s\n", s.Domain)
	fmt.Fprintf(w, "Start URL: %s\n", s.StartURL)
	fmt.Fprintf(w, "Max Depth: %d\n", s.MaxDepth)
	fmt.Fprintf(w, "URLs Crawled: %d\n", s.TotalURLsCrawled)
	fmt.Fprintf(w, "URLs Queued: %d\n", s.TotalURLsQueued)
	fmt.Fprintf(w, "Successful Crawls: %d\n", s.SuccessfulCrawls)
	fmt.Fprintf(w, "Failed Crawls: %d\n", s.FailedCrawls)
}
