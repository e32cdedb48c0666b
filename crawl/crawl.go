// Package crawl provides the crawl controller: a resumable, depth-bounded,
// breadth-first crawl of a single domain. It coordinates the frontier,
// fetching, link extraction and checkpointing of crawl state.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/sitecrawl"
)

// DefaultCheckpointEvery is the checkpoint interval used when
// Crawler.CheckpointEvery is zero.
const DefaultCheckpointEvery = 10

// Phase is a state of the crawl controller.
// A run moves Idle → Running → {Interrupted | Exhausted} → Checkpointing → Done.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseInterrupted
	PhaseExhausted
	PhaseCheckpointing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseInterrupted:
		return "interrupted"
	case PhaseExhausted:
		return "exhausted"
	case PhaseCheckpointing:
		return "checkpointing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome classifies the result of a single crawl step.
type Outcome int

const (
	// OutcomeSkipped means the dequeued task was discarded without fetching,
	// or the queue was empty.
	OutcomeSkipped Outcome = iota
	// OutcomeSuccess means the page was fetched and parsed.
	OutcomeSuccess
	// OutcomeFetchError means the page could not be retrieved: network
	// failure, timeout, non-2xx status or undecodable body.
	OutcomeFetchError
	// OutcomeParseError means the page was retrieved but its markup could
	// not be parsed; it is recorded with no links.
	OutcomeParseError
	// OutcomeInterrupted means the step was abandoned before fetching
	// because the context was canceled. The task is back in the queue.
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSuccess:
		return "success"
	case OutcomeFetchError:
		return "fetch-error"
	case OutcomeParseError:
		return "parse-error"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// StepResult holds the outcome of processing one task.
type StepResult struct {
	Task     sitecrawl.CrawlTask
	Outcome  Outcome
	Record   *sitecrawl.PageRecord // nil unless the page was fetched
	Enqueued int                   // tasks added to the frontier
	Err      error                 // cause of a fetch, parse or interruption outcome
}

// ProgressEvent reports a crawled URL.
type ProgressEvent struct {
	URL        string
	Depth      int
	Outcome    Outcome
	StatusCode int
	Visited    int
	Queued     int
	Error      error
}

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Result holds the outcome of a crawl run.
type Result struct {
	// State is the final crawl state, already checkpointed.
	State *sitecrawl.CrawlState
	// Termination is PhaseExhausted or PhaseInterrupted.
	Termination Phase
	// Crawled counts pages fetched during this run.
	Crawled int
	// Checkpoints counts successful state saves, including the final one.
	Checkpoints int
	// CheckpointErr is the last checkpoint failure, if any.
	CheckpointErr error
}

// Crawler runs the crawl loop over an explicit CrawlState.
type Crawler struct {
	Fetcher   sitecrawl.Fetcher
	Extractor sitecrawl.LinkExtractor
	Store     sitecrawl.StateStore
	Throttle  sitecrawl.Throttle // optional

	// CheckpointEvery saves the state each time the visited count reaches
	// a multiple of it. Zero means DefaultCheckpointEvery; negative
	// disables periodic checkpoints. The final checkpoint always happens.
	CheckpointEvery int

	// RetryDelays are the waits between checkpoint write attempts.
	// Defaults to DefaultRetryDelays() if nil.
	RetryDelays []time.Duration

	Logger   *slog.Logger // optional
	Progress ProgressFunc // optional
	Now      func() time.Time
}

// Run crawls until the frontier is exhausted or ctx is canceled, then
// checkpoints the state. A fresh state is seeded with its start URL.
// Fetch and parse failures are recorded in the state and never end the
// run; checkpoint failures are logged and reported in Result.CheckpointErr.
// Run returns an error only if the state cannot be crawled at all.
func (c *Crawler) Run(ctx context.Context, state *sitecrawl.CrawlState) (*Result, error) {
	frontier, err := NewFrontier(state)
	if err != nil {
		return nil, err
	}

	result := &Result{State: state}
	c.transition(PhaseIdle, PhaseRunning)

	if frontier.Seed() {
		c.logger().Debug("seeded frontier", "url", state.StartURL)
	}
	c.logger().Debug("frontier ready",
		"queued", frontier.Len(),
		"visited", state.Visited.Len(),
		"visited_estimate", frontier.seen.EstimatedCount(),
	)

	result.Termination = PhaseExhausted
	for frontier.Len() > 0 {
		if ctx.Err() != nil {
			result.Termination = PhaseInterrupted
			break
		}

		step := c.Step(ctx, frontier)
		switch step.Outcome {
		case OutcomeSkipped:
			continue
		case OutcomeInterrupted:
			result.Termination = PhaseInterrupted
		default:
			result.Crawled++
			c.report(step, state)
			if c.checkpointDue(state) {
				c.checkpoint(ctx, state, result)
			}
		}
		if result.Termination == PhaseInterrupted {
			break
		}
	}

	c.transition(PhaseRunning, result.Termination)
	c.transition(result.Termination, PhaseCheckpointing)

	// The final save must happen even when ctx is already canceled.
	c.checkpoint(context.WithoutCancel(ctx), state, result)

	c.transition(PhaseCheckpointing, PhaseDone)
	return result, nil
}

// Step dequeues one task and processes it: discard it if it was already
// visited or is too deep, otherwise mark it visited, fetch it, record the
// page and enqueue its in-scope links at the next depth.
//
// The fetch itself is not canceled by ctx: once a URL is marked visited
// its record is always written, and the fetcher's timeout bounds the wait.
func (c *Crawler) Step(ctx context.Context, f *Frontier) StepResult {
	task, ok := f.Dequeue()
	if !ok {
		return StepResult{Outcome: OutcomeSkipped}
	}
	res := StepResult{Task: task}

	state := f.State()
	if f.Visited(task.URL) || task.Depth > state.MaxDepth {
		res.Outcome = OutcomeSkipped
		return res
	}

	if c.Throttle != nil {
		if err := c.Throttle.Wait(ctx); err != nil {
			f.Requeue(task)
			res.Outcome = OutcomeInterrupted
			res.Err = err
			return res
		}
	}

	f.MarkVisited(task.URL)
	resp, err := c.Fetcher.Fetch(context.WithoutCancel(ctx), task.URL)
	if c.Throttle != nil {
		c.Throttle.Done()
	}
	now := c.now()
	if err == nil && resp == nil {
		err = fmt.Errorf("no response for %s", task.URL)
	}
	if err == nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		err = fmt.Errorf("HTTP %d for %s", resp.StatusCode, task.URL)
	}
	if err != nil {
		res.Outcome = OutcomeFetchError
		res.Err = err
		res.Record = sitecrawl.NewErrorRecord(task.URL, err, now)
		state.Crawled[task.URL] = res.Record
		c.logger().Warn("fetch failed", "url", task.URL, "depth", task.Depth, "err", err)
		return res
	}

	rec := &sitecrawl.PageRecord{
		URL:           task.URL,
		StatusCode:    resp.StatusCode,
		ContentLength: utf8.RuneCountInString(resp.Body),
		LinksFound:    []string{},
		CrawlTime:     now,
		ContentHash:   computeHash(resp.Body),
	}
	res.Record = rec
	state.Crawled[task.URL] = rec

	extraction, err := c.Extractor.Extract(resp.Body, task.URL)
	if err != nil {
		res.Outcome = OutcomeParseError
		res.Err = err
		c.logger().Warn("parse failed", "url", task.URL, "err", sitecrawl.ErrorMessage(err))
		return res
	}
	res.Outcome = OutcomeSuccess
	rec.Title = extraction.Title
	rec.LinksFound = f.Links(extraction.Links)

	// Only pages fetched with status 200 and a body yield children.
	if task.Depth < state.MaxDepth && rec.Successful() && resp.Body != "" {
		for _, link := range rec.LinksFound {
			if f.Enqueue(link, task.Depth+1) {
				res.Enqueued++
			}
		}
	}
	return res
}

// Restore returns the state to resume a crawl of startURL from store.
// It never fails: a missing, unreadable or unrelated saved state yields a
// fresh state and the reason is logged. A restored state adopts maxDepth,
// dropping queued tasks deeper than it.
func Restore(ctx context.Context, store sitecrawl.StateStore, startURL string, maxDepth int, logger *slog.Logger) *sitecrawl.CrawlState {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fresh := sitecrawl.NewCrawlState(startURL, maxDepth)

	state, err := store.Load(ctx)
	switch {
	case err == nil:
	case sitecrawl.ErrorCode(err) == sitecrawl.ENOTFOUND:
		logger.Info("no saved state, starting fresh")
		return fresh
	default:
		logger.Warn("could not load saved state, starting fresh", "err", err)
		return fresh
	}

	if state.StartURL != "" && state.StartURL != startURL {
		logger.Warn("saved state is for a different start URL, starting fresh",
			"saved", state.StartURL,
			"start_url", startURL,
		)
		return fresh
	}
	state.StartURL = startURL
	if state.MaxDepth != maxDepth {
		logger.Info("max depth changed since last run", "saved", state.MaxDepth, "max_depth", maxDepth)
		state.SetMaxDepth(maxDepth)
	}

	logger.Info("resumed crawl",
		"visited", state.Visited.Len(),
		"queued", len(state.Queue),
		"crawled", len(state.Crawled),
	)
	return state
}

func (c *Crawler) checkpointDue(state *sitecrawl.CrawlState) bool {
	every := c.CheckpointEvery
	if every == 0 {
		every = DefaultCheckpointEvery
	}
	return every > 0 && state.Visited.Len()%every == 0
}

func (c *Crawler) checkpoint(ctx context.Context, state *sitecrawl.CrawlState, result *Result) {
	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	if err := SaveWithRetry(ctx, c.Store, state, delays); err != nil {
		result.CheckpointErr = err
		c.logger().Error("checkpoint failed",
			"visited", state.Visited.Len(),
			"err", err,
		)
		return
	}
	result.Checkpoints++
}

func (c *Crawler) report(step StepResult, state *sitecrawl.CrawlState) {
	if c.Progress == nil {
		return
	}
	event := ProgressEvent{
		URL:     step.Task.URL,
		Depth:   step.Task.Depth,
		Outcome: step.Outcome,
		Visited: state.Visited.Len(),
		Queued:  len(state.Queue),
		Error:   step.Err,
	}
	if step.Record != nil {
		event.StatusCode = step.Record.StatusCode
	}
	c.Progress(event)
}

func (c *Crawler) transition(from, to Phase) {
	c.logger().Debug("crawl phase", "from", from, "to", to)
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Crawler) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
