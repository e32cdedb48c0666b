package crawl

import (
	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/bloom"
)

// visitedFalsePositiveRate is the false positive rate of the visited pre-check.
const visitedFalsePositiveRate = 0.01

// Frontier is the FIFO queue of pending tasks together with the visited
// set. It reads and writes the queue and visited set of the CrawlState it
// was created for, so the state always reflects the frontier.
//
// FIFO order plus depth stamping yields breadth-first traversal.
// A Frontier is not safe for concurrent use.
type Frontier struct {
	state *sitecrawl.CrawlState
	scope *Scope
	seen  *bloom.Filter
}

// NewFrontier returns a frontier over state, scoped to its start URL.
func NewFrontier(state *sitecrawl.CrawlState) (*Frontier, error) {
	scope, err := NewScope(state.StartURL)
	if err != nil {
		return nil, err
	}
	if state.Visited == nil {
		state.Visited = sitecrawl.NewVisitedSet()
	}
	return &Frontier{
		state: state,
		scope: scope,
		seen:  bloom.NewFilterFrom(state.Visited.URLs(), visitedFalsePositiveRate),
	}, nil
}

// State returns the crawl state the frontier operates on.
func (f *Frontier) State() *sitecrawl.CrawlState {
	return f.state
}

// Scope returns the domain scope the frontier admits URLs from.
func (f *Frontier) Scope() *Scope {
	return f.scope
}

// Seed queues the start URL at depth 0 if the crawl has not started yet.
// Returns false if the state already holds queued or visited URLs.
func (f *Frontier) Seed() bool {
	if !f.state.Fresh() {
		return false
	}
	return f.Enqueue(f.state.StartURL, 0)
}

// Enqueue appends a task for rawURL at depth. The task is admitted only if
// the URL is in scope, has not been visited, and depth does not exceed the
// crawl's max depth. The URL is queued in canonical form (see Canonicalize).
// Returns false if the task was rejected.
func (f *Frontier) Enqueue(rawURL string, depth int) bool {
	if depth < 0 || depth > f.state.MaxDepth {
		return false
	}
	u, ok := f.scope.canonical(rawURL)
	if !ok {
		return false
	}
	if f.Visited(u) {
		return false
	}
	f.state.Queue = append(f.state.Queue, sitecrawl.CrawlTask{URL: u, Depth: depth})
	return true
}

// Dequeue removes and returns the oldest task.
// The bool result is false if the frontier is empty.
func (f *Frontier) Dequeue() (sitecrawl.CrawlTask, bool) {
	if len(f.state.Queue) == 0 {
		return sitecrawl.CrawlTask{}, false
	}
	task := f.state.Queue[0]
	f.state.Queue[0] = sitecrawl.CrawlTask{}
	f.state.Queue = f.state.Queue[1:]
	return task, true
}

// Requeue puts a dequeued task back at the head of the queue so it is
// the next one dequeued. The task is not re-checked for admission.
func (f *Frontier) Requeue(task sitecrawl.CrawlTask) {
	f.state.Queue = append([]sitecrawl.CrawlTask{task}, f.state.Queue...)
}

// Links returns the in-scope links not yet visited, in canonical form and
// document order. Duplicates are kept.
func (f *Frontier) Links(links []string) []string {
	out := f.scope.Filter(links)
	kept := out[:0]
	for _, link := range out {
		if !f.Visited(link) {
			kept = append(kept, link)
		}
	}
	return kept
}

// Len returns the number of queued tasks.
func (f *Frontier) Len() int {
	return len(f.state.Queue)
}

// Visited reports whether the URL has been dequeued for crawling.
func (f *Frontier) Visited(url string) bool {
	if !f.seen.MayContain(url) {
		return false
	}
	return f.state.Visited.Has(url)
}

// MarkVisited records the URL as visited.
// Returns false if it was already visited.
func (f *Frontier) MarkVisited(url string) bool {
	if !f.state.Visited.Add(url) {
		return false
	}
	f.seen.Add(url)
	return true
}
