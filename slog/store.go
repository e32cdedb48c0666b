package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingStateStore implements sitecrawl.StateStore.
var _ sitecrawl.StateStore = (*LoggingStateStore)(nil)

// LoggingStateStore wraps a StateStore with logging.
type LoggingStateStore struct {
	next   sitecrawl.StateStore
	logger *slog.Logger
}

// NewLoggingStateStore creates a new LoggingStateStore.
func NewLoggingStateStore(next sitecrawl.StateStore, logger *slog.Logger) *LoggingStateStore {
	return &LoggingStateStore{next: next, logger: logger}
}

// Load delegates to the wrapped store and logs the operation.
func (s *LoggingStateStore) Load(ctx context.Context) (state *sitecrawl.CrawlState, err error) {
	defer func(begin time.Time) {
		visited, queued := 0, 0
		if state != nil {
			visited, queued = state.Visited.Len(), len(state.Queue)
		}
		s.logger.Info("state load",
			"visited", visited,
			"queued", queued,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Load(ctx)
}

// Save delegates to the wrapped store and logs the operation.
func (s *LoggingStateStore) Save(ctx context.Context, state *sitecrawl.CrawlState) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("state save",
			"visited", state.Visited.Len(),
			"queued", len(state.Queue),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, state)
}

// Ensure LoggingResultWriter implements sitecrawl.ResultWriter.
var _ sitecrawl.ResultWriter = (*LoggingResultWriter)(nil)

// LoggingResultWriter wraps a ResultWriter with logging.
type LoggingResultWriter struct {
	next   sitecrawl.ResultWriter
	name   string
	logger *slog.Logger
}

// NewLoggingResultWriter creates a new LoggingResultWriter.
// name identifies the output in log lines.
func NewLoggingResultWriter(next sitecrawl.ResultWriter, name string, logger *slog.Logger) *LoggingResultWriter {
	return &LoggingResultWriter{next: next, name: name, logger: logger}
}

// WriteExport delegates to the wrapped writer and logs the operation.
func (w *LoggingResultWriter) WriteExport(ctx context.Context, export *sitecrawl.Export) (err error) {
	defer func(begin time.Time) {
		w.logger.Info("export write",
			"output", w.name,
			"pages", len(export.CrawledData),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteExport(ctx, export)
}
