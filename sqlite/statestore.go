package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Compile-time interface verification.
var _ sitecrawl.StateStore = (*StateStore)(nil)

// StateStore implements sitecrawl.StateStore using SQLite.
// Each Save replaces the stored snapshot inside one transaction.
type StateStore struct {
	db *DB
}

// NewStateStore creates a new StateStore.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db}
}

// Save replaces the stored snapshot with state.
func (s *StateStore) Save(ctx context.Context, state *sitecrawl.CrawlState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"meta", "visited", "queue", "crawled"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (id, start_url, max_depth, saved_at) VALUES (1, ?, ?, ?)
	`, state.StartURL, state.MaxDepth, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	if err := insertVisited(ctx, tx, state.Visited.URLs()); err != nil {
		return err
	}
	if err := insertQueue(ctx, tx, state.Queue); err != nil {
		return err
	}
	if err := insertCrawled(ctx, tx, state.Crawled); err != nil {
		return err
	}

	return tx.Commit()
}

// Load reads the stored snapshot.
// Returns ENOTFOUND if nothing has been saved and EINVALID if the stored
// rows do not form a valid crawl state.
func (s *StateStore) Load(ctx context.Context) (*sitecrawl.CrawlState, error) {
	var startURL string
	var maxDepth int
	err := s.db.QueryRowContext(ctx, `
		SELECT start_url, max_depth FROM meta WHERE id = 1
	`).Scan(&startURL, &maxDepth)
	if err == sql.ErrNoRows {
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "no saved crawl state")
	}
	if err != nil {
		return nil, err
	}

	state := sitecrawl.NewCrawlState(startURL, maxDepth)

	urls, err := s.loadVisited(ctx)
	if err != nil {
		return nil, err
	}
	state.Visited = sitecrawl.NewVisitedSet(urls...)

	if state.Queue, err = s.loadQueue(ctx); err != nil {
		return nil, err
	}
	if state.Crawled, err = s.loadCrawled(ctx); err != nil {
		return nil, err
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// SavedAt returns when the stored snapshot was written.
// Returns ENOTFOUND if nothing has been saved.
func (s *StateStore) SavedAt(ctx context.Context) (time.Time, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM meta WHERE id = 1`).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "no saved crawl state")
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseRFC3339(savedAt, "saved_at")
}

func insertVisited(ctx context.Context, tx *sql.Tx, urls []string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO visited (position, url) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, u := range urls {
		if _, err := stmt.ExecContext(ctx, i, u); err != nil {
			return err
		}
	}
	return nil
}

func insertQueue(ctx context.Context, tx *sql.Tx, queue []sitecrawl.CrawlTask) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO queue (position, url, depth) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, task := range queue {
		if _, err := stmt.ExecContext(ctx, i, task.URL, task.Depth); err != nil {
			return err
		}
	}
	return nil
}

func insertCrawled(ctx context.Context, tx *sql.Tx, crawled map[string]*sitecrawl.PageRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crawled (url, title, status_code, content_length, links_found, crawl_time, error, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for url, rec := range crawled {
		if rec == nil {
			return sitecrawl.Errorf(sitecrawl.EINVALID, "crawled entry %q has no record", url)
		}
		links, err := encodeLinks(rec.LinksFound)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, url, rec.Title, rec.StatusCode, rec.ContentLength,
			links, unixNano(rec.CrawlTime), rec.Error, rec.ContentHash); err != nil {
			return err
		}
	}
	return nil
}

func (s *StateStore) loadVisited(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM visited ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (s *StateStore) loadQueue(ctx context.Context) ([]sitecrawl.CrawlTask, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, depth FROM queue ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queue := []sitecrawl.CrawlTask{}
	for rows.Next() {
		var task sitecrawl.CrawlTask
		if err := rows.Scan(&task.URL, &task.Depth); err != nil {
			return nil, err
		}
		queue = append(queue, task)
	}
	return queue, rows.Err()
}

func (s *StateStore) loadCrawled(ctx context.Context) (map[string]*sitecrawl.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, status_code, content_length, links_found, crawl_time, error, content_hash
		FROM crawled
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	crawled := make(map[string]*sitecrawl.PageRecord)
	for rows.Next() {
		var rec sitecrawl.PageRecord
		var links sql.NullString
		var crawlTime int64
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.StatusCode, &rec.ContentLength,
			&links, &crawlTime, &rec.Error, &rec.ContentHash); err != nil {
			return nil, err
		}
		if rec.LinksFound, err = decodeLinks(links); err != nil {
			return nil, errors.Join(sitecrawl.Errorf(sitecrawl.EINVALID, "crawled entry %q is corrupt", rec.URL), err)
		}
		rec.CrawlTime = fromUnixNano(crawlTime)
		crawled[rec.URL] = &rec
	}
	return crawled, rows.Err()
}
