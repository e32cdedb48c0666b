package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/fwojciec/sitecrawl"
)

// Ensure StateStore implements sitecrawl.StateStore at compile time.
var _ sitecrawl.StateStore = (*StateStore)(nil)

// StateStore keeps crawl state in a single JSON file.
// Each Save replaces the whole file atomically.
type StateStore struct {
	path string
}

// NewStateStore creates a StateStore backed by the file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads and validates the state file.
// Returns ENOTFOUND if the file does not exist and EINVALID if its content
// is not a valid crawl state.
func (s *StateStore) Load(ctx context.Context) (*sitecrawl.CrawlState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "state file %s does not exist", s.path)
	} else if err != nil {
		return nil, err
	}

	if t := bytes.TrimSpace(data); len(t) == 0 || t[0] != '{' {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "state file %s does not hold a JSON object", s.path)
	}

	var state sitecrawl.CrawlState
	if err := json.Unmarshal(data, &state); err != nil {
		if sitecrawl.ErrorCode(err) == sitecrawl.EINVALID {
			return nil, err
		}
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "corrupt state file %s: %v", s.path, err)
	}
	return &state, nil
}

// Save writes state to the file, replacing any previous snapshot.
func (s *StateStore) Save(ctx context.Context, state *sitecrawl.CrawlState) error {
	data, err := encodeJSON(state)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}
