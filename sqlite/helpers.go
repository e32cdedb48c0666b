package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// encodeLinks stores a links list as a JSON array. A nil list is stored as NULL.
func encodeLinks(links []string) (sql.NullString, error) {
	if links == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(links)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeLinks is the inverse of encodeLinks.
func decodeLinks(value sql.NullString) ([]string, error) {
	if !value.Valid {
		return nil, nil
	}
	var links []string
	if err := json.Unmarshal([]byte(value.String), &links); err != nil {
		return nil, fmt.Errorf("failed to parse links_found: %w", err)
	}
	return links, nil
}

// unixNano converts a time to nanoseconds since the epoch, mapping the zero time to 0.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// fromUnixNano is the inverse of unixNano.
func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}
