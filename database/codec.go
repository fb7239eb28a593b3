package database

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// entryRecord is the persisted form of one database row: the flat
// (key, matches) pair layout of the exchange format.
type entryRecord struct {
	Key     string         `json:"key"`
	Matches []ProfileMatch `json:"matches"`
}

// Export writes the database as a JSON array of (key, matches) pairs sorted
// by key, so repeated exports of the same content are byte-identical and
// diff-able.
func (db *DB) Export(w io.Writer) error {
	db.mu.RLock()
	records := make([]entryRecord, 0, len(db.entries))
	for key, matches := range db.entries {
		out := make([]ProfileMatch, len(matches))
		copy(out, matches)
		records = append(records, entryRecord{Key: key, Matches: out})
	}
	db.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("database: export: %w", err)
	}
	return nil
}

// Import reads a JSON array previously produced by Export and inserts every
// record.  Decoding is strict: unknown fields are rejected so schema drift in
// persisted files is caught at load time rather than propagating silently.
// Each entry passes through Insert, so key validation applies and re-imports
// are idempotent.
func (db *DB) Import(r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var records []entryRecord
	if err := dec.Decode(&records); err != nil {
		return fmt.Errorf("database: import: decode: %w", err)
	}

	for i, rec := range records {
		if len(rec.Matches) == 0 {
			return fmt.Errorf("database: import: record %d (%q) has no matches", i, rec.Key)
		}
		for _, match := range rec.Matches {
			if match.ProfileLabel == "" {
				return fmt.Errorf("database: import: record %d (%q) has a match without a profile label", i, rec.Key)
			}
			if err := db.Insert(rec.Key, match); err != nil {
				return fmt.Errorf("database: import: record %d: %w", i, err)
			}
		}
	}
	return nil
}
