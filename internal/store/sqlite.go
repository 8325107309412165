package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
)

// schema creates the primary table and its contractual indices. It is
// idempotent so every Open call can run it unconditionally, the same way
// the teacher's store runs its own CREATE TABLE IF NOT EXISTS block on
// every open.
const schema = `
CREATE TABLE IF NOT EXISTS plugin_user_memory_entries (
    id           TEXT PRIMARY KEY,
    key          TEXT NOT NULL DEFAULT '',
    fact         TEXT NOT NULL,
    tags_json    TEXT NOT NULL DEFAULT '[]',
    importance   INTEGER NOT NULL DEFAULT 3,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL,
    user_name    TEXT NOT NULL DEFAULT '',
    chat_id      TEXT NOT NULL DEFAULT '',
    lexical_blob TEXT NOT NULL DEFAULT '',
    semantic_json TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_user_memory_user_updated ON plugin_user_memory_entries(user_name, updated_at);
CREATE INDEX IF NOT EXISTS idx_user_memory_key ON plugin_user_memory_entries(key);
CREATE INDEX IF NOT EXISTS idx_user_memory_chat ON plugin_user_memory_entries(chat_id);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS plugin_user_memory_entries_fts USING fts5(
    id UNINDEXED,
    fact,
    key,
    tags,
    lexical_blob,
    tokenize = 'unicode61 remove_diacritics 2'
);
`

// SQLiteStore is the SQLite-backed data store for memory entries.
// Thread-safe for concurrent host callbacks: every exported method takes
// the store's lock, which may be a lock owned by the host (when the
// connection itself was provided by the host) or one private to this
// store (when it opened its own connection).
type SQLiteStore struct {
	mu         *sync.Mutex
	db         *sql.DB
	ftsEnabled bool
}

// Open opens (or creates) the database at dsn, ensuring the primary schema
// and, best-effort, the FTS5 shadow table exist. A failure to create the
// FTS5 table is not fatal: the store falls back to lexical/semantic
// ranking only, per the storage failure policy.
func Open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewWithConn(db, nil)
}

// NewWithConn wraps an existing *sql.DB, such as one provided by a host
// adapter (§4.7), ensuring the schema exists. If lock is nil, the store
// guards the connection with a private mutex; otherwise it shares lock
// with the rest of the host's SQLite usage.
func NewWithConn(db *sql.DB, lock *sync.Mutex) (*SQLiteStore, error) {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	s := &SQLiteStore{db: db, mu: lock}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(ftsSchema); err != nil {
		slog.Warn("user-memory: fts5 unavailable, falling back to lexical/semantic ranking only", "error", err)
		s.ftsEnabled = false
	} else {
		s.ftsEnabled = true
	}

	return s, nil
}

// FTSEnabled reports whether the FTS5 shadow table is available.
func (s *SQLiteStore) FTSEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ftsEnabled
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// IsEmpty reports whether the table currently holds zero rows, used by
// the one-shot JSON-mirror migration check.
func (s *SQLiteStore) IsEmpty() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM plugin_user_memory_entries`).Scan(&count); err != nil {
		return false, fmt.Errorf("count entries: %w", err)
	}
	return count == 0, nil
}

// LoadAll returns every stored row, ordered by updated_at descending per
// the read path in the spec.
func (s *SQLiteStore) LoadAll() ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, key, fact, tags_json, importance, created_at, updated_at, user_name, chat_id, lexical_blob, semantic_json
		FROM plugin_user_memory_entries
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var tagsJSON, semanticJSON string
		if err := rows.Scan(&r.ID, &r.Key, &r.Fact, &tagsJSON, &r.Importance, &r.CreatedAt, &r.UpdatedAt,
			&r.UserName, &r.ChatID, &r.LexicalBlob, &semanticJSON); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
			slog.Warn("user-memory: malformed tags_json, substituting empty default", "id", r.ID, "error", err)
			r.Tags = nil
		}
		if err := json.Unmarshal([]byte(semanticJSON), &r.SemanticMap); err != nil {
			slog.Warn("user-memory: malformed semantic_json, substituting empty default", "id", r.ID, "error", err)
			r.SemanticMap = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceAll atomically replaces the full entry set: delete everything,
// bulk-insert the given rows, and refresh the FTS5 shadow table (if
// enabled) inside the same transaction. This mirrors the spec's
// replace_all write path, mapped onto a SQL transaction instead of a
// single JSON file write.
func (s *SQLiteStore) ReplaceAll(rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM plugin_user_memory_entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if s.ftsEnabled {
		if _, err := tx.Exec(`DELETE FROM plugin_user_memory_entries_fts`); err != nil {
			return fmt.Errorf("clear fts index: %w", err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO plugin_user_memory_entries
			(id, key, fact, tags_json, importance, created_at, updated_at, user_name, chat_id, lexical_blob, semantic_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var ftsStmt *sql.Stmt
	if s.ftsEnabled {
		ftsStmt, err = tx.Prepare(`
			INSERT INTO plugin_user_memory_entries_fts (id, fact, key, tags, lexical_blob) VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare fts insert: %w", err)
		}
		defer ftsStmt.Close()
	}

	for _, r := range rows {
		tagsJSON, err := json.Marshal(r.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags for %q: %w", r.ID, err)
		}
		semanticJSON, err := json.Marshal(r.SemanticMap)
		if err != nil {
			return fmt.Errorf("marshal semantic vector for %q: %w", r.ID, err)
		}
		if _, err := stmt.Exec(r.ID, r.Key, r.Fact, string(tagsJSON), r.Importance, r.CreatedAt, r.UpdatedAt,
			r.UserName, r.ChatID, r.LexicalBlob, string(semanticJSON)); err != nil {
			return fmt.Errorf("insert entry %q: %w", r.ID, err)
		}
		if ftsStmt != nil {
			tagsFlat := ""
			for i, t := range r.Tags {
				if i > 0 {
					tagsFlat += " "
				}
				tagsFlat += t
			}
			if _, err := ftsStmt.Exec(r.ID, r.Fact, r.Key, tagsFlat, r.LexicalBlob); err != nil {
				return fmt.Errorf("insert fts entry %q: %w", r.ID, err)
			}
		}
	}

	return tx.Commit()
}

// FTSMatch is one BM25-ranked hit from the FTS5 shadow table.
type FTSMatch struct {
	ID   string
	Rank int // 0-based position in BM25 order
}

// SearchFTS returns up to 120 BM25-ranked matches for query. Returns
// (nil, false) when FTS5 is unavailable so callers can fall back
// silently, per the storage failure policy.
func (s *SQLiteStore) SearchFTS(query string) ([]FTSMatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ftsEnabled || query == "" {
		return nil, false
	}

	rows, err := s.db.Query(`
		SELECT id FROM plugin_user_memory_entries_fts
		WHERE plugin_user_memory_entries_fts MATCH ?
		ORDER BY rank
		LIMIT 120
	`, query)
	if err != nil {
		slog.Warn("user-memory: fts5 query failed, falling back", "error", err)
		return nil, false
	}
	defer rows.Close()

	var matches []FTSMatch
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		matches = append(matches, FTSMatch{ID: id, Rank: len(matches)})
	}
	return matches, true
}
