package usermemory

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/kittclouds/usermemory/internal/store"
)

// schemaState holds the process-global once-initialized latches from §5
// and §9: schema-ready and SQLite-unavailable. FTS5 availability is not
// latched here; each store.SQLiteStore records it when it is created.
// Guarded by its own mutex rather than sync.Once because tests must be
// able to reset it (sync.Once cannot be reset).
type schemaState struct {
	mu          sync.Mutex
	ready       bool
	unavailable bool
}

var globalSchemaState schemaState

// resetSchemaStateForTest clears the process-global latches. Exists only
// for test isolation between independent Store instances in the same
// process.
func resetSchemaStateForTest() {
	globalSchemaState.mu.Lock()
	defer globalSchemaState.mu.Unlock()
	globalSchemaState.ready = false
	globalSchemaState.unavailable = false
}

// Store orchestrates the SQLite primary backend and the bounded JSON
// mirror described in §4.5, applying the one-shot migration and the
// failure-policy fallback.
type Store struct {
	host   Host
	sqlite *store.SQLiteStore // nil in JSON-only mode
}

// New builds a Store bound to host. If host exposes a SQLite connection,
// it is opened/migrated eagerly; any failure degrades to JSON-only mode
// rather than propagating, per the StorageUnavailable error kind.
func New(host Host) *Store {
	s := &Store{host: host}

	globalSchemaState.mu.Lock()
	unavailable := globalSchemaState.unavailable
	globalSchemaState.mu.Unlock()
	if unavailable {
		return s
	}

	conn, lock, ok := host.SQLite()
	if !ok {
		return s
	}

	sq, err := store.NewWithConn(conn, lock)
	if err != nil {
		slog.Warn("user-memory: sqlite unavailable, falling back to json mirror", "error", err)
		globalSchemaState.mu.Lock()
		globalSchemaState.unavailable = true
		globalSchemaState.mu.Unlock()
		return s
	}
	s.sqlite = sq

	globalSchemaState.mu.Lock()
	alreadyReady := globalSchemaState.ready
	globalSchemaState.ready = true
	globalSchemaState.mu.Unlock()

	if !alreadyReady {
		s.migrateFromMirrorIfNeeded()
	}

	return s
}

// migrateFromMirrorIfNeeded runs the one-shot JSON->SQLite import guarded
// by settingsMigratedKey: if the SQL table is empty and the mirror has
// entries, import them, then set the flag permanently.
func (s *Store) migrateFromMirrorIfNeeded() {
	settings := s.host.Settings()
	if settings.GetSettingFlag(settingsMigratedKey, false) {
		return
	}

	empty, err := s.sqlite.IsEmpty()
	if err != nil {
		slog.Warn("user-memory: failed to check sqlite emptiness for migration", "error", err)
		return
	}
	if !empty {
		settings.SetSettingFlag(settingsMigratedKey, true)
		return
	}

	entries := s.loadMirror()
	if len(entries) == 0 {
		settings.SetSettingFlag(settingsMigratedKey, true)
		return
	}

	if err := s.sqlite.ReplaceAll(entriesToRows(entries)); err != nil {
		slog.Warn("user-memory: failed to migrate json mirror into sqlite", "error", err)
		return
	}
	settings.SetSettingFlag(settingsMigratedKey, true)
}

// Load returns every stored entry, re-normalized, ordered by
// updated_at descending. Falls back to the JSON mirror transparently on
// any SQLite error.
func (s *Store) Load() []MemoryEntry {
	if s.sqlite != nil {
		rows, err := s.sqlite.LoadAll()
		if err == nil {
			entries := rowsToEntries(rows)
			for i := range entries {
				_ = normalizeNewEntry(&entries[i])
			}
			sortByUpdatedDesc(entries)
			return entries
		}
		slog.Warn("user-memory: sqlite read failed, falling back to json mirror", "error", err)
	}
	entries := s.loadMirror()
	for i := range entries {
		_ = normalizeNewEntry(&entries[i])
	}
	sortByUpdatedDesc(entries)
	return entries
}

// Save persists the full entry set: trims to MaxEntries (oldest-updated
// first), re-derives blob/vector for every entry, writes to SQLite in
// one transaction if available, and always writes the bounded JSON
// mirror afterward (§5: "the JSON mirror is updated only after SQLite
// commits").
func (s *Store) Save(entries []MemoryEntry) {
	sortByUpdatedDesc(entries)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	for i := range entries {
		deriveEntry(&entries[i])
	}

	if s.sqlite != nil {
		if err := s.sqlite.ReplaceAll(entriesToRows(entries)); err != nil {
			slog.Warn("user-memory: sqlite write failed, json mirror still updated", "error", err)
		}
	}
	s.saveMirror(entries)
}

// FTSEnabled reports whether the FTS5 shadow table is available in this
// store's SQLite backend.
func (s *Store) FTSEnabled() bool {
	return s.sqlite != nil && s.sqlite.FTSEnabled()
}

// SearchFTS proxies to the SQLite backend's FTS5 match list, returning
// (nil, false) in JSON-only mode or when FTS5 is unavailable.
func (s *Store) SearchFTS(query string) ([]store.FTSMatch, bool) {
	if s.sqlite == nil {
		return nil, false
	}
	return s.sqlite.SearchFTS(query)
}

func (s *Store) loadMirror() []MemoryEntry {
	raw := s.host.Settings().GetSettingJSON(settingsEntriesKey, nil)
	if raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		slog.Warn("user-memory: json mirror unreadable, substituting empty default", "error", err)
		return nil
	}
	var entries []MemoryEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		slog.Warn("user-memory: malformed json mirror, substituting empty default", "error", err)
		return nil
	}
	for i := range entries {
		deriveEntry(&entries[i])
	}
	return entries
}

// saveMirror writes the bounded JSON mirror ordered by (updated_at desc,
// importance desc) per §3, so that ties on second-precision timestamps
// (plausible within one remember burst) break deterministically instead
// of on arbitrary stable-sort insertion order.
func (s *Store) saveMirror(entries []MemoryEntry) {
	mirror := make([]MemoryEntry, len(entries))
	copy(mirror, entries)
	sortByUpdatedThenImportanceDesc(mirror)
	if len(mirror) > JSONMirrorMax {
		mirror = mirror[:JSONMirrorMax]
	}
	s.host.Settings().SetSettingJSON(settingsEntriesKey, mirror)
}

func sortByUpdatedDesc(entries []MemoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt > entries[j].UpdatedAt
	})
}

func sortByUpdatedThenImportanceDesc(entries []MemoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].UpdatedAt != entries[j].UpdatedAt {
			return entries[i].UpdatedAt > entries[j].UpdatedAt
		}
		return entries[i].Importance > entries[j].Importance
	})
}

func entriesToRows(entries []MemoryEntry) []store.Row {
	rows := make([]store.Row, len(entries))
	for i, e := range entries {
		rows[i] = store.Row{
			ID: e.ID, Key: e.Key, Fact: e.Fact, Tags: e.Tags, Importance: e.Importance,
			CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt, UserName: e.UserName, ChatID: e.ChatID,
			LexicalBlob: e.LexicalBlob, SemanticMap: e.SemanticVector,
		}
	}
	return rows
}

func rowsToEntries(rows []store.Row) []MemoryEntry {
	entries := make([]MemoryEntry, len(rows))
	seenIDs := make(map[string]bool, len(rows))
	for i, r := range rows {
		id := r.ID
		if id == "" || seenIDs[id] {
			id = newMemoryID()
		}
		seenIDs[id] = true
		entries[i] = MemoryEntry{
			ID: id, Key: r.Key, Fact: r.Fact, Tags: r.Tags, Importance: r.Importance,
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, UserName: r.UserName, ChatID: r.ChatID,
			LexicalBlob: r.LexicalBlob, SemanticVector: r.SemanticMap,
		}
	}
	return entries
}
