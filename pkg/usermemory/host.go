package usermemory

import (
	"database/sql"
	"sync"
)

// SettingsStore is the narrow settings surface the host must provide
// (§4.7). Any call may be backed by in-memory state, a file, or a
// browser-local-storage bridge on the other side of the WASM boundary.
type SettingsStore interface {
	GetSettingJSON(key string, def any) any
	SetSettingJSON(key string, value any)
	GetSettingFlag(key string, def bool) bool
	SetSettingFlag(key string, value bool)
}

// Host is everything the core needs from the runtime environment. Any
// method may be backed by a no-op/zero-value implementation; absence
// degrades gracefully per §4.7 (JSON-only mode, anonymous scope).
type Host interface {
	Settings() SettingsStore
	// SQLite returns the shared connection and the mutex guarding it, and
	// false if no SQLite connection is available (JSON-only mode).
	SQLite() (conn *sql.DB, lock *sync.Mutex, ok bool)
	CreateRequestID() string
}

// Runtime carries the calling user's identity for the duration of one
// operation.
type Runtime struct {
	UserName string
	ChatID   string
}
