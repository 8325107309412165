package usermemory

import (
	"database/sql"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
)

// testSettings is an in-memory SettingsStore for tests.
type testSettings struct {
	json  map[string]any
	flags map[string]bool
}

func newTestSettings() *testSettings {
	return &testSettings{json: map[string]any{}, flags: map[string]bool{}}
}

func (s *testSettings) GetSettingJSON(key string, def any) any {
	if v, ok := s.json[key]; ok {
		return v
	}
	return def
}

func (s *testSettings) SetSettingJSON(key string, value any) { s.json[key] = value }

func (s *testSettings) GetSettingFlag(key string, def bool) bool {
	if v, ok := s.flags[key]; ok {
		return v
	}
	return def
}

func (s *testSettings) SetSettingFlag(key string, value bool) { s.flags[key] = value }

// testHost is a Host backed by an in-memory SQLite connection and
// in-memory settings, plus a deterministic request-id counter.
type testHost struct {
	settings *testSettings
	db       *sql.DB
	lock     *sync.Mutex
	withSQL  bool
	reqSeq   int
}

func newTestHost(withSQL bool) *testHost {
	h := &testHost{settings: newTestSettings(), withSQL: withSQL, lock: &sync.Mutex{}}
	if withSQL {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			panic(err)
		}
		h.db = db
	}
	return h
}

func (h *testHost) Settings() SettingsStore { return h.settings }

func (h *testHost) SQLite() (*sql.DB, *sync.Mutex, bool) {
	if !h.withSQL {
		return nil, nil, false
	}
	return h.db, h.lock, true
}

func (h *testHost) CreateRequestID() string {
	h.reqSeq++
	return "req-test"
}

func newStoreForTest(withSQL bool) (*Store, *testHost) {
	resetSchemaStateForTest()
	h := newTestHost(withSQL)
	return New(h), h
}
