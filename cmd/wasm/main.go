//go:build js && wasm

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/kittclouds/usermemory/pkg/pool"
	"github.com/kittclouds/usermemory/pkg/usermemory"

	_ "github.com/ncruces/go-sqlite3/driver"
)

// Version info
const Version = "1.0.0"

// Global state
var (
	memStore *usermemory.Store
	memHost  *wasmHost
	reqMu    sync.Mutex
	reqSeq   int
)

func main() {
	memHost = newWASMHost()
	memStore = usermemory.New(memHost)

	fmt.Println("[UserMemory] WASM Ready v" + Version)

	js.Global().Set("UserMemory", js.ValueOf(map[string]interface{}{
		"version":                js.FuncOf(getVersion),
		"openDatabase":           js.FuncOf(openDatabase),
		"loadSettingsSnapshot":   js.FuncOf(loadSettingsSnapshot),
		"exportSettingsSnapshot": js.FuncOf(exportSettingsSnapshot),

		"remember": js.FuncOf(jsRemember),
		"recall":   js.FuncOf(jsRecall),
		"forget":   js.FuncOf(jsForget),
	}))

	select {}
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// wasmRuntime is the JS-facing shape of usermemory.Runtime; the core
// struct carries no json tags since it never crosses a wire on its own.
type wasmRuntime struct {
	UserName string `json:"user_name"`
	ChatID   string `json:"chat_id"`
}

func (r wasmRuntime) toRuntime() usermemory.Runtime {
	return usermemory.Runtime{UserName: r.UserName, ChatID: r.ChatID}
}

// wasmSettings is a SettingsStore whose state the JS side persists
// across reloads by calling exportSettingsSnapshot/loadSettingsSnapshot,
// the same push-state-out/pull-state-in idiom the store bridge used for
// notes (hydrateNotes/storeExport).
type wasmSettings struct {
	mu    sync.Mutex
	json  map[string]json.RawMessage
	flags map[string]bool
}

func newWASMSettings() *wasmSettings {
	return &wasmSettings{json: map[string]json.RawMessage{}, flags: map[string]bool{}}
}

func (s *wasmSettings) GetSettingJSON(key string, def any) any {
	s.mu.Lock()
	raw, ok := s.json[key]
	s.mu.Unlock()
	if !ok {
		return def
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

func (s *wasmSettings) SetSettingJSON(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.json[key] = raw
	s.mu.Unlock()
}

func (s *wasmSettings) GetSettingFlag(key string, def bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.flags[key]; ok {
		return v
	}
	return def
}

func (s *wasmSettings) SetSettingFlag(key string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = value
}

type settingsSnapshot struct {
	JSON  map[string]json.RawMessage `json:"json"`
	Flags map[string]bool            `json:"flags"`
}

func (s *wasmSettings) snapshot() settingsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := settingsSnapshot{
		JSON:  make(map[string]json.RawMessage, len(s.json)),
		Flags: make(map[string]bool, len(s.flags)),
	}
	for k, v := range s.json {
		snap.JSON[k] = v
	}
	for k, v := range s.flags {
		snap.Flags[k] = v
	}
	return snap
}

func (s *wasmSettings) restore(snap settingsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.json = snap.JSON
	if s.json == nil {
		s.json = map[string]json.RawMessage{}
	}
	s.flags = snap.Flags
	if s.flags == nil {
		s.flags = map[string]bool{}
	}
}

// wasmHost implements usermemory.Host over an optional process-wide
// SQLite connection and an in-memory settings mirror.
type wasmHost struct {
	settings *wasmSettings

	mu   sync.Mutex
	db   *sql.DB
	lock *sync.Mutex
}

func newWASMHost() *wasmHost {
	return &wasmHost{settings: newWASMSettings()}
}

func (h *wasmHost) Settings() usermemory.SettingsStore { return h.settings }

func (h *wasmHost) SQLite() (*sql.DB, *sync.Mutex, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil, nil, false
	}
	return h.db, h.lock, true
}

func (h *wasmHost) CreateRequestID() string {
	reqMu.Lock()
	defer reqMu.Unlock()
	reqSeq++
	return fmt.Sprintf("req-%d", reqSeq)
}

// openDatabase (re)initializes the primary store against a SQLite DSN.
// An empty dsn keeps the store in JSON-mirror-only mode, matching the
// store's own unavailable-SQLite fallback.
func openDatabase(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("openDatabase requires 1 arg: dsn")
	}
	dsn := args[0].String()
	if dsn == "" {
		return successResult("running in json-mirror-only mode")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return errorResult("failed to open sqlite: " + err.Error())
	}

	memHost.mu.Lock()
	memHost.db = db
	memHost.lock = &sync.Mutex{}
	memHost.mu.Unlock()

	memStore = usermemory.New(memHost)
	if !memStore.FTSEnabled() {
		return successResult("sqlite opened at " + dsn + " (fts5 unavailable, lexical/semantic ranking only)")
	}
	return successResult("sqlite opened at " + dsn)
}

// loadSettingsSnapshot hydrates the settings mirror from a JSON blob the
// JS side previously obtained via exportSettingsSnapshot and persisted
// (localStorage, a file, whatever the host prefers).
func loadSettingsSnapshot(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("loadSettingsSnapshot requires 1 arg: snapshotJSON")
	}
	var snap settingsSnapshot
	if err := json.Unmarshal([]byte(args[0].String()), &snap); err != nil {
		return errorResult("snapshot json: " + err.Error())
	}
	memHost.settings.restore(snap)
	return successResult("settings restored")
}

// exportSettingsSnapshot returns the current settings mirror as JSON for
// the JS side to persist.
func exportSettingsSnapshot(this js.Value, args []js.Value) interface{} {
	snap := memHost.settings.snapshot()
	b, err := json.Marshal(snap)
	if err != nil {
		return errorResult("marshal snapshot: " + err.Error())
	}
	return string(b)
}

type operation func(*usermemory.Store, usermemory.Host, map[string]any, usermemory.Runtime) (map[string]any, error)

func jsRemember(this js.Value, args []js.Value) interface{} {
	return runOperation(args, usermemory.Remember)
}

func jsRecall(this js.Value, args []js.Value) interface{} {
	return runOperation(args, usermemory.Recall)
}

func jsForget(this js.Value, args []js.Value) interface{} {
	return runOperation(args, usermemory.Forget)
}

// runOperation decodes the (argsJSON, runtimeJSON) pair, invokes op
// against the process-wide store, and marshals op's own result map via
// successJSON; only the error path draws a map from the pool.
func runOperation(jsArgs []js.Value, op operation) interface{} {
	if len(jsArgs) < 2 {
		return errorResult("requires 2 args: argsJSON, runtimeJSON")
	}

	var callArgs map[string]any
	if err := json.Unmarshal([]byte(jsArgs[0].String()), &callArgs); err != nil {
		return errorResult("args json: " + err.Error())
	}

	var rt wasmRuntime
	if err := json.Unmarshal([]byte(jsArgs[1].String()), &rt); err != nil {
		return errorResult("runtime json: " + err.Error())
	}

	out, err := op(memStore, memHost, callArgs, rt.toRuntime())
	if err != nil {
		return errorResult(err.Error())
	}
	return successJSON(out)
}

// errorResult mirrors the calling convention the JS side expects: every
// exported function returns a JSON string.
func errorResult(msg string) interface{} {
	result := pool.GetMap()
	defer pool.PutMap(result)
	result["error"] = msg
	b, _ := json.Marshal(result)
	return string(b)
}

// successResult wraps a plain string success message.
func successResult(msg string) interface{} {
	result := pool.GetMap()
	defer pool.PutMap(result)
	result["success"] = msg
	b, _ := json.Marshal(result)
	return string(b)
}

// successJSON marshals an operation's result map directly. The pool
// buys nothing here since the map is op's own rather than one drawn
// from pool.GetMap.
func successJSON(result map[string]any) interface{} {
	b, err := json.Marshal(result)
	if err != nil {
		return errorResult("marshal result: " + err.Error())
	}
	return string(b)
}
