// Package usermemory implements the per-user persistent fact store: a
// hybrid lexical/semantic/fuzzy ranker over SQLite with an optional FTS5
// index, cross-lingual synonym expansion, slot inference, and
// transliteration-tolerant identity matching, invoked by a host runtime
// through the three operations Remember, Recall, and Forget.
package usermemory

// Constants that are part of the on-disk/wire contract. Changing any of
// these is a format change.
const (
	MaxEntries     = 2000
	JSONMirrorMax  = 600
	MaxFactLen     = 1200
	MaxKeyLen      = 72
	MaxTagLen      = 32
	MaxTags        = 12
	MaxVectorTerms = 220

	maxUserNameLen = 96
	maxChatIDLen   = 96
	maxTermLen     = 48
	maxQueryTokens = 16
	maxBlobLen     = 4000

	defaultImportance = 3
	minImportance     = 1
	maxImportance     = 5

	defaultRecallLimit = 5
	minRecallLimit     = 1
	maxRecallLimit     = 20

	// Settings keys, part of the external contract (§6).
	settingsEntriesKey  = "plugin.user-memory.entries.v1"
	settingsMigratedKey = "plugin.user-memory.sqlite_migrated.v2"
)

// ScopeCurrentUser and ScopeAll are the two recall/forget scopes.
const (
	ScopeCurrentUser = "current_user"
	ScopeAll         = "all"
)
