// Package store provides SQLite-backed persistence for the user memory plugin.
package store

// Row is the on-disk shape of a single memory entry, including the two
// fields derived purely from Fact/Key/Tags at write time (LexicalBlob,
// SemanticMap) that never round-trip through the public JSON contract.
type Row struct {
	ID          string
	Key         string
	Fact        string
	Tags        []string
	Importance  int
	CreatedAt   string // ISO-8601 UTC, second precision
	UpdatedAt   string
	UserName    string
	ChatID      string
	LexicalBlob string
	SemanticMap map[string]float64
}
