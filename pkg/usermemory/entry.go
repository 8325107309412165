package usermemory

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// MemoryEntry is the single persisted entity (§3). LexicalBlob and
// SemanticVector are derived from the other fields on every write and
// are never part of the public JSON contract (json:"-"): they cross the
// storage boundary through internal/store.Row, not through MemoryEntry
// itself.
type MemoryEntry struct {
	ID             string             `json:"id"`
	Key            string             `json:"key"`
	Fact           string             `json:"fact"`
	Tags           []string           `json:"tags"`
	Importance     int                `json:"importance"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
	UserName       string             `json:"user_name"`
	ChatID         string             `json:"chat_id"`
	LexicalBlob    string             `json:"-"`
	SemanticVector map[string]float64 `json:"-"`
}

// nowUTCISO returns the current UTC time at second precision, 'Z'-suffixed.
func nowUTCISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// parseISO accepts both 'Z' and '+00:00'-suffixed second-precision
// timestamps, per §6 ("readers MUST accept" either form).
func parseISO(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05Z", v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05-07:00", v)
}

// newMemoryID mints a "mem-<12 lowercase hex>" id.
func newMemoryID() string {
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return "mem-" + hex.EncodeToString(buf[:])
}

// clampImportance clamps v to [1,5], defaulting to 3 when v is 0 (not
// supplied).
func clampImportance(v int) int {
	if v == 0 {
		return defaultImportance
	}
	if v < minImportance {
		return minImportance
	}
	if v > maxImportance {
		return maxImportance
	}
	return v
}

// normalizeTagList normalizes each tag via normalizeToken, dedupes
// preserving order, and caps at MaxTags.
func normalizeTagList(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := normalizeToken(t, MaxTagLen)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		if len(out) >= MaxTags {
			break
		}
	}
	return out
}

// mergeTagLists dedupe-preserving-order concatenates any number of tag
// lists, then normalizes and caps the result.
func mergeTagLists(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return normalizeTagList(all)
}

// deriveEntry recomputes LexicalBlob and SemanticVector from the rest of
// e's fields. Must be called after any mutation and before persistence.
func deriveEntry(e *MemoryEntry) {
	e.LexicalBlob = buildLexicalBlob(e.Fact, e.Key, e.Tags)
	e.SemanticVector = buildSparseVector(e.LexicalBlob)
}

// normalizeNewEntry validates and normalizes the fields of a freshly
// constructed entry (fact required, key canonicalized, tags capped,
// importance clamped) and derives its blob/vector. Returns
// ErrInvalidArgument if fact is empty after normalization.
func normalizeNewEntry(e *MemoryEntry) error {
	e.Fact = normalizeText(e.Fact, MaxFactLen)
	if e.Fact == "" {
		return invalidArgument("fact must not be empty")
	}
	if e.Key != "" {
		e.Key = canonicalizeKey(e.Key)
	}
	e.Tags = normalizeTagList(e.Tags)
	e.Importance = clampImportance(e.Importance)
	e.UserName = normalizeText(e.UserName, maxUserNameLen)
	e.ChatID = normalizeText(e.ChatID, maxChatIDLen)
	deriveEntry(e)
	return nil
}
