// Package response provides minimal, client-facing projections of the
// richer internal memory-entry representation — only the fields a
// caller is ever meant to see.
package response

// Memory is the read-only, minimal view of a stored fact: id, key, fact,
// tags, importance, updated_at, and user_name — omitting the derived
// lexical blob and semantic vector, created_at, and chat_id, which never
// appear in a public response (only in the storage/JSON-mirror record).
// user_name itself is further omitted unless the caller asked for scope
// "all".
type Memory struct {
	ID         string   `json:"id"`
	Key        string   `json:"key,omitempty"`
	Fact       string   `json:"fact"`
	Tags       []string `json:"tags,omitempty"`
	Importance int      `json:"importance"`
	UpdatedAt  string   `json:"updated_at"`
	UserName   string   `json:"user_name,omitempty"`
}

// SourceEntry is the minimal set of fields Memory needs from whatever
// internal entry type the caller has; avoids an import cycle with the
// package that owns the real entry type. It still carries CreatedAt and
// ChatID since those belong to the storage/JSON-mirror record even
// though ToMemory never forwards them into a public response.
type SourceEntry struct {
	ID         string
	Key        string
	Fact       string
	Tags       []string
	Importance int
	CreatedAt  string
	UpdatedAt  string
	UserName   string
	ChatID     string
}

// ToMemory builds the public projection of e. includeUser controls
// whether user_name is carried through (scope "all" includes it; scope
// "current_user" omits it, per §3 ownership rules). created_at and
// chat_id never appear in the projection.
func ToMemory(e SourceEntry, includeUser bool) Memory {
	m := Memory{
		ID:         e.ID,
		Key:        e.Key,
		Fact:       e.Fact,
		Tags:       e.Tags,
		Importance: e.Importance,
		UpdatedAt:  e.UpdatedAt,
	}
	if includeUser {
		m.UserName = e.UserName
	}
	return m
}

// Result is one {title, snippet} summary line for a recall response.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}
