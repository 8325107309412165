package usermemory

import (
	"strings"

	"github.com/kittclouds/usermemory/pkg/response"
)

// Forget implements the forget(args) operation (§4.6).
func Forget(st *Store, host Host, args map[string]any, rt Runtime) (map[string]any, error) {
	id := argString(args, "id")
	key := canonicalizeKey(argString(args, "key"))
	query := normalizeText(argString(args, "query"), 0)

	if id == "" && key == "" && query == "" {
		return nil, invalidArgument("at least one of id, key, or query is required")
	}

	scope := resolveScope(argString(args, "scope"))
	allMatching := argBool(args, "all_matching", false)

	baseTokens := tokenizeQuery(query)
	expandedTokens := expandQueryTerms(baseTokens)

	entries := st.Load()
	var kept, removed []MemoryEntry
	removedOne := false

	for _, e := range entries {
		inScope := matchesScope(e, rt.UserName, scope)
		match := inScope && entryMatchesForget(e, id, key, baseTokens, expandedTokens)

		if match && (allMatching || !removedOne) {
			removed = append(removed, e)
			removedOne = true
			continue
		}
		kept = append(kept, e)
	}

	st.Save(kept)

	includeUser := scope == ScopeAll
	cappedRemoved := removed
	if len(cappedRemoved) > 20 {
		cappedRemoved = cappedRemoved[:20]
	}
	removedPublic := make([]response.Memory, 0, len(cappedRemoved))
	for _, e := range cappedRemoved {
		removedPublic = append(removedPublic, response.ToMemory(toSourceEntry(e), includeUser))
	}

	return map[string]any{
		"removed_count":   len(removed),
		"removed":         removedPublic,
		"remaining_count": len(kept),
		"scope":           scope,
		"request_id":      host.CreateRequestID(),
	}, nil
}

func entryMatchesForget(e MemoryEntry, id, key string, baseTokens, expandedTokens []string) bool {
	if id != "" && e.ID == id {
		return true
	}
	if key != "" && e.Key == key {
		return true
	}
	if len(baseTokens) == 0 {
		return false
	}
	lowerBlob := strings.ToLower(e.LexicalBlob)
	if allTokensPresent(lowerBlob, baseTokens) {
		return true
	}
	return allTokensPresent(lowerBlob, expandedTokens)
}

func allTokensPresent(haystack string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}
