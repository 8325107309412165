package usermemory

// matchesScope reports whether entry is visible under scope for the
// given runtime user. Scope "all" bypasses identity matching entirely
// (§9: identity matching is a recall heuristic, never access control).
// Scope "current_user" includes global entries (empty UserName) plus
// any entry whose owner identity-matches runtimeUser.
func matchesScope(entry MemoryEntry, runtimeUser, scope string) bool {
	if scope == ScopeAll {
		return true
	}
	if entry.UserName == "" {
		return true
	}
	return identityMatch(entry.UserName, runtimeUser)
}

func resolveScope(raw string) string {
	if raw == ScopeAll {
		return ScopeAll
	}
	return ScopeCurrentUser
}
