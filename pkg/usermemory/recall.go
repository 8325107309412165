package usermemory

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kittclouds/usermemory/pkg/response"
)

var genericRecallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)что\s+ты\s+(помнишь|знаешь)\s+(обо\s+мне|про\s+меня)`),
	regexp.MustCompile(`(?i)что\s+(обо\s+мне|про\s+меня)\s+(помнишь|знаешь)`),
	regexp.MustCompile(`(?i)what\s+do\s+you\s+(remember|know)\s+about\s+me`),
	regexp.MustCompile(`(?i)tell\s+me\s+(everything|what)\s+you\s+(remember|know)`),
}

var memoryIntentVerbs = map[string]bool{
	"remember": true, "recall": true, "memory": true, "memories": true,
	"помнишь": true, "знаешь": true, "запомнил": true, "запомнила": true, "помнить": true,
}

// isGenericRecall reports whether query expresses "tell me what you
// remember" intent rather than a specific lookup.
func isGenericRecall(query string) bool {
	if query == "" {
		return false
	}
	lower := strings.ToLower(query)
	for _, pat := range genericRecallPatterns {
		if pat.MatchString(lower) {
			return true
		}
	}
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !memoryIntentVerbs[t] {
			return false
		}
	}
	return true
}

// Recall implements the recall(args) operation (§4.6).
func Recall(st *Store, host Host, args map[string]any, rt Runtime) (map[string]any, error) {
	query := normalizeText(argString(args, "query"), 0)
	if isGenericRecall(query) {
		query = ""
	}

	callerKey := canonicalizeKey(argString(args, "key"))
	callerTags := normalizeTagList(argStringSlice(args, "tags"))
	scope := resolveScope(argString(args, "scope"))
	limit := argInt(args, "limit")
	if limit < minRecallLimit || limit > maxRecallLimit {
		limit = defaultRecallLimit
	}

	queryTokens := expandQueryTerms(tokenizeQuery(query))
	effectiveKey := callerKey
	if effectiveKey == "" && query != "" {
		effectiveKey = inferKeyFromTerms(queryTokens)
	}

	entries := st.Load()
	hasQueryOrFilter := query != "" || callerKey != "" || len(callerTags) > 0

	ftsRank := map[string]int{}
	if query != "" {
		if matches, ok := st.SearchFTS(query); ok {
			for _, m := range matches {
				ftsRank[m.ID] = m.Rank
			}
		}
	}

	queryVec := buildSparseVector(query)
	lowerQuery := strings.ToLower(query)

	type scored struct {
		entry MemoryEntry
		score float64
	}
	var candidates []scored

	for _, e := range entries {
		if !matchesScope(e, rt.UserName, scope) {
			continue
		}
		if callerKey != "" && e.Key != callerKey {
			continue
		}
		if !hasAllTags(e.Tags, callerTags) {
			continue
		}

		score, keep := scoreEntry(e, queryTokens, effectiveKey, callerTags, queryVec, lowerQuery, ftsRank)
		if !keep {
			continue
		}
		candidates = append(candidates, scored{entry: e, score: score})
	}

	if hasQueryOrFilter {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].score != candidates[j].score {
				return candidates[i].score > candidates[j].score
			}
			return candidates[i].entry.UpdatedAt > candidates[j].entry.UpdatedAt
		})
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].entry.UpdatedAt != candidates[j].entry.UpdatedAt {
				return candidates[i].entry.UpdatedAt > candidates[j].entry.UpdatedAt
			}
			return candidates[i].score > candidates[j].score
		})
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	includeUser := scope == ScopeAll
	memories := make([]response.Memory, 0, len(candidates))
	results := make([]response.Result, 0, len(candidates))
	for _, c := range candidates {
		memories = append(memories, response.ToMemory(toSourceEntry(c.entry), includeUser))
		results = append(results, response.Result{
			Title:   titleFor(c.entry.Fact),
			Snippet: snippetFor(c.entry, includeUser),
		})
	}

	return map[string]any{
		"memories":   memories,
		"results":    results,
		"request_id": host.CreateRequestID(),
	}, nil
}

func hasAllTags(entryTags, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]bool, len(entryTags))
	for _, t := range entryTags {
		set[t] = true
	}
	for _, r := range required {
		if !set[r] {
			return false
		}
	}
	return true
}

// scoreEntry implements the hybrid ranking formula of §4.6 step 3.
func scoreEntry(e MemoryEntry, queryTokens []string, effectiveKey string, callerTags []string,
	queryVec map[string]float64, lowerQuery string, ftsRank map[string]int) (float64, bool) {

	score := float64(e.Importance) * 2.2

	if effectiveKey != "" && e.Key == effectiveKey {
		score += 85
	}
	if len(callerTags) > 0 {
		score += 12
	}

	ftsBonus := 0.0
	if rank, ok := ftsRank[e.ID]; ok {
		ftsBonus = 24 - 0.45*float64(rank)
		if ftsBonus < 0 {
			ftsBonus = 0
		}
	}
	score += ftsBonus

	ageDays := 0.0
	if t, err := parseISO(e.UpdatedAt); err == nil {
		ageDays = time.Since(t).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
	}
	recency := 8 - ageDays*0.08
	if recency > 8 {
		recency = 8
	}
	if recency < 0 {
		recency = 0
	}
	score += recency

	lowerKey := strings.ToLower(e.Key)
	lowerFact := strings.ToLower(e.Fact)
	lowerTags := strings.ToLower(strings.Join(e.Tags, " "))
	lowerBlob := strings.ToLower(e.LexicalBlob)

	lexicalHits := 0
	for _, term := range queryTokens {
		if term == "" {
			continue
		}
		if strings.Contains(lowerKey, term) {
			score += 18
			lexicalHits++
		}
		if strings.Contains(lowerFact, term) {
			score += 12
			lexicalHits++
		}
		if strings.Contains(lowerTags, term) {
			score += 10
			lexicalHits++
		}
		if strings.Contains(lowerBlob, term) {
			score += 6
			lexicalHits++
		}
	}

	cosine := cosineSimilarity(queryVec, e.SemanticVector)
	score += cosine * 28

	haystack := strings.ToLower(e.Fact + " " + e.Key + " " + strings.Join(e.Tags, " "))
	fuzzy := 0.0
	if lowerQuery != "" {
		fuzzy = fuzzyRatio(lowerQuery, haystack)
	}
	score += fuzzy * 12

	if len(queryTokens) > 0 && lexicalHits == 0 && cosine < 0.08 && fuzzy < 0.26 && ftsBonus == 0 {
		return 0, false
	}
	return score, true
}

func titleFor(fact string) string {
	r := []rune(fact)
	if len(r) <= 60 {
		return fact
	}
	return string(r[:60]) + "…"
}

// snippetFor joins only the non-empty segments, dropping key/tags/user/
// updated_at entirely when blank rather than rendering a placeholder;
// importance is always present.
func snippetFor(e MemoryEntry, includeUser bool) string {
	var parts []string
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if len(e.Tags) > 0 {
		parts = append(parts, fmt.Sprintf("tags=%s", strings.Join(e.Tags, ",")))
	}
	parts = append(parts, fmt.Sprintf("importance=%d", e.Importance))
	if includeUser && e.UserName != "" {
		parts = append(parts, fmt.Sprintf("user=%s", e.UserName))
	}
	if e.UpdatedAt != "" {
		parts = append(parts, fmt.Sprintf("updated_at=%s", e.UpdatedAt))
	}
	return strings.Join(parts, ", ")
}
