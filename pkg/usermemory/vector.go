package usermemory

import (
	"math"
	"sort"
	"strings"
)

// buildLexicalBlob concatenates the normalized fact, canonical key, tags,
// and the synonym-expanded tokens of all three, collapses whitespace,
// and caps the result at 4000 characters.
func buildLexicalBlob(fact, key string, tags []string) string {
	base := tokenizeQuery(fact)
	base = append(base, tokenizeQuery(key)...)
	for _, tag := range tags {
		base = append(base, tokenizeQuery(tag)...)
	}
	expanded := expandQueryTerms(base)

	var parts []string
	parts = append(parts, normalizeText(fact, MaxFactLen))
	if key != "" {
		parts = append(parts, key)
	}
	parts = append(parts, tags...)
	parts = append(parts, expanded...)

	blob := normalizeText(strings.Join(parts, " "), maxBlobLen)
	return blob
}

type weightedTerm struct {
	term  string
	order int
}

// buildSparseVector derives a term-weight map from text: expanded query
// terms get weight 1.0 under key "t:<term>"; terms of length >= 4 also
// contribute their character trigrams at weight 0.2 under "g:<trigram>".
// If the result exceeds 220 entries, the 220 highest-weight entries are
// kept, ties broken by first insertion order.
func buildSparseVector(text string) map[string]float64 {
	terms := expandQueryTerms(tokenizeQuery(text))

	weights := make(map[string]float64)
	order := make(map[string]int)
	next := 0
	add := func(key string, w float64) {
		if _, ok := order[key]; !ok {
			order[key] = next
			next++
		}
		weights[key] += w
	}

	for _, t := range terms {
		add("t:"+t, 1.0)
		if len([]rune(t)) >= 4 {
			for _, g := range trigrams(t) {
				add("g:"+g, 0.2)
			}
		}
	}

	if len(weights) <= MaxVectorTerms {
		return weights
	}

	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return order[keys[i]] < order[keys[j]]
	})

	out := make(map[string]float64, MaxVectorTerms)
	for _, k := range keys[:MaxVectorTerms] {
		out[k] = weights[k]
	}
	return out
}

func trigrams(s string) []string {
	r := []rune(s)
	if len(r) < 3 {
		return nil
	}
	out := make([]string, 0, len(r)-2)
	for i := 0; i+3 <= len(r); i++ {
		out = append(out, string(r[i:i+3]))
	}
	return out
}

// cosineSimilarity is the standard sparse dot product over the product
// of norms; 0 if either vector is empty or zero-norm.
func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var dot float64
	for k, v := range small {
		if lv, ok := large[k]; ok {
			dot += v * lv
		}
	}
	if dot == 0 {
		return 0
	}

	normA := norm(a)
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}

func norm(v map[string]float64) float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}
