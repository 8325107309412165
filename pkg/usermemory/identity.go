package usermemory

import (
	"regexp"
	"strings"
)

// cyrillicToLatin is a fixed transliteration table covering the Russian
// alphabet, used only as a recall heuristic — never for access control.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

var nonAlphanumericRun = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeIdentity lowercases, transliterates Cyrillic to Latin, folds
// every remaining non-alphanumeric run to a single space, and trims.
func normalizeIdentity(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if lat, ok := cyrillicToLatin[r]; ok {
			b.WriteString(lat)
		} else {
			b.WriteRune(r)
		}
	}
	folded := nonAlphanumericRun.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(folded)
}

// fuzzyRatio is the standard LCS-based ratio: matching characters x2
// over total length. Symmetric by construction.
func fuzzyRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	lcs := longestCommonSubsequence(ra, rb)
	return float64(2*lcs) / float64(len(ra)+len(rb))
}

func longestCommonSubsequence(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tokenOverlapRatio splits both strings into tokens of length >= 2
// (first 6 unique each), and returns |overlap| / |smaller set|.
func tokenOverlapRatio(a, b string) float64 {
	ta := uniqueTokens(a, 6)
	tb := uniqueTokens(b, 6)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	setB := make(map[string]bool, len(tb))
	for _, t := range tb {
		setB[t] = true
	}
	overlap := 0
	for _, t := range ta {
		if setB[t] {
			overlap++
		}
	}
	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(overlap) / float64(smaller)
}

func uniqueTokens(s string, limit int) []string {
	raw := wordRun.FindAllString(strings.ToLower(s), -1)
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, limit)
	for _, t := range raw {
		if len([]rune(t)) < 2 || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// identityMatch reports whether x and y plausibly name the same person.
// Intentionally lossy; must never be used for access control (scope=all
// bypasses it entirely). Symmetric: identityMatch(x, y) == identityMatch(y, x).
func identityMatch(x, y string) bool {
	if x == "" || y == "" {
		// IdentityUnknown: treated as "match any non-scoped entry", not an error.
		return true
	}
	if x == y {
		return true
	}

	nx, ny := normalizeIdentity(x), normalizeIdentity(y)
	if nx == ny {
		return true
	}
	if len(nx) >= 4 && len(ny) >= 4 && (strings.Contains(nx, ny) || strings.Contains(ny, nx)) {
		return true
	}

	if tokenOverlapRatio(nx, ny) >= 0.5 {
		return true
	}

	if crossTokenFuzzyMatch(nx, ny, 0.78) {
		return true
	}

	return fuzzyRatio(nx, ny) >= 0.72
}

func crossTokenFuzzyMatch(a, b string, threshold float64) bool {
	ta := uniqueTokens(a, 6)
	tb := uniqueTokens(b, 6)
	for _, x := range ta {
		for _, y := range tb {
			if fuzzyRatio(x, y) >= threshold {
				return true
			}
		}
	}
	return false
}
