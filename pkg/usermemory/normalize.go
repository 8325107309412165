package usermemory

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/orsinium-labs/stopwords"
)

var whitespaceRun = regexp.MustCompile(`\s+`)
var wordRun = regexp.MustCompile(`[\p{L}\p{N}]+`)

// coreStopwords is the fixed bilingual set from the Glossary: RU/EN
// interrogatives, pronouns, and prepositions that never carry recall
// intent on their own.
var coreStopwords = map[string]bool{
	"какой": true, "какая": true, "какое": true, "какие": true,
	"кто": true, "что": true, "где": true, "когда": true, "почему": true,
	"зачем": true, "как": true, "мне": true, "меня": true,
	"мой": true, "моя": true, "мое": true, "моё": true, "мои": true,
	"у": true, "про": true, "обо": true, "об": true,
	"about": true, "what": true, "which": true, "who": true, "where": true,
	"when": true, "why": true, "how": true, "my": true, "me": true,
	"i": true, "you": true,
}

var extraStopwordsEN = stopwords.MustGet("en")
var extraStopwordsRU = stopwords.MustGet("ru")

// isStopword layers the fixed core set (authoritative for generic-recall
// detection) in front of the broader orsinium-labs/stopwords locale
// sets, the way the teacher's scanner/discovery/registry.go layers a
// custom stopword map in front of the same library.
func isStopword(token string) bool {
	if coreStopwords[token] {
		return true
	}
	return extraStopwordsEN.Contains(token) || extraStopwordsRU.Contains(token)
}

// runeTruncate cuts v to at most maxLen runes (not bytes), so a cut
// never lands mid-codepoint — this module's bilingual RU/EN domain
// routinely puts multi-byte Cyrillic runs right at the truncation
// boundary, and a byte-index slice there would split a rune and corrupt
// the string on its next JSON marshal.
func runeTruncate(v string, maxLen int) string {
	if maxLen <= 0 {
		return v
	}
	r := []rune(v)
	if len(r) <= maxLen {
		return v
	}
	return string(r[:maxLen])
}

// normalizeText collapses runs of whitespace to a single space, trims,
// and right-truncates to maxLen. A nil/empty input yields "".
func normalizeText(v string, maxLen int) string {
	v = whitespaceRun.ReplaceAllString(v, " ")
	v = strings.TrimSpace(v)
	if maxLen > 0 {
		v = strings.TrimSpace(runeTruncate(v, maxLen))
	}
	return v
}

// normalizeToken lowercases, replaces whitespace with '-', strips
// characters outside [\w.\-], and trims leading/trailing "._-".
func normalizeToken(v string, maxLen int) string {
	v = strings.ToLower(v)
	v = whitespaceRun.ReplaceAllString(v, "-")

	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if isWordRune(r) || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	v = strings.Trim(b.String(), "._-")
	if maxLen > 0 {
		v = strings.Trim(runeTruncate(v, maxLen), "._-")
	}
	return v
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// normalizeTerm tries normalizeToken capped at 48; falls back to a
// lowercase, trimmed, 48-capped rendering if that yields nothing usable.
func normalizeTerm(v string) string {
	t := normalizeToken(v, maxTermLen)
	if t != "" {
		return t
	}
	t = strings.ToLower(strings.TrimSpace(v))
	return runeTruncate(t, maxTermLen)
}

// tokenizeQuery lowercases, extracts Unicode word runs of length >= 2,
// drops stopwords, dedupes preserving order, and caps at 16 tokens.
func tokenizeQuery(v string) []string {
	v = strings.ToLower(v)
	raw := wordRun.FindAllString(v, -1)

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len([]rune(tok)) < 2 {
			continue
		}
		if isStopword(tok) {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) >= maxQueryTokens {
			break
		}
	}
	return out
}
