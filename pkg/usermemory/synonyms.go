package usermemory

import (
	"regexp"

	"github.com/kittclouds/usermemory/pkg/termscan"
)

// synonymGroups are the seven fixed cross-lingual (RU/EN) equivalence
// sets from §4.2. Raw, pre-normalization.
var synonymGroups = map[string][]string{
	"phone": {
		"phone", "mobile", "mobile phone", "cell", "cellphone", "number",
		"телефон", "номер телефона", "мобильный", "сотовый",
	},
	"device": {
		"device", "laptop", "notebook", "computer", "pc", "iphone", "smartphone",
		"устройство", "ноутбук", "компьютер", "смартфон", "айфон",
	},
	"name": {
		"name", "called", "my name",
		"имя", "зовут", "меня зовут",
	},
	"city": {
		"city", "town", "live in", "located in",
		"город", "живу", "живу в", "проживаю",
	},
	"profession": {
		"profession", "job", "occupation", "work as", "career",
		"профессия", "работаю", "работа", "должность",
	},
	"email": {
		"email", "e-mail", "mail", "email address",
		"почта", "электронная почта", "имейл",
	},
	"timezone": {
		"timezone", "time zone", "tz", "utc offset",
		"часовой пояс", "таймзона", "временная зона",
	},
}

// keyAliases maps a normalized surface form to the canonical slot key it
// belongs to. Built at init from synonymGroups plus a few slot-specific
// extras that are not themselves synonyms of each other (e.g. "iphone"
// belongs to both the "device" synonym group and the "phone" slot).
var keyAliasExtras = map[string]string{
	"iphone":    "phone",
	"айфон":     "phone",
	"android":   "phone",
	"samsung":   "phone",
	"смартфон":  "phone",
	"laptop":    "device",
	"notebook":  "device",
	"ноутбук":   "device",
	"computer":  "device",
	"компьютер": "device",
}

// defaultTagsByKey lists the tags automatically merged in when a fact is
// filed under a given canonical key.
var defaultTagsByKey = map[string][]string{
	"phone":      {"device", "phone"},
	"device":     {"device"},
	"name":       {"identity"},
	"city":       {"location"},
	"profession": {"work"},
	"email":      {"contact"},
	"timezone":   {"schedule"},
}

type slotHintRule struct {
	Key      string
	Patterns []*regexp.Regexp
	Tags     []string
}

// slotHintRules is a small ordered list of regexes, compiled once at
// init, used to infer a canonical key (and its default tags) from free
// text when the caller supplies none. RU patterns use case-insensitive
// Unicode matching via the (?i) flag, which Go's RE2 engine applies
// Unicode-aware by default.
var slotHintRules = []slotHintRule{
	{
		Key:      "email",
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)},
		Tags:     []string{"contact"},
	},
	{
		Key: "phone",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\+?\d[\d\s\-()]{6,}\d`),
			regexp.MustCompile(`(?i)iphone|android|samsung|мой телефон|номер телефона|мобильный`),
		},
		Tags: []string{"device", "phone"},
	},
	{
		Key: "device",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(laptop|notebook|ноутбук|компьютер)(?:$|[^\p{L}\p{N}_])`),
		},
		Tags: []string{"device"},
	},
	{
		Key: "timezone",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bUTC[+\-]?\d{1,2}\b`),
			regexp.MustCompile(`(?i)часовой пояс|time ?zone`),
		},
		Tags: []string{"schedule"},
	},
	{
		Key: "city",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)i live in|i'?m from|живу в|проживаю в`),
		},
		Tags: []string{"location"},
	},
	{
		Key: "profession",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)i work as|my job is|работаю|моя профессия`),
		},
		Tags: []string{"work"},
	},
	{
		Key: "name",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)my name is|call me|меня зовут|моё имя`),
		},
		Tags: []string{"identity"},
	},
}

// termToGroup and keyAliases are built once at init from synonymGroups.
var (
	termToGroup     = map[string][]string{}
	keyAliases      = map[string]string{}
	synonymTermScan *termscan.Index
)

func init() {
	var terms []termscan.Term

	for group, rawMembers := range synonymGroups {
		normalizedMembers := make([]string, 0, len(rawMembers))
		for _, raw := range rawMembers {
			n := normalizeTerm(raw)
			if n == "" {
				continue
			}
			normalizedMembers = append(normalizedMembers, n)
		}
		for _, n := range normalizedMembers {
			termToGroup[n] = appendUniqueStrings(termToGroup[n], normalizedMembers...)
			terms = append(terms, termscan.Term{Group: group, Surface: n})
		}
		// A group named after a canonical key (phone, device, name, city,
		// profession, email, timezone are themselves valid keys) makes
		// every one of its members an alias of that key.
		if _, isKey := defaultTagsByKey[group]; isKey {
			for _, n := range normalizedMembers {
				keyAliases[n] = group
			}
		}
	}
	for raw, key := range keyAliasExtras {
		keyAliases[normalizeTerm(raw)] = key
		terms = append(terms, termscan.Term{Group: key, Surface: normalizeTerm(raw)})
	}

	ix, err := termscan.Build(terms)
	if err != nil {
		// The vocabulary is static and known-good; a build failure here
		// would be a programming error, not a runtime condition.
		panic("usermemory: failed to compile synonym term scanner: " + err.Error())
	}
	synonymTermScan = ix
}

func appendUniqueStrings(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[d] = true
	}
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			dst = append(dst, item)
		}
	}
	return dst
}

// canonicalizeKey normalizes raw via normalizeToken, then resolves it
// through the key alias table. Unknown keys pass through unchanged.
// Idempotent: canonicalizeKey(canonicalizeKey(x)) == canonicalizeKey(x).
func canonicalizeKey(raw string) string {
	n := normalizeToken(raw, MaxKeyLen)
	if n == "" {
		return ""
	}
	if canon, ok := keyAliases[n]; ok {
		return canon
	}
	return n
}

// expandQueryTerms returns the dedupe-preserving-order union of terms
// and the synonyms of each term. Idempotent on its own output, since a
// term's synonym set always contains the term itself.
func expandQueryTerms(terms []string) []string {
	out := make([]string, 0, len(terms)*2)
	seen := make(map[string]bool, len(terms)*2)
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
		for _, syn := range termToGroup[t] {
			if !seen[syn] {
				seen[syn] = true
				out = append(out, syn)
			}
		}
	}
	return out
}

// inferSlotFromText tries each slot hint rule in order against raw text
// and returns the first matching key and its default tags, or ("", nil)
// if none fire.
func inferSlotFromText(raw string) (string, []string) {
	for _, rule := range slotHintRules {
		for _, pat := range rule.Patterns {
			if pat.MatchString(raw) {
				return rule.Key, append([]string(nil), rule.Tags...)
			}
		}
	}
	return "", nil
}

// inferKeyFromTerms scans normalized query terms against the compiled
// synonym/key-alias automaton and returns the canonical key carried by
// the first term (in order) that resolves to a known slot.
func inferKeyFromTerms(terms []string) string {
	for _, t := range terms {
		if groups := synonymTermScan.Scan(t); len(groups) > 0 {
			for _, g := range groups {
				if _, isKey := defaultTagsByKey[g]; isKey {
					return g
				}
			}
		}
		if canon, ok := keyAliases[t]; ok {
			return canon
		}
	}
	return ""
}
