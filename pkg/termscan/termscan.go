// Package termscan compiles a closed vocabulary of synonym and key-alias
// surface forms into a single Aho-Corasick automaton so a query or a
// remembered fact can be scanned for slot/synonym hits in one pass,
// instead of walking the alias table term by term.
package termscan

import (
	"github.com/coregx/ahocorasick"
)

// Term is one surface form belonging to a group (a synonym group name or
// a canonical slot key). Multiple terms may share a group.
type Term struct {
	Group   string
	Surface string
}

// Index is a compiled, read-only scanner over a set of terms. Build once
// at package init from the synonym/slot tables; safe for concurrent use.
type Index struct {
	ac            *ahocorasick.Automaton
	patterns      []string
	patternGroups [][]string
}

// Build compiles terms into an Index. Terms must already be normalized
// the same way text will be normalized before Scan is called — termscan
// does no normalization of its own, so callers share one normalizer
// across compilation and scanning.
func Build(terms []Term) (*Index, error) {
	ix := &Index{
		patternGroups: make([][]string, 0, len(terms)),
	}

	patternIndex := make(map[string]int, len(terms))
	for _, t := range terms {
		if t.Surface == "" {
			continue
		}
		idx, exists := patternIndex[t.Surface]
		if !exists {
			idx = len(ix.patterns)
			ix.patterns = append(ix.patterns, t.Surface)
			ix.patternGroups = append(ix.patternGroups, nil)
			patternIndex[t.Surface] = idx
		}
		ix.patternGroups[idx] = appendUniqueGroup(ix.patternGroups[idx], t.Group)
	}

	if len(ix.patterns) == 0 {
		return ix, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(ix.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	ix.ac = automaton
	return ix, nil
}

// Scan returns the deduplicated set of groups whose surface forms occur
// in normalizedText, in first-occurrence order.
func (ix *Index) Scan(normalizedText string) []string {
	if ix == nil || ix.ac == nil || normalizedText == "" {
		return nil
	}

	matches := ix.ac.FindAllOverlapping([]byte(normalizedText))
	var groups []string
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		for _, g := range ix.patternGroups[m.PatternID] {
			if !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	return groups
}

func appendUniqueGroup(groups []string, g string) []string {
	for _, existing := range groups {
		if existing == g {
			return groups
		}
	}
	return append(groups, g)
}
