package mapper

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// minConfidence is the minimum similarity score for a suggestion; below
// it a target field is left unmapped (skip).
const minConfidence = 0.55

// SuggestMapping proposes, for each target field, the available source
// path with the highest normalized similarity. Deterministic: ties break
// by shortest source path, then lexical order. Targets without a match
// above the confidence threshold are omitted (skip).
func SuggestMapping(targets []TargetField, available []string) map[string]string {
	// Sort candidates once so equal scores resolve the same way on every
	// call regardless of input order.
	candidates := append([]string(nil), available...)
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})

	mapping := make(map[string]string)
	for _, target := range targets {
		bestScore := 0.0
		bestPath := ""
		for _, path := range candidates {
			score := Similarity(target.Key, lastSegment(path))
			if full := Similarity(target.Key, path); full > score {
				score = full
			}
			if score > bestScore {
				bestScore = score
				bestPath = path
			}
		}
		if bestScore >= minConfidence {
			mapping[target.Key] = bestPath
		}
	}
	return mapping
}

// Validate reports whether every required target field has a non-skip
// entry. Confirming a mapping must be blocked while this is false.
func Validate(mapping map[string]string, targets []TargetField) bool {
	for _, target := range targets {
		if !target.Required {
			continue
		}
		if mapping[target.Key] == "" {
			return false
		}
	}
	return true
}

// MissingRequired lists required target keys without a mapping entry.
func MissingRequired(mapping map[string]string, targets []TargetField) []string {
	var missing []string
	for _, target := range targets {
		if target.Required && mapping[target.Key] == "" {
			missing = append(missing, target.Key)
		}
	}
	return missing
}

// Similarity scores two field identifiers in [0,1]. It takes the best of
// a normalized Levenshtein similarity over the squashed identifiers, a
// token-overlap Jaccard score, and a slightly discounted token
// containment score ("zip" is fully contained in "zip_code"), after
// lowercasing and stripping punctuation. Deterministic by construction.
func Similarity(a, b string) float64 {
	sa, ta := normalize(a)
	sb, tb := normalize(b)
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 1
	}

	dist := levenshtein.ComputeDistance(sa, sb)
	maxLen := len(sa)
	if len(sb) > maxLen {
		maxLen = len(sb)
	}
	score := 1 - float64(dist)/float64(maxLen)

	if jac := jaccard(ta, tb); jac > score {
		score = jac
	}
	if cont := 0.9 * containment(ta, tb); cont > score {
		score = cont
	}
	return score
}

// normalize lowercases an identifier and splits it into tokens on
// punctuation; it returns both the squashed form ("zip_code" -> "zipcode")
// and the token list (["zip","code"]).
func normalize(s string) (string, []string) {
	s = strings.ToLower(s)
	var squashed strings.Builder
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			squashed.WriteRune(r)
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return squashed.String(), tokens
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// containment is the overlap coefficient: shared tokens over the smaller
// token set.
func containment(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	other := make(map[string]bool, len(b))
	for _, t := range b {
		other[t] = true
	}
	inter := 0
	for t := range other {
		if set[t] {
			inter++
		}
	}
	smaller := len(set)
	if len(other) < smaller {
		smaller = len(other)
	}
	return float64(inter) / float64(smaller)
}

func lastSegment(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
