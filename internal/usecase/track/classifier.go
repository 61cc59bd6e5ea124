package track

import "strings"

// Relevant reports whether a news title qualifies under the include/exclude
// keyword sets. The title qualifies iff it contains at least one include term
// and none of the exclude terms, both as case-insensitive substrings.
//
// Matching is substring-based, not tokenized: a term embedded inside a larger
// word still matches. This trades precision for simplicity; the keyword sets
// are short disclosure-vocabulary terms where token boundaries rarely matter.
// Pure function of its inputs.
func Relevant(title string, include, exclude []string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}

	matched := false
	for _, kw := range include {
		if kw == "" {
			continue
		}
		if strings.Contains(t, strings.ToLower(kw)) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, kw := range exclude {
		if kw == "" {
			continue
		}
		if strings.Contains(t, strings.ToLower(kw)) {
			return false
		}
	}

	return true
}
