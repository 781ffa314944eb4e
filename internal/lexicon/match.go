package lexicon

import "strings"

// ContainsAny reports whether text contains any term, ignoring case.
func ContainsAny(text string, terms []string) bool {
	in := strings.ToLower(text)
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if strings.Contains(in, t) {
			return true
		}
	}
	return false
}
