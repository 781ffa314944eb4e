// Package crisis scans free text for crisis-indicating phrases and derives a
// severity tier from the number of distinct matches.
package crisis

import (
	"strings"

	"github.com/flexonb/mindhack/internal/lexicon"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Finding is the result of scanning one message.
type Finding struct {
	Detected        bool     `json:"detected"`
	Severity        Severity `json:"severity"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// Detect reports which keywords occur in text, ignoring case. A keyword also
// matches through its registered paraphrases. Blank and duplicate keywords are
// skipped.
func Detect(text string, keywords []string) Finding {
	in := strings.ReplaceAll(strings.ToLower(text), "’", "'")
	matched := []string{}
	if strings.TrimSpace(in) != "" {
		seen := make(map[string]struct{}, len(keywords))
		for _, kw := range keywords {
			k := strings.ToLower(strings.TrimSpace(kw))
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if containsKeyword(in, k) {
				matched = append(matched, kw)
			}
		}
	}
	return Finding{
		Detected:        len(matched) > 0,
		Severity:        SeverityForCount(len(matched)),
		MatchedKeywords: matched,
	}
}

// SeverityForCount maps a keyword match count to a tier.
func SeverityForCount(n int) Severity {
	switch {
	case n <= 0:
		return SeverityNone
	case n == 1:
		return SeverityMedium
	case n == 2:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

func containsKeyword(lowerText, keyword string) bool {
	if strings.Contains(lowerText, keyword) {
		return true
	}
	for _, alt := range lexicon.CrisisParaphrases[keyword] {
		if strings.Contains(lowerText, alt) {
			return true
		}
	}
	return false
}
