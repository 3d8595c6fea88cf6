package tracker

import (
	"fmt"
	"strings"
	"unicode"
)

// Canonical round type labels. Anything that doesn't classify falls back
// to a derived "Round N" label.
const (
	RoundTypeHR          = "HR"
	RoundTypeTechnical1  = "Technical Round 1"
	RoundTypeTechnical2  = "Technical Round 2"
	RoundTypeSystemDesign = "System Design"
	RoundTypeManagerial  = "Managerial"
	RoundTypeAssignment  = "Assignment"
	RoundTypeFinal       = "Final"
)

// roundTypeRule maps a set of normalized phrases to a canonical label.
// Rules are evaluated top-to-bottom; first hit wins, so the more specific
// variants ("tech 2") sit above the catch-alls ("tech").
type roundTypeRule struct {
	phrases   []string
	canonical string
}

var roundTypeRules = []roundTypeRule{
	{[]string{"technical round 2", "technical 2", "tech round 2", "tech 2", "coding round 2", "coding 2", "dsa round 2", "round 2 technical", "t2"}, RoundTypeTechnical2},
	{[]string{"technical round 1", "technical 1", "tech round 1", "tech 1", "coding round 1", "coding 1", "dsa round 1", "round 1 technical", "t1", "technical round", "technical", "tech", "coding", "coding round", "dsa", "algorithms"}, RoundTypeTechnical1},
	{[]string{"system design", "sys design", "systems design", "design round", "architecture", "architecture round", "hld", "lld"}, RoundTypeSystemDesign},
	{[]string{"managerial", "manager round", "managerial round", "hiring manager", "hiring manager round", "manager", "em round", "engineering manager"}, RoundTypeManagerial},
	{[]string{"assignment", "take home", "takehome", "take home assignment", "home assignment", "case study", "assessment"}, RoundTypeAssignment},
	{[]string{"final", "final round", "final interview", "onsite final"}, RoundTypeFinal},
	{[]string{"hr", "hr round", "hr screen", "human resources", "recruiter", "recruiter screen", "recruiter call", "phone screen", "screening", "culture fit", "behavioral"}, RoundTypeHR},
}

// foldRoundType lowers the input and collapses separators so that camel,
// hyphen and underscore variants normalize to the same phrase:
// "TechnicalRound2", "technical-round-2" and "technical round 2" all fold
// to "technical round 2".
func foldRoundType(raw string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(raw))
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i > 0 && unicode.IsLetter(runes[i-1]) {
				b.WriteRune(' ')
			}
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ParseRoundType classifies a raw round type string against the canonical
// set. Returns the canonical label and true on a match.
func ParseRoundType(raw string) (string, bool) {
	folded := foldRoundType(raw)
	if folded == "" {
		return "", false
	}
	for _, rule := range roundTypeRules {
		for _, p := range rule.phrases {
			if folded == p {
				return rule.canonical, true
			}
		}
	}
	return "", false
}

// DerivedRoundType returns the fallback "Round N" label for a round number.
func DerivedRoundType(n int) string {
	return fmt.Sprintf("Round %d", n)
}
