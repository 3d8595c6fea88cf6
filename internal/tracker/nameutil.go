package tracker

import "strings"

// Company names entered through free-text chat often carry tails like
// "Stripe | applied last week" or "Acme - referral (interview)". Matching
// and display both use the sanitized form.

// SanitizeCompanyName strips pipe- and dash-delimited tail segments and a
// trailing parenthesized status tag, then trims whitespace.
func SanitizeCompanyName(name string) string {
	s := name
	if idx := strings.Index(s, "|"); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, " - "); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Trailing "(interview)" style status tag.
	if strings.HasSuffix(s, ")") {
		if open := strings.LastIndex(s, "("); open > 0 {
			inner := strings.ToLower(strings.TrimSpace(s[open+1 : len(s)-1]))
			if ValidStatus(inner) {
				s = strings.TrimSpace(s[:open])
			}
		}
	}
	return s
}

// companyCanonical reports whether the stored company field is already in
// sanitized form (no delimiter tails left to strip).
func companyCanonical(name string) bool {
	return name == SanitizeCompanyName(name)
}

// companiesMatch compares two company names after sanitization, case-insensitively.
func companiesMatch(a, b string) bool {
	return strings.EqualFold(SanitizeCompanyName(a), SanitizeCompanyName(b))
}

// NormalizeRoleText folds case and collapses whitespace for role comparison.
func NormalizeRoleText(role string) string {
	return strings.Join(strings.Fields(strings.ToLower(role)), " ")
}

// RolesEquivalent reports whether two role strings are the same after normalization.
func RolesEquivalent(a, b string) bool {
	return NormalizeRoleText(a) == NormalizeRoleText(b)
}

// genericRoles are placeholder strings inserted when the real role was
// unknown at creation time. They are safe to overwrite once a real role
// shows up.
var genericRoles = map[string]bool{
	"":                 true,
	"unknown":          true,
	"unknown role":     true,
	"n/a":              true,
	"na":               true,
	"tbd":              true,
	"role tbd":         true,
	"role":             true,
	"position":         true,
	"not specified":    true,
	"unspecified":      true,
	"generic":          true,
	"software engineer": true, // default title used by quick-add flows
}

// IsGenericRole reports whether the role is a placeholder eligible for renaming.
func IsGenericRole(role string) bool {
	return genericRoles[NormalizeRoleText(role)]
}
