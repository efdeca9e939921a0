package sync

import (
	"strings"

	"golang.org/x/text/cases"
)

// Member identity resolution. Names arrive from several sources with
// inconsistent decoration (parenthetical notes, role suffixes after a
// separator, stray whitespace), so every comparison goes through the same
// normalization pipeline.

var nameSeparators = []string{"|", ",", ";", "/", "  -  "}

// CleanName strips parenthetical segments and anything after a separator,
// then collapses internal whitespace. The result is the display form.
func CleanName(raw string) string {
	s := raw

	// Drop "(...)" segments. Unbalanced parens cut to the open paren.
	for {
		open := strings.Index(s, "(")
		if open < 0 {
			break
		}
		close := strings.Index(s[open:], ")")
		if close < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + s[open+close+1:]
	}

	for _, sep := range nameSeparators {
		if idx := strings.Index(s, sep); idx >= 0 {
			s = s[:idx]
		}
	}

	return strings.Join(strings.Fields(s), " ")
}

var caseFolder = cases.Fold()

// NormalizeName returns the case-folded comparison key for a name.
func NormalizeName(raw string) string {
	return caseFolder.String(CleanName(raw))
}

// Role vocabulary that marks a record as staff rather than a participant.
// English and Norwegian.
var roleTokens = []string{
	"coach", "leader", "admin", "administrator", "tutor", "guardian",
	"parent", "staff", "manager",
	"trener", "lagleder", "leder", "foresatt", "forelder", "støtteapparat",
}

// hasRoleToken reports whether the folded text contains a staff role word.
func hasRoleToken(folded string) bool {
	for _, tok := range roleTokens {
		if strings.Contains(folded, tok) {
			return true
		}
	}
	return false
}

// RoleExcluded decides whether a record belongs to staff. An explicit role
// hint takes precedence over tokens embedded in the raw name, so a player
// who happens to be named like a role word is not dropped when the source
// says "player".
func RoleExcluded(rawName, roleHint string) bool {
	if hint := caseFolder.String(strings.TrimSpace(roleHint)); hint != "" {
		return hasRoleToken(hint)
	}
	return hasRoleToken(caseFolder.String(rawName))
}

// Resolver maps raw source names to canonical member identities. With a
// roster it is strict: names that do not resolve are excluded. Without one,
// any non-staff name is accepted under its cleaned form.
type Resolver struct {
	roster    []string
	canonical map[string]string
}

// NewResolver builds a resolver from the configured roster. Roster entries
// that are themselves staff roles are ignored.
func NewResolver(roster []string) *Resolver {
	r := &Resolver{canonical: make(map[string]string)}
	for _, name := range roster {
		display := CleanName(name)
		if display == "" || hasRoleToken(caseFolder.String(display)) {
			continue
		}
		key := caseFolder.String(display)
		if _, dup := r.canonical[key]; dup {
			continue
		}
		r.roster = append(r.roster, display)
		r.canonical[key] = display
	}
	return r
}

// HasRoster reports whether the resolver was built from an explicit roster.
func (r *Resolver) HasRoster() bool {
	return len(r.roster) > 0
}

// Roster returns the canonical member list in roster order.
func (r *Resolver) Roster() []string {
	return r.roster
}

// Resolve maps a raw name to (display, key). ok is false when the record
// should be excluded: staff roles always, unknown names when a roster is
// configured.
func (r *Resolver) Resolve(rawName, roleHint string) (display, key string, ok bool) {
	if RoleExcluded(rawName, roleHint) {
		return "", "", false
	}
	cleaned := CleanName(rawName)
	if cleaned == "" {
		return "", "", false
	}
	folded := caseFolder.String(cleaned)
	if r.HasRoster() {
		canon, found := r.canonical[folded]
		if !found {
			return "", "", false
		}
		return canon, folded, true
	}
	return cleaned, folded, true
}
