package sync

import "strings"

// Status is the normalized attendance state of one member at one event.
type Status int

const (
	StatusNoResponse Status = iota
	StatusAbsent
	StatusPresent
)

func (s Status) String() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	default:
		return "No response"
	}
}

// Rank orders statuses for conflict resolution. When two sources disagree
// about the same member at the same event, the higher rank wins.
func (s Status) Rank() int {
	switch s {
	case StatusPresent:
		return 3
	case StatusAbsent:
		return 2
	default:
		return 0
	}
}

// FormatStatus renders a status for the report, appending the absence
// reason when one is known.
func FormatStatus(s Status, reason string) string {
	if s == StatusAbsent && reason != "" {
		return "Absent — " + reason
	}
	return s.String()
}

// Raw status vocabularies, English and Norwegian. Matching is
// case-insensitive on the trimmed value. Exact tokens are checked before
// substrings so that negated phrases ("not going") never match a present
// substring ("going").
var (
	presentTokens = map[string]bool{
		"present": true, "attended": true, "attending": true, "accepted": true,
		"yes": true, "going": true, "confirmed": true, "checked in": true,
		"late": true, "kommer": true, "ja": true, "påmeldt": true,
		"deltar": true, "møtt": true, "oppmøtt": true, "til stede": true,
	}
	absentTokens = map[string]bool{
		"absent": true, "declined": true, "no": true, "not going": true,
		"not attending": true, "unattended": true, "cancelled": true,
		"kommer ikke": true, "nei": true, "avslått": true, "fravær": true,
		"fraværende": true, "deltar ikke": true, "avmeldt": true, "syk": true,
	}
	noResponseTokens = map[string]bool{
		"no response": true, "unanswered": true, "unconfirmed": true,
		"pending": true, "invited": true, "waiting": true, "unknown": true,
		"maybe": true, "ikke svart": true, "ubesvart": true, "venter": true,
		"invitert": true, "kanskje": true,
	}

	// Substring fallbacks, ordered negative before positive.
	absentPhrases  = []string{"not going", "not attending", "kommer ikke", "deltar ikke", "declin", "absen", "fravær"}
	presentPhrases = []string{"accept", "attend", "going", "present", "kommer", "deltar", "møtt"}
)

// NormalizeStatus maps a raw status string to the three-state vocabulary.
// Unrecognized values fall back to StatusNoResponse; the raw string is
// preserved elsewhere so nothing is lost.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusNoResponse
	}
	if presentTokens[s] {
		return StatusPresent
	}
	if absentTokens[s] {
		return StatusAbsent
	}
	if noResponseTokens[s] {
		return StatusNoResponse
	}
	for _, phrase := range absentPhrases {
		if strings.Contains(s, phrase) {
			return StatusAbsent
		}
	}
	for _, phrase := range presentPhrases {
		if strings.Contains(s, phrase) {
			return StatusPresent
		}
	}
	return StatusNoResponse
}

// NormalizeStatusValue handles the dynamic typing of API payloads: booleans
// mean attended or not, numbers follow the 0/1 convention, strings go
// through the vocabulary.
func NormalizeStatusValue(v interface{}) Status {
	switch val := v.(type) {
	case bool:
		if val {
			return StatusPresent
		}
		return StatusAbsent
	case float64:
		if val != 0 {
			return StatusPresent
		}
		return StatusAbsent
	case string:
		return NormalizeStatus(val)
	default:
		return StatusNoResponse
	}
}

// Truthy and falsy cell markers seen in exported spreadsheets.
var (
	truthyCells = map[string]bool{
		"x": true, "✓": true, "✔": true, "yes": true, "y": true, "ja": true,
		"1": true, "true": true, "present": true, "attended": true,
	}
	falsyCells = map[string]bool{
		"0": true, "false": true, "-": true, "no": true, "n": true,
		"nei": true, "absent": true,
	}
)

// IsTruthyCell reports whether an export cell marks attendance.
func IsTruthyCell(s string) bool {
	return truthyCells[strings.ToLower(strings.TrimSpace(s))]
}

// IsFalsyCell reports whether an export cell explicitly marks absence.
func IsFalsyCell(s string) bool {
	return falsyCells[strings.ToLower(strings.TrimSpace(s))]
}
