package sync

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Event selection. Every candidate event from the listing window passes
// through three gates: a keyword gate on its text fields (with the export
// header text as fallback), an optional exact-title gate, and a date gate
// against [CutoffMin, now]. Each evaluation produces a Decision for the
// debug report regardless of outcome.

// MatchSource records which text satisfied the keyword gate.
type MatchSource int

const (
	MatchNone MatchSource = iota
	MatchFields
	MatchExportText
)

func (m MatchSource) String() string {
	switch m {
	case MatchFields:
		return "fields"
	case MatchExportText:
		return "export"
	default:
		return "none"
	}
}

// Event is an accepted candidate, carrying only what the report needs.
type Event struct {
	ID          string
	Title       string
	Start       time.Time // UTC
	HasStart    bool
	MatchSource MatchSource
}

// Header renders the event's column header: local start time plus title.
func (e Event) Header(loc *time.Location) string {
	if !e.HasStart {
		return e.Title
	}
	return e.Start.In(loc).Format("2006-01-02 15:04") + " " + e.Title
}

// Decision is the audit record for one gate evaluation.
type Decision struct {
	EventID     string
	Title       string
	StartUTC    string
	MatchSource MatchSource
	Included    bool
	Reason      string
}

// Selector evaluates event payloads against the configured gates.
type Selector struct {
	cfg       Config
	keywordRe *regexp.Regexp
	now       func() time.Time
}

// NewSelector compiles the gates from config.
func NewSelector(cfg Config) *Selector {
	s := &Selector{cfg: cfg, now: time.Now}
	if cfg.Keyword != "" {
		s.keywordRe = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(cfg.Keyword) + `\b`)
	}
	return s
}

// Evaluate runs one event payload through the gates. export may be nil when
// the workbook could not be fetched; the export fallbacks are then skipped.
func (s *Selector) Evaluate(eventID string, detail map[string]interface{}, export *Export) (Event, Decision) {
	title := pickString(detail, "title", "name", "eventName", "subject", "heading")
	start, hasStart := parseStartUTC(detail)

	ev := Event{ID: eventID, Title: title, Start: start, HasStart: hasStart}
	dec := Decision{EventID: eventID, Title: title}

	// Keyword gate: event text fields first, export header text second.
	if s.keywordRe != nil {
		fieldText := strings.Join([]string{
			title,
			pickText(detail, "description", "notes", "message", "text"),
			pickText(detail, "location", "place", "venue", "address"),
			pickString(detail, "category", "activity", "type"),
		}, " ")
		switch {
		case s.keywordRe.MatchString(fieldText):
			ev.MatchSource = MatchFields
		case export != nil && s.keywordRe.MatchString(export.HeaderText):
			ev.MatchSource = MatchExportText
		default:
			dec.Reason = "keyword not found"
			return ev, dec
		}
	}
	dec.MatchSource = ev.MatchSource

	if s.cfg.TitlePattern != "" && !titleMatches(title, s.cfg.TitlePattern, s.cfg.TitleMatch) {
		dec.Reason = "title mismatch"
		return ev, dec
	}

	// Missing start times get one chance at inference from the export text.
	if !ev.HasStart && export != nil {
		if inferred, ok := ParseDateFromText(export.HeaderText, s.cfg.Timezone); ok {
			ev.Start = inferred
			ev.HasStart = true
		}
	}
	if !ev.HasStart {
		dec.Reason = "no start time"
		return ev, dec
	}
	dec.StartUTC = ev.Start.Format(time.RFC3339)

	now := s.now().UTC()
	if ev.Start.Before(s.cfg.CutoffMin) {
		dec.Reason = "before cutoff"
		return ev, dec
	}
	if ev.Start.After(now) {
		dec.Reason = "not yet held"
		return ev, dec
	}

	dec.Included = true
	return ev, dec
}

func titleMatches(title, pattern string, mode MatchMode) bool {
	switch mode {
	case MatchExactFold:
		return caseFolder.String(title) == caseFolder.String(pattern)
	case MatchContains:
		return strings.Contains(caseFolder.String(title), caseFolder.String(pattern))
	case MatchPrefix:
		return strings.HasPrefix(caseFolder.String(title), caseFolder.String(pattern))
	default:
		return title == pattern
	}
}

// Start time aliases across API revisions. Values are RFC 3339 strings or
// epoch milliseconds.
var startKeys = []string{"startTimestamp", "startTimeUtc", "startTime", "start", "startAt", "startDateTime"}

func parseStartUTC(detail map[string]interface{}) (time.Time, bool) {
	v, ok := pickField(detail, startKeys...)
	if !ok {
		return time.Time{}, false
	}
	switch val := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse("2006-01-02T15:04:05", val); err == nil {
			return t.UTC(), true
		}
	case float64:
		if val > 0 {
			return time.UnixMilli(int64(val)).UTC(), true
		}
	}
	return time.Time{}, false
}

// SortEvents orders events by start time ascending. Events without a start
// sort first, tied among themselves by ID for determinism.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.HasStart != b.HasStart {
			return !a.HasStart
		}
		if !a.HasStart {
			return a.ID < b.ID
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
}
