package sync

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Parsing of the XLSX attendance export Spond generates per event. The
// workbook layout is not documented and has shifted over time: the header
// row is not always first, column names come in English or Norwegian, and
// leaders sometimes get their own sheet or a role column. The parser is
// tolerant and keyed on header aliases.

// ExportRow is one participant line from the export workbook.
type ExportRow struct {
	Name      string
	Role      string
	RawStatus string
	RawReason string
	// HasSignal is true when the status cell carried an actual value, as
	// opposed to being blank. Blank cells mean no response, not absence.
	HasSignal bool
}

// Export is the parsed attendance workbook for one event.
type Export struct {
	Rows []ExportRow
	// HeaderText is the free text found above and around the header row,
	// typically the event title and date. Used for keyword matching and
	// start-time inference when the structured payload lacks them.
	HeaderText string
}

// Header cell aliases, folded. Order matters: first match wins per concern.
var (
	nameHeaders   = []string{"name", "member name", "full name", "member", "participant", "navn", "deltaker", "medlem", "spiller"}
	statusHeaders = []string{"status", "response", "attendance", "attending", "attended", "svar", "oppmøte", "deltakelse"}
	reasonHeaders = []string{"reason", "absence reason", "note", "notes", "comment", "årsak", "kommentar", "merknad", "begrunnelse"}
	roleHeaders   = []string{"role", "type", "rolle"}
)

// Sheet names that hold staff rather than participants.
var leaderSheetTokens = []string{"leader", "coach", "staff", "leder", "trener", "støtteapparat"}

const headerScanRows = 12

// ParseExport parses a Spond XLSX export from raw bytes.
func ParseExport(data []byte) (*Export, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening export workbook: %w", err)
	}
	defer f.Close()

	out := &Export{}
	var headerParts []string

	for _, sheet := range f.GetSheetList() {
		if isLeaderSheet(sheet) {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		parseSheet(rows, out, &headerParts)
	}

	out.HeaderText = strings.Join(headerParts, " ")
	return out, nil
}

func isLeaderSheet(name string) bool {
	folded := caseFolder.String(name)
	for _, tok := range leaderSheetTokens {
		if strings.Contains(folded, tok) {
			return true
		}
	}
	return false
}

// exportColumns locates the relevant columns on a header row.
type exportColumns struct {
	name   int
	status int
	reason int
	role   int
}

func parseSheet(rows [][]string, out *Export, headerParts *[]string) {
	headerIdx, cols := findHeaderRow(rows)
	if headerIdx < 0 {
		// No recognizable header; still harvest text for inference.
		limit := len(rows)
		if limit > headerScanRows {
			limit = headerScanRows
		}
		for _, row := range rows[:limit] {
			for _, cell := range row {
				if s := strings.TrimSpace(cell); s != "" {
					*headerParts = append(*headerParts, s)
				}
			}
		}
		return
	}

	for _, row := range rows[:headerIdx] {
		for _, cell := range row {
			if s := strings.TrimSpace(cell); s != "" {
				*headerParts = append(*headerParts, s)
			}
		}
	}

	headers := rows[headerIdx]
	for _, row := range rows[headerIdx+1:] {
		name := cellAt(row, cols.name)
		if name == "" {
			continue
		}
		r := ExportRow{
			Name:      name,
			Role:      cellAt(row, cols.role),
			RawReason: cellAt(row, cols.reason),
		}
		r.RawStatus, r.HasSignal = inferRowStatus(headers, row, cols)
		out.Rows = append(out.Rows, r)
	}
}

// Header fragments hinting at a yes/no column when the explicit status
// column is missing or blank. Negative fragments come first because the
// Norwegian negation embeds the positive word ("kommer ikke").
var (
	noHintHeaders     = []string{"not going", "kommer ikke", "declin", "absent", "fravær", "nei"}
	noRespHintHeaders = []string{"no response", "ikke svart", "ubesvart"}
	yesHintHeaders    = []string{"attend", "present", "going", "oppmøt", "deltar", "kommer", "ja"}
)

// inferRowStatus resolves a row's status signal: the explicit status cell
// first, then truthy marks under hinting headers, then a free-text scan of
// the remaining cells. No signal at all is reported as such; the caller
// must not read it as absence.
func inferRowStatus(headers, row []string, cols exportColumns) (string, bool) {
	if s := cellAt(row, cols.status); s != "" {
		return s, true
	}

	for j, header := range headers {
		if j == cols.name || j == cols.reason || j == cols.role {
			continue
		}
		cell := cellAt(row, j)
		if cell == "" || !IsTruthyCell(cell) {
			continue
		}
		folded := caseFolder.String(strings.TrimSpace(header))
		switch {
		case containsAny(folded, noHintHeaders):
			return "declined", true
		case containsAny(folded, noRespHintHeaders):
			return "no response", true
		case containsAny(folded, yesHintHeaders):
			return "present", true
		}
	}

	for j := range row {
		if j == cols.name {
			continue
		}
		cell := strings.TrimSpace(row[j])
		if cell == "" {
			continue
		}
		if NormalizeStatus(cell) != StatusNoResponse || noResponseTokens[caseFolder.String(cell)] {
			return cell, true
		}
	}

	return "", false
}

func containsAny(s string, fragments []string) bool {
	for _, frag := range fragments {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}

// findHeaderRow scans the first rows for one containing a name column.
// Returns -1 when none is found.
func findHeaderRow(rows [][]string) (int, exportColumns) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		cols := exportColumns{name: -1, status: -1, reason: -1, role: -1}
		for j, cell := range rows[i] {
			folded := caseFolder.String(strings.TrimSpace(cell))
			if folded == "" {
				continue
			}
			if cols.name < 0 && matchesHeader(folded, nameHeaders) {
				cols.name = j
			} else if cols.status < 0 && matchesHeader(folded, statusHeaders) {
				cols.status = j
			} else if cols.reason < 0 && matchesHeader(folded, reasonHeaders) {
				cols.reason = j
			} else if cols.role < 0 && matchesHeader(folded, roleHeaders) {
				cols.role = j
			}
		}
		if cols.name >= 0 {
			return i, cols
		}
	}
	return -1, exportColumns{}
}

func matchesHeader(folded string, aliases []string) bool {
	for _, alias := range aliases {
		if folded == alias {
			return true
		}
	}
	return false
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// exportStatus interprets one export row's status cell. A column header
// like "Attended" makes bare truthy markers meaningful; otherwise the cell
// text goes through the normal vocabulary.
func exportStatus(r ExportRow) Status {
	if !r.HasSignal {
		return StatusNoResponse
	}
	if IsTruthyCell(r.RawStatus) {
		return StatusPresent
	}
	if IsFalsyCell(r.RawStatus) {
		return StatusAbsent
	}
	return NormalizeStatus(r.RawStatus)
}

// Date patterns seen in export header text: ISO timestamps and the
// day-first European form with an optional "kl HH:MM" time.
var (
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:[T ](\d{2}):(\d{2}))?`)
	euroDateRe = regexp.MustCompile(`\b(\d{1,2})[./](\d{1,2})[./](\d{4})\b(?:\D{0,8}?(\d{1,2})[:.](\d{2}))?`)
)

// ParseDateFromText extracts the first recognizable date from free text.
// European numeric dates are read day-first. The result is in loc,
// converted to UTC.
func ParseDateFromText(text string, loc *time.Location) (time.Time, bool) {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		hour, minute := 0, 0
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
		}
		if validDate(year, month, day) {
			return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc).UTC(), true
		}
	}
	if m := euroDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		hour, minute := 0, 0
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
		}
		if validDate(year, month, day) {
			return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc).UTC(), true
		}
	}
	return time.Time{}, false
}

func validDate(year, month, day int) bool {
	return year >= 2000 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}
