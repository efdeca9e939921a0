package sync

import "sort"

// Merging turns raw facts into one Cell per (event, member) pair. When
// sources disagree the tie-break order is:
//
//  1. higher normalized status rank (Present beats Absent beats NoResponse)
//  2. at equal rank, an Absent carrying a reason beats one without
//  3. at equal rank and reason, the higher source tier
//
// Rank comes first so a confirmed attendance can never be shadowed by a
// stale decline from a more trusted source.

// Cell is the resolved attendance state of one member at one event.
type Cell struct {
	Status    Status
	Reason    string
	RawStatus string
	RawReason string
	Tier      SourceTier
	HasFact   bool
}

// Member is a resolved identity: the case-folded key and the display form.
type Member struct {
	Key     string
	Display string
}

// Table is the reconciled attendance snapshot across all included events.
type Table struct {
	Events  []Event
	Members []Member
	// cells is eventID -> member key -> resolved cell. Missing entries
	// mean no fact was observed; readers get the NoResponse default.
	cells map[string]map[string]Cell
}

// Cell returns the resolved cell, defaulting to NoResponse when no fact
// survived resolution for the pair.
func (t *Table) Cell(eventID, memberKey string) Cell {
	if byMember, ok := t.cells[eventID]; ok {
		if c, ok := byMember[memberKey]; ok {
			return c
		}
	}
	return Cell{Status: StatusNoResponse}
}

// resolvedFact is a fact after identity resolution and normalization.
type resolvedFact struct {
	memberKey string
	display   string
	cell      Cell
}

// betterFact reports whether a should win over b.
func betterFact(a, b Cell) bool {
	if a.Status.Rank() != b.Status.Rank() {
		return a.Status.Rank() > b.Status.Rank()
	}
	if a.Status == StatusAbsent && (a.Reason != "") != (b.Reason != "") {
		return a.Reason != ""
	}
	return a.Tier > b.Tier
}

// normalizeFact resolves a fact's identity and status. ok is false when the
// resolver excludes the record.
func normalizeFact(f Fact, resolver *Resolver) (resolvedFact, bool) {
	display, key, ok := resolver.Resolve(f.RawName, f.RoleHint)
	if !ok {
		return resolvedFact{}, false
	}
	cell := Cell{
		RawStatus: f.RawStatus,
		RawReason: f.RawReason,
		Tier:      f.Tier,
		HasFact:   true,
	}
	if f.HasSignal {
		if f.Tier == TierExport {
			cell.Status = exportStatus(ExportRow{RawStatus: f.RawStatus, HasSignal: true})
		} else {
			cell.Status = NormalizeStatus(f.RawStatus)
		}
	} else {
		cell.Status = StatusNoResponse
	}
	if cell.Status == StatusAbsent {
		cell.Reason = f.RawReason
	}
	return resolvedFact{memberKey: key, display: display, cell: cell}, true
}

// BuildTable assembles the snapshot from per-event facts. With a roster the
// member universe is exactly the roster; without one it is every member
// observed in any fact. Members are ordered case-insensitively by display
// name; events keep the order they arrive in.
func BuildTable(events []Event, factsByEvent map[string][]Fact, resolver *Resolver) *Table {
	t := &Table{
		Events: events,
		cells:  make(map[string]map[string]Cell),
	}

	seen := make(map[string]string) // key -> display

	for _, ev := range events {
		byMember := make(map[string]Cell)
		for _, f := range factsByEvent[ev.ID] {
			rf, ok := normalizeFact(f, resolver)
			if !ok {
				continue
			}
			seen[rf.memberKey] = rf.display
			if existing, dup := byMember[rf.memberKey]; !dup || betterFact(rf.cell, existing) {
				byMember[rf.memberKey] = rf.cell
			}
		}
		t.cells[ev.ID] = byMember
	}

	if resolver.HasRoster() {
		for _, display := range resolver.Roster() {
			key := caseFolder.String(display)
			seen[key] = display
		}
	}

	for key, display := range seen {
		t.Members = append(t.Members, Member{Key: key, Display: display})
	}
	sort.Slice(t.Members, func(i, j int) bool {
		a, b := t.Members[i], t.Members[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Display < b.Display
	})

	return t
}

// MemberTotals are the per-member aggregates for the summary report.
type MemberTotals struct {
	Present    int
	Absent     int
	NoResponse int
}

// Missed counts events the member neither attended nor answered for.
// NoResponse at a held event is a miss in practice.
func (m MemberTotals) Missed() int {
	return m.Absent + m.NoResponse
}

// Totals computes the per-member aggregates across all events.
func (t *Table) Totals(memberKey string) MemberTotals {
	var totals MemberTotals
	for _, ev := range t.Events {
		switch t.Cell(ev.ID, memberKey).Status {
		case StatusPresent:
			totals.Present++
		case StatusAbsent:
			totals.Absent++
		default:
			totals.NoResponse++
		}
	}
	return totals
}
