package sync

import "strings"

// Fact extraction. Each included event yields raw attendance facts from up
// to three sources, ranked by reliability:
//
//	TierStructured      per-member records in the event detail payload
//	TierExport          rows from the XLSX attendance export
//	TierParticipantList the bare participant list, used only when no
//	                    export could be fetched
//
// Facts carry raw strings; normalization and conflict resolution happen in
// the merge step.

// SourceTier ranks fact sources. Higher is more reliable.
type SourceTier int

const (
	TierParticipantList SourceTier = 1
	TierExport          SourceTier = 2
	TierStructured      SourceTier = 3
)

func (t SourceTier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierExport:
		return "export"
	case TierParticipantList:
		return "participants"
	default:
		return "unknown"
	}
}

// Fact is one raw attendance observation before identity resolution.
type Fact struct {
	EventID   string
	RawName   string
	RoleHint  string
	RawStatus string
	RawReason string
	HasSignal bool
	Tier      SourceTier
}

// ExtractFacts collects the facts for one event from all available sources.
func ExtractFacts(ev Event, detail map[string]interface{}, export *Export) []Fact {
	var facts []Fact

	facts = append(facts, structuredFacts(ev.ID, detail)...)

	if export != nil {
		for _, row := range export.Rows {
			facts = append(facts, Fact{
				EventID:   ev.ID,
				RawName:   row.Name,
				RoleHint:  row.Role,
				RawStatus: row.RawStatus,
				RawReason: row.RawReason,
				HasSignal: row.HasSignal,
				Tier:      TierExport,
			})
		}
	} else {
		facts = append(facts, participantListFacts(ev.ID, detail)...)
	}

	return facts
}

// Field aliases for participant-shaped records.
var (
	participantStatusKeys = []string{"status", "response", "attendance", "attendanceStatus", "accepted", "attending", "isAttending", "checkedIn"}
	participantReasonKeys = []string{"absenceReason", "declineMessage", "reason", "comment", "note"}
	participantRoleKeys   = []string{"role", "memberType", "type"}
)

// structuredFacts walks the detail payload for objects that look like
// per-member attendance records, wherever the API nests them.
func structuredFacts(eventID string, detail map[string]interface{}) []Fact {
	var facts []Fact
	walkObjects(detail, func(m map[string]interface{}) {
		if !looksLikeParticipant(m) {
			return
		}
		statusVal, hasStatus := pickField(m, participantStatusKeys...)
		f := Fact{
			EventID:   eventID,
			RawName:   participantName(m),
			RoleHint:  pickString(m, participantRoleKeys...),
			RawReason: pickString(m, participantReasonKeys...),
			Tier:      TierStructured,
		}
		if hasStatus {
			f.RawStatus = safeString(statusVal)
			f.HasSignal = f.RawStatus != ""
		}
		facts = append(facts, f)
	})
	return facts
}

// looksLikeParticipant requires both a resolvable person name and at least
// one attendance-flavored key, keeping the tree walk from swallowing venue
// or organizer objects.
func looksLikeParticipant(m map[string]interface{}) bool {
	if participantName(m) == "" {
		return false
	}
	if _, ok := pickField(m, participantStatusKeys...); ok {
		return true
	}
	if _, ok := pickField(m, participantReasonKeys...); ok {
		return true
	}
	return false
}

// participantName assembles a display name from whichever fields the record
// carries, descending into a nested member or profile object when needed.
func participantName(m map[string]interface{}) string {
	if name := pickString(m, "name", "fullName", "memberName", "displayName"); name != "" {
		return name
	}
	first := pickString(m, "firstName", "givenName")
	last := pickString(m, "lastName", "surname", "familyName")
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	if nested, ok := pickField(m, "member", "profile", "person"); ok {
		if sub, isMap := nested.(map[string]interface{}); isMap {
			return participantName(sub)
		}
	}
	return ""
}

// participantListFacts reads the event's plain participant list. Entries
// here carry no status signal of their own; membership in the list is the
// only information.
func participantListFacts(eventID string, detail map[string]interface{}) []Fact {
	listVal, ok := pickField(detail, "participants", "members", "attendees", "recipients")
	if !ok {
		return nil
	}
	list, isSlice := listVal.([]interface{})
	if !isSlice {
		return nil
	}
	var facts []Fact
	for _, item := range list {
		var name, role, status, reason string
		switch v := item.(type) {
		case string:
			name = v
		case map[string]interface{}:
			name = participantName(v)
			role = pickString(v, participantRoleKeys...)
			status = pickString(v, participantStatusKeys...)
			reason = pickString(v, participantReasonKeys...)
		}
		if name == "" {
			continue
		}
		facts = append(facts, Fact{
			EventID:   eventID,
			RawName:   name,
			RoleHint:  role,
			RawStatus: status,
			RawReason: reason,
			HasSignal: status != "",
			Tier:      TierParticipantList,
		})
	}
	return facts
}
