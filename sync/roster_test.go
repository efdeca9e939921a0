package sync

import "testing"

func TestCleanName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Alice Smith", "Alice Smith"},
		{"  alice   smith  ", "alice smith"},
		{"Alice Smith (G2008)", "Alice Smith"},
		{"Alice (keeper) Smith", "Alice Smith"},
		{"Alice Smith | trener", "Alice Smith"},
		{"Alice Smith; parent", "Alice Smith"},
		{"Alice Smith / admin", "Alice Smith"},
		{"Alice (unclosed", "Alice"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanName(tt.raw); got != tt.want {
			t.Errorf("CleanName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeNameFoldsCase(t *testing.T) {
	if NormalizeName("ALICE SMITH (G2008)") != NormalizeName("alice smith") {
		t.Error("expected folded keys to match")
	}
	if NormalizeName("Åse Lund") != NormalizeName("åse lund") {
		t.Error("expected folded keys to match for non-ASCII")
	}
}

func TestRoleExcluded(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want bool
	}{
		{"Alice Smith", "", false},
		{"Bob Jensen (trener)", "", true},
		{"Coach Carter", "", true},
		{"Kari Leder", "", true},
		// An explicit hint overrides tokens in the name.
		{"Kari Leder", "player", false},
		{"Alice Smith", "Trener", true},
		{"Alice Smith", "guardian", true},
	}
	for _, tt := range tests {
		if got := RoleExcluded(tt.name, tt.hint); got != tt.want {
			t.Errorf("RoleExcluded(%q, %q) = %v, want %v", tt.name, tt.hint, got, tt.want)
		}
	}
}

func TestResolverWithRoster(t *testing.T) {
	r := NewResolver([]string{"Alice Smith", "Bob Jensen", "Trener Ola"})

	if !r.HasRoster() {
		t.Fatal("expected roster mode")
	}
	// Staff entries never enter the roster.
	if len(r.Roster()) != 2 {
		t.Fatalf("roster = %v, want 2 players", r.Roster())
	}

	display, key, ok := r.Resolve("ALICE SMITH (G2008)", "")
	if !ok || display != "Alice Smith" {
		t.Errorf("Resolve decorated name = (%q, %q, %v)", display, key, ok)
	}

	if _, _, ok := r.Resolve("Unknown Person", ""); ok {
		t.Error("names outside the roster must be excluded")
	}
	if _, _, ok := r.Resolve("Alice Smith", "trener"); ok {
		t.Error("staff hint must exclude even roster names")
	}
}

func TestResolverWithoutRoster(t *testing.T) {
	r := NewResolver(nil)

	if r.HasRoster() {
		t.Fatal("expected open mode")
	}
	display, key, ok := r.Resolve("Alice   Smith (G2008)", "")
	if !ok || display != "Alice Smith" {
		t.Errorf("Resolve = (%q, %q, %v)", display, key, ok)
	}
	if _, _, ok := r.Resolve("Bob Jensen", "coach"); ok {
		t.Error("staff must still be excluded without a roster")
	}

	// Same person under different casing collapses to one key.
	_, k1, _ := r.Resolve("alice smith", "")
	_, k2, _ := r.Resolve("Alice Smith", "")
	if k1 != k2 {
		t.Errorf("keys differ: %q vs %q", k1, k2)
	}
}
