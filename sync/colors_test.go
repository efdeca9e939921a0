package sync

import "testing"

func TestStatusColorDistinct(t *testing.T) {
	seen := map[Color]Status{}
	for _, s := range []Status{StatusPresent, StatusAbsent, StatusNoResponse} {
		c := StatusColor(s)
		if prev, dup := seen[c]; dup {
			t.Fatalf("%v and %v share color %+v", prev, s, c)
		}
		seen[c] = s
	}
}

func TestStatusColorRuns(t *testing.T) {
	statuses := []Status{
		StatusPresent, StatusPresent, StatusAbsent, StatusPresent, StatusPresent,
	}
	runs := statusColorRuns(statuses, 1)

	if len(runs) != 3 {
		t.Fatalf("runs = %+v, want 3", runs)
	}
	if runs[0].startRow != 1 || runs[0].endRow != 3 || runs[0].color != StatusColor(StatusPresent) {
		t.Errorf("run 0 = %+v", runs[0])
	}
	if runs[1].startRow != 3 || runs[1].endRow != 4 {
		t.Errorf("run 1 = %+v", runs[1])
	}
	if runs[2].startRow != 4 || runs[2].endRow != 6 {
		t.Errorf("run 2 = %+v", runs[2])
	}
}

func TestStatusColorRunsEmpty(t *testing.T) {
	if runs := statusColorRuns(nil, 1); runs != nil {
		t.Errorf("runs = %+v, want none", runs)
	}
}
