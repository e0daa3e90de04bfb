package palisade

import "testing"

func TestActionRanking(t *testing.T) {
	// The lattice order is load-bearing: threshold checks compare ranks,
	// and audit deliberately sits below config, delete below update.
	ordered := []Action{
		ActionBlocked, ActionNone, ActionRead, ActionCreate,
		ActionAudit, ActionConfig, ActionDelete, ActionUpdate,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("rank(%s) = %d, not below rank(%s) = %d",
				ordered[i-1], ordered[i-1].Rank(), ordered[i], ordered[i].Rank())
		}
	}
}

func TestAtLeastReflexive(t *testing.T) {
	for a := range actionRanks {
		if !AtLeast(a, a) {
			t.Errorf("AtLeast(%s, %s) = false", a, a)
		}
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		permitted, requested Action
		want                 bool
	}{
		{ActionUpdate, ActionRead, true},
		{ActionUpdate, ActionDelete, true},
		{ActionRead, ActionUpdate, false},
		{ActionConfig, ActionAudit, true},
		{ActionAudit, ActionConfig, false},
		{ActionNone, ActionRead, false},
		{ActionBlocked, ActionNone, false},
		{ActionBlocked, ActionRead, false},
		// Unknown actions rank below blocked on both sides.
		{Action("bogus"), ActionRead, false},
		{ActionBlocked, Action("bogus"), true},
	}
	for _, tt := range tests {
		if got := AtLeast(tt.permitted, tt.requested); got != tt.want {
			t.Errorf("AtLeast(%s, %s) = %v, want %v",
				tt.permitted, tt.requested, got, tt.want)
		}
	}
}

func TestActionValid(t *testing.T) {
	for a := range actionRanks {
		if !a.Valid() {
			t.Errorf("%s.Valid() = false", a)
		}
	}
	if Action("write").Valid() {
		t.Error(`Action("write").Valid() = true`)
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("update")
	if err != nil {
		t.Fatalf("ParseAction(update): %v", err)
	}
	if a != ActionUpdate {
		t.Errorf("ParseAction(update) = %s", a)
	}

	if _, err := ParseAction("write"); err == nil {
		t.Error("ParseAction(write) succeeded")
	}
}
