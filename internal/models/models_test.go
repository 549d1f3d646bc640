package models

import "testing"

func TestSide(t *testing.T) {
	t.Run("Other", func(t *testing.T) {
		if Local.Other() != Remote || Remote.Other() != Local {
			t.Error("Other should swap sides")
		}
	})

	t.Run("ParseSide", func(t *testing.T) {
		for _, side := range Sides {
			parsed, err := ParseSide(side.String())
			if err != nil {
				t.Fatalf("ParseSide(%q) failed: %v", side.String(), err)
			}
			if parsed != side {
				t.Errorf("expected %v, got %v", side, parsed)
			}
		}
		if _, err := ParseSide("usb"); err == nil {
			t.Error("expected error for unknown side")
		}
	})
}

func TestDecision(t *testing.T) {
	tc := []struct {
		decision Decision
		want     string
	}{
		{AdoptIntoSide(Local), "Add to PC"},
		{AdoptIntoSide(Remote), "Add to Quest"},
		{RemoveFromSide(Local), "Remove from PC"},
		{RemoveFromSide(Remote), "Remove from Quest"},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.decision.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnapshotValidate(t *testing.T) {
	valid := &Snapshot{Kind: SnapshotPlayerData, Name: "PlayerData.dat", Content: []byte("{}")}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid snapshot, got %v", err)
	}

	missingName := &Snapshot{Kind: SnapshotPlaylist, Content: []byte("{}")}
	if err := missingName.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	badKind := &Snapshot{Kind: "other", Name: "x", Content: []byte("{}")}
	if err := badKind.Validate(); err == nil {
		t.Error("expected error for invalid kind")
	}
}
