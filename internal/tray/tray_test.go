package tray

import "testing"

func TestTray_SetLastRep(t *testing.T) {
	tr := New("Model loaded")

	if got := tr.LastRep(); got != "Last: none" {
		t.Errorf("LastRep() = %q, want %q", got, "Last: none")
	}

	tr.SetLastRep("squats", 4)
	if got := tr.LastRep(); got != "Last: squats (4 total)" {
		t.Errorf("LastRep() = %q", got)
	}

	tr.SetLastRep("", 0)
	if got := tr.LastRep(); got != "Last: none" {
		t.Errorf("LastRep() after clear = %q", got)
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New("")

	var resets int
	tr.OnReset(func() { resets++ })
	tr.call(func(t *Tray) func() { return t.onReset })
	if resets != 1 {
		t.Errorf("reset callback ran %d times, want 1", resets)
	}

	// unset callbacks are skipped
	tr.call(func(t *Tray) func() { return t.onOpen })
}
