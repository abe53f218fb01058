package corebits

import "testing"

func TestMaskEnabledAndCores(t *testing.T) {
	m := &Mask{}
	m.Set([]int{2, 0, 5})

	if !m.Enabled(0) || !m.Enabled(2) || !m.Enabled(5) {
		t.Fatal("expected cores 0, 2, 5 to be enabled")
	}
	if m.Enabled(1) || m.Enabled(64) || m.Enabled(200) {
		t.Fatal("did not expect cores outside the configured set to be enabled")
	}

	got := m.Cores()
	want := []int{0, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("Cores() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Cores() = %v, want %v", got, want)
		}
	}

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
}

func TestMaskAboveSixtyThreeIsNotSpecial(t *testing.T) {
	// The redesign flag in the specification calls out a hard-coded
	// "core > 63" bound in the original C source; Mask carries no such
	// bound, so a core numbered above 63 works like any other.
	m := &Mask{}
	m.Set([]int{70})

	if !m.Enabled(70) {
		t.Fatal("expected core 70 to be enabled when explicitly configured")
	}
}
