package gamification

import "testing"

func TestXPForLevel_Anchors(t *testing.T) {
	if got := XPForLevel(1); got != 0 {
		t.Errorf("XPForLevel(1) = %d, want 0", got)
	}
	if got := XPForLevel(0); got != 0 {
		t.Errorf("XPForLevel(0) = %d, want 0", got)
	}
	if got := XPForLevel(2); got != 100 {
		t.Errorf("XPForLevel(2) = %d, want 100", got)
	}
}

func TestXPForLevel_StrictlyIncreasing(t *testing.T) {
	for level := 1; level < 100; level++ {
		if XPForLevel(level+1) <= XPForLevel(level) {
			t.Fatalf("curve not strictly increasing at level %d: %d -> %d",
				level, XPForLevel(level), XPForLevel(level+1))
		}
	}
}

func TestLevelForXP_RoundTrip(t *testing.T) {
	for level := 2; level <= 60; level++ {
		boundary := XPForLevel(level)
		if got := LevelForXP(boundary); got != level {
			t.Errorf("LevelForXP(XPForLevel(%d)) = %d, want %d", level, got, level)
		}
		if got := LevelForXP(boundary - 1); got != level-1 {
			t.Errorf("LevelForXP(XPForLevel(%d)-1) = %d, want %d", level, got, level-1)
		}
	}
}

func TestLevelForXP_Defaults(t *testing.T) {
	if got := LevelForXP(0); got != 1 {
		t.Errorf("LevelForXP(0) = %d, want 1", got)
	}
	if got := LevelForXP(-5); got != 1 {
		t.Errorf("LevelForXP(-5) = %d, want 1", got)
	}
}

func TestXPProgress_WithinLevel(t *testing.T) {
	if got := XPProgress(0); got != 0 {
		t.Errorf("XPProgress(0) = %d, want 0", got)
	}
	// Halfway through level 1 (0..100).
	if got := XPProgress(50); got != 50 {
		t.Errorf("XPProgress(50) = %d, want 50", got)
	}
	// Crossing a boundary resets to 0.
	if got := XPProgress(XPForLevel(2)); got != 0 {
		t.Errorf("XPProgress at level 2 boundary = %d, want 0", got)
	}

	// Non-decreasing while the level stays fixed.
	prev := 0
	for xp := 0; xp < XPForLevel(2); xp++ {
		p := XPProgress(xp)
		if p < prev {
			t.Fatalf("progress decreased within level at xp=%d: %d -> %d", xp, prev, p)
		}
		if p > 100 {
			t.Fatalf("progress above 100 at xp=%d", xp)
		}
		prev = p
	}
}
