package gamification

import (
	"math/rand"
	"testing"
)

func TestRewardTable_Ordering(t *testing.T) {
	flash, _ := RewardFor(ReasonFlashcardReviewed)
	mindmap, _ := RewardFor(ReasonMindmapReviewed)
	mcq, _ := RewardFor(ReasonMCQCorrect)

	if !(mcq.XP > mindmap.XP && mindmap.XP > flash.XP) {
		t.Errorf("expected quiz > mindmap > flashcard, got %d / %d / %d",
			mcq.XP, mindmap.XP, flash.XP)
	}
}

func TestRewardFor_UnknownReason(t *testing.T) {
	if _, ok := RewardFor(Reason("made-up")); ok {
		t.Error("unknown reason should not have a reward")
	}
	if _, ok := RewardFor(ReasonAchievementUnlocked); ok {
		t.Error("achievement rewards come from the catalog, not the table")
	}
	if ValidReason(ReasonFreezePurchase) {
		t.Error("freeze-purchase is a spend marker, not an awardable reason")
	}
}

func TestValidReason_StreakDayNotSubmittable(t *testing.T) {
	// Accepting streak-day from clients would let them farm the daily
	// bonus with invented content ids.
	if ValidReason(ReasonStreakDay) {
		t.Error("streak-day must only be granted through check-in")
	}
	if _, ok := RewardFor(ReasonStreakDay); !ok {
		t.Error("check-in still needs the streak-day reward amounts")
	}
}

// fixedSource produces a repeating sequence of Int63 values so bonus
// rolls become deterministic.
type fixedSource struct {
	vals []int64
	i    int
}

func (s *fixedSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *fixedSource) Seed(int64) {}

// float64Source yields an Int63 that rand.Float64 maps to f.
func float64Source(fs ...float64) rand.Source {
	vals := make([]int64, len(fs))
	for i, f := range fs {
		vals[i] = int64(f * (1 << 53) * (1 << 10))
	}
	return &fixedSource{vals: vals}
}

func TestBonusRoller_NoBonus(t *testing.T) {
	// First roll at 0.5 >= BonusChance: no bonus.
	roller := NewBonusRollerWithSource(float64Source(0.5))
	if got := roller.Roll(15); got != 0 {
		t.Errorf("Roll(15) = %d, want 0", got)
	}
}

func TestBonusRoller_MinMultiplier(t *testing.T) {
	// Chance roll 0.0 hits, multiplier roll 0.0 gives the minimum.
	roller := NewBonusRollerWithSource(float64Source(0.0, 0.0))
	if got := roller.Roll(15); got != 8 { // round(15 * 0.5)
		t.Errorf("Roll(15) = %d, want 8", got)
	}
}

func TestBonusRoller_ZeroBase(t *testing.T) {
	roller := NewBonusRollerWithSource(float64Source(0.0, 0.0))
	if got := roller.Roll(0); got != 0 {
		t.Errorf("Roll(0) = %d, want 0", got)
	}
}

func TestBonusRoller_Distribution(t *testing.T) {
	roller := NewBonusRollerWithSource(rand.NewSource(42))
	hits := 0
	const n = 10000
	for i := 0; i < n; i++ {
		bonus := roller.Roll(100)
		if bonus == 0 {
			continue
		}
		hits++
		// Bonus stays inside base * [min, max], allowing rounding.
		if bonus < 50 || bonus > 200 {
			t.Fatalf("bonus %d outside expected range", bonus)
		}
	}
	rate := float64(hits) / n
	if rate < 0.10 || rate > 0.20 {
		t.Errorf("bonus rate %.3f too far from %.2f", rate, BonusChance)
	}
}
