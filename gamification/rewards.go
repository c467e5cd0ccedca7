// gamification/rewards.go - Reward policy
package gamification

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Reason identifies what a user did to earn a reward.
type Reason string

const (
	ReasonArticleComplete     Reason = "article-complete"
	ReasonSectionComplete     Reason = "section-complete"
	ReasonFlashcardReviewed   Reason = "flashcard-reviewed"
	ReasonMindmapReviewed     Reason = "mindmap-reviewed"
	ReasonMCQCorrect          Reason = "mcq-correct"
	ReasonTrueFalseCorrect    Reason = "tf-correct"
	ReasonFillCorrect         Reason = "fill-correct"
	ReasonStreakDay           Reason = "streak-day"
	ReasonAchievementUnlocked Reason = "achievement-unlocked"
	// ReasonFreezePurchase marks a negative-sparks ledger entry for a
	// streak freeze purchase. Never awarded.
	ReasonFreezePurchase Reason = "freeze-purchase"
)

// Reward is the fixed payout for a reason before any bonus roll.
type Reward struct {
	XP     int
	Sparks int
}

// Quiz answers pay more than mindmap reviews, which pay more than
// flashcard flips, reflecting relative effort.
var rewardTable = map[Reason]Reward{
	ReasonArticleComplete:   {XP: 15, Sparks: 3},
	ReasonSectionComplete:   {XP: 25, Sparks: 5},
	ReasonFlashcardReviewed: {XP: 5, Sparks: 1},
	ReasonMindmapReviewed:   {XP: 8, Sparks: 2},
	ReasonMCQCorrect:        {XP: 10, Sparks: 2},
	ReasonTrueFalseCorrect:  {XP: 8, Sparks: 2},
	ReasonFillCorrect:       {XP: 12, Sparks: 3},
	ReasonStreakDay:         {XP: 10, Sparks: 2},
}

// RewardFor returns the base reward for a reason. ok is false for unknown
// reasons and for achievement-unlocked, whose amounts come from the
// achievement catalog rather than this table.
func RewardFor(reason Reason) (Reward, bool) {
	r, ok := rewardTable[reason]
	return r, ok
}

// ValidReason reports whether reason is one a client may submit directly.
// streak-day is excluded: daily bonuses go only through check-in, whose
// date-scoped content id caps them at one per day.
func ValidReason(reason Reason) bool {
	if reason == ReasonStreakDay {
		return false
	}
	_, ok := rewardTable[reason]
	return ok
}

// Bonus roll parameters. Roughly one in seven awards carries a bonus of
// half to double the base amount.
const (
	BonusChance        = 0.15
	BonusMultiplierMin = 0.5
	BonusMultiplierMax = 2.0
)

// BonusRoller rolls variable bonus XP. The random source is injectable so
// tests can fix the seed and assert exact amounts.
type BonusRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewBonusRoller returns a roller seeded from the clock.
func NewBonusRoller() *BonusRoller {
	return NewBonusRollerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewBonusRollerWithSource returns a roller over the given source.
func NewBonusRollerWithSource(src rand.Source) *BonusRoller {
	return &BonusRoller{rng: rand.New(src)}
}

// Roll returns bonus XP for a base amount: 0 most of the time, otherwise
// base scaled by a uniform multiplier in [BonusMultiplierMin,
// BonusMultiplierMax], rounded to the nearest integer. Re-rolled on every
// call.
func (b *BonusRoller) Roll(base int) int {
	if base <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rng.Float64() >= BonusChance {
		return 0
	}
	m := BonusMultiplierMin + b.rng.Float64()*(BonusMultiplierMax-BonusMultiplierMin)
	return int(math.Round(float64(base) * m))
}
