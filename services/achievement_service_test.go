package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursequest/gamification"
	"coursequest/models"
)

func TestSnapshot_CountsByReason(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	achievements := NewAchievementService(ledger)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	for i, reason := range []gamification.Reason{
		gamification.ReasonArticleComplete,
		gamification.ReasonArticleComplete,
		gamification.ReasonFlashcardReviewed,
		gamification.ReasonMCQCorrect,
		gamification.ReasonTrueFalseCorrect,
		gamification.ReasonFillCorrect,
	} {
		created, _, err := ledger.RecordTransaction(db, 1, string(reason)+"-content-"+string(rune('a'+i)), reason, 10, 0, 2)
		require.NoError(t, err)
		require.True(t, created)
	}
	_, err = ledger.AddXP(db, 1, 60)
	require.NoError(t, err)

	snap, err := achievements.Snapshot(db, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.ArticlesCompleted)
	assert.Equal(t, 1, snap.FlashcardsReviewed)
	assert.Equal(t, 3, snap.QuizzesCorrect, "mcq + tf + fill all count as quizzes")
	assert.Equal(t, 60, snap.XPTotal)
	assert.Equal(t, 12, snap.SparksEarned)
}

func TestEvaluate_UnlocksOnce(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	achievements := NewAchievementService(ledger)

	def := models.Achievement{
		Code: "bookworm", Name: "Bookworm", Description: "Complete 10 articles",
		Metric: MetricArticlesCompleted, Threshold: 10, XPReward: 75, SparksReward: 25,
	}
	require.NoError(t, db.Create(&def).Error)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	snap := StatsSnapshot{ArticlesCompleted: 10}

	unlocked, err := achievements.Evaluate(db, 1, snap)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "bookworm", unlocked[0].Code)

	// A second evaluation of an already-true condition is a no-op.
	unlocked, err = achievements.Evaluate(db, 1, snap)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	var rows int64
	db.Model(&models.UserAchievement{}).Where("user_id = ?", 1).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestEvaluate_AppliesRewardsThroughLedger(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	achievements := NewAchievementService(ledger)

	def := models.Achievement{
		Code: "first-steps", Name: "First Steps", Description: "Complete your first article",
		Metric: MetricArticlesCompleted, Threshold: 1, XPReward: 25, SparksReward: 10,
	}
	require.NoError(t, db.Create(&def).Error)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	unlocked, err := achievements.Evaluate(db, 1, StatsSnapshot{ArticlesCompleted: 1})
	require.NoError(t, err)
	require.Len(t, unlocked, 1)

	stats, err := ledger.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.XPTotal)
	assert.Equal(t, 10, stats.Sparks)

	// The reward shows up as a ledger transaction.
	var reward models.XPTransaction
	require.NoError(t, db.Where("user_id = ? AND content_id = ?", 1, "achievement:first-steps").First(&reward).Error)
	assert.Equal(t, string(gamification.ReasonAchievementUnlocked), reward.Reason)
	assert.Equal(t, 25, reward.Amount)
}

func TestEvaluate_BelowThresholdStaysLocked(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	achievements := NewAchievementService(ledger)

	def := models.Achievement{
		Code: "scholar", Name: "Scholar", Description: "Complete 50 articles",
		Metric: MetricArticlesCompleted, Threshold: 50,
	}
	require.NoError(t, db.Create(&def).Error)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	unlocked, err := achievements.Evaluate(db, 1, StatsSnapshot{ArticlesCompleted: 49})
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestSnapshot_MetricNames(t *testing.T) {
	snap := StatsSnapshot{
		ArticlesCompleted: 1, SectionsCompleted: 2, FlashcardsReviewed: 3,
		MindmapsReviewed: 4, QuizzesCorrect: 5, Level: 6, XPTotal: 7,
		SparksEarned: 8, CurrentStreak: 9, BestStreak: 10, FreezesUsed: 11,
	}

	for name, want := range map[string]int{
		MetricArticlesCompleted:  1,
		MetricSectionsCompleted:  2,
		MetricFlashcardsReviewed: 3,
		MetricMindmapsReviewed:   4,
		MetricQuizzesCorrect:     5,
		MetricLevel:              6,
		MetricXPTotal:            7,
		MetricSparksEarned:       8,
		MetricCurrentStreak:      9,
		MetricBestStreak:         10,
		MetricFreezesUsed:        11,
	} {
		got, ok := snap.Metric(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := snap.Metric("nope")
	assert.False(t, ok)
}
