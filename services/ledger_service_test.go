package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursequest/gamification"
	"coursequest/models"
)

func TestRecordTransaction_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	created, txRow, err := ledger.RecordTransaction(db, 1, "article-1", gamification.ReasonArticleComplete, 15, 0, 3)
	require.NoError(t, err)
	require.True(t, created)
	require.NotNil(t, txRow)
	assert.Equal(t, 15, txRow.Amount)

	// Same (user, content, reason) again: no-op.
	created, txRow, err = ledger.RecordTransaction(db, 1, "article-1", gamification.ReasonArticleComplete, 15, 0, 3)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, txRow)

	var count int64
	db.Model(&models.XPTransaction{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var markers int64
	db.Model(&models.CompletedContent{}).Count(&markers)
	assert.Equal(t, int64(1), markers)
}

func TestRecordTransaction_DifferentReasonsSameContent(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	created, _, err := ledger.RecordTransaction(db, 1, "q-9", gamification.ReasonMCQCorrect, 10, 0, 2)
	require.NoError(t, err)
	require.True(t, created)

	created, _, err = ledger.RecordTransaction(db, 1, "q-9", gamification.ReasonFillCorrect, 12, 0, 3)
	require.NoError(t, err)
	assert.True(t, created, "distinct reason for the same content is a new transaction")

	// The completion marker stays unique per content.
	var markers int64
	db.Model(&models.CompletedContent{}).Where("user_id = ?", 1).Count(&markers)
	assert.Equal(t, int64(1), markers)
}

func TestAddXP_Accumulates(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	total, err := ledger.AddXP(db, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, total)

	total, err = ledger.AddXP(db, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
}

func TestSpendSparks(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)
	_, err = ledger.AddSparks(db, 1, 50)
	require.NoError(t, err)

	// Overspend fails with no mutation.
	_, err = ledger.SpendSparks(db, 1, 51, gamification.ReasonFreezePurchase)
	require.ErrorIs(t, err, ErrInsufficientSparks)

	stats, err := ledger.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Sparks)

	// Exact balance succeeds and leaves a negative ledger row.
	balance, err := ledger.SpendSparks(db, 1, 50, gamification.ReasonFreezePurchase)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	var spend models.XPTransaction
	require.NoError(t, db.Where("user_id = ? AND sparks < 0", 1).First(&spend).Error)
	assert.Equal(t, -50, spend.Sparks)
}

func TestUpdateStreak_Persists(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	upd, err := ledger.UpdateStreak(db, 1, utcDay("2026-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, upd.Streak)
	assert.True(t, upd.Advanced)

	// Same day again: no-op.
	upd, err = ledger.UpdateStreak(db, 1, utcDay("2026-03-01").Add(5*time.Hour))
	require.NoError(t, err)
	assert.False(t, upd.Advanced)
	assert.Equal(t, 1, upd.Streak)

	// Next day extends.
	upd, err = ledger.UpdateStreak(db, 1, utcDay("2026-03-02"))
	require.NoError(t, err)
	assert.Equal(t, 2, upd.Streak)

	stats, err := ledger.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 2, stats.BestStreak)
	require.NotNil(t, stats.LastActivityDate)
	assert.True(t, stats.LastActivityDate.UTC().Equal(utcDay("2026-03-02")),
		"last activity = %v", stats.LastActivityDate)
}

func TestUpdateStreak_FreezeConsumed(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.GamificationStats{}).
		Where("user_id = ?", 1).
		Update("freezes_available", 1).Error)

	_, err = ledger.UpdateStreak(db, 1, utcDay("2026-03-01"))
	require.NoError(t, err)

	// Two days later: the gap day is forgiven by the freeze.
	upd, err := ledger.UpdateStreak(db, 1, utcDay("2026-03-03"))
	require.NoError(t, err)
	assert.Equal(t, 2, upd.Streak)
	assert.True(t, upd.UsedFreeze)

	stats, err := ledger.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FreezesAvailable)
	assert.Equal(t, 1, stats.FreezesUsedTotal)
}

func TestUpdateStreak_ResetAfterLongGap(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	_, err = ledger.UpdateStreak(db, 1, utcDay("2026-03-01"))
	require.NoError(t, err)

	upd, err := ledger.UpdateStreak(db, 1, utcDay("2026-03-04"))
	require.NoError(t, err)
	assert.Equal(t, 1, upd.Streak, "gap of 3 days resets even with freezes")
}

func TestPurchaseFreeze(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)

	// Not enough sparks: rejected with no state change.
	_, err = ledger.AddSparks(db, 1, gamification.FreezeCost-1)
	require.NoError(t, err)
	_, err = ledger.PurchaseFreeze(1)
	require.ErrorIs(t, err, ErrInsufficientSparks)

	stats, err := ledger.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, gamification.FreezeCost-1, stats.Sparks)
	assert.Equal(t, 0, stats.FreezesAvailable)

	// Exactly the cost: balance empties, freeze granted.
	_, err = ledger.AddSparks(db, 1, 1)
	require.NoError(t, err)
	count, err := ledger.PurchaseFreeze(1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stats, err = ledger.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sparks)
	assert.Equal(t, 1, stats.FreezesAvailable)
}

func TestPurchaseFreeze_MaxReached(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.EnsureStats(db, 1)
	require.NoError(t, err)
	_, err = ledger.AddSparks(db, 1, gamification.FreezeCost*(gamification.MaxFreezes+1))
	require.NoError(t, err)

	for i := 0; i < gamification.MaxFreezes; i++ {
		_, err = ledger.PurchaseFreeze(1)
		require.NoError(t, err)
	}

	_, err = ledger.PurchaseFreeze(1)
	require.ErrorIs(t, err, ErrMaxFreezes)

	// The rejected purchase must not have spent anything.
	stats, err := ledger.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, gamification.FreezeCost, stats.Sparks)
	assert.Equal(t, gamification.MaxFreezes, stats.FreezesAvailable)
}

func TestGetStats_UnknownUserZeroed(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	stats, err := ledger.GetStats(42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), stats.UserID)
	assert.Equal(t, 0, stats.XPTotal)
	assert.Equal(t, 1, stats.CurrentLevel)

	// Reads never create rows.
	var count int64
	db.Model(&models.GamificationStats{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
