// services/ledger_service.go - Ledger & stats repository
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursequest/gamification"
	"coursequest/models"
)

var (
	// ErrInsufficientSparks is returned when a spend exceeds the balance.
	ErrInsufficientSparks = errors.New("insufficient sparks")
	// ErrMaxFreezes is returned when the freeze cap has been reached.
	ErrMaxFreezes = errors.New("maximum streak freezes reached")
)

// LedgerService is the source of truth for XP transactions, spark
// balances, streak state and completed-content markers. All mutation of
// the per-user gamification record goes through its atomic updates;
// callers never read-modify-write.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// DB exposes the underlying handle for callers opening transactions.
func (s *LedgerService) DB() *gorm.DB {
	return s.db
}

// EnsureStats returns the user's gamification record, creating a zeroed
// one on first contact.
func (s *LedgerService) EnsureStats(tx *gorm.DB, userID uint) (*models.GamificationStats, error) {
	var stats models.GamificationStats
	err := tx.Where(models.GamificationStats{UserID: userID}).
		Attrs(models.GamificationStats{CurrentLevel: 1}).
		FirstOrCreate(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("ensure stats for user %d: %w", userID, err)
	}
	return &stats, nil
}

// GetStats returns the record, or zeroed defaults when the user has no
// gamification history yet. Reads never create rows and never 404.
func (s *LedgerService) GetStats(userID uint) (*models.GamificationStats, error) {
	var stats models.GamificationStats
	err := s.db.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.GamificationStats{UserID: userID, CurrentLevel: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecordTransaction appends a ledger row and the completed-content marker
// in one unit. The unique index on (user_id, content_id, reason) makes
// duplicates a no-op: created is false and nothing is mutated, so retries
// and double-submits can never double-award.
func (s *LedgerService) RecordTransaction(tx *gorm.DB, userID uint, contentID string, reason gamification.Reason, amount, bonus, sparks int) (bool, *models.XPTransaction, error) {
	row := models.XPTransaction{
		UserID:    userID,
		ContentID: contentID,
		Reason:    string(reason),
		Amount:    amount,
		Bonus:     bonus,
		Sparks:    sparks,
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, nil, fmt.Errorf("record transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil, nil
	}

	marker := models.CompletedContent{
		UserID:      userID,
		ContentID:   contentID,
		CompletedAt: time.Now().UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&marker).Error; err != nil {
		return false, nil, fmt.Errorf("record completion marker: %w", err)
	}

	return true, &row, nil
}

// AddXP atomically increments the user's XP total at the database level
// and returns the new total. Concurrent increments never lose an update.
func (s *LedgerService) AddXP(tx *gorm.DB, userID uint, amount int) (int, error) {
	if err := tx.Model(&models.GamificationStats{}).
		Where("user_id = ?", userID).
		UpdateColumn("xp_total", gorm.Expr("xp_total + ?", amount)).Error; err != nil {
		return 0, fmt.Errorf("add xp: %w", err)
	}
	var stats models.GamificationStats
	if err := tx.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return 0, err
	}
	return stats.XPTotal, nil
}

// AddSparks atomically increments the spark balance and returns it.
func (s *LedgerService) AddSparks(tx *gorm.DB, userID uint, amount int) (int, error) {
	if err := tx.Model(&models.GamificationStats{}).
		Where("user_id = ?", userID).
		UpdateColumn("sparks", gorm.Expr("sparks + ?", amount)).Error; err != nil {
		return 0, fmt.Errorf("add sparks: %w", err)
	}
	var stats models.GamificationStats
	if err := tx.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return 0, err
	}
	return stats.Sparks, nil
}

// SpendSparks deducts amount if the balance covers it, recording the
// spend as a negative ledger row so balances recompute from the ledger.
// The guarded single UPDATE means a concurrent spend cannot overdraw.
func (s *LedgerService) SpendSparks(tx *gorm.DB, userID uint, amount int, reason gamification.Reason) (int, error) {
	res := tx.Model(&models.GamificationStats{}).
		Where("user_id = ? AND sparks >= ?", userID, amount).
		UpdateColumn("sparks", gorm.Expr("sparks - ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("spend sparks: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientSparks
	}

	spend := models.XPTransaction{
		UserID:    userID,
		ContentID: "spend:" + uuid.NewString(),
		Reason:    string(reason),
		Sparks:    -amount,
	}
	if err := tx.Create(&spend).Error; err != nil {
		return 0, fmt.Errorf("record spend: %w", err)
	}

	var stats models.GamificationStats
	if err := tx.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return 0, err
	}
	return stats.Sparks, nil
}

// UpdateStreak advances the streak state machine for one activity date.
// The guarded UPDATE (last_activity_date must still predate the activity
// day) makes same-day re-entry and concurrent events a no-op: only the
// first event of a day moves the streak.
func (s *LedgerService) UpdateStreak(tx *gorm.DB, userID uint, activity time.Time) (gamification.StreakUpdate, error) {
	stats, err := s.EnsureStats(tx, userID)
	if err != nil {
		return gamification.StreakUpdate{}, err
	}

	upd := gamification.AdvanceStreak(stats.LastActivityDate, stats.CurrentStreak, stats.FreezesAvailable, activity)
	if !upd.Advanced {
		return upd, nil
	}

	day := gamification.DayUTC(activity)
	res := tx.Model(&models.GamificationStats{}).
		Where("user_id = ? AND (last_activity_date IS NULL OR last_activity_date < ?)", userID, day).
		Updates(map[string]interface{}{
			"current_streak":     upd.Streak,
			"last_activity_date": day,
			"freezes_available":  upd.FreezesLeft,
			"freezes_used_total": gorm.Expr("freezes_used_total + ?", upd.FreezesUsed),
			"best_streak":        gorm.Expr("CASE WHEN best_streak < ? THEN ? ELSE best_streak END", upd.Streak, upd.Streak),
		})
	if res.Error != nil {
		return gamification.StreakUpdate{}, fmt.Errorf("update streak: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to another event today; report unchanged state.
		fresh, err := s.EnsureStats(tx, userID)
		if err != nil {
			return gamification.StreakUpdate{}, err
		}
		return gamification.StreakUpdate{
			Streak:      fresh.CurrentStreak,
			FreezesLeft: fresh.FreezesAvailable,
			Advanced:    false,
		}, nil
	}
	return upd, nil
}

// PurchaseFreeze spends FreezeCost sparks and grants one freeze in a
// single transaction; a failure on either side rolls back both, so there
// is never a paid-but-not-granted state.
func (s *LedgerService) PurchaseFreeze(userID uint) (int, error) {
	var newCount int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stats, err := s.EnsureStats(tx, userID)
		if err != nil {
			return err
		}
		if stats.FreezesAvailable >= gamification.MaxFreezes {
			return ErrMaxFreezes
		}
		if _, err := s.SpendSparks(tx, userID, gamification.FreezeCost, gamification.ReasonFreezePurchase); err != nil {
			return err
		}
		res := tx.Model(&models.GamificationStats{}).
			Where("user_id = ? AND freezes_available < ?", userID, gamification.MaxFreezes).
			UpdateColumn("freezes_available", gorm.Expr("freezes_available + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMaxFreezes
		}
		fresh, err := s.EnsureStats(tx, userID)
		if err != nil {
			return err
		}
		newCount = fresh.FreezesAvailable
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}

// CountByReason tallies the user's positive ledger entries per reason.
func (s *LedgerService) CountByReason(tx *gorm.DB, userID uint) (map[gamification.Reason]int, error) {
	type row struct {
		Reason string
		N      int
	}
	var rows []row
	err := tx.Model(&models.XPTransaction{}).
		Select("reason, COUNT(*) AS n").
		Where("user_id = ? AND amount >= 0 AND sparks >= 0", userID).
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by reason: %w", err)
	}
	out := make(map[gamification.Reason]int, len(rows))
	for _, r := range rows {
		out[gamification.Reason(r.Reason)] = r.N
	}
	return out, nil
}

// LedgerTotals sums XP and sparks across the user's entire ledger.
func (s *LedgerService) LedgerTotals(tx *gorm.DB, userID uint) (xp int, sparks int, err error) {
	type totals struct {
		XP     int
		Sparks int
	}
	var t totals
	err = tx.Model(&models.XPTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS xp, COALESCE(SUM(sparks), 0) AS sparks").
		Where("user_id = ?", userID).
		Scan(&t).Error
	if err != nil {
		return 0, 0, fmt.Errorf("ledger totals: %w", err)
	}
	return t.XP, t.Sparks, nil
}

// EarnedSparks sums only positive spark entries (lifetime earned, spends
// excluded), used by achievement conditions.
func (s *LedgerService) EarnedSparks(tx *gorm.DB, userID uint) (int, error) {
	var earned int
	err := tx.Model(&models.XPTransaction{}).
		Select("COALESCE(SUM(sparks), 0)").
		Where("user_id = ? AND sparks > 0", userID).
		Scan(&earned).Error
	if err != nil {
		return 0, fmt.Errorf("earned sparks: %w", err)
	}
	return earned, nil
}

// TransactionsForContents returns the user's ledger rows scoped to the
// given content ids.
func (s *LedgerService) TransactionsForContents(tx *gorm.DB, userID uint, contentIDs []string) ([]models.XPTransaction, error) {
	if len(contentIDs) == 0 {
		return nil, nil
	}
	var rows []models.XPTransaction
	err := tx.Where("user_id = ? AND content_id IN ?", userID, contentIDs).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("transactions for contents: %w", err)
	}
	return rows, nil
}

// DeleteCourseScoped removes the user's transactions and completion
// markers for the given content ids, returning how many items were reset.
func (s *LedgerService) DeleteCourseScoped(tx *gorm.DB, userID uint, contentIDs []string) (int, error) {
	if len(contentIDs) == 0 {
		return 0, nil
	}
	res := tx.Where("user_id = ? AND content_id IN ?", userID, contentIDs).
		Delete(&models.XPTransaction{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete transactions: %w", res.Error)
	}
	deleted := int(res.RowsAffected)

	if err := tx.Where("user_id = ? AND content_id IN ?", userID, contentIDs).
		Delete(&models.CompletedContent{}).Error; err != nil {
		return 0, fmt.Errorf("delete completion markers: %w", err)
	}
	return deleted, nil
}

// ActivityDays returns the user's remaining activity dates as UTC
// midnights, most recent first, deduplicated. Used to rebuild the streak
// after a course reset.
func (s *LedgerService) ActivityDays(tx *gorm.DB, userID uint) ([]time.Time, error) {
	var stamps []time.Time
	err := tx.Model(&models.XPTransaction{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, fmt.Errorf("activity days: %w", err)
	}
	var days []time.Time
	seen := make(map[time.Time]bool)
	for _, ts := range stamps {
		d := gamification.DayUTC(ts)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}
