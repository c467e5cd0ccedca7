// services/gamification_service.go - Gamification orchestrator
package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coursequest/gamification"
	"coursequest/models"
)

// ErrUnknownReason is returned when a client submits a reason outside the
// reward table.
var ErrUnknownReason = errors.New("unknown award reason")

// AwardXPResult describes everything a single award changed. It is the
// only channel through which level-up, streak and achievement changes
// become visible to the client.
type AwardXPResult struct {
	Duplicate            bool                 `json:"duplicate"`
	XPAwarded            int                  `json:"xp_awarded"`
	BonusXP              int                  `json:"bonus_xp"`
	SparksAwarded        int                  `json:"sparks_awarded"`
	NewTotal             int                  `json:"new_total"`
	PreviousLevel        int                  `json:"previous_level"`
	NewLevel             int                  `json:"new_level"`
	LeveledUp            bool                 `json:"leveled_up"`
	XPForCurrentLevel    int                  `json:"xp_for_current_level"`
	XPForNextLevel       int                  `json:"xp_for_next_level"`
	XPProgress           int                  `json:"xp_progress"`
	Sparks               int                  `json:"sparks"`
	CurrentStreak        int                  `json:"current_streak"`
	UsedFreeze           bool                 `json:"used_freeze"`
	UnlockedAchievements []models.Achievement `json:"unlocked_achievements"`
}

// GamificationStatsView is the read-only snapshot exposed to the UI.
type GamificationStatsView struct {
	XPTotal           int        `json:"xp_total"`
	CurrentLevel      int        `json:"current_level"`
	XPForCurrentLevel int        `json:"xp_for_current_level"`
	XPForNextLevel    int        `json:"xp_for_next_level"`
	XPProgress        int        `json:"xp_progress"`
	Sparks            int        `json:"sparks"`
	CurrentStreak     int        `json:"current_streak"`
	BestStreak        int        `json:"best_streak"`
	FreezesAvailable  int        `json:"freezes_available"`
	FreezesUsedTotal  int        `json:"freezes_used_total"`
	LastActivityDate  *time.Time `json:"last_activity_date,omitempty"`
}

// CourseProgressStats is the per-course rollup derived from the ledger.
type CourseProgressStats struct {
	CourseID            uint     `json:"course_id"`
	TotalItems          int      `json:"total_items"`
	CompletedItems      int      `json:"completed_items"`
	ProgressPercent     int      `json:"progress_percent"`
	ArticlesCompleted   int      `json:"articles_completed"`
	SectionsCompleted   int      `json:"sections_completed"`
	FlashcardsReviewed  int      `json:"flashcards_reviewed"`
	MindmapsReviewed    int      `json:"mindmaps_reviewed"`
	MCQCorrect          int      `json:"mcq_correct"`
	TrueFalseCorrect    int      `json:"tf_correct"`
	FillupCorrect       int      `json:"fillup_correct"`
	XPEarned            int      `json:"xp_earned"`
	CompletedContentIDs []string `json:"completed_content_ids"`
}

// Notifier receives post-commit gamification events for live delivery.
type Notifier interface {
	Notify(userID uint, event string, payload interface{})
}

// GamificationService is the single entry point for awarding XP. It
// composes the ledger, reward policy, leveling model and achievement
// evaluator into one atomic unit per event.
type GamificationService struct {
	db           *gorm.DB
	ledger       *LedgerService
	achievements *AchievementService
	roller       *gamification.BonusRoller
	notifier     Notifier
	now          func() time.Time
}

func NewGamificationService(db *gorm.DB, roller *gamification.BonusRoller) *GamificationService {
	ledger := NewLedgerService(db)
	return &GamificationService{
		db:           db,
		ledger:       ledger,
		achievements: NewAchievementService(ledger),
		roller:       roller,
		now:          time.Now,
	}
}

// Ledger exposes the underlying store (freeze purchases go through it).
func (s *GamificationService) Ledger() *LedgerService {
	return s.ledger
}

// SetNotifier wires a live-event sink; events fire only after commit.
func (s *GamificationService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetClock overrides the time source. Tests use this to cross day
// boundaries.
func (s *GamificationService) SetClock(now func() time.Time) {
	s.now = now
}

// AwardXP grants the reward for one completion event. Duplicate events
// (same user, content and reason) return a zero-effect result; any
// failure mid-sequence rolls the whole event back, so callers may retry
// freely.
func (s *GamificationService) AwardXP(userID uint, contentID string, reason gamification.Reason) (*AwardXPResult, error) {
	reward, ok := gamification.RewardFor(reason)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReason, reason)
	}
	bonus := s.roller.Roll(reward.XP)

	result := &AwardXPResult{UnlockedAchievements: []models.Achievement{}}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		stats, err := s.ledger.EnsureStats(tx, userID)
		if err != nil {
			return err
		}

		created, _, err := s.ledger.RecordTransaction(tx, userID, contentID, reason, reward.XP+bonus, bonus, reward.Sparks)
		if err != nil {
			return err
		}
		if !created {
			// Already counted; report current state with zero effect.
			level := gamification.LevelForXP(stats.XPTotal)
			result.Duplicate = true
			result.NewTotal = stats.XPTotal
			result.PreviousLevel = level
			result.NewLevel = level
			result.XPForCurrentLevel = gamification.XPForLevel(level)
			result.XPForNextLevel = gamification.XPForNextLevel(level)
			result.XPProgress = gamification.XPProgress(stats.XPTotal)
			result.Sparks = stats.Sparks
			result.CurrentStreak = stats.CurrentStreak
			return nil
		}

		delta := reward.XP + bonus
		newTotal, err := s.ledger.AddXP(tx, userID, delta)
		if err != nil {
			return err
		}
		if _, err := s.ledger.AddSparks(tx, userID, reward.Sparks); err != nil {
			return err
		}

		previousTotal := newTotal - delta
		previousLevel := gamification.LevelForXP(previousTotal)
		newLevel := gamification.LevelForXP(newTotal)

		streak, err := s.ledger.UpdateStreak(tx, userID, s.now())
		if err != nil {
			return err
		}

		snap, err := s.achievements.Snapshot(tx, userID)
		if err != nil {
			return err
		}
		unlocked, err := s.achievements.Evaluate(tx, userID, snap)
		if err != nil {
			return err
		}

		// Achievement rewards may have moved the totals; cache the level
		// and pick up the final balance.
		fresh, err := s.ledger.EnsureStats(tx, userID)
		if err != nil {
			return err
		}
		finalLevel := gamification.LevelForXP(fresh.XPTotal)
		if fresh.CurrentLevel != finalLevel {
			if err := tx.Model(&models.GamificationStats{}).
				Where("user_id = ?", userID).
				UpdateColumn("current_level", finalLevel).Error; err != nil {
				return err
			}
		}

		result.XPAwarded = reward.XP
		result.BonusXP = bonus
		result.SparksAwarded = reward.Sparks
		result.NewTotal = newTotal
		result.PreviousLevel = previousLevel
		result.NewLevel = newLevel
		result.LeveledUp = newLevel > previousLevel
		result.XPForCurrentLevel = gamification.XPForLevel(newLevel)
		result.XPForNextLevel = gamification.XPForNextLevel(newLevel)
		result.XPProgress = gamification.XPProgress(newTotal)
		result.Sparks = fresh.Sparks
		result.CurrentStreak = streak.Streak
		result.UsedFreeze = streak.UsedFreeze
		if unlocked != nil {
			result.UnlockedAchievements = unlocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && !result.Duplicate {
		s.notifier.Notify(userID, "xp-awarded", result)
		for _, a := range result.UnlockedAchievements {
			s.notifier.Notify(userID, "achievement-unlocked", a)
		}
	}
	return result, nil
}

// CheckIn awards the daily streak bonus. The date-scoped content id makes
// it naturally idempotent: one check-in per UTC day.
func (s *GamificationService) CheckIn(userID uint) (*AwardXPResult, error) {
	day := gamification.DayUTC(s.now()).Format("2006-01-02")
	return s.AwardXP(userID, "streak:"+day, gamification.ReasonStreakDay)
}

// GetStats returns the read-only snapshot, zeroed for unknown users.
func (s *GamificationService) GetStats(userID uint) (*GamificationStatsView, error) {
	stats, err := s.ledger.GetStats(userID)
	if err != nil {
		return nil, err
	}
	level := gamification.LevelForXP(stats.XPTotal)
	return &GamificationStatsView{
		XPTotal:           stats.XPTotal,
		CurrentLevel:      level,
		XPForCurrentLevel: gamification.XPForLevel(level),
		XPForNextLevel:    gamification.XPForNextLevel(level),
		XPProgress:        gamification.XPProgress(stats.XPTotal),
		Sparks:            stats.Sparks,
		CurrentStreak:     stats.CurrentStreak,
		BestStreak:        stats.BestStreak,
		FreezesAvailable:  stats.FreezesAvailable,
		FreezesUsedTotal:  stats.FreezesUsedTotal,
		LastActivityDate:  stats.LastActivityDate,
	}, nil
}

// PurchaseStreakFreeze buys one freeze with sparks.
func (s *GamificationService) PurchaseStreakFreeze(userID uint) (int, error) {
	return s.ledger.PurchaseFreeze(userID)
}

// CourseProgress derives the per-course rollup by filtering the ledger
// with the course's content ids.
func (s *GamificationService) CourseProgress(courseID, userID uint) (*CourseProgressStats, error) {
	var contents []models.CourseContent
	if err := s.db.Where("course_id = ?", courseID).Find(&contents).Error; err != nil {
		return nil, fmt.Errorf("load course contents: %w", err)
	}

	ids := make([]string, 0, len(contents))
	for _, c := range contents {
		ids = append(ids, c.ContentID)
	}

	rows, err := s.ledger.TransactionsForContents(s.db, userID, ids)
	if err != nil {
		return nil, err
	}

	out := &CourseProgressStats{
		CourseID:            courseID,
		TotalItems:          len(contents),
		CompletedContentIDs: []string{},
	}
	seen := make(map[string]bool)
	for _, row := range rows {
		out.XPEarned += row.Amount
		if !seen[row.ContentID] {
			seen[row.ContentID] = true
			out.CompletedItems++
			out.CompletedContentIDs = append(out.CompletedContentIDs, row.ContentID)
		}
		switch gamification.Reason(row.Reason) {
		case gamification.ReasonArticleComplete:
			out.ArticlesCompleted++
		case gamification.ReasonSectionComplete:
			out.SectionsCompleted++
		case gamification.ReasonFlashcardReviewed:
			out.FlashcardsReviewed++
		case gamification.ReasonMindmapReviewed:
			out.MindmapsReviewed++
		case gamification.ReasonMCQCorrect:
			out.MCQCorrect++
		case gamification.ReasonTrueFalseCorrect:
			out.TrueFalseCorrect++
		case gamification.ReasonFillCorrect:
			out.FillupCorrect++
		}
	}
	if out.TotalItems > 0 {
		out.ProgressPercent = out.CompletedItems * 100 / out.TotalItems
	}
	return out, nil
}

// ResetCourseProgress deletes the user's ledger entries and completion
// markers scoped to one course, then recomputes totals, level and streak
// from what remains. Never a blind account-wide reset.
func (s *GamificationService) ResetCourseProgress(courseID, userID uint) (int, error) {
	var itemsReset int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.CourseContent{}).
			Where("course_id = ?", courseID).
			Pluck("content_id", &ids).Error; err != nil {
			return fmt.Errorf("load course content ids: %w", err)
		}

		deleted, err := s.ledger.DeleteCourseScoped(tx, userID, ids)
		if err != nil {
			return err
		}
		itemsReset = deleted

		xp, sparks, err := s.ledger.LedgerTotals(tx, userID)
		if err != nil {
			return err
		}
		if xp < 0 {
			xp = 0
		}
		if sparks < 0 {
			sparks = 0
		}

		days, err := s.ledger.ActivityDays(tx, userID)
		if err != nil {
			return err
		}
		streak, lastDay := rebuildStreak(days)

		updates := map[string]interface{}{
			"xp_total":           xp,
			"sparks":             sparks,
			"current_level":      gamification.LevelForXP(xp),
			"current_streak":     streak,
			"last_activity_date": lastDay,
		}
		if err := tx.Model(&models.GamificationStats{}).
			Where("user_id = ?", userID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("recompute stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return itemsReset, nil
}

// rebuildStreak counts the consecutive-day run ending at the most recent
// remaining activity day. days must be deduplicated UTC midnights sorted
// most recent first.
func rebuildStreak(days []time.Time) (int, *time.Time) {
	if len(days) == 0 {
		return 0, nil
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if int(days[i-1].Sub(days[i]).Hours()/24) == 1 {
			streak++
			continue
		}
		break
	}
	last := days[0]
	return streak, &last
}
