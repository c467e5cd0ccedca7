// services/achievement_service.go - Achievement evaluation
package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursequest/gamification"
	"coursequest/models"
)

// Metric names achievement conditions can reference.
const (
	MetricArticlesCompleted  = "articles_completed"
	MetricSectionsCompleted  = "sections_completed"
	MetricFlashcardsReviewed = "flashcards_reviewed"
	MetricMindmapsReviewed   = "mindmaps_reviewed"
	MetricQuizzesCorrect     = "quizzes_correct"
	MetricLevel              = "level"
	MetricXPTotal            = "xp_total"
	MetricSparksEarned       = "sparks_earned"
	MetricCurrentStreak      = "current_streak"
	MetricBestStreak         = "best_streak"
	MetricFreezesUsed        = "freezes_used"
)

// StatsSnapshot is the cumulative view achievement conditions are
// evaluated against. Always built fresh after the originating event's
// XP/streak updates have been applied.
type StatsSnapshot struct {
	ArticlesCompleted  int
	SectionsCompleted  int
	FlashcardsReviewed int
	MindmapsReviewed   int
	QuizzesCorrect     int
	Level              int
	XPTotal            int
	SparksEarned       int
	CurrentStreak      int
	BestStreak         int
	FreezesUsed        int
}

// Metric resolves a metric name against the snapshot.
func (s StatsSnapshot) Metric(name string) (int, bool) {
	switch name {
	case MetricArticlesCompleted:
		return s.ArticlesCompleted, true
	case MetricSectionsCompleted:
		return s.SectionsCompleted, true
	case MetricFlashcardsReviewed:
		return s.FlashcardsReviewed, true
	case MetricMindmapsReviewed:
		return s.MindmapsReviewed, true
	case MetricQuizzesCorrect:
		return s.QuizzesCorrect, true
	case MetricLevel:
		return s.Level, true
	case MetricXPTotal:
		return s.XPTotal, true
	case MetricSparksEarned:
		return s.SparksEarned, true
	case MetricCurrentStreak:
		return s.CurrentStreak, true
	case MetricBestStreak:
		return s.BestStreak, true
	case MetricFreezesUsed:
		return s.FreezesUsed, true
	default:
		return 0, false
	}
}

// AchievementService evaluates the static catalog against stats
// snapshots and records unlocks.
type AchievementService struct {
	ledger *LedgerService
}

func NewAchievementService(ledger *LedgerService) *AchievementService {
	return &AchievementService{ledger: ledger}
}

// Snapshot builds the cumulative stats view from the ledger and the
// gamification record inside the caller's transaction.
func (s *AchievementService) Snapshot(tx *gorm.DB, userID uint) (StatsSnapshot, error) {
	counts, err := s.ledger.CountByReason(tx, userID)
	if err != nil {
		return StatsSnapshot{}, err
	}
	earned, err := s.ledger.EarnedSparks(tx, userID)
	if err != nil {
		return StatsSnapshot{}, err
	}
	stats, err := s.ledger.EnsureStats(tx, userID)
	if err != nil {
		return StatsSnapshot{}, err
	}

	return StatsSnapshot{
		ArticlesCompleted:  counts[gamification.ReasonArticleComplete],
		SectionsCompleted:  counts[gamification.ReasonSectionComplete],
		FlashcardsReviewed: counts[gamification.ReasonFlashcardReviewed],
		MindmapsReviewed:   counts[gamification.ReasonMindmapReviewed],
		QuizzesCorrect: counts[gamification.ReasonMCQCorrect] +
			counts[gamification.ReasonTrueFalseCorrect] +
			counts[gamification.ReasonFillCorrect],
		Level:         gamification.LevelForXP(stats.XPTotal),
		XPTotal:       stats.XPTotal,
		SparksEarned:  earned,
		CurrentStreak: stats.CurrentStreak,
		BestStreak:    stats.BestStreak,
		FreezesUsed:   stats.FreezesUsedTotal,
	}, nil
}

// Evaluate checks every not-yet-unlocked achievement against the
// snapshot and records the ones that newly hold. Rewards are applied
// through the ledger primitives (so they show up as transactions and can
// level the user up), but they never re-trigger evaluation: one pass per
// originating event.
func (s *AchievementService) Evaluate(tx *gorm.DB, userID uint, snap StatsSnapshot) ([]models.Achievement, error) {
	var defs []models.Achievement
	sub := tx.Model(&models.UserAchievement{}).
		Select("achievement_id").
		Where("user_id = ?", userID)
	if err := tx.Where("id NOT IN (?)", sub).Order("id").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}

	var unlocked []models.Achievement
	for _, def := range defs {
		value, ok := snap.Metric(def.Metric)
		if !ok || value < def.Threshold {
			continue
		}

		ua := models.UserAchievement{
			UserID:        userID,
			AchievementID: def.ID,
			UnlockedAt:    time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ua)
		if res.Error != nil {
			return nil, fmt.Errorf("record unlock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Another event unlocked it first.
			continue
		}

		if def.XPReward > 0 || def.SparksReward > 0 {
			created, _, err := s.ledger.RecordTransaction(tx, userID,
				"achievement:"+def.Code, gamification.ReasonAchievementUnlocked,
				def.XPReward, 0, def.SparksReward)
			if err != nil {
				return nil, err
			}
			if created {
				if _, err := s.ledger.AddXP(tx, userID, def.XPReward); err != nil {
					return nil, err
				}
				if _, err := s.ledger.AddSparks(tx, userID, def.SparksReward); err != nil {
					return nil, err
				}
			}
		}

		unlocked = append(unlocked, def)
	}
	return unlocked, nil
}
