// database/seed.go - Static achievement catalog
package database

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursequest/models"
)

// achievementCatalog is the full static catalog. Conditions are a metric
// name plus threshold; the evaluator compares them against the user's
// cumulative stats snapshot.
func achievementCatalog() []models.Achievement {
	return []models.Achievement{
		{Code: "first-steps", Name: "First Steps", Description: "Complete your first article", Icon: "footprints", Metric: "articles_completed", Threshold: 1, XPReward: 25, SparksReward: 10},
		{Code: "bookworm", Name: "Bookworm", Description: "Complete 10 articles", Icon: "book-open", Metric: "articles_completed", Threshold: 10, XPReward: 75, SparksReward: 25},
		{Code: "scholar", Name: "Scholar", Description: "Complete 50 articles", Icon: "graduation-cap", Metric: "articles_completed", Threshold: 50, XPReward: 200, SparksReward: 75},
		{Code: "section-clear", Name: "Section Clear", Description: "Finish a whole course section", Icon: "flag", Metric: "sections_completed", Threshold: 1, XPReward: 40, SparksReward: 15},
		{Code: "course-crusher", Name: "Course Crusher", Description: "Finish 10 course sections", Icon: "trophy", Metric: "sections_completed", Threshold: 10, XPReward: 150, SparksReward: 50},
		{Code: "card-flipper", Name: "Card Flipper", Description: "Review 25 flashcards", Icon: "layers", Metric: "flashcards_reviewed", Threshold: 25, XPReward: 50, SparksReward: 20},
		{Code: "memory-master", Name: "Memory Master", Description: "Review 200 flashcards", Icon: "brain", Metric: "flashcards_reviewed", Threshold: 200, XPReward: 250, SparksReward: 100},
		{Code: "map-reader", Name: "Map Reader", Description: "Review 10 mind maps", Icon: "map", Metric: "mindmaps_reviewed", Threshold: 10, XPReward: 60, SparksReward: 20},
		{Code: "quiz-rookie", Name: "Quiz Rookie", Description: "Answer 10 quiz questions correctly", Icon: "check-circle", Metric: "quizzes_correct", Threshold: 10, XPReward: 50, SparksReward: 20},
		{Code: "quiz-whiz", Name: "Quiz Whiz", Description: "Answer 100 quiz questions correctly", Icon: "zap", Metric: "quizzes_correct", Threshold: 100, XPReward: 200, SparksReward: 75},
		{Code: "level-5", Name: "Getting Serious", Description: "Reach level 5", Icon: "trending-up", Metric: "level", Threshold: 5, XPReward: 100, SparksReward: 40},
		{Code: "level-10", Name: "Double Digits", Description: "Reach level 10", Icon: "award", Metric: "level", Threshold: 10, XPReward: 250, SparksReward: 100},
		{Code: "level-25", Name: "Quarter Century", Description: "Reach level 25", Icon: "crown", Metric: "level", Threshold: 25, XPReward: 500, SparksReward: 200},
		{Code: "week-streak", Name: "Week Warrior", Description: "Keep a 7 day streak", Icon: "flame", Metric: "current_streak", Threshold: 7, XPReward: 100, SparksReward: 50},
		{Code: "month-streak", Name: "Monthly Devotion", Description: "Keep a 30 day streak", Icon: "calendar", Metric: "best_streak", Threshold: 30, XPReward: 400, SparksReward: 150},
		{Code: "spark-collector", Name: "Spark Collector", Description: "Earn 500 sparks in total", Icon: "sparkles", Metric: "sparks_earned", Threshold: 500, XPReward: 150, SparksReward: 0},
		{Code: "frozen-in-time", Name: "Frozen in Time", Description: "Use your first streak freeze", Icon: "snowflake", Metric: "freezes_used", Threshold: 1, XPReward: 30, SparksReward: 10},
		{Code: "ten-thousand", Name: "Ten Thousand Club", Description: "Accumulate 10,000 XP", Icon: "star", Metric: "xp_total", Threshold: 10000, XPReward: 500, SparksReward: 250},
	}
}

// SeedAchievements inserts any catalog entries that are not present yet.
// Existing codes are skipped, so seeding is idempotent and safe to run on
// every startup.
func SeedAchievements(db *gorm.DB) error {
	catalog := achievementCatalog()
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&catalog)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("Seeded %d achievements", res.RowsAffected)
	}
	return nil
}
