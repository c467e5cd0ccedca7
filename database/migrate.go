// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"coursequest/models"
)

// RunMigrations runs all database migrations and seeds static data.
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.CourseContent{},
		&models.GamificationStats{},
		&models.XPTransaction{},
		&models.CompletedContent{},
		&models.Achievement{},
		&models.UserAchievement{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	if err := SeedAchievements(db); err != nil {
		log.Fatalf("❌ Failed to seed achievements: %v", err)
	}

	log.Println("✅ All migrations completed successfully")
}

// createIndexes adds the query-path indexes AutoMigrate does not cover.
func createIndexes() {
	db := GetDB()

	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_gamification_stats_xp ON gamification_stats(xp_total DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_xp_transactions_user_created ON xp_transactions(user_id, created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_course_contents_course ON course_contents(course_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements(user_id)")
}
