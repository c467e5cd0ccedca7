package services

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursequest/gamification"
	"coursequest/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, ":memory:")
}

// setupFileTestDB creates a file-backed SQLite database. Concurrent
// transactions serialize on the busy handler instead of failing fast on
// the write lock the way :memory: connections do.
func setupFileTestDB(t *testing.T) *gorm.DB {
	dsn := filepath.Join(t.TempDir(), "coursequest.db") + "?_busy_timeout=10000&_txlock=immediate"
	return openTestDB(t, dsn)
}

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

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
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// steadySource makes every Float64 come out as 0.5, so the bonus roll
// never hits.
type steadySource struct{}

func (steadySource) Int63() int64 { return 1 << 62 }
func (steadySource) Seed(int64)   {}

// noBonusRoller returns a roller that never grants a bonus.
func noBonusRoller() *gamification.BonusRoller {
	return gamification.NewBonusRollerWithSource(steadySource{})
}

// alwaysBonusSource alternates chance rolls of 0.0 (hit) and multiplier
// rolls of 0.0 (minimum multiplier).
type alwaysBonusSource struct{}

func (alwaysBonusSource) Int63() int64 { return 0 }
func (alwaysBonusSource) Seed(int64)   {}

func minBonusRoller() *gamification.BonusRoller {
	return gamification.NewBonusRollerWithSource(alwaysBonusSource{})
}

// fixedClock returns a clock pinned to the given time.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func utcDay(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
