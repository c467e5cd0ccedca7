// models/achievement.go
package models

import "time"

// Achievement is a row in the static achievement catalog, seeded at
// startup and read-only at runtime. Conditions are data-driven: a stat
// metric name plus a threshold the metric must reach.
type Achievement struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"not null;uniqueIndex;size:50" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"not null" json:"description"`
	Icon        string `gorm:"size:50" json:"icon"`

	// Unlock condition: metric >= threshold.
	Metric    string `gorm:"not null;index;size:50" json:"metric"`
	Threshold int    `gorm:"not null" json:"threshold"`

	// Rewards
	XPReward     int `gorm:"default:0" json:"xp_reward"`
	SparksReward int `gorm:"default:0" json:"sparks_reward"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAchievement records an unlock. Unique per (user_id, achievement_id):
// an achievement unlocks exactly once per user.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint      `gorm:"not null;uniqueIndex:idx_user_achievement;index" json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`

	Achievement Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

func (Achievement) TableName() string {
	return "achievements"
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
