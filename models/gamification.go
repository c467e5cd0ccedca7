// models/gamification.go
package models

import "time"

// GamificationStats is the per-user gamification record. One row per user,
// created lazily on the first gamification event and mutated only through
// the ledger service's atomic updates.
type GamificationStats struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`

	XPTotal      int `gorm:"default:0" json:"xp_total"`
	CurrentLevel int `gorm:"default:1" json:"current_level"`
	Sparks       int `gorm:"default:0" json:"sparks"`

	CurrentStreak    int        `gorm:"default:0" json:"current_streak"`
	BestStreak       int        `gorm:"default:0" json:"best_streak"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	FreezesAvailable int        `gorm:"default:0" json:"freezes_available"`
	FreezesUsedTotal int        `gorm:"default:0" json:"freezes_used_total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// XPTransaction is an append-only ledger entry. The unique index on
// (user_id, content_id, reason) is the idempotency guarantee: the same
// completion event can never award XP twice. Spark spends are stored as
// rows with a negative Sparks value so balances recompute from the ledger.
type XPTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_tx_user_content_reason;index" json:"user_id"`
	ContentID string    `gorm:"not null;size:255;uniqueIndex:idx_tx_user_content_reason" json:"content_id"`
	Reason    string    `gorm:"not null;size:50;uniqueIndex:idx_tx_user_content_reason" json:"reason"`
	Amount    int       `gorm:"default:0" json:"amount"`
	Bonus     int       `gorm:"default:0" json:"bonus"`
	Sparks    int       `gorm:"default:0" json:"sparks"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletedContent marks a content item as done for a user, for progress
// displays. Unique per (user_id, content_id) regardless of reason.
type CompletedContent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_completed_user_content" json:"user_id"`
	ContentID   string    `gorm:"not null;size:255;uniqueIndex:idx_completed_user_content" json:"content_id"`
	CompletedAt time.Time `json:"completed_at"`
}

func (GamificationStats) TableName() string {
	return "gamification_stats"
}

func (XPTransaction) TableName() string {
	return "xp_transactions"
}

func (CompletedContent) TableName() string {
	return "completed_content"
}
