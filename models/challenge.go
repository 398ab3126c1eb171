package models

import (
	"time"
)

// DailyChallenge is a per-day quota goal (e.g. "analyze 3 prompts today").
// One row per (active_date, target_action); seeded by the scheduler.
type DailyChallenge struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	Code         string     `gorm:"size:80;index" json:"code"` // slug of the template title
	ActiveDate   time.Time  `gorm:"not null;uniqueIndex:idx_challenge_day,priority:1" json:"active_date"`
	TargetAction ActionType `gorm:"size:32;not null;uniqueIndex:idx_challenge_day,priority:2" json:"target_action"`
	TargetCount  int        `gorm:"not null" json:"target_count"`
	XPReward     int64      `gorm:"not null" json:"xp_reward"`
	Title        string     `gorm:"not null" json:"title"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// UserChallengeProgress tracks one user's counter against one challenge.
// Once Completed flips true, CurrentCount and Completed never change again.
type UserChallengeProgress struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"not null;uniqueIndex:idx_user_challenge,priority:1" json:"external_user_id"`
	ChallengeID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_challenge,priority:2" json:"challenge_id"`
	CurrentCount   int        `gorm:"default:0" json:"current_count"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
