package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress tracks gamified progression for each student (denormalized for performance).
// Owned exclusively by the progression service; all numeric fields are only ever
// touched through atomic UPDATE ... SET x = x + ? statements.
type UserProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	TotalXP int64 `json:"total_xp" gorm:"default:0"`
	Level   int   `json:"level" gorm:"default:1"` // derived from TotalXP, see models.LevelForXP

	// Streaks (UTC calendar days)
	CurrentStreakDays int        `json:"current_streak_days" gorm:"default:0"`
	LongestStreakDays int        `json:"longest_streak_days" gorm:"default:0"`
	LastActivityDate  *time.Time `json:"last_activity_date,omitempty"`

	// Lifetime high scores (0..100)
	HighestPromptScore int `json:"highest_prompt_score" gorm:"default:0"`
	HighestAuditScore  int `json:"highest_audit_score" gorm:"default:0"`

	// Lifetime action counters
	PromptsAnalyzed      int64 `json:"prompts_analyzed" gorm:"default:0"`
	DisclosuresGenerated int64 `json:"disclosures_generated" gorm:"default:0"`
	AuditsCompleted      int64 `json:"audits_completed" gorm:"default:0"`
	ResearchQueries      int64 `json:"research_queries" gorm:"default:0"`
	PapersSaved          int64 `json:"papers_saved" gorm:"default:0"`
	GrammarChecks        int64 `json:"grammar_checks" gorm:"default:0"`

	// Milestones
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// CounterFor returns the lifetime counter value for a countable action.
func (p *UserProgress) CounterFor(action ActionType) int64 {
	switch action {
	case ActionPromptAnalyze:
		return p.PromptsAnalyzed
	case ActionDisclosureGenerate:
		return p.DisclosuresGenerated
	case ActionAuditComplete, ActionAuditImprove:
		return p.AuditsCompleted
	case ActionResearchQuery:
		return p.ResearchQueries
	case ActionPaperSave:
		return p.PapersSaved
	case ActionGrammarCheck:
		return p.GrammarChecks
	default:
		return 0
	}
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
