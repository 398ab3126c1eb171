package models

import (
	"time"
)

// ActionType tags every XP-granting event. The set is closed; unknown tags are
// rejected before any mutation is attempted.
type ActionType string

const (
	ActionPromptAnalyze      ActionType = "prompt_analyze"
	ActionDisclosureGenerate ActionType = "disclosure_generate"
	ActionAuditComplete      ActionType = "audit_complete"
	ActionAuditImprove       ActionType = "audit_improve"
	ActionResearchQuery      ActionType = "research_query"
	ActionPaperSave          ActionType = "paper_save"
	ActionGrammarCheck       ActionType = "grammar_check"
	ActionDailyChallenge     ActionType = "daily_challenge"
	ActionHighScore          ActionType = "high_score"
	ActionStreakBonus        ActionType = "streak_bonus"
	ActionBadgeEarned        ActionType = "badge_earned"
	ActionAdminGrant         ActionType = "admin_grant"
)

// Valid reports whether the tag belongs to the closed action set.
func (a ActionType) Valid() bool {
	switch a {
	case ActionPromptAnalyze, ActionDisclosureGenerate, ActionAuditComplete,
		ActionAuditImprove, ActionResearchQuery, ActionPaperSave,
		ActionGrammarCheck, ActionDailyChallenge, ActionHighScore,
		ActionStreakBonus, ActionBadgeEarned, ActionAdminGrant:
		return true
	}
	return false
}

// CounterColumn returns the user_progress column incremented alongside the XP
// for this action, or "" for actions that have no lifetime counter.
func (a ActionType) CounterColumn() string {
	switch a {
	case ActionPromptAnalyze:
		return "prompts_analyzed"
	case ActionDisclosureGenerate:
		return "disclosures_generated"
	case ActionAuditComplete, ActionAuditImprove:
		return "audits_completed"
	case ActionResearchQuery:
		return "research_queries"
	case ActionPaperSave:
		return "papers_saved"
	case ActionGrammarCheck:
		return "grammar_checks"
	default:
		return ""
	}
}

// XPTransaction is the append-only ledger of individual XP-granting events.
// Invariant: SUM(xp_amount) per user equals that user's UserProgress.TotalXP.
type XPTransaction struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"index;not null" json:"external_user_id"`
	Action         ActionType `gorm:"size:32;not null;index" json:"action"`
	XPAmount       int64      `gorm:"not null" json:"xp_amount"`
	Description    string     `gorm:"size:255" json:"description,omitempty"`
	ReferenceType  string     `gorm:"size:50" json:"reference_type,omitempty"` // e.g. "prompt", "badge", "challenge"
	ReferenceID    string     `gorm:"size:64" json:"reference_id,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
