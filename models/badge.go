package models

import (
	"time"
)

// BadgeConditionKind discriminates the closed set of unlock predicates.
type BadgeConditionKind string

const (
	ConditionActionCount      BadgeConditionKind = "action_count"      // lifetime counter for Action >= Threshold
	ConditionSingleScore      BadgeConditionKind = "single_score"      // triggering action's score >= Threshold
	ConditionHighScore        BadgeConditionKind = "high_score"        // stored lifetime high for ScoreKind >= Threshold
	ConditionScoreImprovement BadgeConditionKind = "score_improvement" // improvement delta >= Threshold
	ConditionRequirementsMet  BadgeConditionKind = "requirements_met"  // % of requirements met >= Threshold
	ConditionStreakDays       BadgeConditionKind = "streak_days"       // current streak >= Threshold
	ConditionLevelReached     BadgeConditionKind = "level_reached"     // level >= Threshold
	ConditionTotalXP          BadgeConditionKind = "total_xp"          // lifetime XP >= Threshold
)

// ScoreKind selects which lifetime high-score field a condition reads.
type ScoreKind string

const (
	ScorePrompt ScoreKind = "prompt"
	ScoreAudit  ScoreKind = "audit"
)

// BadgeCondition is a tagged union: only the fields relevant to Kind are set.
// Evaluated by exhaustive switch in services.BadgeService.
type BadgeCondition struct {
	Kind      BadgeConditionKind `json:"kind"`
	Threshold int64              `json:"threshold"`
	Action    ActionType         `json:"action,omitempty"`     // ConditionActionCount only
	ScoreKind ScoreKind          `json:"score_kind,omitempty"` // ConditionSingleScore / ConditionHighScore only
}

// BadgeDefinition is a static catalog entry. The catalog of record is the
// in-code BadgeCatalog slice; rows are mirrored into badge_definitions at boot
// so the dashboard join and icon URLs have a durable home.
type BadgeDefinition struct {
	Code        string         `gorm:"primaryKey;size:64" json:"code"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	IconURL     string         `gorm:"type:text" json:"icon_url,omitempty"`
	Rarity      string         `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	XPReward    int64          `gorm:"default:0" json:"xp_reward"`
	Condition   BadgeCondition `gorm:"serializer:json" json:"condition"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance. The composite unique index is the idempotence
// guarantee — badge payout happens only when this insert actually lands.
type UserBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"not null;uniqueIndex:idx_user_badge,priority:1" json:"external_user_id"`
	BadgeCode      string    `gorm:"size:64;not null;uniqueIndex:idx_user_badge,priority:2" json:"badge_code"`
	ReferenceType  string    `gorm:"size:50" json:"reference_type,omitempty"`
	ReferenceID    string    `gorm:"size:64" json:"reference_id,omitempty"`
	EarnedAt       time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

// BadgeCatalog is the static unlock catalog, loaded at process start.
// Thresholds and rewards are product parameters, tunable here.
var BadgeCatalog = []BadgeDefinition{
	{
		Code:        "first-prompt",
		Name:        "First Prompt",
		Description: "Analyzed your first prompt",
		Rarity:      "common",
		XPReward:    10,
		Condition:   BadgeCondition{Kind: ConditionActionCount, Action: ActionPromptAnalyze, Threshold: 1},
	},
	{
		Code:        "prompt-apprentice",
		Name:        "Prompt Apprentice",
		Description: "Analyzed 25 prompts",
		Rarity:      "rare",
		XPReward:    50,
		Condition:   BadgeCondition{Kind: ConditionActionCount, Action: ActionPromptAnalyze, Threshold: 25},
	},
	{
		Code:        "honest-scholar",
		Name:        "Honest Scholar",
		Description: "Generated 10 AI-use disclosures",
		Rarity:      "rare",
		XPReward:    40,
		Condition:   BadgeCondition{Kind: ConditionActionCount, Action: ActionDisclosureGenerate, Threshold: 10},
	},
	{
		Code:        "research-rookie",
		Name:        "Research Rookie",
		Description: "Ran 10 research queries",
		Rarity:      "common",
		XPReward:    25,
		Condition:   BadgeCondition{Kind: ConditionActionCount, Action: ActionResearchQuery, Threshold: 10},
	},
	{
		Code:        "grammar-guru",
		Name:        "Grammar Guru",
		Description: "Completed 20 grammar checks",
		Rarity:      "rare",
		XPReward:    40,
		Condition:   BadgeCondition{Kind: ConditionActionCount, Action: ActionGrammarCheck, Threshold: 20},
	},
	{
		Code:        "audit-ace",
		Name:        "Audit Ace",
		Description: "Scored 90+ on a single assignment audit",
		Rarity:      "epic",
		XPReward:    60,
		Condition:   BadgeCondition{Kind: ConditionSingleScore, ScoreKind: ScoreAudit, Threshold: 90},
	},
	{
		Code:        "perfectionist",
		Name:        "Perfectionist",
		Description: "Reached a lifetime prompt score of 95",
		Rarity:      "epic",
		XPReward:    75,
		Condition:   BadgeCondition{Kind: ConditionHighScore, ScoreKind: ScorePrompt, Threshold: 95},
	},
	{
		Code:        "most-improved",
		Name:        "Most Improved",
		Description: "Improved an audit score by 20 points",
		Rarity:      "rare",
		XPReward:    50,
		Condition:   BadgeCondition{Kind: ConditionScoreImprovement, Threshold: 20},
	},
	{
		Code:        "completionist",
		Name:        "Completionist",
		Description: "Met 100% of an assignment's requirements",
		Rarity:      "rare",
		XPReward:    50,
		Condition:   BadgeCondition{Kind: ConditionRequirementsMet, Threshold: 100},
	},
	{
		Code:        "week-streak",
		Name:        "Week Streak",
		Description: "Active 7 days in a row",
		Rarity:      "rare",
		XPReward:    100,
		Condition:   BadgeCondition{Kind: ConditionStreakDays, Threshold: 7},
	},
	{
		Code:        "month-streak",
		Name:        "Month Streak",
		Description: "Active 30 days in a row",
		Rarity:      "legendary",
		XPReward:    250,
		Condition:   BadgeCondition{Kind: ConditionStreakDays, Threshold: 30},
	},
	{
		Code:        "level-5",
		Name:        "Halfway There",
		Description: "Reached level 5",
		Rarity:      "epic",
		XPReward:    100,
		Condition:   BadgeCondition{Kind: ConditionLevelReached, Threshold: 5},
	},
	{
		Code:        "xp-5000",
		Name:        "XP Collector",
		Description: "Accumulated 5000 lifetime XP",
		Rarity:      "epic",
		XPReward:    150,
		Condition:   BadgeCondition{Kind: ConditionTotalXP, Threshold: 5000},
	},
}

// BadgeByCode looks a definition up in the static catalog.
func BadgeByCode(code string) (BadgeDefinition, bool) {
	for _, b := range BadgeCatalog {
		if b.Code == code {
			return b, true
		}
	}
	return BadgeDefinition{}, false
}
