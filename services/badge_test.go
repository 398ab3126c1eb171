package services

import (
	"testing"

	"github.com/trishank991/penbotai-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstBadgeAwardedWithPayout(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	result, err := svc.AwardXP("user-1", models.ActionPromptAnalyze, &AwardOptions{SkipStreak: true})
	require.NoError(t, err)
	assert.Contains(t, result.NewBadges, "first-prompt")

	// action XP plus the badge reward, both visible in the final total
	assert.Equal(t, int64(20), result.TotalXP)

	var txn models.XPTransaction
	require.NoError(t, db.Where("external_user_id = ? AND action = ?", "user-1", models.ActionBadgeEarned).
		First(&txn).Error)
	assert.Equal(t, int64(10), txn.XPAmount)
	assert.Equal(t, "badge", txn.ReferenceType)
	assert.Equal(t, "first-prompt", txn.ReferenceID)

	prog := loadProgress(t, db, "user-1")
	assert.Equal(t, prog.TotalXP, ledgerSum(t, db, "user-1"))
}

func TestEvaluateBadgesIdempotent(t *testing.T) {
	db := newTestDB(t)
	progression := NewProgressionService(db)
	badges := NewBadgeService(db)

	_, err := progression.AwardXP("user-1", models.ActionPromptAnalyze, &AwardOptions{SkipStreak: true})
	require.NoError(t, err)

	// re-running the evaluation must not re-award or re-pay anything
	awarded, err := badges.EvaluateBadges("user-1", models.ActionPromptAnalyze, nil)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	var badgeRows int64
	require.NoError(t, db.Model(&models.UserBadge{}).
		Where("external_user_id = ? AND badge_code = ?", "user-1", "first-prompt").
		Count(&badgeRows).Error)
	assert.Equal(t, int64(1), badgeRows)

	var payouts int64
	require.NoError(t, db.Model(&models.XPTransaction{}).
		Where("external_user_id = ? AND action = ? AND reference_id = ?",
			"user-1", models.ActionBadgeEarned, "first-prompt").
		Count(&payouts).Error)
	assert.Equal(t, int64(1), payouts)
}

func TestContextDependentBadges(t *testing.T) {
	db := newTestDB(t)
	progression := NewProgressionService(db)
	badges := NewBadgeService(db)

	_, err := progression.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	// without a context, score-shaped conditions stay dormant
	awarded, err := badges.EvaluateBadges("user-1", models.ActionAuditComplete, nil)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	awarded, err = badges.EvaluateBadges("user-1", models.ActionAuditComplete, &BadgeContext{
		Score:              92,
		ScoreKind:          models.ScoreAudit,
		Improvement:        24,
		RequirementsMetPct: 100,
	})
	require.NoError(t, err)

	codes := make([]string, 0, len(awarded))
	for _, b := range awarded {
		codes = append(codes, b.Code)
	}
	assert.Contains(t, codes, "audit-ace")
	assert.Contains(t, codes, "most-improved")
	assert.Contains(t, codes, "completionist")
}

func TestConditionMet(t *testing.T) {
	prog := &models.UserProgress{
		TotalXP:            5200,
		Level:              5,
		CurrentStreakDays:  7,
		PromptsAnalyzed:    25,
		HighestPromptScore: 96,
		HighestAuditScore:  80,
	}

	cases := []struct {
		name string
		cond models.BadgeCondition
		bctx *BadgeContext
		want bool
	}{
		{"action count met", models.BadgeCondition{Kind: models.ConditionActionCount, Action: models.ActionPromptAnalyze, Threshold: 25}, nil, true},
		{"action count short", models.BadgeCondition{Kind: models.ConditionActionCount, Action: models.ActionPromptAnalyze, Threshold: 26}, nil, false},
		{"single score needs context", models.BadgeCondition{Kind: models.ConditionSingleScore, Threshold: 90}, nil, false},
		{"single score met", models.BadgeCondition{Kind: models.ConditionSingleScore, Threshold: 90}, &BadgeContext{Score: 90}, true},
		{"single score wrong kind", models.BadgeCondition{Kind: models.ConditionSingleScore, ScoreKind: models.ScoreAudit, Threshold: 90}, &BadgeContext{Score: 95, ScoreKind: models.ScorePrompt}, false},
		{"high score prompt", models.BadgeCondition{Kind: models.ConditionHighScore, ScoreKind: models.ScorePrompt, Threshold: 95}, nil, true},
		{"high score audit short", models.BadgeCondition{Kind: models.ConditionHighScore, ScoreKind: models.ScoreAudit, Threshold: 95}, nil, false},
		{"improvement needs context", models.BadgeCondition{Kind: models.ConditionScoreImprovement, Threshold: 20}, nil, false},
		{"improvement met", models.BadgeCondition{Kind: models.ConditionScoreImprovement, Threshold: 20}, &BadgeContext{Improvement: 21}, true},
		{"requirements met", models.BadgeCondition{Kind: models.ConditionRequirementsMet, Threshold: 100}, &BadgeContext{RequirementsMetPct: 100}, true},
		{"streak days", models.BadgeCondition{Kind: models.ConditionStreakDays, Threshold: 7}, nil, true},
		{"streak days short", models.BadgeCondition{Kind: models.ConditionStreakDays, Threshold: 30}, nil, false},
		{"level reached", models.BadgeCondition{Kind: models.ConditionLevelReached, Threshold: 5}, nil, true},
		{"total xp", models.BadgeCondition{Kind: models.ConditionTotalXP, Threshold: 5000}, nil, true},
		{"unknown kind", models.BadgeCondition{Kind: models.BadgeConditionKind("phases_of_moon")}, nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, conditionMet(prog, c.cond, c.bctx))
		})
	}
}

func TestSeedBadgeCatalogPreservesIconURL(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Model(&models.BadgeDefinition{}).
		Where("code = ?", "first-prompt").
		Updates(map[string]interface{}{"icon_url": "https://cdn.example.com/first.png", "name": "Renamed"}).Error)

	require.NoError(t, SeedBadgeCatalog(db))

	var def models.BadgeDefinition
	require.NoError(t, db.Where("code = ?", "first-prompt").First(&def).Error)
	assert.Equal(t, "https://cdn.example.com/first.png", def.IconURL, "icon survives re-seed")
	assert.Equal(t, "First Prompt", def.Name, "catalog fields re-sync from code")
}

func TestListUserBadges(t *testing.T) {
	db := newTestDB(t)
	progression := NewProgressionService(db)
	badges := NewBadgeService(db)

	empty, err := badges.ListUserBadges("user-1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = progression.AwardXP("user-1", models.ActionPromptAnalyze, &AwardOptions{SkipStreak: true})
	require.NoError(t, err)

	list, err := badges.ListUserBadges("user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first-prompt", list[0]["code"])
	assert.Equal(t, "First Prompt", list[0]["name"])
	assert.Equal(t, int64(10), list[0]["xp_reward"])
}
