package services

import (
	"testing"

	"github.com/trishank991/penbotai-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureProgressRecordIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	first, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)
	second, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.Level)
	assert.Equal(t, int64(0), second.TotalXP)

	var count int64
	require.NoError(t, db.Model(&models.UserProgress{}).Where("external_user_id = ?", "user-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAwardXPLevelUpScenario(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	grantXP(t, svc, "user-1", 90)

	result, err := svc.AwardXP("user-1", models.ActionPromptAnalyze, &AwardOptions{
		SkipBadges: true,
		SkipStreak: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.XPAwarded)
	assert.Equal(t, int64(100), result.TotalXP)
	assert.Equal(t, 1, result.PreviousLevel)
	assert.Equal(t, 2, result.NewLevel)
	assert.True(t, result.LeveledUp)

	prog := loadProgress(t, db, "user-1")
	assert.Equal(t, 2, prog.Level)
	assert.Equal(t, int64(1), prog.PromptsAnalyzed)
	assert.NotNil(t, prog.LastLevelUpAt)
}

func TestAwardXPRejectsUnknownAction(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	_, err := svc.AwardXP("user-1", models.ActionType("tournament_win"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAction)

	// rejected before any mutation
	var count int64
	require.NoError(t, db.Model(&models.UserProgress{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAwardXPCustomOverride(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	custom := int64(42)
	result, err := svc.AwardXP("user-1", models.ActionDailyChallenge, &AwardOptions{
		CustomXP:      &custom,
		SkipBadges:    true,
		SkipStreak:    true,
		ReferenceType: "challenge",
		ReferenceID:   "ch-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.XPAwarded)
	assert.Equal(t, int64(42), result.TotalXP)

	var txn models.XPTransaction
	require.NoError(t, db.Where("external_user_id = ?", "user-1").First(&txn).Error)
	assert.Equal(t, models.ActionDailyChallenge, txn.Action)
	assert.Equal(t, int64(42), txn.XPAmount)
	assert.Equal(t, "challenge", txn.ReferenceType)
	assert.Equal(t, "ch-1", txn.ReferenceID)
}

func TestLedgerSumMatchesTotalXP(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	// a mix of plain awards, streak-on awards, badge evaluation and scores
	actions := []models.ActionType{
		models.ActionPromptAnalyze,
		models.ActionDisclosureGenerate,
		models.ActionResearchQuery,
		models.ActionGrammarCheck,
		models.ActionPromptAnalyze,
	}
	for _, a := range actions {
		_, err := svc.AwardXP("user-1", a, nil)
		require.NoError(t, err)
	}
	_, err := svc.UpdateHighScore("user-1", models.ScorePrompt, 97)
	require.NoError(t, err)

	prog := loadProgress(t, db, "user-1")
	assert.Equal(t, prog.TotalXP, ledgerSum(t, db, "user-1"))
	assert.Positive(t, prog.TotalXP)
}

func TestUpdateHighScoreMonotonic(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	res, err := svc.UpdateHighScore("user-1", models.ScorePrompt, 80)
	require.NoError(t, err)
	assert.True(t, res.IsNewHighScore)
	assert.Equal(t, 0, res.PreviousHighScore)

	// lower score: no-op
	res, err = svc.UpdateHighScore("user-1", models.ScorePrompt, 70)
	require.NoError(t, err)
	assert.False(t, res.IsNewHighScore)
	assert.Equal(t, 80, res.PreviousHighScore)

	// replaying the same score only updates once
	res, err = svc.UpdateHighScore("user-1", models.ScorePrompt, 80)
	require.NoError(t, err)
	assert.False(t, res.IsNewHighScore)

	res, err = svc.UpdateHighScore("user-1", models.ScorePrompt, 90)
	require.NoError(t, err)
	assert.True(t, res.IsNewHighScore)
	assert.Equal(t, 80, res.PreviousHighScore)

	prog := loadProgress(t, db, "user-1")
	assert.Equal(t, 90, prog.HighestPromptScore)
	assert.Equal(t, 0, prog.HighestAuditScore)
}

func TestUpdateHighScoreValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	_, err := svc.UpdateHighScore("user-1", models.ScorePrompt, 101)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = svc.UpdateHighScore("user-1", models.ScorePrompt, -1)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = svc.UpdateHighScore("user-1", models.ScoreKind("essay"), 50)
	assert.ErrorIs(t, err, ErrUnknownScoreKind)
}

func TestGetLedgerHistoryPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)

	for i := 0; i < 5; i++ {
		_, err := svc.AwardXP("user-1", models.ActionResearchQuery, &AwardOptions{
			SkipBadges: true,
			SkipStreak: true,
		})
		require.NoError(t, err)
	}

	history, err := svc.GetLedgerHistory("user-1", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), history["total_items"])
	assert.Equal(t, 2, history["total_pages"])
	entries := history["entries"].([]models.XPTransaction)
	assert.Len(t, entries, 3)

	history, err = svc.GetLedgerHistory("user-1", 2, 3)
	require.NoError(t, err)
	entries = history["entries"].([]models.XPTransaction)
	assert.Len(t, entries, 2)
}
