package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{999, 4},
		{1000, 5},
		{9999, 9},
		{10000, 10},
		{999999, 10},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LevelForXP(c.xp), "xp=%d", c.xp)
	}
}

func TestLevelTableThresholdsStrictlyIncreasing(t *testing.T) {
	assert.Len(t, LevelTable, MaxLevel)
	for i, def := range LevelTable {
		assert.Equal(t, i+1, def.Level)
		if i > 0 {
			assert.Greater(t, def.XPThreshold, LevelTable[i-1].XPThreshold)
		}
	}
	assert.Equal(t, int64(0), LevelTable[0].XPThreshold)
}

func TestLevelAt(t *testing.T) {
	def, ok := LevelAt(1)
	assert.True(t, ok)
	assert.Equal(t, 1, def.Level)

	_, ok = LevelAt(0)
	assert.False(t, ok)
	_, ok = LevelAt(MaxLevel + 1)
	assert.False(t, ok)
}

func TestActionCounterColumns(t *testing.T) {
	countable := []ActionType{
		ActionPromptAnalyze, ActionDisclosureGenerate, ActionAuditComplete,
		ActionAuditImprove, ActionResearchQuery, ActionPaperSave, ActionGrammarCheck,
	}
	for _, a := range countable {
		assert.NotEmpty(t, a.CounterColumn(), "action %s should have a counter", a)
	}
	for _, a := range []ActionType{ActionDailyChallenge, ActionHighScore, ActionStreakBonus, ActionBadgeEarned, ActionAdminGrant} {
		assert.Empty(t, a.CounterColumn(), "action %s should not have a counter", a)
	}
	assert.False(t, ActionType("tournament_win").Valid())
}
