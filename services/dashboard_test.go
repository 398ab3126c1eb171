package services

import (
	"testing"

	"github.com/trishank991/penbotai-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardFreshUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db)

	snap, err := svc.GetDashboard("user-1")
	require.NoError(t, err)

	assert.Equal(t, int64(0), snap.Progress.TotalXP)
	assert.Equal(t, 1, snap.CurrentLevel.Level)
	require.NotNil(t, snap.NextLevel)
	assert.Equal(t, int64(100), snap.XPToNextLevel)
	assert.Zero(t, snap.ProgressPercent)
	assert.Empty(t, snap.RecentActivity)
	assert.Empty(t, snap.Badges)
	assert.Empty(t, snap.Challenges)
	assert.Nil(t, snap.Profile)

	// the read lazily created the aggregate row
	var count int64
	require.NoError(t, db.Model(&models.UserProgress{}).Where("external_user_id = ?", "user-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetDashboardProgressPercent(t *testing.T) {
	db := newTestDB(t)
	progression := NewProgressionService(db)
	svc := NewDashboardService(db)

	// 150 XP sits a third of the way from level 2 (100) to level 3 (250)
	grantXP(t, progression, "user-1", 150)

	snap, err := svc.GetDashboard("user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.CurrentLevel.Level)
	require.NotNil(t, snap.NextLevel)
	assert.Equal(t, 3, snap.NextLevel.Level)
	assert.Equal(t, int64(100), snap.XPToNextLevel)
	assert.Equal(t, 33, snap.ProgressPercent)
}

func TestGetDashboardMaxLevel(t *testing.T) {
	db := newTestDB(t)
	progression := NewProgressionService(db)
	svc := NewDashboardService(db)

	grantXP(t, progression, "user-1", 20000)

	snap, err := svc.GetDashboard("user-1")
	require.NoError(t, err)
	assert.Equal(t, models.MaxLevel, snap.CurrentLevel.Level)
	assert.Nil(t, snap.NextLevel)
	assert.Zero(t, snap.XPToNextLevel)
	assert.Equal(t, 100, snap.ProgressPercent)
}

func TestGetDashboardAggregatesActivity(t *testing.T) {
	db := newTestDB(t)
	progression := NewProgressionService(db)
	challenges := NewChallengeService(db)
	svc := NewDashboardService(db)

	seedChallenge(t, db, models.ActionPromptAnalyze, 3, 30)

	_, err := progression.AwardXP("user-1", models.ActionPromptAnalyze, &AwardOptions{SkipStreak: true})
	require.NoError(t, err)
	_, err = challenges.RecordChallengeProgress("user-1", models.ActionPromptAnalyze)
	require.NoError(t, err)

	snap, err := svc.GetDashboard("user-1")
	require.NoError(t, err)

	// the award plus the first-prompt badge payout
	require.NotEmpty(t, snap.RecentActivity)
	assert.LessOrEqual(t, len(snap.RecentActivity), RecentActivityLimit)

	require.Len(t, snap.Badges, 1)
	assert.Equal(t, "first-prompt", snap.Badges[0]["code"])

	require.Len(t, snap.Challenges, 1)
	assert.Equal(t, 1, snap.Challenges[0].CurrentCount)
	assert.False(t, snap.Challenges[0].Completed)
}

func TestGetDashboardIncludesProfileMirror(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db)

	display := "Ada"
	profile := models.StudentProfile{
		ID:             "profile-1",
		ExternalUserID: "user-1",
		Username:       "ada",
		DisplayName:    &display,
	}
	require.NoError(t, db.Create(&profile).Error)

	snap, err := svc.GetDashboard("user-1")
	require.NoError(t, err)
	require.NotNil(t, snap.Profile)
	require.NotNil(t, snap.Profile.DisplayName)
	assert.Equal(t, "Ada", *snap.Profile.DisplayName)
}
