package services

import (
	"fmt"
	"time"

	"github.com/trishank991/penbotai-sub000/models"
)

// Streak bonus policy (product parameters, tunable via config/env later).
// A continued streak pays DefaultStreakBonusXP, bumped to the milestone bonus
// on every StreakMilestoneEvery-th consecutive day. Resets pay nothing.
var (
	DefaultStreakBonusXP   int64 = 5
	StreakMilestoneEvery         = 7
	StreakMilestoneBonusXP int64 = 25
)

// StreakUpdate is the streak outcome attached to an AwardResult.
type StreakUpdate struct {
	CurrentStreak int   `json:"current_streak"`
	StreakBroken  bool  `json:"streak_broken"`
	BonusXP       int64 `json:"bonus_xp"`
}

func streakBonusFor(streakDays int) int64 {
	if StreakMilestoneEvery > 0 && streakDays%StreakMilestoneEvery == 0 {
		return StreakMilestoneBonusXP
	}
	return DefaultStreakBonusXP
}

func dateOnlyUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// advanceStreak transitions the (lastActivityDate, currentStreak, longest)
// state machine once per user per UTC calendar day. The write is a single
// conditional UPDATE keyed on "not yet counted today", so two concurrent
// first-of-the-day calls cannot both apply the increment — exactly one gets
// RowsAffected=1 and the loser reports a no-op.
//
// The caller pays BonusXP as its own ledger entry; none is granted here.
func (s *ProgressionService) advanceStreak(externalUserID string, prog *models.UserProgress) (*StreakUpdate, error) {
	today := dateOnlyUTC(time.Now())

	if prog.LastActivityDate != nil && !dateOnlyUTC(*prog.LastActivityDate).Before(today) {
		// already counted today
		return &StreakUpdate{CurrentStreak: prog.CurrentStreakDays}, nil
	}

	yesterday := today.AddDate(0, 0, -1)
	continued := prog.LastActivityDate != nil && dateOnlyUTC(*prog.LastActivityDate).Equal(yesterday)

	newCurrent := 1
	if continued {
		newCurrent = prog.CurrentStreakDays + 1
	}
	newLongest := prog.LongestStreakDays
	if newCurrent > newLongest {
		newLongest = newCurrent
	}

	res := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ? AND (last_activity_date IS NULL OR last_activity_date < ?)", externalUserID, today).
		Updates(map[string]interface{}{
			"current_streak_days": newCurrent,
			"longest_streak_days": newLongest,
			"last_activity_date":  today,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("streak transition for %s: %w", externalUserID, res.Error)
	}
	if res.RowsAffected == 0 {
		// a concurrent request counted today first; report current state
		var current models.UserProgress
		if err := s.DB.Where("external_user_id = ?", externalUserID).First(&current).Error; err != nil {
			return nil, err
		}
		return &StreakUpdate{CurrentStreak: current.CurrentStreakDays}, nil
	}

	upd := &StreakUpdate{
		CurrentStreak: newCurrent,
		StreakBroken:  !continued && prog.LastActivityDate != nil,
	}
	if continued {
		upd.BonusXP = streakBonusFor(newCurrent)
	}
	return upd, nil
}
