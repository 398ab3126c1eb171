package services

import (
	"fmt"
	"log"
	"time"

	"github.com/trishank991/penbotai-sub000/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChallengeTemplate is a seed blueprint; the scheduler rotates through these.
type ChallengeTemplate struct {
	Title        string
	TargetAction models.ActionType
	TargetCount  int
	XPReward     int64
}

// ChallengeTemplates rotate day by day; ChallengesPerDay of them are active on
// any given date. Counts and rewards are product parameters.
var ChallengeTemplates = []ChallengeTemplate{
	{Title: "prompt sprint", TargetAction: models.ActionPromptAnalyze, TargetCount: 3, XPReward: 30},
	{Title: "disclosure duty", TargetAction: models.ActionDisclosureGenerate, TargetCount: 1, XPReward: 20},
	{Title: "audit hour", TargetAction: models.ActionAuditComplete, TargetCount: 1, XPReward: 25},
	{Title: "research run", TargetAction: models.ActionResearchQuery, TargetCount: 5, XPReward: 25},
	{Title: "library builder", TargetAction: models.ActionPaperSave, TargetCount: 2, XPReward: 15},
	{Title: "polish pass", TargetAction: models.ActionGrammarCheck, TargetCount: 3, XPReward: 20},
}

var ChallengesPerDay = 3

// ChallengeResult reports the outcome of a RecordChallengeProgress call.
type ChallengeResult struct {
	CompletedChallenge *models.DailyChallenge `json:"completed_challenge,omitempty"`
	XPAwarded          int64                  `json:"xp_awarded"`
}

type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

var titleCaser = cases.Title(language.English)

// SeedDailyChallenges inserts the given day's challenges, rotating through the
// template list by day-of-year. Idempotent: re-seeding the same day is a no-op
// thanks to the (active_date, target_action) unique index.
func (s *ChallengeService) SeedDailyChallenges(day time.Time) error {
	day = dateOnlyUTC(day)
	if len(ChallengeTemplates) == 0 || ChallengesPerDay <= 0 {
		return nil
	}

	start := day.YearDay() % len(ChallengeTemplates)
	for i := 0; i < ChallengesPerDay && i < len(ChallengeTemplates); i++ {
		tpl := ChallengeTemplates[(start+i)%len(ChallengeTemplates)]
		title := titleCaser.String(tpl.Title)
		ch := models.DailyChallenge{
			ID:           uuid.NewString(),
			Code:         slug.Make(tpl.Title),
			ActiveDate:   day,
			TargetAction: tpl.TargetAction,
			TargetCount:  tpl.TargetCount,
			XPReward:     tpl.XPReward,
			Title:        title,
		}
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "active_date"}, {Name: "target_action"}},
			DoNothing: true,
		}).Create(&ch).Error; err != nil {
			return fmt.Errorf("seed challenge %s for %s: %w", ch.Code, day.Format("2006-01-02"), err)
		}
	}
	log.Printf("📅 Seeded daily challenges for %s", day.Format("2006-01-02"))
	return nil
}

// ActiveChallenges returns the challenges for the given day.
func (s *ChallengeService) ActiveChallenges(day time.Time) ([]models.DailyChallenge, error) {
	var challenges []models.DailyChallenge
	err := s.DB.Where("active_date = ?", dateOnlyUTC(day)).
		Order("target_action ASC").
		Find(&challenges).Error
	return challenges, err
}

// RecordChallengeProgress advances every active challenge matching the action.
// Increments only apply while completed=false, and the completion flip is a
// conditional UPDATE from false to true — only the caller that performs the
// transition pays the reward, so completion is idempotent by construction.
// The payout deliberately skips streak and badge evaluation: the originating
// action already credited those, and the ledger should say plainly why each
// grant happened.
func (s *ChallengeService) RecordChallengeProgress(externalUserID string, action models.ActionType) (*ChallengeResult, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	challenges, err := s.ActiveChallenges(time.Now())
	if err != nil {
		return nil, fmt.Errorf("load active challenges: %w", err)
	}

	result := &ChallengeResult{}
	for i := range challenges {
		ch := challenges[i]
		if ch.TargetAction != action {
			continue
		}

		ucp, err := s.ensureProgressRow(externalUserID, ch.ID)
		if err != nil {
			return result, err
		}
		if ucp.Completed {
			continue
		}

		res := s.DB.Model(&models.UserChallengeProgress{}).
			Where("id = ? AND completed = ?", ucp.ID, false).
			UpdateColumn("current_count", gorm.Expr("current_count + 1"))
		if res.Error != nil {
			return result, fmt.Errorf("increment challenge %s: %w", ch.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue // completed concurrently; counter is frozen
		}

		now := time.Now().UTC()
		flip := s.DB.Model(&models.UserChallengeProgress{}).
			Where("id = ? AND completed = ? AND current_count >= ?", ucp.ID, false, ch.TargetCount).
			Updates(map[string]interface{}{"completed": true, "completed_at": now})
		if flip.Error != nil {
			return result, fmt.Errorf("complete challenge %s: %w", ch.ID, flip.Error)
		}
		if flip.RowsAffected == 0 {
			continue // target not reached yet, or another caller won the flip
		}

		xp := ch.XPReward
		if _, err := NewProgressionService(s.DB).AwardXP(externalUserID, models.ActionDailyChallenge, &AwardOptions{
			CustomXP:      &xp,
			SkipBadges:    true,
			SkipStreak:    true,
			Description:   ch.Title,
			ReferenceType: "challenge",
			ReferenceID:   ch.ID,
		}); err != nil {
			log.Printf("⚠️ challenge payout failed for %s/%s: %v", externalUserID, ch.ID, err)
			continue
		}

		completed := ch
		result.CompletedChallenge = &completed
		result.XPAwarded += xp
		log.Printf("🏆 Challenge completed: %s → %s (+%d XP)", externalUserID, ch.Title, xp)
	}

	return result, nil
}

// ChallengeStatus pairs a challenge with one user's progress against it.
type ChallengeStatus struct {
	models.DailyChallenge
	CurrentCount int        `json:"current_count"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// UserChallengeStatuses returns today's challenges decorated with the user's
// progress. Read-only: no rows are created for untouched challenges.
func (s *ChallengeService) UserChallengeStatuses(externalUserID string, day time.Time) ([]ChallengeStatus, error) {
	challenges, err := s.ActiveChallenges(day)
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return []ChallengeStatus{}, nil
	}

	ids := make([]string, 0, len(challenges))
	for _, ch := range challenges {
		ids = append(ids, ch.ID)
	}
	var rows []models.UserChallengeProgress
	if err := s.DB.Where("external_user_id = ? AND challenge_id IN ?", externalUserID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	byChallenge := make(map[string]models.UserChallengeProgress, len(rows))
	for _, r := range rows {
		byChallenge[r.ChallengeID] = r
	}

	statuses := make([]ChallengeStatus, 0, len(challenges))
	for _, ch := range challenges {
		st := ChallengeStatus{DailyChallenge: ch}
		if r, ok := byChallenge[ch.ID]; ok {
			st.CurrentCount = r.CurrentCount
			st.Completed = r.Completed
			st.CompletedAt = r.CompletedAt
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (s *ChallengeService) ensureProgressRow(externalUserID, challengeID string) (*models.UserChallengeProgress, error) {
	row := models.UserChallengeProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		ChallengeID:    challengeID,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "challenge_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create challenge progress: %w", err)
	}
	var current models.UserChallengeProgress
	if err := s.DB.Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
		First(&current).Error; err != nil {
		return nil, fmt.Errorf("load challenge progress: %w", err)
	}
	return &current, nil
}
