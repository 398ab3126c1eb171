package services

import (
	"fmt"
	"log"

	"github.com/trishank991/penbotai-sub000/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeContext carries trigger-scoped facts that only the calling feature
// route knows (the score of the action that just happened, its improvement
// over the previous attempt, the requirements-met percentage).
type BadgeContext struct {
	Score              int64            `json:"score"`
	ScoreKind          models.ScoreKind `json:"score_kind,omitempty"`
	Improvement        int64            `json:"improvement"`
	RequirementsMetPct int64            `json:"requirements_met_pct"`
}

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// SeedBadgeCatalog mirrors the static in-code catalog into badge_definitions
// so the dashboard join and icon URLs have a durable home. IconURL is left
// alone on conflict: admins manage it separately.
func SeedBadgeCatalog(db *gorm.DB) error {
	for _, def := range models.BadgeCatalog {
		if err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "rarity", "xp_reward", "condition",
			}),
		}).Create(&def).Error; err != nil {
			return fmt.Errorf("seed badge %s: %w", def.Code, err)
		}
	}
	return nil
}

// EvaluateBadges checks every not-yet-earned catalog badge against the user's
// post-update aggregate. Each award is an insert-if-absent against the unique
// (user, badge) index; the XP reward is paid only when that insert actually
// landed, so two overlapping evaluations can never pay the same badge twice.
// Returns only the badges whose insert succeeded for this call.
func (s *BadgeService) EvaluateBadges(externalUserID string, trigger models.ActionType, bctx *BadgeContext) ([]models.BadgeDefinition, error) {
	var prog models.UserProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		return nil, fmt.Errorf("load progress for badge evaluation: %w", err)
	}

	var earnedCodes []string
	if err := s.DB.Model(&models.UserBadge{}).
		Where("external_user_id = ?", externalUserID).
		Pluck("badge_code", &earnedCodes).Error; err != nil {
		return nil, fmt.Errorf("load earned badges: %w", err)
	}
	earned := make(map[string]bool, len(earnedCodes))
	for _, c := range earnedCodes {
		earned[c] = true
	}

	var awarded []models.BadgeDefinition
	for _, def := range models.BadgeCatalog {
		if earned[def.Code] {
			continue
		}
		if !conditionMet(&prog, def.Condition, bctx) {
			continue
		}

		ub := models.UserBadge{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			BadgeCode:      def.Code,
			ReferenceType:  "action",
			ReferenceID:    string(trigger),
		}
		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "badge_code"}},
			DoNothing: true,
		}).Create(&ub)
		if res.Error != nil {
			return awarded, fmt.Errorf("award badge %s: %w", def.Code, res.Error)
		}
		if res.RowsAffected == 0 {
			// concurrent evaluation already inserted this badge — defined no-op
			continue
		}

		if def.XPReward > 0 {
			xp := def.XPReward
			_, err := NewProgressionService(s.DB).AwardXP(externalUserID, models.ActionBadgeEarned, &AwardOptions{
				CustomXP:      &xp,
				SkipBadges:    true,
				SkipStreak:    true,
				Description:   def.Name,
				ReferenceType: "badge",
				ReferenceID:   def.Code,
			})
			if err != nil {
				log.Printf("⚠️ badge XP payout failed for %s/%s: %v", externalUserID, def.Code, err)
			}
		}

		log.Printf("🎖️ Badge awarded: %s → %s", def.Name, externalUserID)
		awarded = append(awarded, def)
	}

	return awarded, nil
}

// conditionMet dispatches the closed condition set. Context-dependent kinds
// are false without a context; they only fire on the triggering call that
// supplied one.
func conditionMet(prog *models.UserProgress, cond models.BadgeCondition, bctx *BadgeContext) bool {
	switch cond.Kind {
	case models.ConditionActionCount:
		return prog.CounterFor(cond.Action) >= cond.Threshold
	case models.ConditionSingleScore:
		if bctx == nil {
			return false
		}
		if cond.ScoreKind != "" && bctx.ScoreKind != cond.ScoreKind {
			return false
		}
		return bctx.Score >= cond.Threshold
	case models.ConditionHighScore:
		switch cond.ScoreKind {
		case models.ScorePrompt:
			return int64(prog.HighestPromptScore) >= cond.Threshold
		case models.ScoreAudit:
			return int64(prog.HighestAuditScore) >= cond.Threshold
		}
		return false
	case models.ConditionScoreImprovement:
		return bctx != nil && bctx.Improvement >= cond.Threshold
	case models.ConditionRequirementsMet:
		return bctx != nil && bctx.RequirementsMetPct >= cond.Threshold
	case models.ConditionStreakDays:
		return int64(prog.CurrentStreakDays) >= cond.Threshold
	case models.ConditionLevelReached:
		return int64(prog.Level) >= cond.Threshold
	case models.ConditionTotalXP:
		return prog.TotalXP >= cond.Threshold
	default:
		return false
	}
}

// ListUserBadges returns the user's earned badges joined with their catalog
// definitions (names, rarity, icon URLs).
func (s *BadgeService) ListUserBadges(externalUserID string) ([]map[string]interface{}, error) {
	var userBadges []models.UserBadge
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("earned_at DESC").
		Find(&userBadges).Error; err != nil {
		return nil, err
	}
	if len(userBadges) == 0 {
		return []map[string]interface{}{}, nil
	}

	codes := make([]string, 0, len(userBadges))
	for _, ub := range userBadges {
		codes = append(codes, ub.BadgeCode)
	}
	var defs []models.BadgeDefinition
	if err := s.DB.Where("code IN ?", codes).Find(&defs).Error; err != nil {
		return nil, err
	}
	byCode := make(map[string]models.BadgeDefinition, len(defs))
	for _, d := range defs {
		byCode[d.Code] = d
	}

	out := make([]map[string]interface{}, 0, len(userBadges))
	for _, ub := range userBadges {
		def := byCode[ub.BadgeCode]
		out = append(out, map[string]interface{}{
			"id":          ub.ID,
			"code":        ub.BadgeCode,
			"name":        def.Name,
			"description": def.Description,
			"icon_url":    def.IconURL,
			"rarity":      def.Rarity,
			"xp_reward":   def.XPReward,
			"earned_at":   ub.EarnedAt,
		})
	}
	return out, nil
}
