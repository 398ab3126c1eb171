package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/trishank991/penbotai-sub000/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultXPRewards define per-action XP values (tunable via config/env later).
// Actions with 0 are only ever awarded with an explicit CustomXP override.
var DefaultXPRewards = map[models.ActionType]int64{
	models.ActionPromptAnalyze:      10,
	models.ActionDisclosureGenerate: 15,
	models.ActionAuditComplete:      20,
	models.ActionAuditImprove:       15,
	models.ActionResearchQuery:      5,
	models.ActionPaperSave:          5,
	models.ActionGrammarCheck:       5,
	models.ActionHighScore:          25,
	models.ActionDailyChallenge:     0,
	models.ActionStreakBonus:        0,
	models.ActionBadgeEarned:        0,
	models.ActionAdminGrant:         0,
}

var (
	ErrUnknownAction    = errors.New("unknown action")
	ErrScoreOutOfRange  = errors.New("score must be between 0 and 100")
	ErrUnknownScoreKind = errors.New("unknown score kind")
)

// AwardOptions tune a single AwardXP call. The Skip flags exist to suppress
// re-entrant award loops: badge-earned and challenge XP must not themselves
// re-trigger streak or badge evaluation.
type AwardOptions struct {
	CustomXP      *int64
	SkipBadges    bool
	SkipStreak    bool
	Description   string
	ReferenceType string
	ReferenceID   string
	Context       *BadgeContext
}

// AwardResult summarizes everything a single award changed.
type AwardResult struct {
	XPAwarded     int64         `json:"xp_awarded"` // includes streak bonus
	TotalXP       int64         `json:"total_xp"`
	PreviousLevel int           `json:"previous_level"`
	NewLevel      int           `json:"new_level"`
	LeveledUp     bool          `json:"leveled_up"`
	NewBadges     []string      `json:"new_badges"`
	StreakUpdate  *StreakUpdate `json:"streak_update,omitempty"`
}

// HighScoreResult reports the outcome of an UpdateHighScore call.
type HighScoreResult struct {
	IsNewHighScore    bool `json:"is_new_high_score"`
	PreviousHighScore int  `json:"previous_high_score"`
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// EnsureProgressRecord ensures a UserProgress row exists (idempotent).
// Concurrent first-actions race through ON CONFLICT DO NOTHING.
func (s *ProgressionService) EnsureProgressRecord(externalUserID string) (*models.UserProgress, error) {
	prog := models.UserProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Level:          1,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&prog).Error; err != nil {
		return nil, fmt.Errorf("create progress record for %s: %w", externalUserID, err)
	}

	var current models.UserProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&current).Error; err != nil {
		return nil, fmt.Errorf("load progress record for %s: %w", externalUserID, err)
	}
	return &current, nil
}

// AwardXP is the single mutation entry point for XP. It atomically increments
// the aggregate, appends a ledger entry, advances the streak and evaluates
// badges — each step its own atomic statement, so concurrent awards interleave
// safely without locking the row for the whole call.
func (s *ProgressionService) AwardXP(externalUserID string, action models.ActionType, opts *AwardOptions) (*AwardResult, error) {
	if opts == nil {
		opts = &AwardOptions{}
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	xp := DefaultXPRewards[action]
	if opts.CustomXP != nil {
		xp = *opts.CustomXP
	}
	if xp < 0 {
		return nil, fmt.Errorf("xp amount must not be negative, got %d", xp)
	}

	prog, err := s.EnsureProgressRecord(externalUserID)
	if err != nil {
		return nil, err
	}

	result := &AwardResult{
		XPAwarded:     xp,
		PreviousLevel: prog.Level,
		NewBadges:     []string{},
	}

	if err := s.applyIncrement(externalUserID, action, xp, opts.Description, opts.ReferenceType, opts.ReferenceID); err != nil {
		return nil, err
	}

	// Streak continuation. Its bonus is a second, separate ledger entry so the
	// ledger stays an exact per-event log. Failures here never revoke the XP
	// already committed above.
	if !opts.SkipStreak {
		streak, err := s.advanceStreak(externalUserID, prog)
		if err != nil {
			log.Printf("⚠️ streak update failed for %s: %v", externalUserID, err)
		} else {
			if streak.BonusXP > 0 {
				desc := fmt.Sprintf("%d-day streak", streak.CurrentStreak)
				if err := s.applyIncrement(externalUserID, models.ActionStreakBonus, streak.BonusXP, desc, "streak", ""); err != nil {
					log.Printf("⚠️ streak bonus payout failed for %s: %v", externalUserID, err)
					streak.BonusXP = 0
				} else {
					result.XPAwarded += streak.BonusXP
				}
			}
			result.StreakUpdate = streak
		}
	}

	// Badge evaluation reads post-update state. A failure here is retried on
	// the next qualifying action, not treated as lost.
	if !opts.SkipBadges {
		badgeSvc := NewBadgeService(s.DB)
		newBadges, err := badgeSvc.EvaluateBadges(externalUserID, action, opts.Context)
		if err != nil {
			log.Printf("⚠️ badge evaluation failed for %s: %v", externalUserID, err)
		}
		for _, b := range newBadges {
			result.NewBadges = append(result.NewBadges, b.Code)
		}
	}

	final, err := s.EnsureProgressRecord(externalUserID)
	if err != nil {
		return nil, err
	}
	result.TotalXP = final.TotalXP
	result.NewLevel = final.Level
	result.LeveledUp = final.Level > result.PreviousLevel

	log.Printf("🎓 XP awarded: %s → +%d (action=%s, total=%d, lvl=%d)",
		externalUserID, result.XPAwarded, action, result.TotalXP, result.NewLevel)

	return result, nil
}

// applyIncrement is the only XP mutation primitive: a single atomic
// "add N to field" UPDATE plus a ledger append. Never read-modify-write.
func (s *ProgressionService) applyIncrement(externalUserID string, action models.ActionType, xp int64, description, refType, refID string) error {
	updates := map[string]interface{}{}
	if xp > 0 {
		updates["total_xp"] = gorm.Expr("total_xp + ?", xp)
	}
	if col := action.CounterColumn(); col != "" {
		updates[col] = gorm.Expr(col + " + 1")
	}
	if len(updates) > 0 {
		res := s.DB.Model(&models.UserProgress{}).
			Where("external_user_id = ?", externalUserID).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("increment progress for %s: %w", externalUserID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("progress record not found for %s", externalUserID)
		}
	}

	if err := s.recomputeLevel(externalUserID); err != nil {
		return err
	}

	if xp > 0 {
		txn := models.XPTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Action:         action,
			XPAmount:       xp,
			Description:    description,
			ReferenceType:  refType,
			ReferenceID:    refID,
		}
		if err := s.DB.Create(&txn).Error; err != nil {
			return fmt.Errorf("append xp transaction for %s: %w", externalUserID, err)
		}
	}
	return nil
}

// recomputeLevel re-derives level from the stored total and persists it only
// on change. Level is monotone because TotalXP is, so the guarded UPDATE is
// race-safe without a transaction.
func (s *ProgressionService) recomputeLevel(externalUserID string) error {
	var row models.UserProgress
	if err := s.DB.Select("total_xp").
		Where("external_user_id = ?", externalUserID).
		First(&row).Error; err != nil {
		return fmt.Errorf("read total xp for %s: %w", externalUserID, err)
	}

	newLevel := models.LevelForXP(row.TotalXP)
	now := time.Now().UTC()
	res := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ? AND level < ?", externalUserID, newLevel).
		Updates(map[string]interface{}{"level": newLevel, "last_level_up_at": now})
	if res.Error != nil {
		return fmt.Errorf("update level for %s: %w", externalUserID, res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("🏅 Level up: %s → lvl %d", externalUserID, newLevel)
	}
	return nil
}

// UpdateHighScore records a lifetime high for the given score kind. The
// update is conditional on the stored value being strictly lower, so replays
// and concurrent submissions settle on the maximum. A new high also awards
// the high_score action.
func (s *ProgressionService) UpdateHighScore(externalUserID string, kind models.ScoreKind, score int) (*HighScoreResult, error) {
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}
	var col string
	switch kind {
	case models.ScorePrompt:
		col = "highest_prompt_score"
	case models.ScoreAudit:
		col = "highest_audit_score"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScoreKind, kind)
	}

	prog, err := s.EnsureProgressRecord(externalUserID)
	if err != nil {
		return nil, err
	}
	previous := prog.HighestPromptScore
	if kind == models.ScoreAudit {
		previous = prog.HighestAuditScore
	}

	res := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ? AND "+col+" < ?", externalUserID, score).
		Update(col, score)
	if res.Error != nil {
		return nil, fmt.Errorf("update high score for %s: %w", externalUserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &HighScoreResult{IsNewHighScore: false, PreviousHighScore: previous}, nil
	}

	opts := &AwardOptions{
		Description:   fmt.Sprintf("new %s high score: %d", kind, score),
		ReferenceType: "score",
		ReferenceID:   string(kind),
		Context: &BadgeContext{
			Score:       int64(score),
			ScoreKind:   kind,
			Improvement: int64(score - previous),
		},
	}
	if _, err := s.AwardXP(externalUserID, models.ActionHighScore, opts); err != nil {
		log.Printf("⚠️ high score XP award failed for %s: %v", externalUserID, err)
	}

	return &HighScoreResult{IsNewHighScore: true, PreviousHighScore: previous}, nil
}

// GetLedgerHistory returns a page of the user's XP ledger, newest first.
func (s *ProgressionService) GetLedgerHistory(externalUserID string, page, size int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var total int64
	if err := s.DB.Model(&models.XPTransaction{}).
		Where("external_user_id = ?", externalUserID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []models.XPTransaction
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(size).Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return map[string]interface{}{
		"entries":     entries,
		"page":        page,
		"size":        size,
		"total_items": total,
		"total_pages": totalPages,
	}, nil
}
