package services

import (
	"errors"
	"math"
	"time"

	"github.com/trishank991/penbotai-sub000/models"

	"gorm.io/gorm"
)

// RecentActivityLimit caps the ledger slice embedded in a dashboard snapshot.
var RecentActivityLimit = 10

// DashboardSnapshot is the read-only aggregation handed to the UI. It never
// mutates progression state beyond lazily creating the aggregate row.
type DashboardSnapshot struct {
	Progress        *models.UserProgress     `json:"progress"`
	Profile         *models.StudentProfile   `json:"profile,omitempty"`
	CurrentLevel    models.LevelDefinition   `json:"current_level"`
	NextLevel       *models.LevelDefinition  `json:"next_level,omitempty"`
	XPToNextLevel   int64                    `json:"xp_to_next_level"`
	ProgressPercent int                      `json:"progress_percent"`
	RecentActivity  []models.XPTransaction   `json:"recent_activity"`
	Badges          []map[string]interface{} `json:"badges"`
	Challenges      []ChallengeStatus        `json:"challenges"`
}

type DashboardService struct {
	DB *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{DB: db}
}

// GetDashboard assembles the user-facing snapshot: level position, recent
// ledger entries, earned badges and today's challenges. Pure read — the
// authoritative increment path stays in ProgressionService.
func (s *DashboardService) GetDashboard(externalUserID string) (*DashboardSnapshot, error) {
	prog, err := NewProgressionService(s.DB).EnsureProgressRecord(externalUserID)
	if err != nil {
		return nil, err
	}

	current, _ := models.LevelAt(prog.Level)
	snapshot := &DashboardSnapshot{
		Progress:     prog,
		CurrentLevel: current,
	}

	if next, ok := models.LevelAt(prog.Level + 1); ok {
		snapshot.NextLevel = &next
		snapshot.XPToNextLevel = next.XPThreshold - prog.TotalXP
		span := next.XPThreshold - current.XPThreshold
		pct := int(math.Round(100 * float64(prog.TotalXP-current.XPThreshold) / float64(span)))
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
		snapshot.ProgressPercent = pct
	} else {
		// max level: nothing further to earn toward
		snapshot.XPToNextLevel = 0
		snapshot.ProgressPercent = 100
	}

	var profile models.StudentProfile
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&profile).Error; err == nil {
		snapshot.Profile = &profile
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(RecentActivityLimit).
		Find(&snapshot.RecentActivity).Error; err != nil {
		return nil, err
	}

	badges, err := NewBadgeService(s.DB).ListUserBadges(externalUserID)
	if err != nil {
		return nil, err
	}
	snapshot.Badges = badges

	challenges, err := NewChallengeService(s.DB).UserChallengeStatuses(externalUserID, time.Now())
	if err != nil {
		return nil, err
	}
	snapshot.Challenges = challenges

	return snapshot, nil
}
