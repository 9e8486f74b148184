package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompletionRecord holds one user's progress on one content unit. The
// unique index makes at most one row per (user, unit); CompletedAt is nil
// while the unit is in progress and set exactly once on completion.
type CompletionRecord struct {
	gorm.Model
	UserID               uint `gorm:"not null;uniqueIndex:idx_user_unit"`
	ContentUnitID        uint `gorm:"not null;uniqueIndex:idx_user_unit"`
	StartedAt            time.Time
	CompletedAt          *time.Time
	TimeSpentSeconds     int `gorm:"not null;default:0"`
	CompletionPercentage float64
	CoinsAwarded         int64
	CompletionMethod     string // "time_tracked", "manual"
	CompletionData       datatypes.JSON
}

func (r *CompletionRecord) IsCompleted() bool {
	return r.CompletedAt != nil
}

// WeekProgress caches one user's aggregate over a week's required units.
// IsUnlocked is monotonic: once true it never goes back to false, even if
// completion data later regresses.
type WeekProgress struct {
	gorm.Model
	UserID               uint `gorm:"not null;uniqueIndex:idx_user_week"`
	WeekID               uint `gorm:"not null;uniqueIndex:idx_user_week"`
	CohortID             uint `gorm:"index"`
	CompletionPercentage float64
	IsUnlocked           bool `gorm:"default:false"`
	UnlockedAt           *time.Time
}
