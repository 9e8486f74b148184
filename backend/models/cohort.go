package models

import (
	"time"

	"gorm.io/gorm"
)

type Cohort struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	StartDate   *time.Time
	Weeks       []Week
}

// LockPolicy is the drip configuration attached to a week. It is read-only
// input to the unlock evaluator; nothing per-user lives here.
type LockPolicy struct {
	LockedByDefault          bool    `json:"locked_by_default" gorm:"default:true"`
	MinCompletionPercent     float64 `json:"min_completion_percent"`
	MinCoinsToUnlockNextWeek int64   `json:"min_coins_to_unlock_next_week"`
	// DeadlineAt is informational only; the evaluator never gates on it.
	DeadlineAt *time.Time `json:"deadline_at"`
}

type Week struct {
	gorm.Model
	CohortID uint `gorm:"not null;uniqueIndex:idx_cohort_week_number"`
	Number   int  `gorm:"not null;uniqueIndex:idx_cohort_week_number"`
	Title    string
	// IsFree weeks are always unlocked, regardless of policy.
	IsFree     bool       `gorm:"default:false"`
	LockPolicy LockPolicy `gorm:"embedded;embeddedPrefix:policy_"`
	Units      []ContentUnit
}

// Content unit kinds.
const (
	UnitTopic       = "topic"
	UnitLessonBlock = "lesson_block"
	UnitQuiz        = "quiz"
	UnitAssignment  = "assignment"
	UnitLiveClass   = "live_class"
)

// ContentUnit is any trackable item inside a week: topic, lesson block,
// quiz, assignment or live class.
type ContentUnit struct {
	gorm.Model
	WeekID        uint   `gorm:"not null;index"`
	Kind          string `gorm:"not null;default:topic"`
	Title         string `gorm:"not null"`
	SequenceOrder int
	// IsOptional units do not count toward week completion.
	IsOptional             bool  `gorm:"default:false"`
	MinTimeRequiredSeconds int   `gorm:"default:0"`
	CoinReward             int64 `gorm:"default:0"`
}
