package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"` // user, admin
}

// Enrollment ties a student to a cohort. One row per (user, cohort).
type Enrollment struct {
	gorm.Model
	UserID   uint   `gorm:"not null;uniqueIndex:idx_user_cohort"`
	CohortID uint   `gorm:"not null;uniqueIndex:idx_user_cohort"`
	Status   string `gorm:"default:active"` // active, dropped
}

// UserActivity is the notification/audit feed written on completion,
// unlock and coin-adjustment events.
type UserActivity struct {
	gorm.Model
	UserID      uint   `gorm:"index"`
	ActionType  string // "unit_completed", "week_unlocked", "coins_adjusted"
	TargetID    uint   // content unit or week ID
	TargetTitle string
	Detail      string
}
