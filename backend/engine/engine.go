// Package engine implements the progression rules: time-tracked completion
// eligibility per content unit, week completion aggregation, the coin
// ledger, and the week unlock evaluator. All mutations are scoped to a
// single user's own rows; cross-user contention does not exist by
// construction.
package engine

import (
	"time"

	"gorm.io/gorm"

	"coursebox/backend/logger"
)

type Engine struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Engine {
	return &Engine{db: db, log: log.With("component", "engine")}
}

// TrackTimeResult is the server's answer to a heartbeat. The client-local
// timer is advisory only and reconciles to TimeSpentSeconds.
type TrackTimeResult struct {
	TimeSpentSeconds        int  `json:"time_spent_seconds"`
	IsEligibleForCompletion bool `json:"is_eligible_for_completion"`
	TimeRemainingSeconds    int  `json:"time_remaining_seconds"`
	MinTimeRequiredSeconds  int  `json:"min_time_required_seconds"`
	IsCompleted             bool `json:"is_completed"`
}

type CompleteResult struct {
	CoinsAwarded             int64   `json:"coins_awarded"`
	NewBalance               int64   `json:"new_balance"`
	WeekCompletionPercentage float64 `json:"week_completion_percentage"`
	AlreadyCompleted         bool    `json:"already_completed"`
}

// LockReasons reports which unlock conditions failed and by how much.
type LockReasons struct {
	Codes                    []string `json:"codes"`
	CompletionPercentShortBy float64  `json:"completion_percent_short_by,omitempty"`
	CoinsShortBy             int64    `json:"coins_short_by,omitempty"`
}

type UnlockResult struct {
	IsUnlocked      bool         `json:"is_unlocked"`
	UnlockedAt      *time.Time   `json:"unlocked_at,omitempty"`
	ReasonsIfLocked *LockReasons `json:"reasons_if_locked,omitempty"`
}

// BalanceCheck compares the cached balance row against the ledger sum.
type BalanceCheck struct {
	CachedBalance int64 `json:"cached_balance"`
	LedgerBalance int64 `json:"ledger_balance"`
	Consistent    bool  `json:"consistent"`
}
