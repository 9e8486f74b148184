package engine

import "errors"

var (
	ErrInvalidTime    = errors.New("time spent must be a non-negative number of seconds")
	ErrUnitNotFound   = errors.New("content unit not found")
	ErrWeekNotFound   = errors.New("week not found")
	ErrNotEligible    = errors.New("minimum time requirement not met")
	ErrZeroAdjustment = errors.New("adjustment amount must be non-zero")
)

// Reason codes attached to a LOCKED evaluation. Evaluation itself never
// fails on the read path; data problems fail closed with one of these.
const (
	ReasonMissingPrerequisite = "missing_prerequisite"
	ReasonCompletionShort     = "completion_percent_short_by"
	ReasonCoinsShort          = "coins_short_by"
)
