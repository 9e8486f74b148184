package models

import "gorm.io/gorm"

// Ledger entry source types.
const (
	SourceContentUnit      = "content_unit"
	SourceManualAdjustment = "manual_adjustment"
)

// CoinLedgerEntry is one append-only row per coin-affecting event. Entries
// are never updated or deleted; a user's balance is the running sum.
type CoinLedgerEntry struct {
	gorm.Model
	UserID     uint   `gorm:"not null;index"`
	Amount     int64  `gorm:"not null"` // signed
	SourceType string `gorm:"not null"`
	SourceID   uint
	Reference  string `gorm:"size:36"` // uuid, for external reconciliation
	Detail     string
}

// UserCoinBalance caches the ledger sum per user. The ledger is the source
// of truth; this row is a rebuildable index over it.
type UserCoinBalance struct {
	gorm.Model
	UserID       uint  `gorm:"not null;uniqueIndex"`
	TotalBalance int64 `gorm:"not null;default:0"`
}
