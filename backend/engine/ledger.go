package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebox/backend/models"
)

// appendLedgerEntry writes one append-only ledger row and bumps the cached
// balance with an atomic in-database increment. Returns the new balance.
// Must be called inside the transaction of the event that earns the coins.
func (e *Engine) appendLedgerEntry(tx *gorm.DB, userID uint, amount int64, sourceType string, sourceID uint, detail string) (int64, error) {
	entry := models.CoinLedgerEntry{
		UserID:     userID,
		Amount:     amount,
		SourceType: sourceType,
		SourceID:   sourceID,
		Reference:  uuid.NewString(),
		Detail:     detail,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}

	bal := models.UserCoinBalance{UserID: userID}
	if err := tx.Where("user_id = ?", userID).FirstOrCreate(&bal).Error; err != nil {
		return 0, err
	}
	err := tx.Model(&models.UserCoinBalance{}).
		Where("user_id = ?", userID).
		Update("total_balance", gorm.Expr("total_balance + ?", amount)).Error
	if err != nil {
		return 0, err
	}

	if err := tx.Where("user_id = ?", userID).First(&bal).Error; err != nil {
		return 0, err
	}
	return bal.TotalBalance, nil
}

func (e *Engine) cachedBalance(tx *gorm.DB, userID uint) (int64, error) {
	var bal models.UserCoinBalance
	err := tx.Where("user_id = ?", userID).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bal.TotalBalance, nil
}

func (e *Engine) ledgerSum(tx *gorm.DB, userID uint) (int64, error) {
	var sum int64
	err := tx.Model(&models.CoinLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

// Balance returns the cached coin balance; a user with no ledger activity
// has balance 0.
func (e *Engine) Balance(ctx context.Context, userID uint) (int64, error) {
	return e.cachedBalance(e.db.WithContext(ctx), userID)
}

// VerifyBalance checks the cached balance row against the ledger sum. The
// ledger is the source of truth; the cache is a rebuildable index.
func (e *Engine) VerifyBalance(ctx context.Context, userID uint) (BalanceCheck, error) {
	db := e.db.WithContext(ctx)
	cached, err := e.cachedBalance(db, userID)
	if err != nil {
		return BalanceCheck{}, err
	}
	ledger, err := e.ledgerSum(db, userID)
	if err != nil {
		return BalanceCheck{}, err
	}
	return BalanceCheck{
		CachedBalance: cached,
		LedgerBalance: ledger,
		Consistent:    cached == ledger,
	}, nil
}

// RebuildBalance recomputes the cache from the ledger sum.
func (e *Engine) RebuildBalance(ctx context.Context, userID uint) (int64, error) {
	var out int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sum, err := e.ledgerSum(tx, userID)
		if err != nil {
			return err
		}
		bal := models.UserCoinBalance{UserID: userID}
		if err := tx.Where("user_id = ?", userID).FirstOrCreate(&bal).Error; err != nil {
			return err
		}
		if err := tx.Model(&bal).Update("total_balance", sum).Error; err != nil {
			return err
		}
		out = sum
		return nil
	})
	return out, err
}

// Adjust appends a signed manual ledger entry (admin surface). Amount may
// be negative; zero is rejected.
func (e *Engine) Adjust(ctx context.Context, userID uint, amount int64, reason string) (int64, error) {
	if amount == 0 {
		return 0, ErrZeroAdjustment
	}
	var balance int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := e.appendLedgerEntry(tx, userID, amount,
			models.SourceManualAdjustment, 0, reason)
		if err != nil {
			return err
		}
		activity := models.UserActivity{
			UserID:     userID,
			ActionType: "coins_adjusted",
			Detail:     reason,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.log.Info("coins adjusted", "user_id", userID, "amount", amount)
	return balance, nil
}
