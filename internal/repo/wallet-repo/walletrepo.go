package walletrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	query := `
        SELECT id, user_id, credit_balance, earnings_cents, payout_account_id, payout_enabled, created_at, updated_at
        FROM wallets
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.CreditBalance, &w.EarningsCents, &w.PayoutAccountID, &w.PayoutEnabled, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get wallet", zap.Error(err))
		return nil, err
	}
	return &w, nil
}

// EnsureWallet lazily creates a zero-balance wallet. A concurrent creation
// race resolves to "already exists", which is success.
func (r *Repository) EnsureWallet(ctx context.Context, userID int64) error {
	query := `
        INSERT INTO wallets (user_id, credit_balance, earnings_cents)
        VALUES ($1, 0, 0)
        ON CONFLICT (user_id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to ensure wallet", zap.Error(err))
		return err
	}
	return nil
}

// IncrementCredits applies a server-side atomic delta to the credit
// balance. The guard keeps the balance non-negative; a debit that would
// overdraw applies nothing and returns false.
func (r *Repository) IncrementCredits(ctx context.Context, userID int64, delta int64) (bool, error) {
	query := `
        UPDATE wallets
        SET credit_balance = credit_balance + $1, updated_at = now()
        WHERE user_id = $2 AND credit_balance + $1 >= 0
    `
	tag, err := r.db.Exec(ctx, query, delta, userID)
	if err != nil {
		zap.L().Error("failed to increment credit balance", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementEarnings is the earnings-cents counterpart of IncrementCredits.
func (r *Repository) IncrementEarnings(ctx context.Context, userID int64, deltaCents int64) (bool, error) {
	query := `
        UPDATE wallets
        SET earnings_cents = earnings_cents + $1, updated_at = now()
        WHERE user_id = $2 AND earnings_cents + $1 >= 0
    `
	tag, err := r.db.Exec(ctx, query, deltaCents, userID)
	if err != nil {
		zap.L().Error("failed to increment earnings balance", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompareAndSwapCredits writes target only if the credit balance still
// equals expected. Returns false when another writer got there first.
func (r *Repository) CompareAndSwapCredits(ctx context.Context, userID int64, expected, target int64) (bool, error) {
	query := `
        UPDATE wallets
        SET credit_balance = $1, updated_at = now()
        WHERE user_id = $2 AND credit_balance = $3
    `
	tag, err := r.db.Exec(ctx, query, target, userID, expected)
	if err != nil {
		zap.L().Error("failed to compare-and-swap credit balance", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompareAndSwapEarnings writes target only if the earnings balance still
// equals expected.
func (r *Repository) CompareAndSwapEarnings(ctx context.Context, userID int64, expectedCents, targetCents int64) (bool, error) {
	query := `
        UPDATE wallets
        SET earnings_cents = $1, updated_at = now()
        WHERE user_id = $2 AND earnings_cents = $3
    `
	tag, err := r.db.Exec(ctx, query, targetCents, userID, expectedCents)
	if err != nil {
		zap.L().Error("failed to compare-and-swap earnings balance", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindEligibleForPayout returns wallets whose accrued earnings meet the
// minimum payout threshold.
func (r *Repository) FindEligibleForPayout(ctx context.Context, minCents int64, limit uint32) ([]domain.Wallet, error) {
	query := `
        SELECT id, user_id, credit_balance, earnings_cents, payout_account_id, payout_enabled, created_at, updated_at
        FROM wallets
        WHERE earnings_cents >= $1
        ORDER BY earnings_cents DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, minCents, int(limit))
	if err != nil {
		zap.L().Error("failed to find wallets eligible for payout", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		err := rows.Scan(&w.ID, &w.UserID, &w.CreditBalance, &w.EarningsCents, &w.PayoutAccountID, &w.PayoutEnabled, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			zap.L().Error("failed to scan wallet row", zap.Error(err))
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}
