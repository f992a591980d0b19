package ledgerrepo

import (
	"context"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/pg"
	"go.uber.org/zap"
)

// Repository writes the append-only audit trail. Entries are for
// reconciliation only; balances are never derived from them.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
        INSERT INTO ledger_entries (user_id, credits_delta, usd_cents_delta, reference, description)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		entry.UserID, entry.CreditsDelta, entry.USDCentsDelta, entry.Reference, entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		zap.L().Error("can't save ledger entry", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID int64) ([]domain.LedgerEntry, error) {
	query := `
        SELECT id, user_id, credits_delta, usd_cents_delta, reference, description, created_at
        FROM ledger_entries
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch ledger entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.CreditsDelta, &e.USDCentsDelta, &e.Reference, &e.Description, &e.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan ledger entry row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
