package transactionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lumeva/creditcore/internal/domain"
	"github.com/lumeva/creditcore/internal/pg"
	"go.uber.org/zap"
)

// ErrDuplicateRef reports that an in-flight or completed transaction with
// the same (external_ref, type) pair already exists. Callers treat this as
// a dedup success signal, not a failure.
var ErrDuplicateRef = errors.New("transaction with this external reference already exists")

const uniqueViolationCode = "23505"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
        INSERT INTO transactions (user_id, type, credits_delta, usd_cents_delta, external_ref, status, description)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		tx.UserID, tx.Type, tx.CreditsDelta, tx.USDCentsDelta, tx.ExternalRef, tx.Status, tx.Description,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateRef
		}
		zap.L().Error("can't save transaction", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByExternalRef(ctx context.Context, externalRef string, txType domain.TransactionType) (*domain.Transaction, error) {
	query := `
        SELECT id, user_id, type, credits_delta, usd_cents_delta, external_ref, status, description, created_at, updated_at
        FROM transactions
        WHERE external_ref = $1 AND type = $2 AND status IN ('processing', 'completed')
        ORDER BY created_at DESC
        LIMIT 1
    `
	row := r.db.QueryRow(ctx, query, externalRef, txType)
	var tx domain.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.CreditsDelta, &tx.USDCentsDelta, &tx.ExternalRef, &tx.Status, &tx.Description, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find transaction by external ref", zap.Error(err))
		return nil, err
	}
	return &tx, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus) error {
	query := `
        UPDATE transactions
        SET status = $1, updated_at = $2
        WHERE id = $3
    `
	_, err := r.db.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		zap.L().Error("failed to update transaction status", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	query := `
        SELECT id, user_id, type, credits_delta, usd_cents_delta, external_ref, status, description, created_at, updated_at
        FROM transactions
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.CreditsDelta, &tx.USDCentsDelta, &tx.ExternalRef, &tx.Status, &tx.Description, &tx.CreatedAt, &tx.UpdatedAt)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}
