package payoutrepo

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

// ErrDuplicateKey reports that a payout record with the same idempotency
// key already exists; a retried run treats this as already-in-flight.
var ErrDuplicateKey = errors.New("payout record with this idempotency key already exists")

const uniqueViolationCode = "23505"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, record *domain.PayoutRecord) error {
	query := `
        INSERT INTO payout_records (run_id, user_id, amount_cents, status, idempotency_key)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		record.RunID, record.UserID, record.AmountCents, record.Status, record.IdempotencyKey,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateKey
		}
		zap.L().Error("can't save payout record", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.PayoutRecord, error) {
	query := `
        SELECT id, run_id, user_id, amount_cents, status, external_transfer_id, idempotency_key, created_at, updated_at
        FROM payout_records
        WHERE idempotency_key = $1
    `
	row := r.db.QueryRow(ctx, query, key)
	var record domain.PayoutRecord
	err := row.Scan(&record.ID, &record.RunID, &record.UserID, &record.AmountCents, &record.Status, &record.ExternalTransferID, &record.IdempotencyKey, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find payout record", zap.Error(err))
		return nil, err
	}
	return &record, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.PayoutStatus, externalTransferID string) error {
	query := `
        UPDATE payout_records
        SET status = $1, external_transfer_id = $2, updated_at = $3
        WHERE id = $4
    `
	_, err := r.db.Exec(ctx, query, status, externalTransferID, time.Now(), id)
	if err != nil {
		zap.L().Error("failed to update payout record status", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByRunID(ctx context.Context, runID string) ([]domain.PayoutRecord, error) {
	query := `
        SELECT id, run_id, user_id, amount_cents, status, external_transfer_id, idempotency_key, created_at, updated_at
        FROM payout_records
        WHERE run_id = $1
        ORDER BY created_at ASC
    `
	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		zap.L().Error("failed to fetch payout records", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var records []domain.PayoutRecord
	for rows.Next() {
		var rec domain.PayoutRecord
		err := rows.Scan(&rec.ID, &rec.RunID, &rec.UserID, &rec.AmountCents, &rec.Status, &rec.ExternalTransferID, &rec.IdempotencyKey, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			zap.L().Error("failed to scan payout record row", zap.Error(err))
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
