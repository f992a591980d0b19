package reservationrepo

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

func (r *Repository) Create(ctx context.Context, reservation *domain.CreditReservation) error {
	query := `
        INSERT INTO credit_reservations (session_id, user_id, amount, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		reservation.SessionID, reservation.UserID, reservation.Amount, reservation.Status,
	).Scan(&reservation.ID, &reservation.CreatedAt)
	if err != nil {
		zap.L().Error("can't save reservation", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindBySessionID(ctx context.Context, sessionID int64) (*domain.CreditReservation, error) {
	query := `
        SELECT id, session_id, user_id, amount, status, charged_credits, refunded_credits, created_at, resolved_at
        FROM credit_reservations
        WHERE session_id = $1
    `
	row := r.db.QueryRow(ctx, query, sessionID)
	var res domain.CreditReservation
	err := row.Scan(&res.ID, &res.SessionID, &res.UserID, &res.Amount, &res.Status, &res.ChargedCredits, &res.RefundedCredits, &res.CreatedAt, &res.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find reservation", zap.Error(err))
		return nil, err
	}
	return &res, nil
}

// Resolve transitions an active reservation to a terminal status. Exactly
// one caller wins the transition; everyone else gets applied=false and
// must read back the terminal row.
func (r *Repository) Resolve(ctx context.Context, sessionID int64, status domain.ReservationStatus, chargedCredits, refundedCredits int64) (*domain.CreditReservation, bool, error) {
	query := `
        UPDATE credit_reservations
        SET status = $1, charged_credits = $2, refunded_credits = $3, resolved_at = now()
        WHERE session_id = $4 AND status = 'active'
        RETURNING id, session_id, user_id, amount, status, charged_credits, refunded_credits, created_at, resolved_at
    `
	row := r.db.QueryRow(ctx, query, status, chargedCredits, refundedCredits, sessionID)
	var res domain.CreditReservation
	err := row.Scan(&res.ID, &res.SessionID, &res.UserID, &res.Amount, &res.Status, &res.ChargedCredits, &res.RefundedCredits, &res.CreatedAt, &res.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		zap.L().Error("failed to resolve reservation", zap.Error(err))
		return nil, false, err
	}
	return &res, true, nil
}
