package sessionrepo

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

func (r *Repository) Create(ctx context.Context, session *domain.Session) error {
	query := `
        INSERT INTO sessions (payer_id, payee_id, scheduled_minutes, per_minute_rate)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		session.PayerID, session.PayeeID, session.ScheduledMinutes, session.PerMinuteRate,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		zap.L().Error("can't save session", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, sessionID int64) (*domain.Session, error) {
	query := `
        SELECT id, payer_id, payee_id, scheduled_minutes, per_minute_rate, room_url, created_at
        FROM sessions
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, sessionID)
	var s domain.Session
	err := row.Scan(&s.ID, &s.PayerID, &s.PayeeID, &s.ScheduledMinutes, &s.PerMinuteRate, &s.RoomURL, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find session", zap.Error(err))
		return nil, err
	}
	return &s, nil
}

// ClaimRoom writes the claim sentinel only if no room value exists yet.
// The winner of a concurrent race gets true; losers get false and read
// back the winner's result.
func (r *Repository) ClaimRoom(ctx context.Context, sessionID int64, sentinel string) (bool, error) {
	query := `
        UPDATE sessions
        SET room_url = $1
        WHERE id = $2 AND room_url IS NULL
    `
	tag, err := r.db.Exec(ctx, query, sentinel, sessionID)
	if err != nil {
		zap.L().Error("failed to claim session room", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) SetRoomURL(ctx context.Context, sessionID int64, roomURL string) error {
	query := `
        UPDATE sessions
        SET room_url = $1
        WHERE id = $2
    `
	_, err := r.db.Exec(ctx, query, roomURL, sessionID)
	if err != nil {
		zap.L().Error("failed to set session room url", zap.Error(err))
		return err
	}
	return nil
}

// ReleaseRoomClaim clears the sentinel so another caller can retry the
// room creation. Only removes the claim if it still holds the sentinel.
func (r *Repository) ReleaseRoomClaim(ctx context.Context, sessionID int64, sentinel string) error {
	query := `
        UPDATE sessions
        SET room_url = NULL
        WHERE id = $1 AND room_url = $2
    `
	_, err := r.db.Exec(ctx, query, sessionID, sentinel)
	if err != nil {
		zap.L().Error("failed to release session room claim", zap.Error(err))
		return err
	}
	return nil
}
