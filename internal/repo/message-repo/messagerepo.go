package messagerepo

import (
	"context"
	"errors"
	"time"

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

func (r *Repository) Create(ctx context.Context, msg *domain.Message) error {
	query := `
        INSERT INTO messages (sender_id, recipient_id, kind, billing_status, sent_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		msg.SenderID, msg.RecipientID, msg.Kind, msg.BillingStatus, msg.SentAt,
	).Scan(&msg.ID)
	if err != nil {
		zap.L().Error("can't save message", zap.Error(err))
		return err
	}
	return nil
}

// FindLatestUnbilled returns the most recent pending message from sender to
// recipient sent after the cutoff, or nil when the reply is free.
func (r *Repository) FindLatestUnbilled(ctx context.Context, senderID, recipientID int64, since time.Time) (*domain.Message, error) {
	query := `
        SELECT id, sender_id, recipient_id, kind, billing_status, sent_at
        FROM messages
        WHERE sender_id = $1 AND recipient_id = $2 AND billing_status = 'pending' AND sent_at > $3
        ORDER BY sent_at DESC
        LIMIT 1
    `
	row := r.db.QueryRow(ctx, query, senderID, recipientID, since)
	var msg domain.Message
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Kind, &msg.BillingStatus, &msg.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find unbilled message", zap.Error(err))
		return nil, err
	}
	return &msg, nil
}

// MarkBilled transitions a pending message to billed. Returns false if the
// message was already billed by a concurrent reply.
func (r *Repository) MarkBilled(ctx context.Context, messageID int64) (bool, error) {
	query := `
        UPDATE messages
        SET billing_status = 'billed'
        WHERE id = $1 AND billing_status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query, messageID)
	if err != nil {
		zap.L().Error("failed to mark message billed", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID int64) ([]domain.Message, error) {
	query := `
        SELECT id, sender_id, recipient_id, kind, billing_status, sent_at
        FROM messages
        WHERE sender_id = $1 OR recipient_id = $1
        ORDER BY sent_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch messages", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Kind, &msg.BillingStatus, &msg.SentAt)
		if err != nil {
			zap.L().Error("failed to scan message row", zap.Error(err))
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
