package domain

import "time"

type Wallet struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	CreditBalance   int64     `db:"credit_balance"`
	EarningsCents   int64     `db:"earnings_cents"`
	PayoutAccountID *string   `db:"payout_account_id"`
	PayoutEnabled   bool      `db:"payout_enabled"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// TransactionType is the business reason for a ledger-affecting event.
type TransactionType string

const (
	TxPurchase      TransactionType = "purchase"
	TxSpend         TransactionType = "spend"
	TxEarning       TransactionType = "earning"
	TxRefund        TransactionType = "refund"
	TxPayout        TransactionType = "payout"
	TxVolleyCharge  TransactionType = "volley_charge"
	TxPartialRefund TransactionType = "partial_refund"
)

type TransactionStatus string

const (
	TxStatusPending    TransactionStatus = "pending"
	TxStatusProcessing TransactionStatus = "processing"
	TxStatusCompleted  TransactionStatus = "completed"
	TxStatusFailed     TransactionStatus = "failed"
)

type Transaction struct {
	ID            int64             `db:"id"`
	UserID        int64             `db:"user_id"`
	Type          TransactionType   `db:"type"`
	CreditsDelta  int64             `db:"credits_delta"`
	USDCentsDelta int64             `db:"usd_cents_delta"`
	ExternalRef   string            `db:"external_ref"`
	Status        TransactionStatus `db:"status"`
	Description   string            `db:"description"`
	CreatedAt     time.Time         `db:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationCharged  ReservationStatus = "charged"
	ReservationReleased ReservationStatus = "released"
)

type CreditReservation struct {
	ID              int64             `db:"id"`
	SessionID       int64             `db:"session_id"`
	UserID          int64             `db:"user_id"`
	Amount          int64             `db:"amount"`
	Status          ReservationStatus `db:"status"`
	ChargedCredits  int64             `db:"charged_credits"`
	RefundedCredits int64             `db:"refunded_credits"`
	CreatedAt       time.Time         `db:"created_at"`
	ResolvedAt      *time.Time        `db:"resolved_at"`
}

type Session struct {
	ID               int64     `db:"id"`
	PayerID          int64     `db:"payer_id"`
	PayeeID          int64     `db:"payee_id"`
	ScheduledMinutes int64     `db:"scheduled_minutes"`
	PerMinuteRate    int64     `db:"per_minute_rate"`
	RoomURL          *string   `db:"room_url"`
	CreatedAt        time.Time `db:"created_at"`
}

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageMedia MessageKind = "media"
)

type BillingStatus string

const (
	BillingPending BillingStatus = "pending"
	BillingBilled  BillingStatus = "billed"
	BillingFree    BillingStatus = "free"
)

type Message struct {
	ID            int64         `db:"id"`
	SenderID      int64         `db:"sender_id"`
	RecipientID   int64         `db:"recipient_id"`
	Kind          MessageKind   `db:"kind"`
	BillingStatus BillingStatus `db:"billing_status"`
	SentAt        time.Time     `db:"sent_at"`
}

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

type PayoutRecord struct {
	ID                 int64        `db:"id"`
	RunID              string       `db:"run_id"`
	UserID             int64        `db:"user_id"`
	AmountCents        int64        `db:"amount_cents"`
	Status             PayoutStatus `db:"status"`
	ExternalTransferID string       `db:"external_transfer_id"`
	IdempotencyKey     string       `db:"idempotency_key"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

type LedgerEntry struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	CreditsDelta  int64     `db:"credits_delta"`
	USDCentsDelta int64     `db:"usd_cents_delta"`
	Reference     string    `db:"reference"`
	Description   string    `db:"description"`
	CreatedAt     time.Time `db:"created_at"`
}
