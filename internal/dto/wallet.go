package dto

import "time"

type WalletResponseDTO struct {
	CreditBalance int64 `json:"credit_balance" example:"150"`
	EarningsCents int64 `json:"earnings_cents" example:"6500"`
}

type TransactionResponseDTO struct {
	ID            int64     `json:"id" example:"42"`
	Type          string    `json:"type" example:"purchase"`
	CreditsDelta  int64     `json:"credits_delta" example:"100"`
	USDCentsDelta int64     `json:"usd_cents_delta" example:"1000"`
	ExternalRef   string    `json:"external_ref,omitempty" example:"pay_8GvX2a"`
	Status        string    `json:"status" example:"completed"`
	Description   string    `json:"description,omitempty" example:"credit pack purchase"`
	CreatedAt     time.Time `json:"created_at" example:"2024-06-09T16:09:57+03:00"`
}

type CheckoutRequestDTO struct {
	ProductID string `json:"product_id" example:"pack_100"`
	Credits   int64  `json:"credits" example:"100"`
}

type CheckoutResponseDTO struct {
	SessionID string `json:"session_id" example:"cs_a1b2c3"`
	URL       string `json:"url" example:"https://pay.example.com/cs_a1b2c3"`
}
