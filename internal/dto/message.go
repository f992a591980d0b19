package dto

import "time"

type SendMessageRequestDTO struct {
	RecipientID int64  `json:"recipient_id" example:"7"`
	Kind        string `json:"kind" example:"text"`
}

type MessageResponseDTO struct {
	ID             int64     `json:"id" example:"301"`
	SenderID       int64     `json:"sender_id" example:"5"`
	RecipientID    int64     `json:"recipient_id" example:"7"`
	Kind           string    `json:"kind" example:"text"`
	BillingStatus  string    `json:"billing_status" example:"pending"`
	SentAt         time.Time `json:"sent_at" example:"2024-06-09T16:09:57+03:00"`
	ChargedCredits int64     `json:"charged_credits,omitempty" example:"1"`
}
