package dto

import "time"

type ScheduleSessionRequestDTO struct {
	PayeeID          int64 `json:"payee_id" example:"7"`
	ScheduledMinutes int64 `json:"scheduled_minutes" example:"30"`
	PerMinuteRate    int64 `json:"per_minute_rate" example:"1"`
}

type SessionResponseDTO struct {
	ID               int64  `json:"id" example:"11"`
	PayerID          int64  `json:"payer_id" example:"5"`
	PayeeID          int64  `json:"payee_id" example:"7"`
	ScheduledMinutes int64  `json:"scheduled_minutes" example:"30"`
	PerMinuteRate    int64  `json:"per_minute_rate" example:"1"`
	ReservedCredits  int64  `json:"reserved_credits" example:"30"`
	RoomURL          string `json:"room_url,omitempty" example:"https://rooms.example.com/session-11"`
}

type CompleteSessionRequestDTO struct {
	ActualMinutes int64 `json:"actual_minutes" example:"10"`
}

type ReservationResponseDTO struct {
	SessionID       int64      `json:"session_id" example:"11"`
	Amount          int64      `json:"amount" example:"30"`
	Status          string     `json:"status" example:"charged"`
	ChargedCredits  int64      `json:"charged_credits" example:"10"`
	RefundedCredits int64      `json:"refunded_credits" example:"20"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" example:"2024-06-09T16:09:57+03:00"`
}

type RoomResponseDTO struct {
	RoomURL string `json:"room_url" example:"https://rooms.example.com/session-11"`
	Token   string `json:"token,omitempty" example:"eyJhbGciOi..."`
}
