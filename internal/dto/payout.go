package dto

type PayoutRunRequestDTO struct {
	// RunID lets a scheduler retry a run idempotently; empty means a
	// fresh run.
	RunID string `json:"run_id,omitempty" example:"f2c1e6d8-0b7a-4f8e-9c31-5a2d7b9e4f10"`
}

type PayoutRunResponseDTO struct {
	RunID       string `json:"run_id" example:"f2c1e6d8-0b7a-4f8e-9c31-5a2d7b9e4f10"`
	Eligible    int    `json:"eligible" example:"12"`
	Transferred int    `json:"transferred" example:"10"`
	Skipped     int    `json:"skipped" example:"1"`
	Failed      int    `json:"failed" example:"1"`
}
