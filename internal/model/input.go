package model

import (
	"encoding/json"
	"time"
)

// SavedInput is the last form state of one calculator
type SavedInput struct {
	Calculator string          `json:"calculator"`
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ClearInputsResponse reports how many saved inputs were removed
type ClearInputsResponse struct {
	Removed int64 `json:"removed"`
}
