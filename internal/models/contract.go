package models

import "time"

// Contract represents a futures contract whose 1-minute bars this service
// ingests and serves, e.g. TXF (near month) or TXFR1 (continuous).
type Contract struct {
	Code      string    `json:"code"`
	Name      string    `json:"name,omitempty"`
	Enabled   bool      `json:"enabled"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
