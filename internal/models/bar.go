package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one OHLCV record for a fixed time interval.
// Raw bars are 1-minute bars read from storage; derived bars are computed
// by the resample engine on read and are never persisted. Timestamps are
// local market time (Asia/Taipei) at minute resolution.
type Bar struct {
	ID        int             `json:"id,omitempty"`
	Code      string          `json:"code"`
	TS        time.Time       `json:"ts"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// Validate checks the internal consistency of a bar: low <= open,close <= high
// and a non-negative volume. Bars failing this check must not be aggregated.
func (b *Bar) Validate() error {
	if b.TS.IsZero() {
		return fmt.Errorf("bar has zero timestamp")
	}
	if b.High.LessThan(b.Low) {
		return fmt.Errorf("bar at %s: high %s below low %s", b.TS.Format(time.RFC3339), b.High, b.Low)
	}
	if b.Open.LessThan(b.Low) || b.Open.GreaterThan(b.High) {
		return fmt.Errorf("bar at %s: open %s outside [%s, %s]", b.TS.Format(time.RFC3339), b.Open, b.Low, b.High)
	}
	if b.Close.LessThan(b.Low) || b.Close.GreaterThan(b.High) {
		return fmt.Errorf("bar at %s: close %s outside [%s, %s]", b.TS.Format(time.RFC3339), b.Close, b.Low, b.High)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar at %s: negative volume %d", b.TS.Format(time.RFC3339), b.Volume)
	}
	return nil
}
