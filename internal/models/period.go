package models

import "fmt"

// Period is the target bar interval for resampling. 1m bars are read
// verbatim from storage; every other period is aggregated from 1m bars.
type Period string

const (
	Period1m  Period = "1m"
	Period5m  Period = "5m"
	Period15m Period = "15m"
	Period30m Period = "30m"
	Period60m Period = "60m"
	Period1d  Period = "1d"
)

// ParsePeriod converts a request parameter into a Period.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Period1m, Period5m, Period15m, Period30m, Period60m, Period1d:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q (want 1m, 5m, 15m, 30m, 60m or 1d)", s)
}

// Minutes returns the bucket length in minutes for sub-daily periods,
// and 0 for the daily period.
func (p Period) Minutes() int {
	switch p {
	case Period1m:
		return 1
	case Period5m:
		return 5
	case Period15m:
		return 15
	case Period30m:
		return 30
	case Period60m:
		return 60
	}
	return 0
}

// IsIntraday reports whether the period buckets within a trading day.
func (p Period) IsIntraday() bool {
	return p != Period1d
}
