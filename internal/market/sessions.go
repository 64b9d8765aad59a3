package market

import "time"

// TAIFEX session boundaries in local market time. The day session opens at
// 08:45 and closes at 13:45 (13:30 on settlement days, see DaySessionClose).
// The night session opens at 15:00 and runs to 05:00 the next morning.
const (
	DayOpenHour    = 8
	DayOpenMinute  = 45
	NightOpenHour  = 15
	NightCloseHour = 5
)

// DayOpen returns the day-session open (08:45) on the given date.
func DayOpen(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, DayOpenHour, DayOpenMinute, 0, 0, date.Location())
}

// NightOpen returns the night-session open (15:00) on the given date. The
// session continues past midnight into the next calendar date but belongs,
// as a trading day, to this one.
func NightOpen(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, NightOpenHour, 0, 0, 0, date.Location())
}

// InNightWindow reports whether the clock time of t falls in the night
// session window [15:00, 24:00) or [00:00, 05:00).
func InNightWindow(t time.Time) bool {
	h := t.Hour()
	return h >= NightOpenHour || h < NightCloseHour
}

// AfterMidnight reports whether a night-session timestamp is in the
// after-midnight half of its session.
func AfterMidnight(t time.Time) bool {
	return t.Hour() < NightCloseHour
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
