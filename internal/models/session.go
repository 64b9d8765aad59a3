package models

import "fmt"

// Session names a trading window within which raw bars are included for
// aggregation. TAIFEX index futures trade a day session (08:45-13:45, early
// close 13:30 on settlement days) and a night session (15:00-05:00 next day).
type Session string

const (
	SessionDay   Session = "day"
	SessionNight Session = "night"
	SessionFull  Session = "full" // union of day and night
)

// ParseSession converts a request parameter into a Session.
func ParseSession(s string) (Session, error) {
	switch Session(s) {
	case SessionDay, SessionNight, SessionFull:
		return Session(s), nil
	}
	return "", fmt.Errorf("unknown session %q (want day, night or full)", s)
}

// IncludesDay reports whether the session covers the day window.
func (s Session) IncludesDay() bool {
	return s == SessionDay || s == SessionFull
}

// IncludesNight reports whether the session covers the night window.
func (s Session) IncludesNight() bool {
	return s == SessionNight || s == SessionFull
}
