package market

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCalendarUnavailable wraps workday-source failures. Callers must treat it
// as "unknown", never as "not a settlement day": guessing wrong corrupts the
// last 15 minutes of every affected day's aggregation.
var ErrCalendarUnavailable = errors.New("market calendar unavailable")

// rollForwardLimit bounds the holiday rollover scan for a settlement date.
// TAIFEX has never closed for two straight weeks; past this we refuse to guess.
const rollForwardLimit = 14

// WorkdaySource reports whether a date is a market workday (not a weekend and
// not an exchange holiday). Implementations may read an external holiday
// table and must return an error when that table cannot be consulted.
type WorkdaySource interface {
	IsWorkday(date time.Time) (bool, error)
}

// WeekdaysOnly is a WorkdaySource that knows no holidays. It is the fallback
// when no holiday table is configured; settlement dates then never roll.
type WeekdaysOnly struct{}

// IsWorkday reports true for Monday through Friday.
func (WeekdaysOnly) IsWorkday(date time.Time) (bool, error) {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday, nil
}

// Calendar answers settlement-day questions for TAIFEX index futures.
// Results are memoized per Calendar instance, so the memo lives exactly as
// long as one load of the underlying holiday table; callers refresh by
// constructing a new Calendar over the refreshed source.
type Calendar struct {
	workdays WorkdaySource

	mu     sync.Mutex
	settle map[int]time.Time // year*100+month -> settlement date
}

// NewCalendar creates a Calendar over the given workday source.
func NewCalendar(ws WorkdaySource) *Calendar {
	return &Calendar{
		workdays: ws,
		settle:   make(map[int]time.Time),
	}
}

// SettlementDate returns the settlement date for the given month: the third
// Wednesday, rolled forward to the next market workday when that Wednesday
// is not one.
func (c *Calendar) SettlementDate(year int, month time.Month) (time.Time, error) {
	key := year*100 + int(month)

	c.mu.Lock()
	d, ok := c.settle[key]
	c.mu.Unlock()
	if ok {
		return d, nil
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysToWed := (int(time.Wednesday) - int(first.Weekday()) + 7) % 7
	settle := first.AddDate(0, 0, daysToWed+14) // third Wednesday

	rolled := 0
	for {
		ok, err := c.workdays.IsWorkday(settle)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: checking workday %s: %v",
				ErrCalendarUnavailable, settle.Format("2006-01-02"), err)
		}
		if ok {
			break
		}
		settle = settle.AddDate(0, 0, 1)
		rolled++
		if rolled > rollForwardLimit {
			return time.Time{}, fmt.Errorf("no workday within %d days of the third Wednesday of %d-%02d",
				rollForwardLimit, year, month)
		}
	}

	c.mu.Lock()
	c.settle[key] = settle
	c.mu.Unlock()
	return settle, nil
}

// IsSettlementDay reports whether the given date is the monthly settlement
// day (third Wednesday, holiday-rolled).
func (c *Calendar) IsSettlementDay(date time.Time) (bool, error) {
	settle, err := c.SettlementDate(date.Year(), date.Month())
	if err != nil {
		return false, err
	}
	y1, m1, d1 := date.Date()
	y2, m2, d2 := settle.Date()
	return y1 == y2 && m1 == m2 && d1 == d2, nil
}

// DaySessionClose returns the day-session close for the given date:
// 13:30 on settlement days, 13:45 otherwise.
func (c *Calendar) DaySessionClose(date time.Time) (time.Time, error) {
	settle, err := c.IsSettlementDay(date)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	if settle {
		return time.Date(y, m, d, 13, 30, 0, 0, date.Location()), nil
	}
	return time.Date(y, m, d, 13, 45, 0, 0, date.Location()), nil
}
