package database

import (
	"fmt"
	"time"
)

// Holiday represents one exchange holiday in the market_holidays table.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name,omitempty"`
}

// AddHoliday records an exchange holiday. Loading a refreshed holiday table
// is a sequence of AddHoliday/DeleteHoliday calls; settlement calendars built
// before the refresh keep their memoized view until rebuilt.
func (db *DB) AddHoliday(h *Holiday) error {
	query := `
		INSERT INTO market_holidays (holiday_date, name)
		VALUES ($1, $2)
		ON CONFLICT (holiday_date) DO UPDATE SET name = EXCLUDED.name
	`
	_, err := db.conn.Exec(query, h.Date, h.Name)
	if err != nil {
		return fmt.Errorf("failed to add holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes an exchange holiday
func (db *DB) DeleteHoliday(date time.Time) error {
	_, err := db.conn.Exec(`DELETE FROM market_holidays WHERE holiday_date = $1`, date)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

// GetHolidaysByYear retrieves all exchange holidays in a calendar year
func (db *DB) GetHolidaysByYear(year int) ([]*Holiday, error) {
	query := `
		SELECT holiday_date, name
		FROM market_holidays
		WHERE holiday_date >= $1 AND holiday_date < $2
		ORDER BY holiday_date ASC
	`
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	rows, err := db.conn.Query(query, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}
	defer rows.Close()

	var holidays []*Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, &h)
	}
	return holidays, nil
}

// IsWorkday reports whether date is a market workday: a weekday that is not
// in market_holidays. A database failure is returned as an error, never as a
// guess, so the settlement calendar fails closed (market.WorkdaySource).
func (db *DB) IsWorkday(date time.Time) (bool, error) {
	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false, nil
	}

	query := `SELECT EXISTS(SELECT 1 FROM market_holidays WHERE holiday_date = $1)`
	var holiday bool
	y, m, d := date.Date()
	err := db.conn.QueryRow(query, time.Date(y, m, d, 0, 0, 0, 0, time.UTC)).Scan(&holiday)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday table: %w", err)
	}
	return !holiday, nil
}
