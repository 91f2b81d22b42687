package core

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const civilDateLayout = "2006-01-02"

// CivilDate is a local calendar date ("2006-01-02"), not an instant. Survey
// responses are keyed by the user's local date; ISO formatting means plain
// string comparison orders dates chronologically.
type CivilDate string

// CivilDateOf truncates a time.Time to its calendar date
func CivilDateOf(t time.Time) CivilDate {
	return CivilDate(t.Format(civilDateLayout))
}

// ParseCivilDate parses a "YYYY-MM-DD" string into CivilDate
func ParseCivilDate(s string) (CivilDate, error) {
	if _, err := time.Parse(civilDateLayout, s); err != nil {
		return "", fmt.Errorf("invalid civil date %q: %w", s, err)
	}
	return CivilDate(s), nil
}

// String returns the ISO representation
func (d CivilDate) String() string {
	return string(d)
}

// Time returns midnight UTC of the date (for arithmetic only)
func (d CivilDate) Time() time.Time {
	t, _ := time.Parse(civilDateLayout, string(d))
	return t
}

// AddDays returns the date shifted by n calendar days
func (d CivilDate) AddDays(n int) CivilDate {
	return CivilDateOf(d.Time().AddDate(0, 0, n))
}

// Before returns true if d is chronologically before other
func (d CivilDate) Before(other CivilDate) bool {
	return string(d) < string(other)
}

// IsZero checks if the date is empty
func (d CivilDate) IsZero() bool {
	return d == ""
}

// Scan accepts DATE columns (time.Time from the driver) as well as text
func (d *CivilDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
		return nil
	case time.Time:
		*d = CivilDateOf(v)
		return nil
	case string:
		parsed, err := ParseCivilDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseCivilDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into CivilDate", src)
	}
}

// Value stores the date as its ISO string
func (d CivilDate) Value() (driver.Value, error) {
	return string(d), nil
}
