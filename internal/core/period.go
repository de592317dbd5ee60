package core

import "time"

// BillingPeriod returns the first and last second of the given calendar month in UTC.
func BillingPeriod(year, month int) (start, end time.Time, err error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, ValidationErrorf(ErrInvalidPeriod, "month must be between 1 and 12, got %d", month)
	}
	if year < 2000 || year > 9999 {
		return time.Time{}, time.Time{}, ValidationErrorf(ErrInvalidPeriod, "year %d is out of range", year)
	}
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end, nil
}

// PreviousMonth returns the year and month before t's month.
func PreviousMonth(t time.Time) (year, month int) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

// DueDate returns the calendar date termsDays after issued.
func DueDate(issued time.Time, termsDays int) time.Time {
	d := time.Date(issued.Year(), issued.Month(), issued.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, termsDays)
}
