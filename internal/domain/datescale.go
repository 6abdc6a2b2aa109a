package domain

import (
	"fmt"
	"time"
)

// DateFormat is the calendar-day format used throughout the snapshot.
const DateFormat = "2006-01-02"

// DailyDateScale returns the inclusive sequence of UTC calendar days from
// start to end, formatted as YYYY-MM-DD. The result always has at least one
// entry and is strictly increasing with no gaps.
func DailyDateScale(startDate, endDate string) ([]string, error) {
	start, err := time.ParseInLocation(DateFormat, startDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation(DateFormat, endDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	scale := make([]string, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		scale = append(scale, d.Format(DateFormat))
	}
	return scale, nil
}
