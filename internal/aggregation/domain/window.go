package domain

import (
	"time"
)

// averageMonth is the month length used for trailing windows: 365/12 days.
const averageMonth = time.Duration(365 * 24 * float64(time.Hour) / 12)

// Window is an inclusive date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// TrailingWindow spans months average months ending at ref. With offset the whole
// window is shifted back one average month, giving the comparison period.
func TrailingWindow(ref time.Time, months int, offset bool) Window {
	end := truncateDay(ref)
	if offset {
		end = end.Add(-averageMonth)
	}
	start := end.Add(-time.Duration(months) * averageMonth)
	return Window{Start: truncateDay(start), End: truncateDay(end)}
}

// MonthKey identifies one calendar month in a series.
type MonthKey struct {
	Year  int
	Month time.Month
}

func (k MonthKey) Label() string {
	return k.Month.String()[:3]
}

func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

func MonthOf(t time.Time) MonthKey {
	t = t.UTC()
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// TrailingMonths returns the n calendar months ending with ref's month, oldest first.
func TrailingMonths(ref time.Time, n int) []MonthKey {
	if n <= 0 {
		return nil
	}
	first := MonthOf(ref).Start().AddDate(0, -(n - 1), 0)
	out := make([]MonthKey, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, MonthOf(first.AddDate(0, i, 0)))
	}
	return out
}

// MonthlyWindow covers the months returned by TrailingMonths, up to ref itself.
func MonthlyWindow(ref time.Time, n int) Window {
	months := TrailingMonths(ref, n)
	if len(months) == 0 {
		day := truncateDay(ref)
		return Window{Start: day, End: day}
	}
	return Window{Start: months[0].Start(), End: truncateDay(ref)}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
