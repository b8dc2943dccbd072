package calendar

import (
	"time"

	"racecal.simsportsarena.com/internal/models"
)

// CalendarDay is one grid cell. InMonth is false for leading and
// trailing fill days borrowed from adjacent months.
type CalendarDay struct {
	Date    models.Date
	InMonth bool
}

// WeekRow is one visible calendar row of 7 consecutive days.
type WeekRow [7]CalendarDay

func (w WeekRow) First() models.Date { return w[0].Date }
func (w WeekRow) Last() models.Date  { return w[6].Date }

type Grid struct {
	Year  int
	Month time.Month
	Weeks []WeekRow
}

// MonthGrid builds the day grid for a month: previous-month days fill
// the first row up to the month's first weekday, next-month days
// complete the last row. weekStart picks which weekday opens a row.
// Row count is always 4, 5 or 6.
func MonthGrid(year int, month time.Month, weekStart time.Weekday) Grid {
	first := models.NewDate(year, month, 1)
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	rows := (offset + daysInMonth(year, month) + 6) / 7

	day := first.AddDays(-offset)
	weeks := make([]WeekRow, rows)
	for r := range weeks {
		for c := 0; c < 7; c++ {
			weeks[r][c] = CalendarDay{
				Date:    day,
				InMonth: day.Year() == year && day.Month() == month,
			}
			day = day.AddDays(1)
		}
	}

	return Grid{Year: year, Month: month, Weeks: weeks}
}

// AddMonths offsets a (year, month) pair, normalizing across year
// boundaries.
func AddMonths(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
