package calendar

import "time"

// DayCell is one grid position: a date, or padding outside the month.
type DayCell struct {
	date  Date
	valid bool
}

func Cell(d Date) DayCell {
	return DayCell{date: d, valid: true}
}

// Empty reports whether the cell is alignment padding.
func (c DayCell) Empty() bool {
	return !c.valid
}

// Date returns the cell's date and false for padding.
func (c DayCell) Date() (Date, bool) {
	return c.date, c.valid
}

// Week is a row of the month grid, Sunday first.
type Week [7]DayCell

// BuildMonth lays out a month as Sunday-first week rows. The first row is
// padded with one empty cell per weekday before day 1 and the final row is
// padded to seven cells.
func BuildMonth(year int, month time.Month) []Week {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()
	days := DaysIn(year, month)

	var rows []Week
	var row Week
	col := int(first.Weekday())
	for day := 1; day <= days; day++ {
		row[col] = Cell(Date{Year: year, Month: month, Day: day})
		col++
		if col == 7 {
			rows = append(rows, row)
			row = Week{}
			col = 0
		}
	}
	if col > 0 {
		rows = append(rows, row)
	}
	return rows
}

// WeekOf returns the Sunday..Saturday dates of the week containing d.
func WeekOf(d Date) [7]Date {
	start := d.AddDays(-int(d.Weekday()))
	var out [7]Date
	for i := range out {
		out[i] = start.AddDays(i)
	}
	return out
}

// Weekdays are the column headers of the grid.
var Weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func IsWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
