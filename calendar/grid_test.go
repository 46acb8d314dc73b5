package calendar

import (
	"testing"
	"time"
)

func TestBuildMonth_RowsAreFullAndDaysInOrder(t *testing.T) {
	for year := 2023; year <= 2027; year++ {
		for month := time.January; month <= time.December; month++ {
			rows := BuildMonth(year, month)
			var days []int
			for _, row := range rows {
				if len(row) != 7 {
					t.Fatalf("%d-%02d: row length %d", year, month, len(row))
				}
				for _, cell := range row {
					if d, ok := cell.Date(); ok {
						if d.Year != year || d.Month != month {
							t.Fatalf("%d-%02d: cell outside month: %s", year, month, d)
						}
						days = append(days, d.Day)
					}
				}
			}
			if len(days) != DaysIn(year, month) {
				t.Fatalf("%d-%02d: expected %d days, got %d", year, month, DaysIn(year, month), len(days))
			}
			for i, day := range days {
				if day != i+1 {
					t.Fatalf("%d-%02d: expected day %d at %d, got %d", year, month, i+1, i, day)
				}
			}
		}
	}
}

func TestBuildMonth_SundayStartHasNoLeadingPadding(t *testing.T) {
	// March 2026 starts on a Sunday.
	rows := BuildMonth(2026, time.March)
	for i, cell := range rows[0] {
		if cell.Empty() {
			t.Fatalf("expected no padding in first row, cell %d empty", i)
		}
	}
	if d, _ := rows[0][0].Date(); d.Day != 1 {
		t.Fatalf("expected day 1 in first cell, got %d", d.Day)
	}
}

func TestBuildMonth_SaturdayEndHasNoTrailingPadding(t *testing.T) {
	// January 2026 ends on a Saturday.
	rows := BuildMonth(2026, time.January)
	last := rows[len(rows)-1]
	for i, cell := range last {
		if cell.Empty() {
			t.Fatalf("expected no padding in last row, cell %d empty", i)
		}
	}
	if d, _ := last[6].Date(); d.Day != 31 {
		t.Fatalf("expected day 31 in last cell, got %d", d.Day)
	}
}

func TestBuildMonth_LeadingPaddingMatchesWeekday(t *testing.T) {
	// October 2026 starts on a Thursday.
	rows := BuildMonth(2026, time.October)
	for i := 0; i < 4; i++ {
		if !rows[0][i].Empty() {
			t.Fatalf("expected padding at %d", i)
		}
	}
	if d, ok := rows[0][4].Date(); !ok || d.Day != 1 {
		t.Fatalf("expected day 1 at column 4, got %+v", rows[0][4])
	}
}

func TestBuildMonth_FebruaryFourRows(t *testing.T) {
	// February 2015 starts on Sunday and has 28 days.
	if rows := BuildMonth(2015, time.February); len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
}

func TestIsToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	if !IsToday(NewDate(2026, time.March, 10), now) {
		t.Fatal("expected 2026-03-10 to be today")
	}
	if IsToday(NewDate(2026, time.March, 11), now) {
		t.Fatal("did not expect 2026-03-11 to be today")
	}
}

func TestWeekOf(t *testing.T) {
	week := WeekOf(NewDate(2026, time.January, 1))
	if week[0] != NewDate(2025, time.December, 28) {
		t.Fatalf("unexpected week start: %s", week[0])
	}
	if week[6] != NewDate(2026, time.January, 3) {
		t.Fatalf("unexpected week end: %s", week[6])
	}
}
