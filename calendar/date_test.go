package calendar

import (
	"testing"
	"time"
)

func TestDate_KeyAndParse(t *testing.T) {
	d := NewDate(2026, time.March, 5)
	if d.Key() != "2026-03-05" {
		t.Fatalf("unexpected key %q", d.Key())
	}
	parsed, err := ParseDate("2026-03-05")
	if err != nil || parsed != d {
		t.Fatalf("ParseDate = %v, %v", parsed, err)
	}
	if _, err := ParseDate("2026-02-30"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestDate_AddMonthsClamps(t *testing.T) {
	tests := []struct {
		from Date
		n    int
		want Date
	}{
		{NewDate(2026, time.January, 31), 1, NewDate(2026, time.February, 28)},
		{NewDate(2026, time.March, 31), 1, NewDate(2026, time.April, 30)},
		{NewDate(2026, time.December, 15), 1, NewDate(2027, time.January, 15)},
		{NewDate(2026, time.May, 31), -3, NewDate(2026, time.February, 28)},
	}
	for _, tt := range tests {
		if got := tt.from.AddMonths(tt.n); got != tt.want {
			t.Fatalf("%s + %d months: expected %s, got %s", tt.from, tt.n, tt.want, got)
		}
	}
}

func TestNewDate_Normalizes(t *testing.T) {
	if got := NewDate(2026, time.Month(13), 1); got != NewDate(2027, time.January, 1) {
		t.Fatalf("unexpected normalization %s", got)
	}
}
