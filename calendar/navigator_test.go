package calendar

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNavigator_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		start ViewState
		step  func(*Navigator)
		want  ViewState
	}{
		{
			name:  "month next",
			start: ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.January, 15)},
			step:  (*Navigator).Next,
			want:  ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.February, 15)},
		},
		{
			name:  "week next",
			start: ViewState{Mode: ModeWeek, Reference: NewDate(2026, time.January, 15)},
			step:  (*Navigator).Next,
			want:  ViewState{Mode: ModeWeek, Reference: NewDate(2026, time.January, 22)},
		},
		{
			name:  "day next crosses month",
			start: ViewState{Mode: ModeDay, Reference: NewDate(2026, time.January, 31)},
			step:  (*Navigator).Next,
			want:  ViewState{Mode: ModeDay, Reference: NewDate(2026, time.February, 1)},
		},
		{
			name:  "month next clamps to february end",
			start: ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.January, 31)},
			step:  (*Navigator).Next,
			want:  ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.February, 28)},
		},
		{
			name:  "month prev clamps to leap day",
			start: ViewState{Mode: ModeMonth, Reference: NewDate(2024, time.March, 31)},
			step:  (*Navigator).Prev,
			want:  ViewState{Mode: ModeMonth, Reference: NewDate(2024, time.February, 29)},
		},
		{
			name:  "month prev crosses year",
			start: ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.January, 10)},
			step:  (*Navigator).Prev,
			want:  ViewState{Mode: ModeMonth, Reference: NewDate(2025, time.December, 10)},
		},
		{
			name:  "week prev crosses year",
			start: ViewState{Mode: ModeWeek, Reference: NewDate(2026, time.January, 3)},
			step:  (*Navigator).Prev,
			want:  ViewState{Mode: ModeWeek, Reference: NewDate(2025, time.December, 27)},
		},
		{
			name:  "day prev",
			start: ViewState{Mode: ModeDay, Reference: NewDate(2026, time.March, 1)},
			step:  (*Navigator).Prev,
			want:  ViewState{Mode: ModeDay, Reference: NewDate(2026, time.February, 28)},
		},
		{
			name:  "today keeps mode",
			start: ViewState{Mode: ModeWeek, Reference: NewDate(2020, time.May, 5)},
			step:  (*Navigator).Today,
			want:  ViewState{Mode: ModeWeek, Reference: NewDate(2026, time.October, 19)},
		},
	}

	clock := fixedClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := NewNavigatorAt(tt.start, clock)
			tt.step(nav)
			if got := nav.State(); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestNavigator_InitialState(t *testing.T) {
	nav := NewNavigator(fixedClock(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)))
	want := ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.October, 19)}
	if nav.State() != want {
		t.Fatalf("expected %+v, got %+v", want, nav.State())
	}
}

func TestNavigator_SetModeKeepsReference(t *testing.T) {
	nav := NewNavigatorAt(ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.March, 10)}, nil)
	nav.SetMode(ModeDay)
	if nav.Reference() != NewDate(2026, time.March, 10) || nav.Mode() != ModeDay {
		t.Fatalf("unexpected state %+v", nav.State())
	}
}

func TestNavigator_NeedsFetch(t *testing.T) {
	nav := NewNavigatorAt(ViewState{Mode: ModeMonth, Reference: NewDate(2026, time.March, 10)}, nil)
	loaded := nav.VisibleRange()
	if loaded.Start != NewDate(2026, time.March, 1) || loaded.End != NewDate(2026, time.March, 31) {
		t.Fatalf("unexpected range %+v", loaded)
	}

	nav.SetMode(ModeWeek)
	if nav.NeedsFetch(loaded) {
		t.Fatal("switching mode must not require a fetch")
	}
	nav.Next()
	if nav.NeedsFetch(loaded) {
		t.Fatal("week inside the loaded month must not require a fetch")
	}
	nav.Next()
	nav.Next()
	nav.Next()
	if !nav.NeedsFetch(loaded) {
		t.Fatalf("expected fetch after leaving March, reference %s", nav.Reference())
	}
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]Mode{"month": ModeMonth, "WEEK": ModeWeek, " day ": ModeDay} {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseMode("year"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestFetchTracker_LatestWins(t *testing.T) {
	var tracker FetchTracker
	first := tracker.Begin()
	second := tracker.Begin()
	if tracker.Current(first) {
		t.Fatal("stale generation must be rejected")
	}
	if !tracker.Current(second) {
		t.Fatal("latest generation must be accepted")
	}
}
