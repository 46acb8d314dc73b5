package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the calendar granularity.
type Mode int

const (
	ModeMonth Mode = iota
	ModeWeek
	ModeDay
)

func (m Mode) String() string {
	switch m {
	case ModeWeek:
		return "week"
	case ModeDay:
		return "day"
	default:
		return "month"
	}
}

// ParseMode accepts "month", "week" or "day" in any case.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "month", "":
		return ModeMonth, nil
	case "week":
		return ModeWeek, nil
	case "day":
		return ModeDay, nil
	default:
		return ModeMonth, fmt.Errorf("unknown view mode %q", raw)
	}
}

// ViewState is the navigator's cursor.
type ViewState struct {
	Mode      Mode
	Reference Date
}

// Range is an inclusive span of days.
type Range struct {
	Start Date
	End   Date
}

func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !r.End.Before(d)
}

func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// MonthRange spans the month containing d.
func MonthRange(d Date) Range {
	return Range{Start: d.FirstOfMonth(), End: d.LastOfMonth()}
}

// Navigator moves the reference date through months, weeks or days.
// Every transition is total; month steps clamp the day to the target month.
type Navigator struct {
	state ViewState
	now   func() time.Time
}

// NewNavigator starts in month mode on today. A nil clock uses time.Now.
func NewNavigator(now func() time.Time) *Navigator {
	if now == nil {
		now = time.Now
	}
	return &Navigator{
		state: ViewState{Mode: ModeMonth, Reference: Today(now())},
		now:   now,
	}
}

// NewNavigatorAt starts from an explicit state.
func NewNavigatorAt(state ViewState, now func() time.Time) *Navigator {
	n := NewNavigator(now)
	n.state = state
	return n
}

func (n *Navigator) State() ViewState {
	return n.state
}

func (n *Navigator) Mode() Mode {
	return n.state.Mode
}

func (n *Navigator) Reference() Date {
	return n.state.Reference
}

func (n *Navigator) SetMode(m Mode) {
	n.state.Mode = m
}

func (n *Navigator) Next() {
	n.step(1)
}

func (n *Navigator) Prev() {
	n.step(-1)
}

func (n *Navigator) Today() {
	n.state.Reference = Today(n.now())
}

// Goto jumps to d keeping the mode.
func (n *Navigator) Goto(d Date) {
	n.state.Reference = d
}

func (n *Navigator) step(dir int) {
	ref := n.state.Reference
	switch n.state.Mode {
	case ModeWeek:
		n.state.Reference = ref.AddDays(7 * dir)
	case ModeDay:
		n.state.Reference = ref.AddDays(dir)
	default:
		n.state.Reference = ref.AddMonths(dir)
	}
}

// VisibleRange is the span of days whose events must be loaded: the whole
// reference month in every mode, so week and day views reuse the month data.
func (n *Navigator) VisibleRange() Range {
	return MonthRange(n.state.Reference)
}

// NeedsFetch reports whether loaded does not cover the reference month.
func (n *Navigator) NeedsFetch(loaded Range) bool {
	return loaded != n.VisibleRange()
}

// Label is the heading shown above the calendar.
func (n *Navigator) Label() string {
	ref := n.state.Reference.Time(time.UTC)
	switch n.state.Mode {
	case ModeWeek:
		week := WeekOf(n.state.Reference)
		first := week[0].Time(time.UTC)
		last := week[6].Time(time.UTC)
		return fmt.Sprintf("%s - %s", first.Format("Jan 2"), last.Format("Jan 2, 2006"))
	case ModeDay:
		return ref.Format("Monday, January 2, 2006")
	default:
		return ref.Format("January 2006")
	}
}
