// Package reservation holds the booking form state: time-slot selection,
// positions, and construction of the booking request.
package reservation

import (
	"sort"
	"strings"
)

// MaxSlots is the number of hours a team may book per day.
const MaxSlots = 2

// TimeSlots are the bookable one-hour slots. Labels sort chronologically.
var TimeSlots = []string{
	"09:00-10:00", "10:00-11:00", "11:00-12:00", "12:00-13:00", "13:00-14:00",
	"14:00-15:00", "15:00-16:00", "16:00-17:00", "17:00-18:00", "18:00-19:00", "19:00-20:00",
}

// SlotSelector is the sorted set of chosen slots, at most MaxSlots long.
type SlotSelector struct {
	selected []string
}

// Toggle removes slot if selected, otherwise adds it unless the selection is
// already full. A full selection ignores new slots.
func (s *SlotSelector) Toggle(slot string) {
	for i, existing := range s.selected {
		if existing == slot {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return
		}
	}
	if len(s.selected) >= MaxSlots {
		return
	}
	s.selected = append(s.selected, slot)
	sort.Strings(s.selected)
}

// Selected returns a copy of the selection in ascending order.
func (s *SlotSelector) Selected() []string {
	out := make([]string, len(s.selected))
	copy(out, s.selected)
	return out
}

func (s *SlotSelector) Contains(slot string) bool {
	for _, existing := range s.selected {
		if existing == slot {
			return true
		}
	}
	return false
}

func (s *SlotSelector) Len() int {
	return len(s.selected)
}

// Full reports whether further slots would be ignored.
func (s *SlotSelector) Full() bool {
	return len(s.selected) >= MaxSlots
}

func (s *SlotSelector) Clear() {
	s.selected = nil
}

// Start is the start boundary (HH:MM) of the earliest selected slot.
func (s *SlotSelector) Start() (string, bool) {
	if len(s.selected) == 0 {
		return "", false
	}
	return SlotStart(s.selected[0]), true
}

// SlotStart returns the part of a slot label before the dash.
func SlotStart(slot string) string {
	start, _, _ := strings.Cut(slot, "-")
	return strings.TrimSpace(start)
}
