package reservation

import (
	"fmt"
	"strings"
	"time"

	"buskport-cli/model"
	"buskport-cli/service"
)

// FieldError reports the first required reservation field that is missing or
// invalid. It matches service.ErrValidation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Is(target error) bool {
	return target == service.ErrValidation
}

// Form is the reservation form state.
type Form struct {
	TeamName   string
	SongList   string
	LocationId int
	Date       string
	Slots      SlotSelector

	positions []string
}

// TogglePosition adds or removes a role, keeping toggle order.
func (f *Form) TogglePosition(position string) {
	for i, p := range f.positions {
		if p == position {
			f.positions = append(f.positions[:i:i], f.positions[i+1:]...)
			return
		}
	}
	f.positions = append(f.positions, position)
}

func (f *Form) HasPosition(position string) bool {
	for _, p := range f.positions {
		if p == position {
			return true
		}
	}
	return false
}

func (f *Form) Positions() []string {
	out := make([]string, len(f.positions))
	copy(out, f.positions)
	return out
}

// Validate checks required fields in the order the form presents them.
func (f *Form) Validate() error {
	if strings.TrimSpace(f.TeamName) == "" {
		return &FieldError{Field: "team name", Message: "Please enter a team name."}
	}
	if f.LocationId <= 0 {
		return &FieldError{Field: "location", Message: "Please select a location."}
	}
	if strings.TrimSpace(f.Date) == "" {
		return &FieldError{Field: "date", Message: "Please select a date."}
	}
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(f.Date)); err != nil {
		return &FieldError{Field: "date", Message: "Date must be in YYYY-MM-DD format."}
	}
	if f.Slots.Len() == 0 {
		return &FieldError{Field: "time", Message: fmt.Sprintf("Please select up to %d time slots.", MaxSlots)}
	}
	return nil
}

// Request builds the booking payload. The timestamp is the local date joined
// with the start of the earliest selected slot.
func (f *Form) Request() (model.Performance, error) {
	if err := f.Validate(); err != nil {
		return model.Performance{}, err
	}
	start, _ := f.Slots.Start()
	at, err := time.Parse(time.DateOnly+"T15:04", strings.TrimSpace(f.Date)+"T"+start)
	if err != nil {
		return model.Performance{}, &FieldError{Field: "time", Message: "Invalid time slot " + start + "."}
	}
	locationID := f.LocationId
	return model.Performance{
		Title:               strings.TrimSpace(f.TeamName),
		SongList:            strings.TrimSpace(f.SongList),
		PerformanceDatetime: at.Format(model.DateTimeLayout),
		RequiredPositions:   model.EncodePositions(f.positions),
		Status:              model.StatusScheduled,
		LocationId:          &locationID,
	}, nil
}

// Reset clears every field after a successful submission.
func (f *Form) Reset() {
	*f = Form{}
}
