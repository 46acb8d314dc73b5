package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DateTimeLayout is the local, zone-less timestamp format the API uses for
// performanceDatetime.
const DateTimeLayout = "2006-01-02T15:04:05"

const StatusScheduled = "SCHEDULED"

type Performance struct {
	PerformanceId       int           `json:"performanceId"`
	Organizer           *int          `json:"organizer,omitempty"`
	Title               string        `json:"title"`
	SongList            string        `json:"songList,omitempty"`
	PromoUrl            string        `json:"promoUrl,omitempty"`
	PerformanceDatetime string        `json:"performanceDatetime"`
	RequiredPositions   string        `json:"requiredPositions,omitempty"`
	Status              string        `json:"status,omitempty"`
	ChatUrl             string        `json:"chatUrl,omitempty"`
	LocationId          *int          `json:"locationId,omitempty"`
	Participants        []Participant `json:"participants,omitempty"`
}

type Participant struct {
	ParticipantId int    `json:"participantId"`
	PerformanceId int    `json:"performanceId"`
	UserId        int    `json:"userId"`
	Position      string `json:"position"`
	Status        string `json:"status"`
}

// StartsAt parses performanceDatetime in loc. Timestamps carrying an explicit
// offset are accepted too and converted to loc.
func (p Performance) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw := strings.TrimSpace(p.PerformanceDatetime)
	if raw == "" {
		return time.Time{}, errors.New("performance datetime is empty")
	}
	if t, err := time.ParseInLocation(DateTimeLayout, trimFraction(raw), loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("invalid performance datetime: " + raw)
}

// ClockLabel returns HH:MM of the performance, or "--:--" when unparseable.
func (p Performance) ClockLabel() string {
	raw := strings.TrimSpace(p.PerformanceDatetime)
	if len(raw) >= 16 && raw[10] == 'T' {
		return raw[11:16]
	}
	return "--:--"
}

// Positions decodes the string-encoded position list. Malformed values yield nil.
func (p Performance) Positions() []string {
	if strings.TrimSpace(p.RequiredPositions) == "" {
		return nil
	}
	var positions []string
	if err := json.Unmarshal([]byte(p.RequiredPositions), &positions); err != nil {
		return nil
	}
	return positions
}

// EncodePositions is the inverse of Positions; an empty list encodes to "".
func EncodePositions(positions []string) string {
	if len(positions) == 0 {
		return ""
	}
	payload, err := json.Marshal(positions)
	if err != nil {
		return ""
	}
	return string(payload)
}

func trimFraction(raw string) string {
	if len(raw) > len(DateTimeLayout) && raw[len(DateTimeLayout)] == '.' {
		return raw[:len(DateTimeLayout)]
	}
	return raw
}
