// Package export writes performances as an iCalendar feed.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"buskport-cli/model"
)

const (
	productID = "-//BuskPort//buskport-cli//EN"
	// DefaultDuration is used for every event; the API only stores a start time.
	DefaultDuration = time.Hour
)

// Options control calendar metadata.
type Options struct {
	Name     string
	Location *time.Location
	Now      time.Time
}

// Calendar builds a VCALENDAR with one VEVENT per performance. Performances
// whose datetime cannot be parsed are skipped and counted.
func Calendar(perfs []model.Performance, venues []model.Location, opts Options) (*ical.Calendar, int) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	byID := make(map[int]model.Location, len(venues))
	for _, v := range venues {
		byID[v.LocationId] = v
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if strings.TrimSpace(opts.Name) != "" {
		cal.SetXWRCalName(opts.Name)
	}

	skipped := 0
	for _, p := range perfs {
		start, err := p.StartsAt(loc)
		if err != nil {
			skipped++
			continue
		}
		event := cal.AddEvent(eventUID(p))
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(DefaultDuration))
		event.SetSummary(summary(p))
		if p.LocationId != nil {
			if venue, ok := byID[*p.LocationId]; ok {
				event.SetLocation(venue.DisplayName())
			}
		}
		if desc := description(p); desc != "" {
			event.SetDescription(desc)
		}
		if strings.TrimSpace(p.PromoUrl) != "" {
			event.SetURL(p.PromoUrl)
		}
	}
	return cal, skipped
}

// Write serializes the calendar for perfs to w.
func Write(w io.Writer, perfs []model.Performance, venues []model.Location, opts Options) (int, error) {
	cal, skipped := Calendar(perfs, venues, opts)
	if err := cal.SerializeTo(w); err != nil {
		return skipped, fmt.Errorf("write calendar: %w", err)
	}
	return skipped, nil
}

func eventUID(p model.Performance) string {
	if p.PerformanceId > 0 {
		return fmt.Sprintf("performance-%d@buskport", p.PerformanceId)
	}
	return fmt.Sprintf("performance-%s-%s@buskport", strings.ReplaceAll(p.PerformanceDatetime, ":", ""), strings.ReplaceAll(strings.ToLower(p.Title), " ", "-"))
}

func summary(p model.Performance) string {
	if strings.TrimSpace(p.Title) == "" {
		return "Busking performance"
	}
	return p.Title
}

func description(p model.Performance) string {
	var lines []string
	if s := strings.TrimSpace(p.SongList); s != "" {
		lines = append(lines, "Songs: "+s)
	}
	if positions := p.Positions(); len(positions) > 0 {
		lines = append(lines, "Looking for: "+strings.Join(positions, ", "))
	}
	if s := strings.TrimSpace(p.ChatUrl); s != "" {
		lines = append(lines, "Chat: "+s)
	}
	return strings.Join(lines, "\n")
}
