package calendar

import (
	"time"

	"buskport-cli/model"
)

// VenueColors maps venue id to its display color.
type VenueColors map[int]Color

// ColorsFor builds the venue color lookup. Venues without a recognised color
// tag are left out so lookups fall back to DefaultColor.
func ColorsFor(venues []model.Location) VenueColors {
	colors := make(VenueColors, len(venues))
	for _, v := range venues {
		if c, ok := ParseColor(v.ColorCode); ok {
			colors[v.LocationId] = c
		}
	}
	return colors
}

// Binding is the result of grouping performances by day.
type Binding struct {
	byDate  map[string][]model.Performance
	colors  VenueColors
	names   map[int]string
	Skipped int
}

// Bind groups performances by date key, keeping fetch order within a day,
// and resolves venue colors. Performances with an unparseable datetime are
// counted in Skipped rather than failing the binding.
func Bind(perfs []model.Performance, venues []model.Location, loc *time.Location) Binding {
	b := Binding{
		byDate: make(map[string][]model.Performance),
		colors: ColorsFor(venues),
		names:  make(map[int]string, len(venues)),
	}
	for _, v := range venues {
		b.names[v.LocationId] = v.NameEn
	}
	for _, p := range perfs {
		start, err := p.StartsAt(loc)
		if err != nil {
			b.Skipped++
			continue
		}
		key := DateOf(start).Key()
		b.byDate[key] = append(b.byDate[key], p)
	}
	return b
}

// On returns the performances of d in fetch order.
func (b Binding) On(d Date) []model.Performance {
	return b.byDate[d.Key()]
}

// Count returns the number of bound performances.
func (b Binding) Count() int {
	n := 0
	for _, perfs := range b.byDate {
		n += len(perfs)
	}
	return n
}

// ColorOf resolves the venue color of p, or DefaultColor.
func (b Binding) ColorOf(p model.Performance) Color {
	if p.LocationId == nil {
		return DefaultColor
	}
	if c, ok := b.colors[*p.LocationId]; ok {
		return c
	}
	return DefaultColor
}

// VenueName returns the English venue name of p, or "" when unresolved.
func (b Binding) VenueName(p model.Performance) string {
	if p.LocationId == nil {
		return ""
	}
	return b.names[*p.LocationId]
}
