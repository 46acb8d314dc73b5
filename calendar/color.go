package calendar

import "strings"

// Color is the display color tag of a venue.
type Color int

const (
	ColorYellow Color = iota
	ColorGreen
	ColorRed
	ColorBlue
	ColorPurple
	ColorOrange
)

// DefaultColor is used for events whose venue is unknown or has no usable tag.
const DefaultColor = ColorYellow

var colorNames = map[string]Color{
	"yellow": ColorYellow,
	"green":  ColorGreen,
	"red":    ColorRed,
	"blue":   ColorBlue,
	"purple": ColorPurple,
	"orange": ColorOrange,
}

// ParseColor maps a venue colorCode to a Color. Unrecognised tags return
// DefaultColor and false.
func ParseColor(tag string) (Color, bool) {
	c, ok := colorNames[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return DefaultColor, false
	}
	return c, true
}

func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "green"
	case ColorRed:
		return "red"
	case ColorBlue:
		return "blue"
	case ColorPurple:
		return "purple"
	case ColorOrange:
		return "orange"
	default:
		return "yellow"
	}
}
