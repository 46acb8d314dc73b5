package model

import (
	"sort"
	"strings"
)

type Location struct {
	LocationId  int      `json:"locationId"`
	NameEn      string   `json:"nameEn"`
	NameKo      string   `json:"nameKo"`
	Address     string   `json:"address"`
	AddressEng  string   `json:"addressEng,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	ColorCode   string   `json:"colorCode,omitempty"`
	SortOrder   *int     `json:"sortOrder,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"reviewCount,omitempty"`
}

// DisplayName returns "nameKo (nameEn)", or whichever of the two is set.
func (l Location) DisplayName() string {
	ko := strings.TrimSpace(l.NameKo)
	en := strings.TrimSpace(l.NameEn)
	switch {
	case ko != "" && en != "":
		return ko + " (" + en + ")"
	case ko != "":
		return ko
	default:
		return en
	}
}

// DisplayAddress prefers the English address when present.
func (l Location) DisplayAddress() string {
	if strings.TrimSpace(l.AddressEng) != "" {
		return l.AddressEng
	}
	return l.Address
}

// Order is the position of the venue in listings: sortOrder when set, else its id.
func (l Location) Order() int {
	if l.SortOrder != nil {
		return *l.SortOrder
	}
	return l.LocationId
}

// SortLocations orders venues by Order, then by id.
func SortLocations(locations []Location) {
	sort.SliceStable(locations, func(i, j int) bool {
		if locations[i].Order() != locations[j].Order() {
			return locations[i].Order() < locations[j].Order()
		}
		return locations[i].LocationId < locations[j].LocationId
	})
}

// FilterLocations matches English name and address case-insensitively and the
// Korean name as a plain substring. An empty query returns the input unchanged.
func FilterLocations(locations []Location, query string) []Location {
	q := strings.TrimSpace(query)
	if q == "" {
		return locations
	}
	lower := strings.ToLower(q)
	var out []Location
	for _, loc := range locations {
		if strings.Contains(strings.ToLower(loc.NameEn), lower) ||
			strings.Contains(loc.NameKo, q) ||
			strings.Contains(strings.ToLower(loc.Address), lower) ||
			strings.Contains(strings.ToLower(loc.AddressEng), lower) {
			out = append(out, loc)
		}
	}
	return out
}
