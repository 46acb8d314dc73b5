package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"buskport-cli/model"
)

const (
	providerSnippetMax = 120
	earthRadiusKM      = 6371.0
)

// Position is an approximate user position.
type Position struct {
	Lat     float64
	Lng     float64
	City    string
	Region  string
	Country string
	Source  string
}

// Label renders "City, Region (source)" with whichever parts are known.
func (p Position) Label() string {
	var parts []string
	for _, part := range []string{p.City, p.Region, p.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	label := strings.Join(parts, ", ")
	if label == "" {
		label = fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lng)
	}
	if p.Source != "" {
		label += " (" + p.Source + ")"
	}
	return label
}

// geoProvider is a public IP geolocation endpoint. All supported providers
// answer with a flat JSON object that geoAnswer understands.
type geoProvider struct {
	name     string
	endpoint string
}

var defaultGeoProviders = []geoProvider{
	{name: "ipapi", endpoint: "https://ipapi.co/json/"},
	{name: "ipwhois", endpoint: "https://ipwho.is/"},
	{name: "ipinfo", endpoint: "https://ipinfo.io/json"},
}

// Locator resolves the user's position from public IP geolocation services.
type Locator struct {
	httpClient *http.Client
	providers  []geoProvider
	logger     *zap.Logger
}

func NewLocator(httpClient *http.Client, logger *zap.Logger) *Locator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{httpClient: httpClient, providers: defaultGeoProviders, logger: logger}
}

// Locate tries each provider in order and returns the first usable answer.
func (l *Locator) Locate(ctx context.Context) (Position, error) {
	if len(l.providers) == 0 {
		return Position{}, errors.New("no location providers configured")
	}

	var failures []string
	for _, provider := range l.providers {
		pos, err := l.ask(ctx, provider)
		if err == nil {
			return pos, nil
		}
		if ctx.Err() != nil {
			return Position{}, ctx.Err()
		}
		l.logger.Debug("location provider failed", zap.String("provider", provider.name), zap.Error(err))
		failures = append(failures, provider.name+": "+err.Error())
	}
	return Position{}, fmt.Errorf("all location providers failed (%s)", strings.Join(failures, " | "))
}

func (l *Locator) ask(ctx context.Context, provider geoProvider) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.endpoint, nil)
	if err != nil {
		return Position{}, fmt.Errorf("create location request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	res, err := l.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("location request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return Position{}, fmt.Errorf("read location response: %w", err)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		if reason := plainReason(body); reason != "" {
			return Position{}, fmt.Errorf("%s: %s", res.Status, reason)
		}
		return Position{}, errors.New(res.Status)
	}

	pos, err := decodePosition(body)
	if err != nil {
		return Position{}, err
	}
	pos.Source = provider.name
	return pos, nil
}

// geoAnswer is the union of the provider payloads. ipapi reports failures
// as error=true with a reason, ipwhois as success=false with a message and
// ipinfo as an error object or a bogon flag. ipinfo packs coordinates into
// loc as "lat,lng".
type geoAnswer struct {
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	Loc         string          `json:"loc"`
	City        string          `json:"city"`
	Region      string          `json:"region"`
	Country     string          `json:"country"`
	CountryName string          `json:"country_name"`
	Success     *bool           `json:"success"`
	Bogon       bool            `json:"bogon"`
	Error       json.RawMessage `json:"error"`
	Reason      string          `json:"reason"`
	Message     string          `json:"message"`
}

func (a geoAnswer) failure() string {
	switch {
	case a.Bogon:
		return "bogon IP"
	case a.Success != nil && !*a.Success:
		return firstNonEmpty(a.Message, "provider returned unsuccessful response")
	}
	raw := strings.TrimSpace(string(a.Error))
	if raw == "" || raw == "null" || raw == "false" {
		return ""
	}
	var detail struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(a.Error, &detail) == nil && detail.Message != "" {
		return detail.Message
	}
	return firstNonEmpty(a.Reason, "unknown error")
}

func (a geoAnswer) coordinates() (float64, float64, error) {
	if a.Latitude != nil && a.Longitude != nil {
		return *a.Latitude, *a.Longitude, nil
	}
	lat, lng, ok := strings.Cut(a.Loc, ",")
	if !ok {
		return 0, 0, errors.New("provider returned no coordinates")
	}
	latValue, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude: %w", err)
	}
	lngValue, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude: %w", err)
	}
	return latValue, lngValue, nil
}

func decodePosition(body []byte) (Position, error) {
	var answer geoAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		return Position{}, fmt.Errorf("decode location response: %w", err)
	}
	if reason := answer.failure(); reason != "" {
		return Position{}, errors.New(reason)
	}
	lat, lng, err := answer.coordinates()
	if err != nil {
		return Position{}, err
	}
	if lat == 0 && lng == 0 {
		return Position{}, errors.New("provider returned empty coordinates")
	}
	return Position{
		Lat:     lat,
		Lng:     lng,
		City:    answer.City,
		Region:  answer.Region,
		Country: firstNonEmpty(answer.CountryName, answer.Country),
	}, nil
}

// plainReason returns a one-line excerpt of an error body, or "" for HTML
// block pages.
func plainReason(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if strings.HasPrefix(strings.ToLower(text), "<") {
		return ""
	}
	if len(text) > providerSnippetMax {
		text = text[:providerSnippetMax]
	}
	return text
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// DistanceKM is the great-circle distance between two coordinates.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// VenueDistance pairs a venue with its distance from a position. Known is
// false when the venue has no coordinates.
type VenueDistance struct {
	Venue model.Location
	KM    float64
	Known bool
}

// ByDistance orders venues nearest first; venues without coordinates keep
// their listing order at the end.
func ByDistance(venues []model.Location, from Position) []VenueDistance {
	out := make([]VenueDistance, 0, len(venues))
	for _, v := range venues {
		d := VenueDistance{Venue: v}
		if v.Lat != nil && v.Lng != nil {
			d.KM = DistanceKM(from.Lat, from.Lng, *v.Lat, *v.Lng)
			d.Known = true
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Known != out[j].Known {
			return out[i].Known
		}
		if !out[i].Known {
			return false
		}
		return out[i].KM < out[j].KM
	})
	return out
}
