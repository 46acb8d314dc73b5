package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"buskport-cli/calendar"
	"buskport-cli/model"
	"buskport-cli/service"
	"buskport-cli/store"
)

type venuesMsg struct {
	venues []model.Location
	err    error
}

type positionMsg struct {
	position service.Position
	err      error
}

type venueItem struct {
	venue       model.Location
	favorite    bool
	recent      bool
	hasDistance bool
	distanceKM  float64
}

func (v venueItem) Title() string {
	if v.favorite {
		return "★ " + v.venue.DisplayName()
	}
	return v.venue.DisplayName()
}

func (v venueItem) Description() string {
	parts := []string{}
	if v.recent {
		parts = append(parts, "Recent")
	}
	if addr := v.venue.DisplayAddress(); addr != "" {
		parts = append(parts, addr)
	}
	if v.venue.Rating != nil {
		parts = append(parts, fmt.Sprintf("★ %.1f", *v.venue.Rating))
	}
	if v.hasDistance {
		parts = append(parts, fmt.Sprintf("%.1f km", v.distanceKM))
	}
	return strings.Join(parts, " • ")
}

func (v venueItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{v.venue.NameEn, v.venue.NameKo, v.venue.Address, v.venue.AddressEng}, " "))
}

func (m appModel) fetchVenuesCmd(force bool) tea.Cmd {
	client := m.client
	api := m.apiBase()
	ttl := m.venueTTL
	logger := m.logger
	return func() tea.Msg {
		if !force {
			if cached, fresh, err := store.LoadVenueCache(api, ttl); err == nil && fresh && len(cached) > 0 {
				return venuesMsg{venues: cached}
			}
		}
		venues, err := client.GetLocations(context.Background())
		if err != nil {
			return venuesMsg{err: err}
		}
		model.SortLocations(venues)
		if err := store.SaveVenueCache(api, venues); err != nil {
			logger.Debug("save venue cache failed", zap.Error(err))
		}
		return venuesMsg{venues: venues}
	}
}

func (m appModel) locateCmd() tea.Cmd {
	locator := m.locator
	return func() tea.Msg {
		pos, err := locator.Locate(context.Background())
		return positionMsg{position: pos, err: err}
	}
}

func (m appModel) applyVenues(msg venuesMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, errCmd(msg.err)
	}
	m.venues = msg.venues
	favorites, err := store.LoadFavoriteVenues()
	if err != nil {
		m.logger.Warn("load favorites failed", zap.Error(err))
		favorites = map[int]bool{}
	}
	m.favorites = favorites
	m.refreshVenueList()
	m.venueList.Select(0)
	if m.state == stateLoadingVenues {
		m.state = stateVenues
	}
	return m, nil
}

func (m appModel) applyPosition(msg positionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, errCmd(fmt.Errorf("detect location: %w", msg.err))
	}
	m.position = &msg.position
	m.logger.Info("location detected", zap.String("source", msg.position.Source), zap.String("city", msg.position.City))
	m.refreshVenueList()
	m.venueList.Select(0)
	m.state = stateVenues
	return m, nil
}

func (m *appModel) refreshVenueList() {
	recents, _ := store.LoadRecentVenues()
	m.venueList.SetItems(buildVenueItems(m.venues, m.favorites, recents, m.position))
}

func buildVenueItems(venues []model.Location, favorites map[int]bool, recents []store.RecentVenue, position *service.Position) []list.Item {
	recent := make(map[int]bool, len(recents))
	for _, r := range recents {
		recent[r.LocationID] = true
	}

	items := make([]list.Item, 0, len(venues))
	if position != nil {
		for _, d := range service.ByDistance(venues, *position) {
			items = append(items, venueItem{
				venue:       d.Venue,
				favorite:    favorites[d.Venue.LocationId],
				recent:      recent[d.Venue.LocationId],
				hasDistance: d.Known,
				distanceKM:  d.KM,
			})
		}
		return items
	}

	for _, v := range store.FavoritesFirst(venues, favorites) {
		items = append(items, venueItem{
			venue:    v,
			favorite: favorites[v.LocationId],
			recent:   recent[v.LocationId],
		})
	}
	return items
}

func (m appModel) handleVenueKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if m.state == stateVenueDetail {
		switch msg.String() {
		case "o":
			return m, openURLCmd(m.mapURL+url.QueryEscape(m.selectedVenue.Address)), true
		case "b":
			rememberVenue(m.logger, m.selectedVenue)
			next, cmd := m.openReserve(m.nav.Reference(), m.selectedVenue.LocationId)
			return next, cmd, true
		case "f":
			m.toggleFavorite(m.selectedVenue)
			return m, nil, true
		}
		return m, nil, false
	}

	switch msg.String() {
	case "enter":
		item, ok := m.venueList.SelectedItem().(venueItem)
		if !ok {
			return m, nil, true
		}
		m.selectedVenue = item.venue
		rememberVenue(m.logger, item.venue)
		m.state = stateVenueDetail
		return m, nil, true
	case "ctrl+f":
		item, ok := m.venueList.SelectedItem().(venueItem)
		if !ok {
			return m, nil, true
		}
		m.toggleFavorite(item.venue)
		return m, nil, true
	case "ctrl+n":
		m.state = stateLocating
		return m, tea.Batch(m.locateCmd(), m.spinner.Tick), true
	case "ctrl+r":
		m.state = stateLoadingVenues
		return m, tea.Batch(m.fetchVenuesCmd(true), m.spinner.Tick), true
	}
	return m, nil, false
}

func (m *appModel) toggleFavorite(venue model.Location) {
	next := !m.favorites[venue.LocationId]
	if err := store.SetVenueFavorite(venue.LocationId, next); err != nil {
		m.notice = "Could not save favorite: " + err.Error()
		return
	}
	if next {
		m.favorites[venue.LocationId] = true
		m.notice = venue.DisplayName() + " added to favorites"
	} else {
		delete(m.favorites, venue.LocationId)
		m.notice = venue.DisplayName() + " removed from favorites"
	}
	index := m.venueList.Index()
	m.refreshVenueList()
	m.venueList.Select(index)
}

func (m appModel) venueDetailView() string {
	v := m.selectedVenue
	label := lipgloss.NewStyle().Bold(true)
	var lines []string

	name := v.DisplayName()
	if m.favorites[v.LocationId] {
		name = "★ " + name
	}
	color, _ := calendar.ParseColor(v.ColorCode)
	lines = append(lines, colorStyle(color).Bold(true).Render(name), "")
	if v.Address != "" {
		lines = append(lines, label.Render("Address: ")+v.Address)
	}
	if v.AddressEng != "" && v.AddressEng != v.Address {
		lines = append(lines, label.Render("Address (EN): ")+v.AddressEng)
	}
	if v.Rating != nil {
		reviews := 0
		if v.ReviewCount != nil {
			reviews = *v.ReviewCount
		}
		lines = append(lines, label.Render("Rating: ")+fmt.Sprintf("%.1f (%d reviews)", *v.Rating, reviews))
	}
	if v.Lat != nil && v.Lng != nil {
		coords := fmt.Sprintf("%.5f, %.5f", *v.Lat, *v.Lng)
		if m.position != nil {
			coords += fmt.Sprintf(" • %.1f km away", service.DistanceKM(m.position.Lat, m.position.Lng, *v.Lat, *v.Lng))
		}
		lines = append(lines, label.Render("Coordinates: ")+coords)
	}

	upcoming := m.performancesAt(v.LocationId)
	lines = append(lines, "", label.Render(fmt.Sprintf("Performances in %s:", m.nav.Reference().Time(m.loc).Format("January 2006"))))
	if len(upcoming) == 0 {
		lines = append(lines, hint("None scheduled."))
	}
	for _, p := range upcoming {
		day := strings.SplitN(p.PerformanceDatetime, "T", 2)[0]
		lines = append(lines, fmt.Sprintf("  %s %s  %s", day, p.ClockLabel(), p.Title))
	}
	return strings.Join(lines, "\n")
}

// performancesAt lists the loaded performances held at venue id, by day.
func (m appModel) performancesAt(id int) []model.Performance {
	if m.loaded.IsZero() {
		return nil
	}
	var out []model.Performance
	for d := m.loaded.Start; !m.loaded.End.Before(d); d = d.AddDays(1) {
		for _, p := range m.binding.On(d) {
			if p.LocationId != nil && *p.LocationId == id {
				out = append(out, p)
			}
		}
	}
	return out
}
