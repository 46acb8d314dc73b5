package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"buskport-cli/calendar"
	"buskport-cli/model"
	"buskport-cli/reservation"
	"buskport-cli/service"
	"buskport-cli/store"
)

type reserveField int

const (
	fieldTeam reserveField = iota
	fieldSongs
	fieldVenue
	fieldDate
	fieldSlots
	fieldPositions
	reserveFieldCount
)

type submitMsg struct {
	perf model.Performance
	err  error
}

type reserveForm struct {
	form reservation.Form

	team  textinput.Model
	songs textinput.Model
	date  textinput.Model

	focus          reserveField
	venueIndex     int
	slotCursor     int
	positionCursor int
	returnState    appState

	status    string
	statusErr bool
}

var (
	focusLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	plainLabel = lipgloss.NewStyle().Bold(true)
	picked     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 40
	in.Prompt = "> "
	return in
}

func newReserveForm() reserveForm {
	return reserveForm{
		team:  newInput("Team or artist name", 60),
		songs: newInput("Songs you plan to play (optional)", 200),
		date:  newInput("YYYY-MM-DD", 10),
	}
}

// prepare resets the form for a new booking on date, optionally at venueID.
func (f *reserveForm) prepare(date calendar.Date, venueID int, venues []model.Location, returnState appState) tea.Cmd {
	*f = newReserveForm()
	f.returnState = returnState
	f.date.SetValue(date.Key())
	for i, v := range venues {
		if v.LocationId == venueID {
			f.venueIndex = i
		}
	}
	return f.setFocus(fieldTeam)
}

func (f *reserveForm) setFocus(field reserveField) tea.Cmd {
	f.focus = field
	f.team.Blur()
	f.songs.Blur()
	f.date.Blur()
	switch field {
	case fieldTeam:
		return f.team.Focus()
	case fieldSongs:
		return f.songs.Focus()
	case fieldDate:
		return f.date.Focus()
	}
	return nil
}

func (f *reserveForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTeam:
		f.team, cmd = f.team.Update(msg)
	case fieldSongs:
		f.songs, cmd = f.songs.Update(msg)
	case fieldDate:
		f.date, cmd = f.date.Update(msg)
	}
	return cmd
}

// sync copies the widget values into the reservation form.
func (f *reserveForm) sync(venues []model.Location) {
	f.form.TeamName = f.team.Value()
	f.form.SongList = f.songs.Value()
	f.form.Date = strings.TrimSpace(f.date.Value())
	f.form.LocationId = 0
	if f.venueIndex >= 0 && f.venueIndex < len(venues) {
		f.form.LocationId = venues[f.venueIndex].LocationId
	}
}

func fieldFor(name string) reserveField {
	switch name {
	case "team name":
		return fieldTeam
	case "location":
		return fieldVenue
	case "date":
		return fieldDate
	default:
		return fieldSlots
	}
}

func (m appModel) openReserve(date calendar.Date, venueID int) (appModel, tea.Cmd) {
	returnState := m.state
	if returnState == stateLoadingSchedule {
		returnState = stateSchedule
	}
	cmd := m.reserve.prepare(date, venueID, m.venues, returnState)
	m.state = stateReserve
	if len(m.venues) == 0 {
		return m, tea.Batch(cmd, m.fetchVenuesCmd(false))
	}
	return m, cmd
}

func (m appModel) handleReserveKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	f := &m.reserve
	switch msg.String() {
	case "esc":
		m.state = f.returnState
		return m, nil, true
	case "tab", "down":
		if msg.String() == "down" && (f.focus == fieldSlots || f.focus == fieldPositions) {
			break
		}
		return m, f.setFocus((f.focus + 1) % reserveFieldCount), true
	case "shift+tab", "up":
		if msg.String() == "up" && (f.focus == fieldSlots || f.focus == fieldPositions) {
			break
		}
		return m, f.setFocus((f.focus + reserveFieldCount - 1) % reserveFieldCount), true
	case "ctrl+o":
		next, cmd := m.openLogin(stateReserve)
		return next, cmd, true
	case "enter":
		f.sync(m.venues)
		perf, err := f.form.Request()
		if err != nil {
			f.status = err.Error()
			f.statusErr = true
			var fieldErr *reservation.FieldError
			if errors.As(err, &fieldErr) {
				return m, f.setFocus(fieldFor(fieldErr.Field)), true
			}
			return m, nil, true
		}
		f.status = ""
		m.state = stateSubmitting
		return m, tea.Batch(m.submitCmd(perf), m.spinner.Tick), true
	}

	switch f.focus {
	case fieldVenue:
		if len(m.venues) == 0 {
			return m, nil, false
		}
		switch msg.String() {
		case "left", "h":
			f.venueIndex = (f.venueIndex + len(m.venues) - 1) % len(m.venues)
			return m, nil, true
		case "right", "l", " ":
			f.venueIndex = (f.venueIndex + 1) % len(m.venues)
			return m, nil, true
		}
	case fieldSlots:
		return m.handleToggleGrid(msg, &f.slotCursor, len(reservation.TimeSlots), func(i int) {
			f.form.Slots.Toggle(reservation.TimeSlots[i])
		})
	case fieldPositions:
		return m.handleToggleGrid(msg, &f.positionCursor, len(model.Positions), func(i int) {
			f.form.TogglePosition(model.Positions[i])
		})
	}
	return m, nil, false
}

func (m appModel) handleToggleGrid(msg tea.KeyMsg, cursor *int, n int, toggle func(int)) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "left", "h", "up", "k":
		*cursor = (*cursor + n - 1) % n
	case "right", "l", "down", "j":
		*cursor = (*cursor + 1) % n
	case " ", "x":
		toggle(*cursor)
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m appModel) submitCmd(perf model.Performance) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		created, err := client.CreatePerformance(context.Background(), perf)
		if err != nil {
			return submitMsg{perf: perf, err: err}
		}
		if created.PerformanceId == 0 {
			created = perf
		}
		return submitMsg{perf: created}
	}
}

func (m appModel) applySubmit(msg submitMsg) (tea.Model, tea.Cmd) {
	f := &m.reserve
	if msg.err != nil {
		m.logger.Warn("reservation failed", zap.Error(msg.err))
		m.state = stateReserve
		f.status = service.UserMessage(msg.err)
		if service.IsAuthRequired(msg.err) {
			f.status += " Press ctrl+o to log in."
		}
		f.statusErr = true
		return m, nil
	}

	at, err := msg.perf.StartsAt(m.loc)
	if err != nil {
		at = m.now()
	}
	day := calendar.DateOf(at)
	key := monthKey(calendar.MonthRange(day))
	if err := store.InvalidateMonthCache(m.apiBase(), key); err != nil {
		m.logger.Debug("invalidate month cache failed", zap.Error(err))
	}
	if msg.perf.LocationId != nil {
		for _, v := range m.venues {
			if v.LocationId == *msg.perf.LocationId {
				rememberVenue(m.logger, v)
			}
		}
	}
	m.logger.Info("reservation submitted", zap.String("title", msg.perf.Title), zap.String("at", msg.perf.PerformanceDatetime))

	f.form.Reset()
	m.notice = fmt.Sprintf("Reserved %s on %s at %s.", msg.perf.Title, day.Key(), at.Format("15:04"))
	m.nav.Goto(day)
	m.loaded = calendar.Range{}
	m.state = stateSchedule
	return m, m.refetchIfNeeded()
}

func (f reserveForm) label(field reserveField, text string) string {
	if f.focus == field {
		return focusLabel.Render("› " + text)
	}
	return plainLabel.Render("  " + text)
}

func (f reserveForm) view(venues []model.Location) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Reserve a performance slot"))
	b.WriteString("\n\n")

	b.WriteString(f.label(fieldTeam, "Team name") + "\n" + f.team.View() + "\n\n")
	b.WriteString(f.label(fieldSongs, "Song list") + "\n" + f.songs.View() + "\n\n")

	venue := hint("Loading venues...")
	if len(venues) > 0 && f.venueIndex < len(venues) {
		v := venues[f.venueIndex]
		color, _ := calendar.ParseColor(v.ColorCode)
		venue = "‹ " + colorStyle(color).Render(v.DisplayName()) + " ›"
	}
	b.WriteString(f.label(fieldVenue, "Venue") + "\n  " + venue + "\n\n")

	dateLine := f.date.View()
	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(f.date.Value())); err == nil {
		dateLine += "  " + hint(d.Format("Monday"))
	}
	b.WriteString(f.label(fieldDate, "Date") + "\n" + dateLine + "\n\n")

	b.WriteString(f.label(fieldSlots, fmt.Sprintf("Time (up to %d slots)", reservation.MaxSlots)) + "\n")
	b.WriteString(toggleRow(reservation.TimeSlots, f.form.Slots.Contains, f.slotCursor, f.focus == fieldSlots, 4))
	b.WriteString("\n\n")

	b.WriteString(f.label(fieldPositions, "Looking for") + "\n")
	b.WriteString(toggleRow(model.Positions, f.form.HasPosition, f.positionCursor, f.focus == fieldPositions, 5))

	if f.status != "" {
		style := noticeStyle
		if f.statusErr {
			style = errorStyle
		}
		b.WriteString("\n\n" + style.Render(f.status))
	}
	return b.String()
}

func toggleRow(options []string, selected func(string) bool, cursor int, focused bool, perLine int) string {
	var lines []string
	var line []string
	for i, opt := range options {
		box := "[ ] "
		style := lipgloss.NewStyle()
		if selected(opt) {
			box = "[x] "
			style = picked
		}
		text := style.Render(box + opt)
		if focused && i == cursor {
			text = cursorStyle.Render(box + opt)
		}
		line = append(line, text)
		if len(line) == perLine {
			lines = append(lines, "  "+strings.Join(line, "  "))
			line = nil
		}
	}
	if len(line) > 0 {
		lines = append(lines, "  "+strings.Join(line, "  "))
	}
	return strings.Join(lines, "\n")
}
