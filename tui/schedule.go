package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"buskport-cli/calendar"
	"buskport-cli/model"
	"buskport-cli/service"
	"buskport-cli/store"
)

const maxChipsPerCell = 3

type scheduleMsg struct {
	gen      uint64
	rng      calendar.Range
	schedule service.Schedule
	err      error
}

type chip struct {
	label string
	color calendar.Color
}

// colorStyle maps every venue color to a terminal color.
func colorStyle(c calendar.Color) lipgloss.Style {
	base := lipgloss.NewStyle()
	switch c {
	case calendar.ColorGreen:
		return base.Foreground(lipgloss.Color("2"))
	case calendar.ColorRed:
		return base.Foreground(lipgloss.Color("1"))
	case calendar.ColorBlue:
		return base.Foreground(lipgloss.Color("4"))
	case calendar.ColorPurple:
		return base.Foreground(lipgloss.Color("5"))
	case calendar.ColorOrange:
		return base.Foreground(lipgloss.Color("208"))
	case calendar.ColorYellow:
		return base.Foreground(lipgloss.Color("3"))
	default:
		return base.Foreground(lipgloss.Color("3"))
	}
}

var (
	todayStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	weekendStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	weekdayHeader = lipgloss.NewStyle().Bold(true).Faint(true)
	cellStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, true, false).BorderForeground(lipgloss.Color("8"))
)

func (m appModel) fetchScheduleCmd() tea.Cmd {
	gen := m.tracker.Begin()
	rng := m.nav.VisibleRange()
	client := m.client
	loc := m.loc
	monthTTL := m.monthTTL
	venueTTL := m.venueTTL
	logger := m.logger
	return func() tea.Msg {
		schedule, err := loadSchedule(context.Background(), client, rng, loc, monthTTL, venueTTL, logger)
		return scheduleMsg{gen: gen, rng: rng, schedule: schedule, err: err}
	}
}

func (m appModel) apiBase() string {
	if m.client == nil {
		return ""
	}
	return m.client.BaseURL()
}

func monthKey(rng calendar.Range) string {
	return fmt.Sprintf("%04d-%02d", rng.Start.Year, int(rng.Start.Month))
}

func loadSchedule(ctx context.Context, client *service.Client, rng calendar.Range, loc *time.Location, monthTTL, venueTTL time.Duration, logger *zap.Logger) (service.Schedule, error) {
	key := monthKey(rng)
	api := client.BaseURL()
	perfs, perfsFresh, perfErr := store.LoadMonthCache(api, key, monthTTL)
	venues, venuesFresh, venueErr := store.LoadVenueCache(api, venueTTL)
	if perfErr == nil && venueErr == nil && perfsFresh && venuesFresh {
		logger.Debug("schedule served from cache", zap.String("month", key))
		return service.Schedule{
			Start:        rng.Start.Time(loc),
			End:          rng.End.Time(loc),
			Performances: perfs,
			Venues:       venues,
		}, nil
	}

	schedule, err := client.LoadSchedule(ctx, rng.Start.Time(loc), rng.End.Time(loc))
	if err != nil {
		return service.Schedule{}, err
	}
	if err := store.SaveMonthCache(api, key, schedule.Performances); err != nil {
		logger.Debug("save month cache failed", zap.String("month", key), zap.Error(err))
	}
	if err := store.SaveVenueCache(api, schedule.Venues); err != nil {
		logger.Debug("save venue cache failed", zap.Error(err))
	}
	return schedule, nil
}

func (m appModel) applySchedule(msg scheduleMsg) (tea.Model, tea.Cmd) {
	if !m.tracker.Current(msg.gen) || msg.rng != m.nav.VisibleRange() {
		m.logger.Debug("discarding stale schedule", zap.Uint64("generation", msg.gen), zap.String("month", monthKey(msg.rng)))
		return m, nil
	}
	if m.state == stateLoadingSchedule {
		m.state = stateSchedule
	}
	if msg.err != nil {
		m.logger.Warn("schedule fetch failed", zap.String("month", monthKey(msg.rng)), zap.Error(msg.err))
		m.scheduleErr = msg.err
		m.loaded = calendar.Range{}
		m.binding = calendar.Binding{}
		return m, nil
	}

	m.scheduleErr = nil
	m.loaded = msg.rng
	m.venues = msg.schedule.Venues
	m.binding = calendar.Bind(msg.schedule.Performances, msg.schedule.Venues, m.loc)
	if m.binding.Skipped > 0 {
		m.logger.Warn("performances with invalid datetime skipped", zap.Int("count", m.binding.Skipped))
	}
	return m, nil
}

func (m appModel) handleScheduleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	ref := m.nav.Reference()
	switch msg.String() {
	case "m":
		m.nav.SetMode(calendar.ModeMonth)
		return m, nil, true
	case "w":
		m.nav.SetMode(calendar.ModeWeek)
		return m, nil, true
	case "d", "enter":
		m.nav.SetMode(calendar.ModeDay)
		return m, nil, true
	case "left", "h":
		m.nav.Goto(ref.AddDays(-1))
	case "right", "l":
		m.nav.Goto(ref.AddDays(1))
	case "up", "k":
		m.nav.Goto(ref.AddDays(-7))
	case "down", "j":
		m.nav.Goto(ref.AddDays(7))
	case "n", "pgdown", "]":
		m.nav.Next()
	case "p", "pgup", "[":
		m.nav.Prev()
	case "t":
		m.nav.Today()
	case "r":
		if err := store.InvalidateMonthCache(m.apiBase(), monthKey(m.nav.VisibleRange())); err != nil {
			m.logger.Debug("invalidate month cache failed", zap.Error(err))
		}
		m.loaded = calendar.Range{}
	case "b":
		next, cmd := m.openReserve(ref, 0)
		return next, cmd, true
	default:
		return m, nil, false
	}
	return m, m.refetchIfNeeded(), true
}

// refetchIfNeeded starts a fetch when the reference month left the loaded range.
// Landing back inside the loaded range cancels any fetch still in flight.
func (m *appModel) refetchIfNeeded() tea.Cmd {
	if !m.nav.NeedsFetch(m.loaded) {
		if m.state == stateLoadingSchedule {
			m.tracker.Begin()
			m.state = stateSchedule
		}
		return nil
	}
	m.state = stateLoadingSchedule
	return tea.Batch(m.fetchScheduleCmd(), m.spinner.Tick)
}

func (m appModel) scheduleView() string {
	title := lipgloss.NewStyle().Bold(true).Render(m.nav.Label()) + "  " + hint("["+m.nav.Mode().String()+"]")
	if m.scheduleErr != nil {
		msg := errorStyle.Render("Could not load performances: " + service.UserMessage(m.scheduleErr))
		return title + "\n\n" + msg + "\n\n" + hint("n/p/t to navigate, r to retry.")
	}

	var body string
	switch m.nav.Mode() {
	case calendar.ModeWeek:
		body = m.renderWeek()
	case calendar.ModeDay:
		body = m.renderDay()
	default:
		body = m.renderMonth()
	}
	return title + "\n\n" + body + m.legendView()
}

// chipsOn returns one chip per performance on d, in fetch order.
func (m appModel) chipsOn(d calendar.Date) []chip {
	perfs := m.binding.On(d)
	chips := make([]chip, 0, len(perfs))
	for _, p := range perfs {
		chips = append(chips, chip{label: p.ClockLabel() + " " + p.Title, color: m.binding.ColorOf(p)})
	}
	return chips
}

func (m appModel) cellWidth() int {
	w := 14
	if m.width > 0 {
		w = (m.width - 2) / 7
	}
	if w < 8 {
		w = 8
	}
	if w > 22 {
		w = 22
	}
	return w
}

func (m appModel) dayLabel(d calendar.Date) string {
	label := fmt.Sprintf("%2d", d.Day)
	style := lipgloss.NewStyle()
	if calendar.IsWeekend(d) {
		style = weekendStyle
	}
	if calendar.IsToday(d, m.now().In(m.loc)) {
		style = todayStyle
	}
	if d == m.nav.Reference() {
		style = style.Inherit(cursorStyle)
	}
	return style.Render(label)
}

func renderChips(chips []chip, width int, limit int) []string {
	var lines []string
	shown := chips
	if limit > 0 && len(chips) > limit {
		shown = chips[:limit-1]
	}
	for _, c := range shown {
		lines = append(lines, colorStyle(c.color).Render(truncate("● "+c.label, width)))
	}
	if len(shown) < len(chips) {
		lines = append(lines, hint(fmt.Sprintf("+%d more", len(chips)-len(shown))))
	}
	return lines
}

func (m appModel) weekdayRow(width int) string {
	cols := make([]string, 0, 7)
	for _, name := range calendar.Weekdays {
		cols = append(cols, weekdayHeader.Width(width).Render(name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m appModel) renderMonth() string {
	ref := m.nav.Reference()
	width := m.cellWidth()
	inner := width - 1
	rows := []string{m.weekdayRow(width)}
	for _, week := range calendar.BuildMonth(ref.Year, ref.Month) {
		cells := make([]string, 0, 7)
		for _, cell := range week {
			var lines []string
			if d, ok := cell.Date(); ok {
				lines = append(lines, m.dayLabel(d))
				lines = append(lines, renderChips(m.chipsOn(d), inner, maxChipsPerCell)...)
			}
			cells = append(cells, cellStyle.Width(inner).Height(maxChipsPerCell+1).Render(strings.Join(lines, "\n")))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func (m appModel) renderWeek() string {
	width := m.cellWidth()
	inner := width - 1
	height := m.height - 12
	if height < maxChipsPerCell+1 {
		height = 8
	}
	cols := make([]string, 0, 7)
	for _, d := range calendar.WeekOf(m.nav.Reference()) {
		lines := []string{m.dayLabel(d)}
		if m.loaded.Contains(d) {
			lines = append(lines, renderChips(m.chipsOn(d), inner, height-1)...)
		} else {
			lines = append(lines, hint("·"))
		}
		cols = append(cols, cellStyle.Width(inner).Height(height).Render(strings.Join(lines, "\n")))
	}
	return m.weekdayRow(width) + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m appModel) renderDay() string {
	d := m.nav.Reference()
	perfs := m.binding.On(d)
	if len(perfs) == 0 {
		return hint("No performances scheduled. Press b to book this day.")
	}
	var b strings.Builder
	for i, p := range perfs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(colorStyle(m.binding.ColorOf(p)).Bold(true).Render("● " + p.ClockLabel() + "  " + p.Title))
		b.WriteString("\n")
		b.WriteString(performanceDetails(p, m.binding.VenueName(p)))
	}
	return b.String()
}

func performanceDetails(p model.Performance, venue string) string {
	var lines []string
	if venue != "" {
		lines = append(lines, "Venue: "+venue)
	}
	if s := strings.TrimSpace(p.SongList); s != "" {
		lines = append(lines, "Songs: "+s)
	}
	if positions := p.Positions(); len(positions) > 0 {
		lines = append(lines, "Looking for: "+strings.Join(positions, ", "))
	}
	if n := len(p.Participants); n > 0 {
		lines = append(lines, fmt.Sprintf("Participants: %d", n))
	}
	if s := strings.TrimSpace(p.Status); s != "" {
		lines = append(lines, "Status: "+s)
	}
	for i := range lines {
		lines[i] = "   " + hint(lines[i])
	}
	return strings.Join(lines, "\n")
}

func (m appModel) legendView() string {
	colors := calendar.ColorsFor(m.venues)
	if len(colors) == 0 {
		return ""
	}
	var parts []string
	for _, v := range m.venues {
		c, ok := colors[v.LocationId]
		if !ok {
			continue
		}
		parts = append(parts, colorStyle(c).Render("● "+v.NameEn))
	}
	return "\n\n" + strings.Join(parts, "  ")
}

func truncate(text string, width int) string {
	if width <= 0 || lipgloss.Width(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
