package tui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"buskport-cli/calendar"
	"buskport-cli/model"
	"buskport-cli/service"
	"buskport-cli/session"
	"buskport-cli/store"
)

type appState int

const (
	stateLoadingSchedule appState = iota
	stateSchedule
	stateLoadingVenues
	stateVenues
	stateVenueDetail
	stateLocating
	stateReserve
	stateSubmitting
	stateLoadingPosts
	statePosts
	statePostDetail
	stateWritePost
	stateAccount
	stateLogin
	stateSignup
	stateError
)

// Options wires the program to its collaborators.
type Options struct {
	Client   *service.Client
	Session  *session.Context
	Locator  *service.Locator
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time

	View calendar.Mode
	Date calendar.Date

	VenueTTL time.Duration
	MonthTTL time.Duration
	MapURL   string
}

type appModel struct {
	client  *service.Client
	session *session.Context
	locator *service.Locator
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time

	venueTTL time.Duration
	monthTTL time.Duration
	mapURL   string

	state     appState
	lastState appState
	err       error
	notice    string

	width  int
	height int

	spinner spinner.Model

	nav         *calendar.Navigator
	tracker     *calendar.FetchTracker
	loaded      calendar.Range
	binding     calendar.Binding
	venues      []model.Location
	scheduleErr error

	venueList     list.Model
	favorites     map[int]bool
	position      *service.Position
	selectedVenue model.Location

	reserve reserveForm

	category     model.PostCategory
	postList     list.Model
	selectedPost model.Post
	postView     viewport.Model
	write        writeForm

	login      loginForm
	signup     signupForm
	authReturn appState
}

type errMsg struct {
	err error
}

// New builds the root bubbletea model.
func New(opts Options) tea.Model {
	if opts.Client == nil {
		opts.Client = service.NewClient(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locator == nil {
		opts.Locator = service.NewLocator(nil, opts.Logger)
	}
	if opts.MapURL == "" {
		opts.MapURL = "https://map.kakao.com/?q="
	}

	nav := calendar.NewNavigator(opts.Now)
	nav.SetMode(opts.View)
	if !opts.Date.IsZero() {
		nav.Goto(opts.Date)
	}

	m := appModel{
		client:   opts.Client,
		session:  opts.Session,
		locator:  opts.Locator,
		logger:   opts.Logger,
		loc:      opts.Location,
		now:      opts.Now,
		venueTTL: opts.VenueTTL,
		monthTTL: opts.MonthTTL,
		mapURL:   opts.MapURL,
		state:    stateLoadingSchedule,
		nav:      nav,
		tracker:  &calendar.FetchTracker{},
		category: model.CategoryGeneral,
	}

	m.venueList = newList("Venues")
	m.postList = newList("Community")
	m.postView = viewport.New(0, 0)
	m.favorites = make(map[int]bool)
	m.reserve = newReserveForm()
	m.write = newWriteForm()
	m.login = newLoginForm()
	m.signup = newSignupForm()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchScheduleCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		var cmd tea.Cmd
		var handled bool
		m, cmd, handled = m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.lastState = recoverStateFrom(m.state)
		m.state = stateError
		return m, nil

	case scheduleMsg:
		return m.applySchedule(msg)

	case venuesMsg:
		return m.applyVenues(msg)

	case positionMsg:
		return m.applyPosition(msg)

	case submitMsg:
		return m.applySubmit(msg)

	case postsMsg:
		return m.applyPosts(msg)

	case postMsg:
		return m.applyPost(msg)

	case createPostMsg:
		return m.applyCreatePost(msg)

	case loginMsg:
		return m.applyLogin(msg)

	case signupMsg:
		return m.applySignup(msg)

	case logoutMsg:
		return m.applyLogout(msg)
	}

	var cmd tea.Cmd
	switch m.state {
	case stateVenues:
		m.venueList, cmd = m.venueList.Update(msg)
	case statePosts:
		m.postList, cmd = m.postList.Update(msg)
	case statePostDetail:
		m.postView, cmd = m.postView.Update(msg)
	case stateReserve:
		cmd = m.reserve.update(msg)
	case stateWritePost:
		cmd = m.write.update(msg)
	case stateLogin:
		cmd = m.login.update(msg)
	case stateSignup:
		cmd = m.signup.update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingSchedule, stateLoadingVenues, stateLocating, stateSubmitting, stateLoadingPosts:
		return header + "\n\n" + m.loadingView()
	case stateSchedule:
		return header + "\n\n" + m.scheduleView()
	case stateVenues:
		return header + "\n\n" + m.venueList.View()
	case stateVenueDetail:
		return header + "\n\n" + m.venueDetailView()
	case stateReserve:
		return header + "\n\n" + m.reserve.view(m.venues)
	case statePosts:
		return header + "\n\n" + m.postList.View()
	case statePostDetail:
		return header + "\n\n" + m.postView.View()
	case stateWritePost:
		return header + "\n\n" + m.write.view()
	case stateAccount:
		return header + "\n\n" + m.accountView()
	case stateLogin:
		return header + "\n\n" + m.login.view()
	case stateSignup:
		return header + "\n\n" + m.signup.view()
	case stateError:
		return header + "\n\n" + errorStyle.Render(service.UserMessage(m.err)) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	tabStyle    = lipgloss.NewStyle().Padding(0, 1)
	activeTab   = tabStyle.Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63"))
)

type tab struct {
	label string
	state appState
}

var tabs = []tab{
	{label: "Schedule", state: stateSchedule},
	{label: "Venues", state: stateVenues},
	{label: "Community", state: statePosts},
	{label: "Account", state: stateAccount},
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("BuskPort")

	current := tabOf(m.state)
	var rendered []string
	for i, t := range tabs {
		if i == current {
			rendered = append(rendered, activeTab.Render(t.label))
		} else {
			rendered = append(rendered, tabStyle.Render(t.label))
		}
	}
	line := title + "  " + lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	var sub []string
	if m.session != nil && m.session.LoggedIn() {
		sub = append(sub, "User: "+m.session.UserID())
	} else {
		sub = append(sub, "Not logged in")
	}
	if m.position != nil {
		sub = append(sub, "Near: "+m.position.Label())
	}
	if m.state == statePosts || m.state == statePostDetail {
		sub = append(sub, "Category: "+m.category.Label())
	}
	meta := "\n" + lipgloss.NewStyle().Faint(true).Render(strings.Join(sub, " • "))

	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	noticeLine := ""
	if m.notice != "" {
		noticeLine = "\n" + noticeStyle.Render(m.notice)
	}
	return line + meta + filterLine + noticeLine + "\n" + hint(m.hints())
}

func (m appModel) hints() string {
	switch m.state {
	case stateSchedule:
		return "ctrl+c quit • tab next screen • m/w/d view • ←→↑↓ move • n/p next/prev • t today • enter day • b book • r reload"
	case stateVenues:
		return "ctrl+c quit • tab next screen • type to filter • enter detail • ctrl+f favorite • ctrl+n sort by distance • ctrl+r reload"
	case stateVenueDetail:
		return "ctrl+c quit • esc back • o open map • b book here • f favorite"
	case stateReserve:
		return "esc cancel • tab/shift+tab field • space toggle slot/position • ←→ pick venue • enter submit"
	case statePosts:
		return "ctrl+c quit • tab next screen • type to filter • enter read • ←→ category • ctrl+w write • ctrl+r reload"
	case statePostDetail:
		return "ctrl+c quit • esc back • ↑↓ scroll"
	case stateWritePost:
		return "esc cancel • tab field • ctrl+t category • ctrl+s publish"
	case stateAccount:
		return "ctrl+c quit • tab next screen • l login • s sign up • o logout"
	case stateLogin, stateSignup:
		return "esc cancel • tab/shift+tab field • enter submit"
	default:
		return "ctrl+c quit • esc back"
	}
}

func tabOf(state appState) int {
	switch state {
	case stateLoadingVenues, stateVenues, stateVenueDetail, stateLocating:
		return 1
	case stateLoadingPosts, statePosts, statePostDetail, stateWritePost:
		return 2
	case stateAccount, stateLogin, stateSignup:
		return 3
	default:
		return 0
	}
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}
	m.notice = ""

	switch m.state {
	case stateReserve:
		return m.handleReserveKey(msg)
	case stateWritePost:
		return m.handleWriteKey(msg)
	case stateLogin:
		return m.handleLoginKey(msg)
	case stateSignup:
		return m.handleSignupKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "tab", "shift+tab":
		if m.isTopLevel() {
			step := 1
			if msg.String() == "shift+tab" {
				step = len(tabs) - 1
			}
			next, cmd := m.switchTab((tabOf(m.state) + step) % len(tabs))
			return next, cmd, true
		}
	}

	switch m.state {
	case stateSchedule, stateLoadingSchedule:
		return m.handleScheduleKey(msg)
	case stateVenues, stateVenueDetail:
		return m.handleVenueKey(msg)
	case statePosts, statePostDetail:
		return m.handlePostKey(msg)
	case stateAccount:
		return m.handleAccountKey(msg)
	}
	return m, nil, false
}

func (m appModel) isTopLevel() bool {
	switch m.state {
	case stateSchedule, stateVenues, statePosts, stateAccount:
		return true
	default:
		return false
	}
}

func (m appModel) switchTab(index int) (appModel, tea.Cmd) {
	switch tabs[index].state {
	case stateVenues:
		if len(m.venueList.Items()) == 0 {
			m.state = stateLoadingVenues
			return m, tea.Batch(m.fetchVenuesCmd(false), m.spinner.Tick)
		}
		m.state = stateVenues
	case statePosts:
		if len(m.postList.Items()) == 0 {
			m.state = stateLoadingPosts
			return m, tea.Batch(m.fetchPostsCmd(m.category), m.spinner.Tick)
		}
		m.state = statePosts
	case stateAccount:
		m.state = stateAccount
	default:
		m.state = stateSchedule
		if m.nav.NeedsFetch(m.loaded) {
			m.state = stateLoadingSchedule
			return m, tea.Batch(m.fetchScheduleCmd(), m.spinner.Tick)
		}
	}
	return m, nil
}

func (m appModel) goBack() (appModel, tea.Cmd) {
	switch m.state {
	case stateVenueDetail:
		m.state = stateVenues
	case statePostDetail:
		m.state = statePosts
	case stateError:
		m.state = m.lastState
		m.err = nil
	case stateSchedule:
		if m.nav.Mode() != calendar.ModeMonth {
			m.nav.SetMode(calendar.ModeMonth)
		}
	}
	return m, nil
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 || msg.Alt {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateVenues:
		return &m.venueList
	case statePosts:
		return &m.postList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingSchedule ||
		m.state == stateLoadingVenues ||
		m.state == stateLocating ||
		m.state == stateSubmitting ||
		m.state == stateLoadingPosts
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingSchedule:
		title = "Loading performances for " + m.nav.Label()
	case stateLoadingVenues:
		title = "Loading venues"
	case stateLocating:
		title = "Detecting your location"
	case stateSubmitting:
		title = "Submitting"
	case stateLoadingPosts:
		title = "Loading " + m.category.Label() + " posts"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Fetching data..."))
}

func (m *appModel) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 7
	if h < 6 {
		h = 6
	}
	m.venueList.SetSize(m.width, h)
	m.postList.SetSize(m.width, h)
	m.postView.Width = m.width
	m.postView.Height = h
	m.write.resize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingVenues, stateLocating:
		return stateVenues
	case stateLoadingPosts:
		return statePosts
	case stateSubmitting:
		return stateReserve
	case stateError, stateLoadingSchedule:
		return stateSchedule
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func openURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported OS for opening browser: %s", runtime.GOOS)
	}
}

// reloadCmd refetches the data behind state after the auth context changed.
func (m *appModel) reloadCmd(state appState) tea.Cmd {
	switch state {
	case stateSchedule, stateLoadingSchedule:
		m.loaded = calendar.Range{}
		m.state = stateLoadingSchedule
		return tea.Batch(m.fetchScheduleCmd(), m.spinner.Tick)
	case stateVenues, stateVenueDetail:
		m.state = stateLoadingVenues
		return tea.Batch(m.fetchVenuesCmd(true), m.spinner.Tick)
	case statePosts, statePostDetail:
		m.state = stateLoadingPosts
		return tea.Batch(m.fetchPostsCmd(m.category), m.spinner.Tick)
	default:
		return nil
	}
}

func rememberVenue(logger *zap.Logger, venue model.Location) {
	if err := store.RememberVenue(venue); err != nil {
		logger.Debug("remember venue failed", zap.Int("venue", venue.LocationId), zap.Error(err))
	}
}
