package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"buskport-cli/model"
	"buskport-cli/service"
)

type loginMsg struct {
	userID string
	err    error
}

type signupMsg struct {
	userID string
	err    error
}

type logoutMsg struct {
	err error
}

var errNoSession = errors.New("session storage is unavailable")

// inputForm is a vertical stack of text inputs with one focused at a time.
type inputForm struct {
	labels    []string
	inputs    []textinput.Model
	focus     int
	busy      bool
	status    string
	statusErr bool
}

func (f *inputForm) setFocus(index int) tea.Cmd {
	n := len(f.inputs)
	f.focus = ((index % n) + n) % n
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *inputForm) update(msg tea.Msg) tea.Cmd {
	if f.busy || len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *inputForm) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *inputForm) fail(msg string) {
	f.busy = false
	f.status = msg
	f.statusErr = true
}

func (f inputForm) render(title string) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		label := plainLabel.Render("  " + f.labels[i])
		if i == f.focus {
			label = focusLabel.Render("› " + f.labels[i])
		}
		b.WriteString(label + "\n" + in.View() + "\n")
	}
	switch {
	case f.busy:
		b.WriteString("\n" + hint("Please wait..."))
	case f.status != "":
		style := noticeStyle
		if f.statusErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(f.status))
	}
	return b.String()
}

// navigate handles the focus keys shared by every input form.
func (f *inputForm) navigate(key string) (tea.Cmd, bool) {
	switch key {
	case "tab", "down":
		return f.setFocus(f.focus + 1), true
	case "shift+tab", "up":
		return f.setFocus(f.focus - 1), true
	}
	return nil, false
}

const (
	loginID = iota
	loginPassword
)

type loginForm struct {
	inputForm
}

func newLoginForm() loginForm {
	id := newInput("User ID", 40)
	password := newInput("Password", 64)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	return loginForm{inputForm{
		labels: []string{"User ID", "Password"},
		inputs: []textinput.Model{id, password},
	}}
}

func (f loginForm) view() string {
	return f.render("Log in to BuskPort")
}

const (
	signupID = iota
	signupPassword
	signupNickname
	signupPhone
	signupRegion
	signupGenres
	signupPosition
	signupIntro
)

type signupForm struct {
	inputForm
}

func newSignupForm() signupForm {
	password := newInput("Password", 64)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	position := newInput(strings.Join(model.Positions, ", "), 20)
	position.SetValue(model.DefaultPosition)
	return signupForm{inputForm{
		labels: []string{"User ID", "Password", "Nickname", "Phone", "Activity region", "Preferred genres", "Position", "Introduction"},
		inputs: []textinput.Model{
			newInput("Login ID", 40),
			password,
			newInput("Shown to other buskers", 30),
			newInput("010-0000-0000", 20),
			newInput("e.g. Seoul Mapo-gu", 40),
			newInput("e.g. Indie, Jazz", 60),
			position,
			newInput("A line about you", 200),
		},
	}}
}

func (f signupForm) view() string {
	return f.render("Create a BuskPort account")
}

func (f signupForm) request() model.SignupRequest {
	return model.SignupRequest{
		SocialId:        f.value(signupID),
		SocialProvider:  model.ProviderLocal,
		Password:        f.inputs[signupPassword].Value(),
		Nickname:        f.value(signupNickname),
		PhoneNumber:     f.value(signupPhone),
		ActivityRegion:  f.value(signupRegion),
		PreferredGenres: f.value(signupGenres),
		Position:        f.value(signupPosition),
		Introduction:    f.value(signupIntro),
	}
}

func validPosition(position string) (string, bool) {
	for _, p := range model.Positions {
		if strings.EqualFold(p, position) {
			return p, true
		}
	}
	return "", false
}

func (m appModel) accountView() string {
	label := lipgloss.NewStyle().Bold(true)
	lines := []string{label.Render("Account"), ""}
	if m.session == nil {
		lines = append(lines, hint("Sessions are unavailable; login state cannot be saved."))
		return strings.Join(lines, "\n")
	}
	snap := m.session.Snapshot()
	if !snap.LoggedIn {
		lines = append(lines, "You are not logged in.", "", hint("Press l to log in or s to create an account."))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, label.Render("User: ")+snap.UserID)
	if !snap.LoggedInAt.IsZero() {
		lines = append(lines, label.Render("Since: ")+snap.LoggedInAt.In(m.loc).Format("2006-01-02 15:04"))
	}
	lines = append(lines, label.Render("Server: ")+m.client.BaseURL())
	lines = append(lines, "", hint("Press o to log out."))
	return strings.Join(lines, "\n")
}

func (m appModel) handleAccountKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "l":
		next, cmd := m.openLogin(stateAccount)
		return next, cmd, true
	case "s":
		if m.session == nil {
			m.notice = "Sessions are unavailable."
			return m, nil, true
		}
		m.signup = newSignupForm()
		m.state = stateSignup
		return m, m.signup.setFocus(signupID), true
	case "o":
		if m.session == nil || !m.session.LoggedIn() {
			m.notice = "You are not logged in."
			return m, nil, true
		}
		return m, m.logoutCmd(), true
	}
	return m, nil, false
}

// openLogin shows the login form; returnState is restored and reloaded after
// a successful login.
func (m appModel) openLogin(returnState appState) (appModel, tea.Cmd) {
	if m.session == nil {
		m.notice = "Sessions are unavailable."
		return m, nil
	}
	m.login = newLoginForm()
	m.authReturn = returnState
	m.state = stateLogin
	if id := m.session.UserID(); id != "" {
		m.login.inputs[loginID].SetValue(id)
		return m, m.login.setFocus(loginPassword)
	}
	return m, m.login.setFocus(loginID)
}

func (m appModel) handleLoginKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	f := &m.login
	if f.busy {
		return m, nil, true
	}
	if msg.String() == "esc" {
		m.state = m.authReturn
		return m, nil, true
	}
	if cmd, ok := f.navigate(msg.String()); ok {
		return m, cmd, true
	}
	if msg.String() != "enter" {
		return m, nil, false
	}
	if f.focus == loginID && f.inputs[loginPassword].Value() == "" {
		return m, f.setFocus(loginPassword), true
	}
	id, password := f.value(loginID), f.inputs[loginPassword].Value()
	if id == "" || password == "" {
		f.fail("Please enter your ID and password.")
		return m, nil, true
	}
	f.busy = true
	f.status = ""
	return m, m.loginCmd(id, password), true
}

func (m appModel) loginCmd(id, password string) tea.Cmd {
	sess := m.session
	client := m.client
	return func() tea.Msg {
		if sess == nil {
			return loginMsg{userID: id, err: errNoSession}
		}
		err := sess.Login(context.Background(), client, id, password)
		return loginMsg{userID: id, err: err}
	}
}

func (m appModel) applyLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("login failed", zap.String("user", msg.userID), zap.Error(msg.err))
		message := service.UserMessage(msg.err)
		if service.IsAuthRequired(msg.err) {
			message = "Invalid ID or password."
		}
		m.login.fail(message)
		m.login.inputs[loginPassword].SetValue("")
		return m, m.login.setFocus(loginPassword)
	}
	m.logger.Info("logged in", zap.String("user", msg.userID))
	m.login = newLoginForm()
	m.notice = "Logged in as " + msg.userID + "."
	m.state = m.authReturn
	return m, m.reloadCmd(m.authReturn)
}

func (m appModel) handleSignupKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	f := &m.signup
	if f.busy {
		return m, nil, true
	}
	switch msg.String() {
	case "esc":
		m.state = stateAccount
		return m, nil, true
	case "enter":
		if f.focus < len(f.inputs)-1 {
			return m, f.setFocus(f.focus + 1), true
		}
		req := f.request()
		if req.SocialId == "" || req.Password == "" || req.Nickname == "" {
			f.fail("ID, password and nickname are required.")
			return m, nil, true
		}
		position, ok := validPosition(req.Position)
		if req.Position != "" && !ok {
			f.fail("Position must be one of " + strings.Join(model.Positions, ", ") + ".")
			return m, f.setFocus(signupPosition), true
		}
		req.Position = position
		f.busy = true
		f.status = ""
		return m, m.signupCmd(req), true
	}
	if cmd, ok := f.navigate(msg.String()); ok {
		return m, cmd, true
	}
	return m, nil, false
}

func (m appModel) signupCmd(req model.SignupRequest) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.Signup(context.Background(), req)
		return signupMsg{userID: req.SocialId, err: err}
	}
}

func (m appModel) applySignup(msg signupMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("signup failed", zap.String("user", msg.userID), zap.Error(msg.err))
		m.signup.fail(service.UserMessage(msg.err))
		return m, nil
	}
	m.logger.Info("signed up", zap.String("user", msg.userID))
	m.signup = newSignupForm()
	m.notice = fmt.Sprintf("Account %s created. Log in to continue.", msg.userID)
	next, cmd := m.openLogin(stateAccount)
	next.login.inputs[loginID].SetValue(msg.userID)
	return next, tea.Batch(cmd, next.login.setFocus(loginPassword))
}

func (m appModel) logoutCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		if sess == nil {
			return logoutMsg{err: errNoSession}
		}
		return logoutMsg{err: sess.Logout()}
	}
}

func (m appModel) applyLogout(msg logoutMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, errCmd(fmt.Errorf("logout: %w", msg.err))
	}
	m.logger.Info("logged out")
	m.notice = "Logged out."
	m.state = stateAccount
	return m, nil
}
