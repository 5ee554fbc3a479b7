// Package welcome is the sign-in screen.
package welcome

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/screen"
	"github.com/abhisek/zonedash/internal/ui/components"
	"github.com/abhisek/zonedash/internal/ui/layout"
	"github.com/abhisek/zonedash/internal/ui/theme"
)

// SubmitMsg asks the app to sign in with the entered credentials.
type SubmitMsg struct {
	Login    string
	Password string
}

// FailedMsg reports a failed sign-in. Message is shown under the form.
type FailedMsg struct {
	Message string
}

const (
	fieldLogin = iota
	fieldPassword
	fieldSubmit
	fieldCount
)

const inputWidth = 40

// WelcomeScreen collects the login and password.
type WelcomeScreen struct {
	login    components.TextInput
	password components.TextInput
	spinner  components.Spinner
	focus    int
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*WelcomeScreen)(nil)
var _ screen.KeyHintProvider = (*WelcomeScreen)(nil)

// New creates the sign-in screen. lastLogin pre-fills the login field and
// moves focus to the password.
func New(lastLogin string) *WelcomeScreen {
	w := &WelcomeScreen{
		login:    components.NewTextInput("USERNAME OR EMAIL", "login or email", false, 0),
		password: components.NewTextInput("PASSWORD", "password", true, 0),
		spinner:  components.NewSpinner("Signing in..."),
	}
	if lastLogin != "" {
		w.login.SetValue(lastLogin)
		w.focus = fieldPassword
	}
	return w
}

func (w *WelcomeScreen) Title() string {
	return "Sign in"
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	if w.busy {
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return w.applyFocus()
}

// Busy reports whether a sign-in is in flight.
func (w *WelcomeScreen) Busy() bool {
	return w.busy
}

// Error returns the form-level error, if any.
func (w *WelcomeScreen) Error() string {
	return w.errMsg
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case FailedMsg:
		w.busy = false
		w.errMsg = msg.Message
		w.password.SetValue("")
		w.focus = fieldPassword
		return w, w.applyFocus()

	case tea.KeyMsg:
		if w.busy {
			return w, nil
		}
		return w.handleKey(msg)
	}

	if w.busy {
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd
	}
	return w, w.forward(msg)
}

func (w *WelcomeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		w.focus = (w.focus + 1) % fieldCount
		return w, w.applyFocus()
	case "shift+tab", "up":
		w.focus = (w.focus + fieldCount - 1) % fieldCount
		return w, w.applyFocus()
	case "enter":
		if w.focus == fieldLogin && strings.TrimSpace(w.login.Value()) != "" {
			w.focus = fieldPassword
			return w, w.applyFocus()
		}
		return w, w.submit()
	}
	w.errMsg = ""
	return w, w.forward(msg)
}

// submit validates the form and emits SubmitMsg.
func (w *WelcomeScreen) submit() tea.Cmd {
	login := strings.TrimSpace(w.login.Value())
	password := w.password.Value()

	switch {
	case login == "":
		w.login.SetError("enter your username or email")
		w.focus = fieldLogin
		return w.applyFocus()
	case password == "":
		w.password.SetError("enter your password")
		w.focus = fieldPassword
		return w.applyFocus()
	}

	w.busy = true
	w.errMsg = ""
	return tea.Batch(
		w.spinner.Tick(),
		func() tea.Msg { return SubmitMsg{Login: login, Password: password} },
	)
}

func (w *WelcomeScreen) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch w.focus {
	case fieldLogin:
		w.login, cmd = w.login.Update(msg)
	case fieldPassword:
		w.password, cmd = w.password.Update(msg)
	}
	return cmd
}

func (w *WelcomeScreen) applyFocus() tea.Cmd {
	w.login.Blur()
	w.password.Blur()
	switch w.focus {
	case fieldLogin:
		return w.login.Focus()
	case fieldPassword:
		return w.password.Focus()
	}
	return nil
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	sections = append(sections, RenderBanner(width))
	sections = append(sections, theme.Subtitle.Render("Zone01 student dashboard"))
	sections = append(sections, "")

	form := []string{w.login.View(), "", w.password.View(), ""}

	button := theme.ButtonInactive.Render("SIGN IN")
	if w.focus == fieldSubmit {
		button = theme.ButtonActive.Render("SIGN IN")
	}
	form = append(form, button)

	if w.busy {
		form = append(form, "", w.spinner.View())
	}
	if w.errMsg != "" {
		form = append(form, "", theme.ErrorText.Render("Login failed: "+w.errMsg))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(1, 3).
		Width(inputWidth + 8).
		Render(strings.Join(form, "\n"))
	sections = append(sections, card)

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
