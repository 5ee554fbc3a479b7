package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"

	"github.com/abhisek/zonedash/internal/dashboard"
	"github.com/abhisek/zonedash/internal/graphql"
	"github.com/abhisek/zonedash/internal/router"
	"github.com/abhisek/zonedash/internal/screen"
	"github.com/abhisek/zonedash/internal/screens/history"
	"github.com/abhisek/zonedash/internal/screens/home"
	"github.com/abhisek/zonedash/internal/screens/welcome"
	"github.com/abhisek/zonedash/internal/session"
	"github.com/abhisek/zonedash/internal/ui/layout"
	"github.com/abhisek/zonedash/internal/xp"
)

// SessionExpiredMessage is shown on the sign-in screen when the backend
// rejects a stored token.
const SessionExpiredMessage = "your session has expired, please sign in again"

// Sessions is the session behaviour the app needs. *session.Manager
// satisfies it.
type Sessions interface {
	Restore(ctx context.Context) (*session.Session, error)
	Login(ctx context.Context, login, password string) (*session.Session, error)
	Logout(ctx context.Context) error
}

// Loader is the dashboard loading behaviour the app needs.
// *dashboard.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, token string) (*dashboard.Snapshot, error)
	LoadCached(ctx context.Context, userID int) (*dashboard.Snapshot, error)
	Progression(months int) (xp.Series, error)
	RangeMonths() int
}

// Options wires the app to its services.
type Options struct {
	Sessions Sessions
	Loader   Loader
	Events   history.LoadLister // optional; enables the history screen
	Logger   *slog.Logger
}

type restoredMsg struct {
	sess *session.Session
	err  error
}

type loginResultMsg struct {
	sess *session.Session
	err  error
}

type loadResultMsg struct {
	snap *dashboard.Snapshot
	err  error
}

type cachedMsg struct {
	snap *dashboard.Snapshot
}

type logoutDoneMsg struct {
	err error
}

// AppModel is the root Bubble Tea model. It owns the phase machine and
// turns screen requests into service calls.
type AppModel struct {
	ctx     context.Context
	opts    Options
	logger  *slog.Logger
	machine *dashboard.Machine
	router  *router.Router
	now     func() time.Time

	sess      *session.Session
	lastLogin string
	header    layout.HeaderInfo
	syncedAt  time.Time

	width  int
	height int
}

// newAppModel creates an AppModel on the sign-in screen.
func newAppModel(ctx context.Context, opts Options) *AppModel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AppModel{
		ctx:     ctx,
		opts:    opts,
		logger:  logger,
		machine: dashboard.NewMachine(),
		router:  router.New(welcome.New("")),
		now:     time.Now,
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), m.restore())
}

// Phase returns the current phase of the dashboard state machine.
func (m *AppModel) Phase() dashboard.Phase {
	return m.machine.Phase()
}

// Active returns the screen on top of the router.
func (m *AppModel) Active() screen.Screen {
	return m.router.Active()
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case restoredMsg:
		return m, m.handleRestored(msg)

	case welcome.SubmitMsg:
		return m, m.handleSubmit(msg)

	case loginResultMsg:
		return m, m.handleLoginResult(msg)

	case cachedMsg:
		return m, m.handleCached(msg)

	case loadResultMsg:
		return m, m.handleLoadResult(msg)

	case home.ReloadMsg:
		return m, m.startLoad()

	case home.LogoutMsg:
		return m, m.handleLogout()

	case home.HistoryMsg:
		if m.opts.Events == nil {
			return m, nil
		}
		return m, m.router.Push(history.New(m.opts.Events))

	case logoutDoneMsg:
		if msg.err != nil {
			m.logger.Error("clear session", "error", msg.err)
		}
		return m, nil
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m *AppModel) restore() tea.Cmd {
	if m.opts.Sessions == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := m.opts.Sessions.Restore(m.ctx)
		return restoredMsg{sess: s, err: err}
	}
}

func (m *AppModel) handleRestored(msg restoredMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("restore session", "error", msg.err)
		return nil
	}
	if msg.sess == nil {
		return nil
	}
	if !m.fire(dashboard.SessionRestored, "") {
		return nil
	}
	return m.enterDashboard(msg.sess)
}

func (m *AppModel) handleSubmit(msg welcome.SubmitMsg) tea.Cmd {
	if !m.fire(dashboard.SubmitLogin, "") {
		return nil
	}
	m.lastLogin = msg.Login
	return func() tea.Msg {
		s, err := m.opts.Sessions.Login(m.ctx, msg.Login, msg.Password)
		return loginResultMsg{sess: s, err: err}
	}
}

func (m *AppModel) handleLoginResult(msg loginResultMsg) tea.Cmd {
	if msg.err != nil {
		text := loginErrorMessage(msg.err)
		m.fire(dashboard.LoginFailed, text)
		return m.router.Update(welcome.FailedMsg{Message: text})
	}
	if !m.fire(dashboard.LoginSucceeded, "") {
		return nil
	}
	return m.enterDashboard(msg.sess)
}

// enterDashboard swaps in the dashboard screen, shows any saved snapshot
// and starts a fresh load.
func (m *AppModel) enterDashboard(s *session.Session) tea.Cmd {
	m.sess = s
	m.lastLogin = s.Profile.Login
	m.header = layout.HeaderInfo{Login: s.Profile.Login}

	screenCmd := m.router.Reset(home.New(m.opts.Loader, m.opts.Loader.RangeMonths()))
	if !m.fire(dashboard.StartLoad, "") {
		return screenCmd
	}

	userID := s.UserID
	cached := func() tea.Msg {
		snap, err := m.opts.Loader.LoadCached(m.ctx, userID)
		if err != nil && !errors.Is(err, dashboard.ErrNoSnapshot) {
			m.logger.Warn("load saved snapshot", "error", err)
		}
		return cachedMsg{snap: snap}
	}
	return tea.Batch(screenCmd, tea.Sequence(cached, m.load()))
}

func (m *AppModel) startLoad() tea.Cmd {
	if m.sess == nil || !m.fire(dashboard.StartLoad, "") {
		return nil
	}
	return tea.Batch(m.router.Update(home.LoadingMsg{}), m.load())
}

func (m *AppModel) load() tea.Cmd {
	token := m.sess.Token
	return func() tea.Msg {
		snap, err := m.opts.Loader.Load(m.ctx, token)
		return loadResultMsg{snap: snap, err: err}
	}
}

func (m *AppModel) handleCached(msg cachedMsg) tea.Cmd {
	if msg.snap == nil || m.machine.Phase() != dashboard.Loading {
		return nil
	}
	m.applyHeader(msg.snap)
	return tea.Batch(
		m.router.Update(home.LoadedMsg{Snapshot: msg.snap}),
		m.router.Update(home.LoadingMsg{}),
	)
}

func (m *AppModel) handleLoadResult(msg loadResultMsg) tea.Cmd {
	if m.machine.Phase() != dashboard.Loading {
		return nil
	}

	var authErr *graphql.ErrAuth
	switch {
	case errors.Is(msg.err, dashboard.ErrStaleLoad):
		m.logger.Debug("ignoring stale load result")
		return nil

	case errors.As(msg.err, &authErr):
		m.logger.Info("session rejected by server", "error", msg.err)
		m.fire(dashboard.SessionExpired, SessionExpiredMessage)
		return tea.Batch(m.signOut(), m.router.Update(welcome.FailedMsg{Message: SessionExpiredMessage}))

	case msg.err != nil:
		m.logger.Error("dashboard load failed", "error", msg.err)
		m.fire(dashboard.LoadFailed, msg.err.Error())
		return m.router.Update(home.LoadFailedMsg{Message: msg.err.Error()})
	}

	m.fire(dashboard.LoadSucceeded, "")
	m.syncedAt = msg.snap.LoadedAt
	m.applyHeader(msg.snap)
	return m.router.Update(home.LoadedMsg{Snapshot: msg.snap})
}

func (m *AppModel) applyHeader(snap *dashboard.Snapshot) {
	if snap.Dataset != nil && snap.Dataset.Profile.Login != "" {
		m.header.Login = snap.Dataset.Profile.Login
	}
	if snap.Stats.OK() {
		m.header.Level = snap.Stats.Value.Level
		m.header.Rank = snap.Stats.Value.CurrentRank.Name
	}
}

func (m *AppModel) handleLogout() tea.Cmd {
	if !m.fire(dashboard.Logout, "") {
		return nil
	}
	return m.signOut()
}

// signOut clears the session and returns to the sign-in screen.
func (m *AppModel) signOut() tea.Cmd {
	m.sess = nil
	m.header = layout.HeaderInfo{}
	m.syncedAt = time.Time{}
	screenCmd := m.router.Reset(welcome.New(m.lastLogin))

	clearSession := func() tea.Msg {
		if m.opts.Sessions == nil {
			return logoutDoneMsg{}
		}
		return logoutDoneMsg{err: m.opts.Sessions.Logout(m.ctx)}
	}
	return tea.Batch(screenCmd, clearSession)
}

// fire applies ev to the machine, logging and rejecting illegal events.
func (m *AppModel) fire(ev dashboard.Event, message string) bool {
	from := m.machine.Phase()
	to, err := m.machine.Fire(ev, message)
	if err != nil {
		m.logger.Warn("ignored event", "error", err)
		return false
	}
	m.logger.Debug("phase changed", "event", ev.String(), "from", from.String(), "to", to.String())
	return true
}

// loginErrorMessage turns a sign-in failure into the text shown on the form.
func loginErrorMessage(err error) string {
	var authErr *graphql.ErrAuth
	var netErr *graphql.ErrNetwork
	switch {
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &netErr):
		return "could not reach the server"
	}
	return err.Error()
}

func (m *AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.header, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	}
	if len(footerHints) == 0 {
		footerHints = []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}

	status := ""
	if !m.syncedAt.IsZero() {
		status = "synced " + humanize.RelTime(m.syncedAt, m.now(), "ago", "from now")
	}
	footer := layout.RenderFooter(footerHints, status, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	if opts.Sessions == nil || opts.Loader == nil {
		return errors.New("app: sessions and loader are required")
	}
	p := tea.NewProgram(newAppModel(ctx, opts), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
