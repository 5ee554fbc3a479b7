// Package dashboard orchestrates a dashboard load: the auth/load state
// machine, the fetch, the widget fan-out and the published snapshot.
package dashboard

import (
	"errors"
	"fmt"
	"sync"
)

// Phase is a state of the dashboard lifecycle.
type Phase int

const (
	Unauthenticated Phase = iota
	Authenticating
	Authenticated
	Loading
	Ready
	LoadError
)

var phaseNames = [...]string{
	Unauthenticated: "unauthenticated",
	Authenticating:  "authenticating",
	Authenticated:   "authenticated",
	Loading:         "loading",
	Ready:           "ready",
	LoadError:       "load-error",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Event drives a Phase transition.
type Event int

const (
	// SubmitLogin starts a sign-in attempt.
	SubmitLogin Event = iota
	// LoginSucceeded ends a sign-in attempt with a token.
	LoginSucceeded
	// LoginFailed ends a sign-in attempt with an error message.
	LoginFailed
	// SessionRestored skips the login form with a stored session.
	SessionRestored
	// StartLoad begins a load; from Ready or LoadError it is a reload.
	StartLoad
	// LoadSucceeded publishes a snapshot.
	LoadSucceeded
	// LoadFailed reports that the mandatory fetch failed.
	LoadFailed
	// SessionExpired drops back to the login form after an auth error.
	SessionExpired
	// Logout clears the session.
	Logout
)

var eventNames = [...]string{
	SubmitLogin:     "submit-login",
	LoginSucceeded:  "login-succeeded",
	LoginFailed:     "login-failed",
	SessionRestored: "session-restored",
	StartLoad:       "start-load",
	LoadSucceeded:   "load-succeeded",
	LoadFailed:      "load-failed",
	SessionExpired:  "session-expired",
	Logout:          "logout",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// ErrIllegalTransition is returned when an event is not allowed in the
// current phase.
var ErrIllegalTransition = errors.New("illegal transition")

var transitions = map[Phase]map[Event]Phase{
	Unauthenticated: {
		SubmitLogin:     Authenticating,
		SessionRestored: Authenticated,
	},
	Authenticating: {
		LoginSucceeded: Authenticated,
		LoginFailed:    Unauthenticated,
	},
	Authenticated: {
		StartLoad: Loading,
		Logout:    Unauthenticated,
	},
	Loading: {
		StartLoad:      Loading,
		LoadSucceeded:  Ready,
		LoadFailed:     LoadError,
		SessionExpired: Unauthenticated,
		Logout:         Unauthenticated,
	},
	Ready: {
		StartLoad:      Loading,
		SessionExpired: Unauthenticated,
		Logout:         Unauthenticated,
	},
	LoadError: {
		StartLoad:      Loading,
		SessionExpired: Unauthenticated,
		Logout:         Unauthenticated,
	},
}

// Machine tracks the current Phase and the message attached to the last
// transition (a login error, a load error). It is safe for concurrent use.
type Machine struct {
	mu      sync.Mutex
	phase   Phase
	message string
}

// NewMachine returns a Machine in the Unauthenticated phase.
func NewMachine() *Machine {
	return &Machine{phase: Unauthenticated}
}

// Fire applies ev. message is kept for failure events and cleared
// otherwise. An event not allowed in the current phase leaves the machine
// unchanged and returns ErrIllegalTransition.
func (m *Machine) Fire(ev Event, message string) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, ok := transitions[m.phase][ev]
	if !ok {
		return m.phase, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, ev, m.phase)
	}
	m.phase = next
	switch ev {
	case LoginFailed, LoadFailed, SessionExpired:
		m.message = message
	default:
		m.message = ""
	}
	return next, nil
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Message returns the message attached to the last transition.
func (m *Machine) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}
