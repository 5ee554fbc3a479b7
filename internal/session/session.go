// Package session owns the signed-in user's session: the bearer token and
// the profile snapshot persisted in the store between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/zonedash/internal/graphql"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/store"
)

// ErrMissingCredentials is returned by Login when login or password is blank.
var ErrMissingCredentials = errors.New("please enter both login and password")

// Session is an authenticated session.
type Session struct {
	Token     string
	UserID    int
	ExpiresAt time.Time
	Profile   record.Profile
}

// Authenticator signs a user in. *graphql.Client satisfies it.
type Authenticator interface {
	SignIn(ctx context.Context, login, password string) (string, error)
}

// Manager creates, restores and clears the session. It is safe for
// concurrent use.
type Manager struct {
	kv     store.KVRepo
	auth   Authenticator
	logger *slog.Logger
	now    func() time.Time

	mu  sync.RWMutex
	cur *Session
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager persisting through kv.
func NewManager(kv store.KVRepo, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		kv:     kv,
		auth:   auth,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the active session, or nil when signed out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return nil
	}
	s := *m.cur
	return &s
}

// Restore loads a persisted session. It returns nil without error when no
// session is stored. A stored token that is unreadable or expired is
// cleared and treated as absent.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	token, err := m.kv.Get(ctx, store.KeyAuthToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	claims, err := graphql.ParseClaims(token)
	if err == nil && claims.Expired(m.now()) {
		err = errors.New("token expired")
	}
	if err != nil {
		m.logger.Info("discarding stored session", "reason", err)
		if derr := m.kv.Delete(ctx, store.KeyAuthToken, store.KeyCurrentUser); derr != nil {
			return nil, fmt.Errorf("clear stale session: %w", derr)
		}
		return nil, nil
	}

	s := &Session{Token: token, UserID: claims.UserID, ExpiresAt: claims.ExpiresAt}
	if raw, err := m.kv.Get(ctx, store.KeyCurrentUser); err == nil {
		var p record.Profile
		if jerr := json.Unmarshal([]byte(raw), &p); jerr != nil {
			m.logger.Warn("ignoring malformed stored profile", "error", jerr)
		} else if p.ID == 0 || p.ID == claims.UserID {
			s.Profile = p
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("restore profile: %w", err)
	}
	if s.Profile.ID == 0 {
		s.Profile.ID = claims.UserID
	}

	m.set(s)
	m.logger.Debug("session restored", "user_id", s.UserID)
	return s, nil
}

// Login signs in and persists the new session. On any failure nothing is
// persisted and the manager stays signed out.
func (m *Manager) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	token, err := m.auth.SignIn(ctx, login, password)
	if err != nil {
		m.logger.Info("sign in failed", "login", login, "error", err)
		return nil, err
	}

	claims, err := graphql.ParseClaims(token)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	s := &Session{
		Token:     token,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt,
		Profile:   record.Profile{ID: claims.UserID, Login: login},
	}
	if err := m.persist(ctx, s); err != nil {
		if derr := m.kv.Delete(ctx, store.KeyAuthToken, store.KeyCurrentUser); derr != nil {
			m.logger.Error("roll back partial session", "error", derr)
		}
		return nil, err
	}

	m.set(s)
	m.logger.Info("signed in", "user_id", s.UserID)
	return s, nil
}

// SaveProfile records the freshly fetched profile for the active session.
func (m *Manager) SaveProfile(ctx context.Context, p record.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return errors.New("save profile: not signed in")
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := m.kv.Set(ctx, store.KeyCurrentUser, string(raw)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	m.cur.Profile = p
	return nil
}

// Logout clears the session from memory and the store.
func (m *Manager) Logout(ctx context.Context) error {
	m.set(nil)
	if err := m.kv.Delete(ctx, store.KeyAuthToken, store.KeyCurrentUser); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	m.logger.Info("signed out")
	return nil
}

func (m *Manager) persist(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := m.kv.Set(ctx, store.KeyAuthToken, s.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := m.kv.Set(ctx, store.KeyCurrentUser, string(raw)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.cur = s
	m.mu.Unlock()
}
