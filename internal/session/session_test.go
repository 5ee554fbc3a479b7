package session

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/zonedash/internal/graphql"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/store"
)

type memKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.failSet {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type fakeAuth struct {
	token string
	err   error
	calls int
}

func (f *fakeAuth) SignIn(context.Context, string, string) (string, error) {
	f.calls++
	return f.token, f.err
}

func jwt(claims string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." + enc.EncodeToString([]byte(claims)) + ".sig"
}

var fixedNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func newTestManager(kv store.KVRepo, auth Authenticator) *Manager {
	return NewManager(kv, auth, WithClock(func() time.Time { return fixedNow }))
}

func TestLoginPersistsSession(t *testing.T) {
	kv := newMemKV()
	token := jwt(`{"sub":"42","exp":1900000000}`)
	m := newTestManager(kv, &fakeAuth{token: token})

	s, err := m.Login(context.Background(), " jdoe ", "secret")
	require.NoError(t, err)
	assert.Equal(t, 42, s.UserID)
	assert.Equal(t, "jdoe", s.Profile.Login)

	stored, err := kv.Get(context.Background(), store.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, token, stored)
	assert.Contains(t, kv.data[store.KeyCurrentUser], `"id":42`)

	require.NotNil(t, m.Current())
	assert.Equal(t, token, m.Current().Token)
}

func TestLoginFailurePersistsNothing(t *testing.T) {
	kv := newMemKV()
	m := newTestManager(kv, &fakeAuth{err: &graphql.ErrAuth{Status: 401, Message: "invalid credentials"}})

	s, err := m.Login(context.Background(), "jdoe", "wrong")
	require.Error(t, err)
	assert.Nil(t, s)
	assert.NotEmpty(t, err.Error())

	var authErr *graphql.ErrAuth
	assert.True(t, errors.As(err, &authErr))
	assert.Empty(t, kv.data)
	assert.Nil(t, m.Current())
}

func TestLoginRequiresCredentials(t *testing.T) {
	auth := &fakeAuth{token: jwt(`{"sub":"1"}`)}
	m := newTestManager(newMemKV(), auth)

	_, err := m.Login(context.Background(), "  ", "secret")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = m.Login(context.Background(), "jdoe", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, auth.calls)
}

func TestLoginRollsBackPartialWrite(t *testing.T) {
	kv := newMemKV()
	kv.failSet = store.KeyCurrentUser
	m := newTestManager(kv, &fakeAuth{token: jwt(`{"sub":"5"}`)})

	_, err := m.Login(context.Background(), "jdoe", "secret")
	require.Error(t, err)
	assert.Empty(t, kv.data)
	assert.Nil(t, m.Current())
}

func TestRestore(t *testing.T) {
	kv := newMemKV()
	token := jwt(`{"sub":"42"}`)
	kv.data[store.KeyAuthToken] = token
	kv.data[store.KeyCurrentUser] = `{"id":42,"login":"jdoe","firstName":"Jane"}`

	m := newTestManager(kv, &fakeAuth{})
	s, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 42, s.UserID)
	assert.Equal(t, "Jane", s.Profile.FirstName)
	assert.Equal(t, token, m.Current().Token)
}

func TestRestoreNothingStored(t *testing.T) {
	m := newTestManager(newMemKV(), &fakeAuth{})
	s, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Nil(t, m.Current())
}

func TestRestoreDiscardsExpiredToken(t *testing.T) {
	kv := newMemKV()
	kv.data[store.KeyAuthToken] = jwt(`{"sub":"42","exp":1600000000}`)
	kv.data[store.KeyCurrentUser] = `{"id":42}`

	m := newTestManager(kv, &fakeAuth{})
	s, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Empty(t, kv.data)
}

func TestRestoreIgnoresProfileOfAnotherUser(t *testing.T) {
	kv := newMemKV()
	kv.data[store.KeyAuthToken] = jwt(`{"sub":"42"}`)
	kv.data[store.KeyCurrentUser] = `{"id":7,"login":"someone"}`

	m := newTestManager(kv, &fakeAuth{})
	s, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, s.Profile.ID)
	assert.Empty(t, s.Profile.Login)
}

func TestSaveProfileAndLogout(t *testing.T) {
	kv := newMemKV()
	m := newTestManager(kv, &fakeAuth{token: jwt(`{"sub":"42"}`)})

	assert.Error(t, m.SaveProfile(context.Background(), record.Profile{ID: 42}))

	_, err := m.Login(context.Background(), "jdoe", "secret")
	require.NoError(t, err)
	require.NoError(t, m.SaveProfile(context.Background(), record.Profile{ID: 42, Login: "jdoe", Country: "Kenya"}))
	assert.Equal(t, "Kenya", m.Current().Profile.Country)
	assert.Contains(t, kv.data[store.KeyCurrentUser], "Kenya")

	require.NoError(t, m.Logout(context.Background()))
	assert.Nil(t, m.Current())
	assert.Empty(t, kv.data)
}
