// Package auth owns the admin session: login, refresh, logout and the
// persisted credentials that back them.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	RouteLogin   = "/admin/login"
	RouteRefresh = "/admin/refresh"
	RouteLogout  = "/admin/logout"

	defaultTokenExpiry = time.Hour
	refreshFlightKey   = "refresh"
)

// NowTimeFunc is the default clock for new Managers.
var NowTimeFunc = time.Now

// Requester sends a single request to the admin API. *apiclient.Client satisfies it.
type Requester interface {
	Do(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (json.RawMessage, error)
}

// TokenStore persists the session. *token.Store satisfies it.
type TokenStore interface {
	AccessToken() (*string, error)
	RefreshToken() (*string, error)
	Save(accessToken string, refreshToken *string, expiresInSeconds *int64) error
	Clear() error
	Snapshot() (accessToken, refreshToken *string, expiresAtMs *int64, err error)
}

// Manager runs the session lifecycle. It is safe for concurrent use; at most
// one refresh is in flight at any time and concurrent callers share its outcome.
type Manager struct {
	client        Requester
	store         TokenStore
	navigator     Navigator
	nowFunc       func() time.Time
	defaultExpiry time.Duration

	refreshGroup singleflight.Group

	mu             sync.RWMutex
	state          State
	// refreshingFrom is the state a running refresh started from.
	refreshingFrom State
	user           json.RawMessage
}

type ManagerOption func(*Manager)

func WithNavigator(n Navigator) ManagerOption {
	return func(m *Manager) {
		if n != nil {
			m.navigator = n
		}
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithDefaultExpiry sets the lifetime assumed when the backend gives no expiry.
func WithDefaultExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.defaultExpiry = d
		}
	}
}

// NewManager starts Authenticated when the store already holds an access token.
func NewManager(client Requester, store TokenStore, options ...ManagerOption) *Manager {
	m := &Manager{
		client:        client,
		store:         store,
		navigator:     noopNavigator{},
		nowFunc:       NowTimeFunc,
		defaultExpiry: defaultTokenExpiry,
		state:         Anonymous,
	}
	for _, opt := range options {
		opt(m)
	}

	if tok, err := store.AccessToken(); err != nil {
		log.Err(err).Msg("[auth.NewManager] reading stored session")
	} else if tok != nil {
		m.state = Authenticated
	}
	return m
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a session. Nothing is written unless the
// backend returns a usable access token.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	raw, err := m.client.Do(ctx, http.MethodPost, RouteLogin, loginRequest{Email: email, Password: password}, apiclient.WithoutAuth())
	if err != nil {
		var httpErr *apiclient.HTTPError
		if errors.As(err, &httpErr) && rejected(httpErr.StatusCode) {
			return Session{}, fmt.Errorf("%w: %s", InvalidCredentialsErr, httpErr.BodyMessage)
		}
		return Session{}, err
	}

	tr, err := parseTokenResponse(raw)
	if err != nil {
		return Session{}, err
	}

	if err := m.store.Clear(); err != nil {
		return Session{}, err
	}
	session, err := m.persist(tr)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	m.state = Authenticated
	m.user = tr.User
	m.mu.Unlock()

	log.Info().Str("email", email).Msg("admin logged in")
	return session, nil
}

// Refresh obtains a new access token with the stored refresh token. Any failure
// leaves the Manager Anonymous with an empty store; the navigator is notified
// unless the Manager was already Anonymous.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	v, err, shared := m.refreshGroup.Do(refreshFlightKey, func() (any, error) {
		// The flight is shared, so one caller's cancellation must not fail the others.
		return m.refresh(context.WithoutCancel(ctx))
	})
	if shared {
		log.Debug().Msg("[auth.Refresh] joined in-flight refresh")
	}
	if err != nil {
		return Session{}, err
	}
	return v.(Session), nil
}

func (m *Manager) refresh(ctx context.Context) (Session, error) {
	m.mu.Lock()
	m.refreshingFrom = m.state
	m.state = Refreshing
	m.mu.Unlock()

	refreshToken, err := m.store.RefreshToken()
	if err != nil {
		m.expire("session storage unavailable")
		return Session{}, err
	}
	if refreshToken == nil {
		m.expire("no refresh token")
		return Session{}, NoRefreshTokenErr
	}

	raw, err := m.client.Do(ctx, http.MethodPost, RouteRefresh, refreshRequest{RefreshToken: *refreshToken}, apiclient.WithoutAuth())
	if err != nil {
		var httpErr *apiclient.HTTPError
		if errors.As(err, &httpErr) && rejected(httpErr.StatusCode) {
			err = fmt.Errorf("%w: %s", RefreshRejectedErr, httpErr.BodyMessage)
		}
		log.Err(err).Msg("[auth.Refresh] refresh failed")
		m.expire("session expired")
		return Session{}, err
	}

	tr, err := parseTokenResponse(raw)
	if err != nil {
		m.expire("session expired")
		return Session{}, err
	}

	session, err := m.persist(tr)
	if err != nil {
		m.expire("session storage unavailable")
		return Session{}, err
	}
	m.setState(Authenticated)
	return session, nil
}

// Logout ends the session locally whatever the backend says.
func (m *Manager) Logout(ctx context.Context) {
	if _, err := m.client.Do(ctx, http.MethodDelete, RouteLogout, nil); err != nil {
		log.Warn().Err(err).Msg("[auth.Logout] remote logout failed")
	}
	if err := m.store.Clear(); err != nil {
		log.Err(err).Msg("[auth.Logout] clearing session")
	}

	m.mu.Lock()
	m.state = Anonymous
	m.user = nil
	m.mu.Unlock()
}

// ExpireSession clears the session and redirects to login. Calling it on an
// already anonymous Manager, or while a refresh that started from Anonymous
// is running, clears the store without redirecting.
func (m *Manager) ExpireSession(reason string) {
	m.expire(reason)
}

func (m *Manager) expire(reason string) {
	if err := m.store.Clear(); err != nil {
		log.Err(err).Msg("[auth] clearing expired session")
	}

	m.mu.Lock()
	previous := m.state
	if previous == Refreshing {
		previous = m.refreshingFrom
	}
	wasAnonymous := previous == Anonymous
	m.state = Anonymous
	m.user = nil
	m.mu.Unlock()

	if !wasAnonymous {
		m.navigator.RedirectToLogin(reason)
	}
}

// IsAuthenticated is true when a non-empty access token is stored.
func (m *Manager) IsAuthenticated() bool {
	tok, err := m.store.AccessToken()
	if err != nil {
		log.Err(err).Msg("[auth.IsAuthenticated] reading access token")
		return false
	}
	return tok != nil && *tok != ""
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the profile from the last login response, if any.
func (m *Manager) User() json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Session reads the persisted session. ok is false when there is none.
func (m *Manager) Session() (session Session, ok bool, err error) {
	access, refresh, expiresAt, err := m.store.Snapshot()
	if err != nil {
		return Session{}, false, err
	}
	if access == nil {
		return Session{}, false, nil
	}
	return Session{AccessToken: *access, RefreshToken: refresh, ExpiresAtEpochMs: expiresAt}, true, nil
}

// Restore is called at process start. A stored access token that is expired,
// or within ExpirySkew of expiring, is refreshed once; a missing one leaves
// the Manager Anonymous.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	session, ok, err := m.Session()
	if err != nil {
		return Session{}, err
	}
	if !ok {
		m.setState(Anonymous)
		return Session{}, nil
	}
	if session.ExpiredAt(m.nowFunc()) {
		log.Info().Msg("[auth.Restore] stored session expired, refreshing")
		return m.Refresh(ctx)
	}
	m.setState(Authenticated)
	return session, nil
}

func (m *Manager) persist(tr TokenResponse) (Session, error) {
	now := m.nowFunc()
	expiresIn := tr.expiresInSeconds(now, m.defaultExpiry)
	if err := m.store.Save(tr.AccessToken, tr.RefreshToken, utils.Ptr(expiresIn)); err != nil {
		return Session{}, err
	}
	expiresAt := now.Add(time.Duration(expiresIn) * time.Second).UnixMilli()
	return Session{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken, ExpiresAtEpochMs: &expiresAt}, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// rejected is the set of statuses meaning the backend refused the credentials
// or refresh token, as opposed to being unreachable or broken.
func rejected(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
