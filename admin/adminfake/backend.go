// Package adminfake is an in-process stand-in for the VPN admin REST API. It
// serves the same routes the admin and auth packages call, with bcrypt admin
// accounts, HS256 access tokens and single-use refresh tokens, and lets tests
// expire sessions or break refresh on demand.
package adminfake

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// BasePath is where the API is mounted, matching the client's default base URL.
const BasePath = "/api/v1"

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// NowTimeFunc is the default clock for new Backends.
var NowTimeFunc = time.Now

// Collection names a seeded resource table.
type Collection string

const (
	Users       Collection = "users"
	Devices     Collection = "devices"
	Servers     Collection = "servers"
	Assignments Collection = "server_assignments"
	Affiliates  Collection = "affiliates"
	Commissions Collection = "commissions"
	Withdrawals Collection = "withdrawal_requests"
	Activity    Collection = "activity"
)

type adminAccount struct {
	id           string
	email        string
	name         string
	passwordHash string
}

// Backend serves the fake API. The zero value is not usable; call New.
type Backend struct {
	router  *mux.Router
	issuer  *tokenIssuer
	now     func() time.Time
	secret  []byte
	access  time.Duration
	refresh time.Duration

	adminsLock sync.RWMutex
	admins     map[string]adminAccount

	tables map[Collection]*collection

	refreshFailure atomic.Int32
	loginCalls     atomic.Int32
	refreshCalls   atomic.Int32
	requests       atomic.Int32
}

type Option func(*Backend)

func WithNowFunc(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

func WithAccessTTL(d time.Duration) Option {
	return func(b *Backend) {
		b.access = d
	}
}

func WithSigningSecret(secret []byte) Option {
	return func(b *Backend) {
		b.secret = secret
	}
}

func New(options ...Option) *Backend {
	b := &Backend{
		now:     NowTimeFunc,
		secret:  []byte("adminfake-signing-secret"),
		access:  defaultAccessTTL,
		refresh: defaultRefreshTTL,
		admins:  make(map[string]adminAccount),
		tables:  make(map[Collection]*collection),
	}
	for _, opt := range options {
		opt(b)
	}
	for _, c := range []Collection{Users, Devices, Servers, Assignments, Affiliates, Commissions, Withdrawals, Activity} {
		b.tables[c] = newCollection()
	}
	b.issuer = newTokenIssuer(b.secret, b.access, b.refresh, b.now)
	b.router = mux.NewRouter()
	b.initRoutes()
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

// Start serves the backend on a loopback port. The returned base URL already
// includes BasePath; call Close on the server when done.
func (b *Backend) Start() (*httptest.Server, string) {
	srv := httptest.NewServer(b)
	return srv, srv.URL + BasePath
}

// AddAdmin registers login credentials. The password is stored as a bcrypt hash.
func (b *Backend) AddAdmin(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	b.adminsLock.Lock()
	defer b.adminsLock.Unlock()
	b.admins[email] = adminAccount{
		id:           fmt.Sprintf("admin-%d", len(b.admins)+1),
		email:        email,
		name:         "Administrator",
		passwordHash: string(hash),
	}
	return nil
}

func (b *Backend) authenticate(email, password string) (adminAccount, bool) {
	b.adminsLock.RLock()
	account, ok := b.admins[email]
	b.adminsLock.RUnlock()
	if !ok {
		return adminAccount{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(account.passwordHash), []byte(password)) != nil {
		return adminAccount{}, false
	}
	return account, true
}

func (b *Backend) adminByID(id string) (adminAccount, bool) {
	b.adminsLock.RLock()
	defer b.adminsLock.RUnlock()
	for _, a := range b.admins {
		if a.id == id {
			return a, true
		}
	}
	return adminAccount{}, false
}

// Seed stores a record and returns its id. A missing created_at is set to now.
func (b *Backend) Seed(c Collection, attrs map[string]any) string {
	r := record(attrs).clone()
	if _, ok := r["created_at"]; !ok {
		r["created_at"] = b.now().UTC().Format(time.RFC3339)
	}
	stored := b.tables[c].insert(r)
	return fmt.Sprint(stored.id())
}

// Record returns a stored record for assertions.
func (b *Backend) Record(c Collection, id string) (map[string]any, bool) {
	r, err := b.tables[c].get(id)
	if err != nil {
		return nil, false
	}
	return r, true
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens keep working.
func (b *Backend) ExpireAccessTokens() {
	b.issuer.expireAccess()
	log.Debug().Msg("[adminfake] access tokens expired")
}

// RevokeRefreshTokens makes every outstanding refresh token unknown.
func (b *Backend) RevokeRefreshTokens() {
	b.issuer.dropRefresh()
}

// FailRefreshWith makes the refresh endpoint answer with status until reset
// with 0.
func (b *Backend) FailRefreshWith(status int) {
	b.refreshFailure.Store(int32(status))
}

func (b *Backend) LoginCalls() int {
	return int(b.loginCalls.Load())
}

func (b *Backend) RefreshCalls() int {
	return int(b.refreshCalls.Load())
}

// Requests counts every request that reached a handler.
func (b *Backend) Requests() int {
	return int(b.requests.Load())
}
