package auth

import (
	"time"

	"github.com/jrsteele09/vpn-admin/internal/utils"
	"golang.org/x/oauth2"
)

// State is the Manager's position in the session lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	}
	return "anonymous"
}

// Session is the current credential set as persisted in the token store.
type Session struct {
	AccessToken      string
	RefreshToken     *string
	ExpiresAtEpochMs *int64
}

// ExpiresAt returns the access token expiry, zero when unknown
func (s Session) ExpiresAt() time.Time {
	if s.ExpiresAtEpochMs == nil {
		return time.Time{}
	}
	return time.UnixMilli(*s.ExpiresAtEpochMs)
}

// ExpirySkew is how long before its expiry an access token already counts
// as expired. It is the x/oauth2 default.
const ExpirySkew = 10 * time.Second

// OAuth2Token exposes the session in x/oauth2 form.
func (s Session) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: utils.Value(s.RefreshToken),
		Expiry:       s.ExpiresAt(),
	}
}

// Expired reports, by the wall clock, whether the access token is missing or
// within ExpirySkew of its expiry. A session without a known expiry never expires.
func (s Session) Expired() bool {
	return !s.OAuth2Token().Valid()
}

// ExpiredAt is Expired measured against now instead of the wall clock, with
// the same rule as oauth2.Token.Valid.
func (s Session) ExpiredAt(now time.Time) bool {
	tok := s.OAuth2Token()
	if tok.AccessToken == "" {
		return true
	}
	if tok.Expiry.IsZero() {
		return false
	}
	return tok.Expiry.Add(-ExpirySkew).Before(now)
}
