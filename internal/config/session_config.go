package config

import "time"

type SessionConfig interface {
	GetTokenDBPath() string
	GetDefaultTokenExpiry() time.Duration
}

type Session struct {
	TokenDBPath        string        `env:"VPN_ADMIN_TOKEN_DB" envDefault:"./data/session.db"`
	DefaultTokenExpiry time.Duration `env:"VPN_ADMIN_DEFAULT_TOKEN_EXPIRY" envDefault:"1h"`
}

var _ SessionConfig = Session{}

// GetTokenDBPath is where the persisted session lives. Empty keeps it in memory.
func (s Session) GetTokenDBPath() string {
	return s.TokenDBPath
}

// GetDefaultTokenExpiry applies when the backend sends neither expires_in nor a JWT exp claim
func (s Session) GetDefaultTokenExpiry() time.Duration {
	if s.DefaultTokenExpiry <= 0 {
		return time.Hour
	}
	return s.DefaultTokenExpiry
}
