package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetUserAgent() string
	GetDefaultPerPage() int
}

type API struct {
	BaseURL        string        `env:"VPN_ADMIN_API_URL" envDefault:"http://localhost:4000/api/v1"`
	RequestTimeout time.Duration `env:"VPN_ADMIN_TIMEOUT" envDefault:"15s"`
	UserAgent      string        `env:"VPN_ADMIN_USER_AGENT" envDefault:"vpn-admin/1"`
	DefaultPerPage int           `env:"VPN_ADMIN_PER_PAGE" envDefault:"20"`
}

var _ APIConfig = API{}

// GetBaseURL returns the API root including the version prefix, without a trailing slash
func (a API) GetBaseURL() string {
	return strings.TrimSuffix(a.BaseURL, "/")
}

func (a API) GetRequestTimeout() time.Duration {
	if a.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return a.RequestTimeout
}

func (a API) GetUserAgent() string {
	return a.UserAgent
}

func (a API) GetDefaultPerPage() int {
	if a.DefaultPerPage <= 0 {
		return 20
	}
	return a.DefaultPerPage
}
