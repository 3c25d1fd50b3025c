package admin

import (
	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/resource"
)

// Client groups the admin resource services over one API connection.
type Client struct {
	Dashboard   *DashboardService
	Users       *UsersService
	Servers     *ServersService
	Assignments *AssignmentsService
	Affiliates  *AffiliatesService
	Commissions *CommissionsService
	Withdrawals *WithdrawalsService
}

type Option func(*backend)

// WithDefaultPerPage sets the page size used when a PageRequest leaves it zero.
func WithDefaultPerPage(n int) Option {
	return func(b *backend) {
		if n > 0 {
			b.defaultPerPage = n
		}
	}
}

func New(client Requester, caller *api.Caller, options ...Option) *Client {
	b := &backend{
		client:         client,
		caller:         caller,
		defaultPerPage: resource.DefaultPerPage,
	}
	for _, opt := range options {
		opt(b)
	}

	return &Client{
		Dashboard:   &DashboardService{b},
		Users:       &UsersService{b},
		Servers:     &ServersService{b},
		Assignments: &AssignmentsService{b},
		Affiliates:  &AffiliatesService{b},
		Commissions: &CommissionsService{b},
		Withdrawals: &WithdrawalsService{b},
	}
}
