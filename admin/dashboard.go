package admin

import (
	"context"
	"net/url"
	"time"

	"github.com/jrsteele09/vpn-admin/resource"
)

// DashboardStats are the headline counters. Unknown fields are ignored.
type DashboardStats struct {
	TotalUsers          int     `json:"total_users"`
	ActiveUsers         int     `json:"active_users"`
	TotalServers        int     `json:"total_servers"`
	ActiveServers       int     `json:"active_servers"`
	PendingRequests     int     `json:"pending_requests"`
	TotalRevenue        float64 `json:"total_revenue"`
	PendingWithdrawals  int     `json:"pending_withdrawals"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
}

// GraphQuery selects the graph-data window. Period defaults to weekly.
type GraphQuery struct {
	Period    string
	StartDate time.Time
	EndDate   time.Time
}

type DashboardService struct {
	b *backend
}

func (s *DashboardService) Stats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	err := s.b.opaque(ctx, "dashboard.stats", RouteDashboardStats, nil, &stats)
	return stats, err
}

// Graph returns the raw series; the backend shape varies by period so the
// points are left as JSON.
func (s *DashboardService) Graph(ctx context.Context, q GraphQuery) (map[string]any, error) {
	query := url.Values{}
	period := q.Period
	if period == "" {
		period = "weekly"
	}
	query.Set("period", period)
	if !q.StartDate.IsZero() {
		query.Set("start_date", q.StartDate.Format(time.DateOnly))
	}
	if !q.EndDate.IsZero() {
		query.Set("end_date", q.EndDate.Format(time.DateOnly))
	}

	out := map[string]any{}
	err := s.b.opaque(ctx, "dashboard.graph", RouteDashboardGraph, query, &out)
	return out, err
}

// RecentActivity returns the latest events, newest first as the backend orders them.
func (s *DashboardService) RecentActivity(ctx context.Context) ([]resource.Resource, error) {
	page, err := s.b.list(ctx, "dashboard.recent_activity", RouteRecentActivity, resource.PageRequest{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}
