package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/vpn-admin/resource"
)

type CommissionFilter struct {
	Status      string
	AffiliateID string
	StartDate   time.Time
	EndDate     time.Time
}

type CommissionsService struct {
	b *backend
}

func (s *CommissionsService) List(ctx context.Context, page resource.PageRequest, f CommissionFilter) (resource.PageResult, error) {
	page = page.With("status", f.Status).With("affiliate_id", f.AffiliateID)
	if !f.StartDate.IsZero() {
		page = page.With("start_date", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		page = page.With("end_date", f.EndDate)
	}
	return s.b.list(ctx, "commissions.list", RouteCommissions, page)
}

func (s *CommissionsService) Get(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.get(ctx, "commissions.get", RouteCommission, id)
}

func (s *CommissionsService) Approve(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.mutateID(ctx, "commissions.approve", http.MethodPost, RouteApproveCommission, nil, id)
}

func (s *CommissionsService) Reject(ctx context.Context, id, reason string) (resource.Resource, error) {
	return s.b.mutateID(ctx, "commissions.reject", http.MethodPost, RouteRejectCommission, map[string]any{"reason": reason}, id)
}
