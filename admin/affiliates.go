package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/vpn-admin/resource"
)

type AffiliateFilter struct {
	Search string
	// Status "all" is the same as no status filter.
	Status string
}

type AffiliatesService struct {
	b *backend
}

func (s *AffiliatesService) List(ctx context.Context, page resource.PageRequest, f AffiliateFilter) (resource.PageResult, error) {
	page = page.With("search", f.Search)
	if !strings.EqualFold(f.Status, "all") {
		page = page.With("status", f.Status)
	}
	return s.b.list(ctx, "affiliates.list", RouteAffiliates, page)
}

func (s *AffiliatesService) Get(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.get(ctx, "affiliates.get", RouteAffiliate, id)
}

func (s *AffiliatesService) Create(ctx context.Context, attrs map[string]any) (resource.Resource, error) {
	return s.b.mutate(ctx, "affiliates.create", http.MethodPost, RouteAffiliates, map[string]any{"affiliate": attrs})
}

func (s *AffiliatesService) Update(ctx context.Context, id string, attrs map[string]any) (resource.Resource, error) {
	return s.b.mutateID(ctx, "affiliates.update", http.MethodPut, RouteAffiliate, map[string]any{"affiliate": attrs}, id)
}

func (s *AffiliatesService) Delete(ctx context.Context, id string) error {
	_, err := s.b.mutateID(ctx, "affiliates.delete", http.MethodDelete, RouteAffiliate, nil, id)
	return err
}

func (s *AffiliatesService) UpdateStatus(ctx context.Context, id, status string) (resource.Resource, error) {
	return s.b.mutateID(ctx, "affiliates.update_status", http.MethodPut, RouteAffiliateStatus, map[string]any{"status": status}, id)
}
