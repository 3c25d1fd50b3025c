package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/vpn-admin/resource"
)

type AssignmentFilter struct {
	Status    string
	IsPremium *bool
	ServerID  string
	UserID    string
}

// AssignmentsService manages server assignments and the users' access requests.
type AssignmentsService struct {
	b *backend
}

func (s *AssignmentsService) List(ctx context.Context, page resource.PageRequest, f AssignmentFilter) (resource.PageResult, error) {
	page = page.With("status", f.Status).With("server_id", f.ServerID).With("user_id", f.UserID)
	if f.IsPremium != nil {
		page = page.With("is_premium", *f.IsPremium)
	}
	return s.b.list(ctx, "assignments.list", RouteAssignments, page)
}

func (s *AssignmentsService) Get(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.get(ctx, "assignments.get", RouteAssignment, id)
}

func (s *AssignmentsService) Pending(ctx context.Context, page resource.PageRequest) (resource.PageResult, error) {
	return s.b.list(ctx, "assignments.pending", RoutePendingAssignments, page)
}

func (s *AssignmentsService) Create(ctx context.Context, attrs map[string]any) (resource.Resource, error) {
	return s.b.mutate(ctx, "assignments.create", http.MethodPost, RouteAssignments, map[string]any{"server_assignment": attrs})
}

func (s *AssignmentsService) Update(ctx context.Context, id string, attrs map[string]any) (resource.Resource, error) {
	return s.b.mutateID(ctx, "assignments.update", http.MethodPut, RouteAssignment, map[string]any{"server_assignment": attrs}, id)
}

func (s *AssignmentsService) Delete(ctx context.Context, id string) error {
	_, err := s.b.mutateID(ctx, "assignments.delete", http.MethodDelete, RouteAssignment, nil, id)
	return err
}

// Approve grants a pending request. A zero expiresAt leaves the expiry to the backend.
func (s *AssignmentsService) Approve(ctx context.Context, id string, expiresAt time.Time) (resource.Resource, error) {
	body := map[string]any{}
	if !expiresAt.IsZero() {
		body["expires_at"] = expiresAt.UTC().Format(time.RFC3339)
	}
	return s.b.mutateID(ctx, "assignments.approve", http.MethodPost, RouteApproveAssignment, body, id)
}

func (s *AssignmentsService) Reject(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.mutateID(ctx, "assignments.reject", http.MethodPost, RouteRejectAssignment, nil, id)
}
