package admin

import (
	"context"
	"net/http"

	"github.com/jrsteele09/vpn-admin/resource"
)

type UserFilter struct {
	Search string
	Status string
}

type UsersService struct {
	b *backend
}

func (s *UsersService) List(ctx context.Context, page resource.PageRequest, f UserFilter) (resource.PageResult, error) {
	page = page.With("search", f.Search).With("status", f.Status)
	return s.b.list(ctx, "users.list", RouteUsers, page)
}

func (s *UsersService) Get(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.get(ctx, "users.get", RouteUser, id)
}

// Update sends the changed attributes as {user: {...}}.
func (s *UsersService) Update(ctx context.Context, id string, attrs map[string]any) (resource.Resource, error) {
	return s.b.mutateID(ctx, "users.update", http.MethodPut, RouteUser, map[string]any{"user": attrs}, id)
}

func (s *UsersService) Devices(ctx context.Context, userID string) ([]resource.Resource, error) {
	path, err := expandOrAppError(RouteUserDevices, userID)
	if err != nil {
		return nil, err
	}
	page, err := s.b.list(ctx, "users.devices", path, resource.PageRequest{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *UsersService) RemoveDevice(ctx context.Context, userID, deviceID string) error {
	_, err := s.b.mutateID(ctx, "users.remove_device", http.MethodDelete, RouteUserDevice, nil, userID, deviceID)
	return err
}
