package admin

import (
	"context"
	"net/http"

	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/resource"
)

// serverFormPrefix names the multipart fields server[name], server[ip_address], ...
const serverFormPrefix = "server"

type ServerFilter struct {
	Status string
	Type   string
}

type ServersService struct {
	b *backend
}

func (s *ServersService) List(ctx context.Context, page resource.PageRequest, f ServerFilter) (resource.PageResult, error) {
	page = page.With("status", f.Status).With("type", f.Type)
	return s.b.list(ctx, "servers.list", RouteServers, page)
}

func (s *ServersService) Get(ctx context.Context, id string) (resource.Resource, error) {
	return s.b.get(ctx, "servers.get", RouteServer, id)
}

// Create posts the server as a multipart form. Nested values are sent as JSON.
func (s *ServersService) Create(ctx context.Context, attrs map[string]any) (resource.Resource, error) {
	return s.b.mutate(ctx, "servers.create", http.MethodPost, RouteServers, nil, apiclient.WithMultipart(serverFormPrefix, attrs))
}

func (s *ServersService) Update(ctx context.Context, id string, attrs map[string]any) (resource.Resource, error) {
	path, err := expandOrAppError(RouteServer, id)
	if err != nil {
		return nil, err
	}
	return s.b.mutate(ctx, "servers.update", http.MethodPut, path, nil, apiclient.WithMultipart(serverFormPrefix, attrs))
}

func (s *ServersService) Delete(ctx context.Context, id string) error {
	_, err := s.b.mutateID(ctx, "servers.delete", http.MethodDelete, RouteServer, nil, id)
	return err
}
