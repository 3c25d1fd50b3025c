// Package admin exposes the VPN admin backend's resources. Every operation
// runs through api.Call, so callers only ever see *api.AppError failures and
// normalized resource.PageResult / resource.Resource values.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/internal/errors"
	"github.com/jrsteele09/vpn-admin/normalize"
	"github.com/jrsteele09/vpn-admin/resource"
)

// Requester sends a single request to the admin API. *apiclient.Client satisfies it.
type Requester interface {
	Do(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (json.RawMessage, error)
}

type backend struct {
	client         Requester
	caller         *api.Caller
	defaultPerPage int
}

// expand fills the {id} style placeholders of route in order.
func expand(route string, ids ...string) (string, error) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return "", errors.ErrMissingID
		}
		start := strings.Index(route, "{")
		end := strings.Index(route, "}")
		if start < 0 || end < start {
			break
		}
		route = route[:start] + url.PathEscape(id) + route[end+1:]
	}
	return route, nil
}

func (b *backend) list(ctx context.Context, op, route string, req resource.PageRequest) (resource.PageResult, error) {
	if err := req.Validate(); err != nil {
		return resource.PageResult{}, api.ToAppError(err)
	}
	query := req.Normalized(b.defaultPerPage).Query()

	ctx = api.WithOperationName(ctx, op)
	return api.Call(ctx, b.caller, func(ctx context.Context) (resource.PageResult, error) {
		raw, err := b.client.Do(ctx, http.MethodGet, route, nil, apiclient.WithQuery(query))
		if err != nil {
			return resource.PageResult{}, err
		}
		return normalize.Page(raw)
	})
}

func (b *backend) get(ctx context.Context, op, route string, ids ...string) (resource.Resource, error) {
	path, err := expand(route, ids...)
	if err != nil {
		return nil, api.ToAppError(err)
	}

	ctx = api.WithOperationName(ctx, op)
	return api.Call(ctx, b.caller, func(ctx context.Context) (resource.Resource, error) {
		raw, err := b.client.Do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		return normalize.Item(raw)
	})
}

// opaque fetches a report style body and decodes it into target. Reports
// sometimes arrive wrapped in {data: {...}}; the wrapper is dropped.
func (b *backend) opaque(ctx context.Context, op, route string, query url.Values, target any) error {
	ctx = api.WithOperationName(ctx, op)
	_, err := api.Call(ctx, b.caller, func(ctx context.Context) (struct{}, error) {
		raw, err := b.client.Do(ctx, http.MethodGet, route, nil, apiclient.WithQuery(query))
		if err != nil {
			return struct{}{}, err
		}
		result, err := normalize.Normalize(raw)
		if err != nil {
			return struct{}{}, err
		}
		if result.Kind == normalize.KindItem {
			return struct{}{}, result.Item.Decode(target)
		}
		return struct{}{}, normalize.Decode(result, target)
	})
	return err
}

// mutate sends a write. The returned resource is nil when the backend
// answered with an empty or non-resource body.
func (b *backend) mutate(ctx context.Context, op, method, path string, body any, opts ...apiclient.RequestOption) (resource.Resource, error) {
	ctx = api.WithOperationName(ctx, op)
	return api.Call(ctx, b.caller, func(ctx context.Context) (resource.Resource, error) {
		raw, err := b.client.Do(ctx, method, path, body, opts...)
		if err != nil {
			return nil, err
		}
		result, err := normalize.Normalize(raw)
		if err != nil {
			return nil, err
		}
		if result.Kind == normalize.KindItem {
			return result.Item, nil
		}
		return nil, nil
	})
}

func (b *backend) mutateID(ctx context.Context, op, method, route string, body any, ids ...string) (resource.Resource, error) {
	path, err := expand(route, ids...)
	if err != nil {
		return nil, api.ToAppError(err)
	}
	return b.mutate(ctx, op, method, path, body)
}

func expandOrAppError(route string, ids ...string) (string, error) {
	path, err := expand(route, ids...)
	if err != nil {
		return "", api.ToAppError(err)
	}
	return path, nil
}
