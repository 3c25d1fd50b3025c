package resource_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/vpn-admin/internal/errors"
	"github.com/jrsteele09/vpn-admin/resource"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) resource.Resource {
	t.Helper()
	var r resource.Resource
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

func TestResource_JSONAPIDocument(t *testing.T) {
	r := decode(t, `{
		"id": 42,
		"type": "server_assignment",
		"attributes": {"status": "active", "is_premium": true, "bandwidth_limit": 1024},
		"relationships": {"user": {"data": {"id": "7", "type": "user"}}}
	}`)

	require.Equal(t, "42", r.ID())
	require.Equal(t, "server_assignment", r.Type())
	require.Equal(t, "active", r.String("status"))
	require.True(t, r.Bool("is_premium"))
	limit, ok := r.Int("bandwidth_limit")
	require.True(t, ok)
	require.Equal(t, 1024, limit)

	user, ok := r.Relationship("user")
	require.True(t, ok)
	require.Equal(t, "7", user.ID())

	_, ok = r.Relationship("server")
	require.False(t, ok)
}

func TestResource_FlatObject(t *testing.T) {
	r := decode(t, `{"id": "abc", "email": "a@b.c", "amount": 12.5}`)
	require.Equal(t, "abc", r.ID())
	require.Equal(t, "a@b.c", r.String("email"))
	require.Equal(t, 12.5, r.Float("amount"))

	var target struct {
		Email string `json:"email"`
	}
	require.NoError(t, r.Decode(&target))
	require.Equal(t, "a@b.c", target.Email)
}

func TestPageRequest_Query(t *testing.T) {
	req := resource.NewPageRequest(0, 0).
		With("status", "pending").
		With("search", "").
		With("is_premium", false).
		With("start_date", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)).
		Normalized(10)

	q := req.Query()
	require.Equal(t, "1", q.Get("page"))
	require.Equal(t, "10", q.Get("per_page"))
	require.Equal(t, "pending", q.Get("status"))
	require.Equal(t, "false", q.Get("is_premium"))
	require.Equal(t, "2026-01-02", q.Get("start_date"))
	require.False(t, q.Has("search"))
}

func TestPageRequest_Validate(t *testing.T) {
	require.NoError(t, resource.NewPageRequest(0, 0).Validate())
	require.ErrorIs(t, resource.NewPageRequest(-1, 10).Validate(), errors.ErrInvalidPageRequest)
	require.ErrorIs(t, resource.NewPageRequest(1, -10).Validate(), errors.ErrInvalidPageRequest)
}

func TestPageRequest_WithDoesNotMutate(t *testing.T) {
	base := resource.NewPageRequest(1, 10).With("status", "active")
	_ = base.With("search", "bob")
	require.Len(t, base.Filters, 1)
}
