package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/vpn-admin/internal/errors"
	"github.com/jrsteele09/vpn-admin/normalize"
	"github.com/jrsteele09/vpn-admin/resource"
	"github.com/stretchr/testify/require"
)

const (
	bareArrayBody = `[{"id": 1, "name": "fra-1"}, {"id": 2, "name": "ams-1"}]`

	paginatedBody = `{
		"data": [
			{"id": "1", "type": "user", "attributes": {"email": "a@example.com"}},
			{"id": "2", "type": "user", "attributes": {"email": "b@example.com"}}
		],
		"meta": {"current_page": 2, "total_pages": 5, "total_count": 45}
	}`

	singleBody = `{"data": {"id": "9", "type": "server", "attributes": {"name": "fra-1"}}}`

	nestedBody = `{"data": {"data": [{"id": "1"}], "meta": {"current_page": 3, "total_pages": 4, "total_count": 31}}}`

	statsBody = `{"total_users": 120, "active_servers": 8}`
)

func TestNormalize_Shapes(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		page, err := normalize.Page([]byte(bareArrayBody))
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		require.Equal(t, 1, page.CurrentPage)
		require.Equal(t, 1, page.TotalPages)
		require.Equal(t, 2, page.TotalCount)
		require.Equal(t, "fra-1", page.Items[0].String("name"))
	})

	t.Run("paginated envelope", func(t *testing.T) {
		page, err := normalize.Page(json.RawMessage(paginatedBody))
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		require.Equal(t, 2, page.CurrentPage)
		require.Equal(t, 5, page.TotalPages)
		require.Equal(t, 45, page.TotalCount)
		require.Equal(t, "b@example.com", page.Items[1].String("email"))
	})

	t.Run("paginated envelope without meta", func(t *testing.T) {
		page, err := normalize.Page(`{"data": [{"id": 1}, {"id": 2}, {"id": 3}]}`)
		require.NoError(t, err)
		require.Equal(t, 1, page.CurrentPage)
		require.Equal(t, 1, page.TotalPages)
		require.Equal(t, 3, page.TotalCount)
	})

	t.Run("paginated envelope with partial meta", func(t *testing.T) {
		page, err := normalize.Page(`{"data": [], "meta": {"total_count": 0}}`)
		require.NoError(t, err)
		require.Empty(t, page.Items)
		require.NotNil(t, page.Items)
		require.Equal(t, 1, page.CurrentPage)
		require.Equal(t, 0, page.TotalCount)
	})

	t.Run("single resource envelope", func(t *testing.T) {
		item, err := normalize.Item([]byte(singleBody))
		require.NoError(t, err)
		require.Equal(t, "9", item.ID())
		require.Equal(t, "fra-1", item.String("name"))
	})

	t.Run("nested envelope", func(t *testing.T) {
		page, err := normalize.Page([]byte(nestedBody))
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		require.Equal(t, 3, page.CurrentPage)
		require.Equal(t, 4, page.TotalPages)
		require.Equal(t, 31, page.TotalCount)
	})

	t.Run("opaque", func(t *testing.T) {
		r, err := normalize.Normalize([]byte(statsBody))
		require.NoError(t, err)
		require.Equal(t, normalize.KindOpaque, r.Kind)
		require.JSONEq(t, statsBody, string(r.Raw))

		var stats struct {
			TotalUsers int `json:"total_users"`
		}
		require.NoError(t, normalize.Decode(r, &stats))
		require.Equal(t, 120, stats.TotalUsers)
	})

	t.Run("empty body", func(t *testing.T) {
		r, err := normalize.Normalize([]byte("  "))
		require.NoError(t, err)
		require.Equal(t, normalize.KindOpaque, r.Kind)
		require.Empty(t, r.Raw)
	})

	t.Run("decoded values", func(t *testing.T) {
		page, err := normalize.Page([]any{map[string]any{"id": "x"}})
		require.NoError(t, err)
		require.Equal(t, "x", page.Items[0].ID())
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	bodies := map[string]string{
		"bare array": bareArrayBody,
		"paginated":  paginatedBody,
		"single":     singleBody,
		"nested":     nestedBody,
		"opaque":     statsBody,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			once, err := normalize.Normalize([]byte(body))
			require.NoError(t, err)
			twice, err := normalize.Normalize(once)
			require.NoError(t, err)
			require.Equal(t, once, twice)

			switch once.Kind {
			case normalize.KindPage:
				again, err := normalize.Normalize(once.Page)
				require.NoError(t, err)
				require.Equal(t, once, again)
			case normalize.KindItem:
				again, err := normalize.Normalize(once.Item)
				require.NoError(t, err)
				require.Equal(t, once, again)
			}
		})
	}
}

func TestNormalize_Expectations(t *testing.T) {
	_, err := normalize.Page([]byte(singleBody))
	require.ErrorIs(t, err, errors.ErrUnexpectedShape)

	_, err = normalize.Item([]byte(paginatedBody))
	require.ErrorIs(t, err, errors.ErrUnexpectedShape)

	_, err = normalize.Page([]byte(statsBody))
	require.ErrorIs(t, err, errors.ErrUnexpectedShape)

	_, err = normalize.Normalize([]byte(`{"data": [`))
	require.ErrorIs(t, err, errors.ErrMalformedBody)
}

func TestClassify(t *testing.T) {
	shape, err := normalize.Classify([]byte(bareArrayBody))
	require.NoError(t, err)
	require.IsType(t, normalize.BareArray{}, shape)

	shape, err = normalize.Classify([]byte(paginatedBody))
	require.NoError(t, err)
	env, ok := shape.(normalize.PaginatedEnvelope)
	require.True(t, ok)
	require.NotNil(t, env.Meta)
	require.Equal(t, 45, *env.Meta.TotalCount)

	shape, err = normalize.Classify([]byte(singleBody))
	require.NoError(t, err)
	require.IsType(t, normalize.SingleResourceEnvelope{}, shape)

	shape, err = normalize.Classify([]byte(`{"data": "ok"}`))
	require.NoError(t, err)
	require.IsType(t, normalize.Opaque{}, shape)
}

func TestNormalize_IncludedRelationships(t *testing.T) {
	body := `{
		"data": [{"id": "1", "type": "server_assignment",
			"relationships": {"user": {"data": {"id": "7", "type": "user"}},
			                  "server": {"data": {"id": "3", "type": "server"}}}}],
		"included": [{"id": "7", "type": "user", "attributes": {"username": "neo"}}]
	}`
	page, err := normalize.Page(body)
	require.NoError(t, err)

	user, ok := page.Related(page.Items[0], "user")
	require.True(t, ok)
	require.Equal(t, "neo", user.String("username"))

	server, ok := page.Related(page.Items[0], "server")
	require.True(t, ok)
	require.Equal(t, resource.Resource{"id": "3", "type": "server"}, server)
}
