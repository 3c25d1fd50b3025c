package screen_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/resource"
	"github.com/jrsteele09/vpn-admin/screen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servers() []resource.Resource {
	return []resource.Resource{
		{"id": "1", "type": "server", "attributes": map[string]any{"name": "Frankfurt-1", "ip_address": "10.0.0.1", "status": "active"}},
		{"id": "2", "type": "server", "attributes": map[string]any{"name": "London-1", "ip_address": "10.0.0.2", "status": "maintenance"}},
		{"id": "3", "type": "server", "attributes": map[string]any{"name": "london-2", "ip_address": "10.0.1.3", "status": "active"}},
	}
}

func staticFetcher(calls *[]resource.PageRequest) screen.Fetcher {
	return func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		*calls = append(*calls, req)
		return resource.PageResult{Items: servers(), CurrentPage: req.Page, TotalPages: 3, TotalCount: 9}, nil
	}
}

func TestListView_Load(t *testing.T) {
	var calls []resource.PageRequest
	view := screen.NewListView("servers", staticFetcher(&calls), screen.WithPerPage(3))
	view.SetFilter("status", "active")
	view.SetFilter("type", "")

	require.NoError(t, view.Load(context.Background(), 1))

	state := view.State()
	require.False(t, state.Loading)
	require.Nil(t, state.Err)
	require.Len(t, state.Page.Items, 3)
	require.Equal(t, 1, state.Page.CurrentPage)
	require.Equal(t, map[string]any{"status": "active"}, calls[0].Filters)
	require.Equal(t, 3, calls[0].PerPage)

	t.Run("Next and Previous", func(t *testing.T) {
		require.NoError(t, view.Next(context.Background()))
		require.Equal(t, 2, view.State().Page.CurrentPage)
		require.NoError(t, view.Next(context.Background()))
		require.Equal(t, 3, view.State().Page.CurrentPage)

		before := len(calls)
		require.NoError(t, view.Next(context.Background()))
		require.Len(t, calls, before, "no request past the last page")

		require.NoError(t, view.Previous(context.Background()))
		require.Equal(t, 2, view.State().Page.CurrentPage)
	})

	t.Run("Reload keeps the page", func(t *testing.T) {
		require.NoError(t, view.Reload(context.Background()))
		require.Equal(t, 2, calls[len(calls)-1].Page)
	})
}

func TestListView_SearchAndFilter(t *testing.T) {
	var calls []resource.PageRequest
	view := screen.NewListView("servers", staticFetcher(&calls), screen.WithSearchFields("name", "ip_address"))
	require.NoError(t, view.Load(context.Background(), 1))

	require.Len(t, view.Search(""), 3)
	require.Len(t, view.Search("LONDON"), 2)
	require.Len(t, view.Search("10.0.1"), 1)
	require.Empty(t, view.Search("paris"))

	require.Len(t, view.FilterStatus("all"), 3)
	require.Len(t, view.FilterStatus("active"), 2)
	require.Len(t, view.FilterStatus("Maintenance"), 1)

	require.Equal(t, map[string]int{"active": 2, "maintenance": 1}, view.StatusCounts())
	require.Equal(t, []string{"active", "maintenance"}, view.Statuses())

	require.Len(t, calls, 1, "search and filter never hit the backend")
}

func TestListView_ErrorState(t *testing.T) {
	fail := true
	view := screen.NewListView("users", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		if fail {
			return resource.PageResult{}, &apiclient.HTTPError{StatusCode: http.StatusInternalServerError, Kind: apiclient.KindServerError, BodyMessage: "boom"}
		}
		return resource.PageResult{Items: servers(), CurrentPage: 1, TotalPages: 1, TotalCount: 3}, nil
	})

	err := view.Load(context.Background(), 1)
	require.Error(t, err)
	require.True(t, api.IsKind(err, api.KindServerError))

	state := view.State()
	require.False(t, state.Loading)
	require.NotNil(t, state.Err)
	require.True(t, state.Err.Retryable())
	require.True(t, state.Page.Empty())

	fail = false
	require.NoError(t, view.Reload(context.Background()))
	require.Nil(t, view.State().Err)
	require.Len(t, view.State().Page.Items, 3)
}

func TestListView_DiscardsStaleResults(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	view := screen.NewListView("withdrawals", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		if req.Page == 1 {
			close(started)
			<-release
		}
		return resource.PageResult{Items: []resource.Resource{{"id": req.Page}}, CurrentPage: req.Page, TotalPages: 2}, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var slowErr error
	go func() {
		defer wg.Done()
		slowErr = view.Load(context.Background(), 1)
	}()
	<-started
	assert.True(t, view.State().Loading)

	require.NoError(t, view.Load(context.Background(), 2))
	close(release)
	wg.Wait()

	require.ErrorIs(t, slowErr, screen.SupersededErr)
	require.Equal(t, 2, view.State().Page.CurrentPage)
}

func TestListView_Dispose(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	view := screen.NewListView("commissions", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		close(started)
		<-release
		return resource.PageResult{Items: servers(), CurrentPage: 1, TotalPages: 1}, nil
	})

	done := make(chan error, 1)
	go func() { done <- view.Load(context.Background(), 1) }()
	<-started
	view.Dispose()
	close(release)

	require.ErrorIs(t, <-done, screen.DisposedErr)
	require.True(t, view.State().Page.Empty())
	require.ErrorIs(t, view.Load(context.Background(), 1), screen.DisposedErr)
}
