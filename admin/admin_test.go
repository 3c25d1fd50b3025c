package admin_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/vpn-admin/admin"
	"github.com/jrsteele09/vpn-admin/admin/adminfake"
	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/auth"
	"github.com/jrsteele09/vpn-admin/resource"
	"github.com/jrsteele09/vpn-admin/token"
	"github.com/jrsteele09/vpn-admin/token/kvfake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@vpn.example"
	adminPassword = "correct-horse"
)

type testFixture struct {
	backend   *adminfake.Backend
	store     *token.Store
	manager   *auth.Manager
	client    *admin.Client
	redirects int
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{backend: adminfake.New()}
	require.NoError(t, f.backend.AddAdmin(adminEmail, adminPassword))
	srv, baseURL := f.backend.Start()
	t.Cleanup(srv.Close)

	f.store = token.NewStore(kvfake.NewFakeKV())
	httpClient, err := apiclient.New(baseURL, f.store)
	require.NoError(t, err)

	f.manager = auth.NewManager(httpClient, f.store, auth.WithNavigator(auth.NavigatorFunc(func(string) {
		f.redirects++
	})))
	caller := api.NewCaller(f.manager, f.store)
	f.client = admin.New(httpClient, caller, admin.WithDefaultPerPage(10))
	return f
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	_, err := f.manager.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
}

func TestLoginScenario(t *testing.T) {
	f := newTestFixture(t)

	session, err := f.manager.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotNil(t, session.RefreshToken)
	require.True(t, f.manager.IsAuthenticated())

	_, err = f.manager.Login(context.Background(), adminEmail, "wrong")
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)
}

func TestUsers_Pagination(t *testing.T) {
	f := newTestFixture(t)
	for i := 1; i <= 45; i++ {
		f.backend.Seed(adminfake.Users, map[string]any{
			"email":  fmt.Sprintf("user%02d@example.com", i),
			"name":   fmt.Sprintf("User %d", i),
			"status": "active",
		})
	}
	f.login(t)

	page, err := f.client.Users.List(context.Background(), resource.NewPageRequest(2, 10), admin.UserFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 5, page.TotalPages)
	require.Equal(t, 45, page.TotalCount)
	require.LessOrEqual(t, len(page.Items), 10)
	require.Equal(t, "user11@example.com", page.Items[0].String("email"))
	require.True(t, page.HasNext())
}

func TestUsers_SearchAndDevices(t *testing.T) {
	f := newTestFixture(t)
	alice := f.backend.Seed(adminfake.Users, map[string]any{"email": "alice@example.com", "name": "Alice", "status": "active"})
	f.backend.Seed(adminfake.Users, map[string]any{"email": "bob@example.com", "name": "Bob", "status": "suspended"})
	phone := f.backend.Seed(adminfake.Devices, map[string]any{"user_id": alice, "name": "phone"})
	f.backend.Seed(adminfake.Devices, map[string]any{"user_id": alice, "name": "laptop"})
	f.login(t)
	ctx := context.Background()

	page, err := f.client.Users.List(ctx, resource.PageRequest{}, admin.UserFilter{Search: "ALI"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, alice, page.Items[0].ID())

	page, err = f.client.Users.List(ctx, resource.PageRequest{}, admin.UserFilter{Status: "suspended"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Bob", page.Items[0].String("name"))

	devices, err := f.client.Users.Devices(ctx, alice)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	require.NoError(t, f.client.Users.RemoveDevice(ctx, alice, phone))
	devices, err = f.client.Users.Devices(ctx, alice)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	updated, err := f.client.Users.Update(ctx, alice, map[string]any{"status": "suspended"})
	require.NoError(t, err)
	require.Equal(t, "suspended", updated.String("status"))
}

func TestUsers_NotFoundAndMissingID(t *testing.T) {
	f := newTestFixture(t)
	f.login(t)

	_, err := f.client.Users.Get(context.Background(), "999")
	require.True(t, api.IsKind(err, api.KindNotFound))
	before := f.backend.Requests()

	_, err = f.client.Users.Get(context.Background(), " ")
	require.True(t, api.IsKind(err, api.KindValidation))
	require.Equal(t, before, f.backend.Requests())
}

func TestList_RejectsNegativePage(t *testing.T) {
	f := newTestFixture(t)
	f.login(t)
	before := f.backend.Requests()

	_, err := f.client.Users.List(context.Background(), resource.NewPageRequest(-1, 10), admin.UserFilter{})
	require.True(t, api.IsKind(err, api.KindValidation))
	require.Equal(t, before, f.backend.Requests())
}

func TestServers_MultipartAndJSONAPI(t *testing.T) {
	f := newTestFixture(t)
	f.login(t)
	ctx := context.Background()

	created, err := f.client.Servers.Create(ctx, map[string]any{"name": "fra-1", "ip_address": "10.0.0.1", "type": "premium"})
	require.NoError(t, err)
	require.Equal(t, "server", created.Type())
	require.Equal(t, "fra-1", created.String("name"))

	_, err = f.client.Servers.Create(ctx, map[string]any{"name": "no-ip"})
	require.True(t, api.IsKind(err, api.KindValidation))
	var appErr *api.AppError
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "ip_address")

	updated, err := f.client.Servers.Update(ctx, created.ID(), map[string]any{"status": "maintenance"})
	require.NoError(t, err)
	require.Equal(t, "maintenance", updated.String("status"))

	page, err := f.client.Servers.List(ctx, resource.PageRequest{}, admin.ServerFilter{Type: "premium"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	require.NoError(t, f.client.Servers.Delete(ctx, created.ID()))
	_, err = f.client.Servers.Get(ctx, created.ID())
	require.True(t, api.IsKind(err, api.KindNotFound))
}

func TestAssignments_PendingApproveReject(t *testing.T) {
	f := newTestFixture(t)
	user := f.backend.Seed(adminfake.Users, map[string]any{"email": "u@example.com", "status": "active"})
	server := f.backend.Seed(adminfake.Servers, map[string]any{"name": "ams-1", "status": "active"})
	first := f.backend.Seed(adminfake.Assignments, map[string]any{"user_id": user, "server_id": server, "status": "pending", "is_premium": true})
	second := f.backend.Seed(adminfake.Assignments, map[string]any{"user_id": user, "server_id": server, "status": "pending", "is_premium": false})
	f.login(t)
	ctx := context.Background()

	pending, err := f.client.Assignments.Pending(ctx, resource.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, pending.TotalCount)

	related, ok := pending.Related(pending.Items[0], "server")
	require.True(t, ok)
	require.Equal(t, "ams-1", related.String("name"))

	premium, err := f.client.Assignments.List(ctx, resource.PageRequest{}, admin.AssignmentFilter{IsPremium: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, premium.Items, 1)
	require.Equal(t, first, premium.Items[0].ID())

	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	approved, err := f.client.Assignments.Approve(ctx, first, expires)
	require.NoError(t, err)
	require.Equal(t, "approved", approved.String("status"))
	require.Equal(t, "2030-01-01T00:00:00Z", approved.String("expires_at"))

	rejected, err := f.client.Assignments.Reject(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "rejected", rejected.String("status"))

	pending, err = f.client.Assignments.Pending(ctx, resource.PageRequest{})
	require.NoError(t, err)
	require.True(t, pending.Empty())
}

func TestAffiliates_NestedEnvelopeAndStatus(t *testing.T) {
	f := newTestFixture(t)
	for i := 0; i < 3; i++ {
		f.backend.Seed(adminfake.Affiliates, map[string]any{"name": fmt.Sprintf("Partner %d", i), "email": fmt.Sprintf("p%d@example.com", i), "status": "active"})
	}
	f.login(t)
	ctx := context.Background()

	page, err := f.client.Affiliates.List(ctx, resource.NewPageRequest(1, 2), admin.AffiliateFilter{Status: "all"})
	require.NoError(t, err)
	require.Equal(t, 3, page.TotalCount)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)

	updated, err := f.client.Affiliates.UpdateStatus(ctx, page.Items[0].ID(), "suspended")
	require.NoError(t, err)
	require.Equal(t, "suspended", updated.String("status"))

	_, err = f.client.Affiliates.UpdateStatus(ctx, page.Items[0].ID(), "bogus")
	require.True(t, api.IsKind(err, api.KindValidation))

	created, err := f.client.Affiliates.Create(ctx, map[string]any{"name": "New", "email": "new@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID())
}

func TestCommissions_DateRangeAndReject(t *testing.T) {
	f := newTestFixture(t)
	early := f.backend.Seed(adminfake.Commissions, map[string]any{"amount": 10.5, "status": "pending", "created_at": "2025-01-05T10:00:00Z"})
	f.backend.Seed(adminfake.Commissions, map[string]any{"amount": 20.0, "status": "pending", "created_at": "2025-02-05T10:00:00Z"})
	f.login(t)
	ctx := context.Background()

	page, err := f.client.Commissions.List(ctx, resource.PageRequest{}, admin.CommissionFilter{
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, early, page.Items[0].ID())

	_, err = f.client.Commissions.Reject(ctx, early, "")
	require.True(t, api.IsKind(err, api.KindValidation))

	rejected, err := f.client.Commissions.Reject(ctx, early, "duplicate referral")
	require.NoError(t, err)
	require.Equal(t, "rejected", rejected.String("status"))
	require.Equal(t, "duplicate referral", rejected.String("reason"))
}

func TestWithdrawals_StateMachine(t *testing.T) {
	f := newTestFixture(t)
	toReject := f.backend.Seed(adminfake.Withdrawals, map[string]any{"amount": 50.0, "status": "pending", "affiliate_id": 1})
	toComplete := f.backend.Seed(adminfake.Withdrawals, map[string]any{"amount": 75.0, "status": "pending", "affiliate_id": 1})
	f.login(t)
	ctx := context.Background()

	t.Run("reject then approve is a validation error", func(t *testing.T) {
		rejected, err := f.client.Withdrawals.Reject(ctx, toReject, "insufficient balance")
		require.NoError(t, err)
		require.Equal(t, admin.WithdrawalRejected, rejected.String("status"))

		got, err := f.client.Withdrawals.Get(ctx, toReject)
		require.NoError(t, err)
		require.Equal(t, "insufficient balance", got.String("reason"))

		_, err = f.client.Withdrawals.Approve(ctx, toReject)
		require.True(t, api.IsKind(err, api.KindValidation))
		var appErr *api.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)
		require.False(t, appErr.Retryable())
	})

	t.Run("complete requires approval first", func(t *testing.T) {
		_, err := f.client.Withdrawals.Complete(ctx, toComplete, admin.Completion{TransactionID: "tx-1"})
		require.True(t, api.IsKind(err, api.KindValidation))

		_, err = f.client.Withdrawals.Approve(ctx, toComplete)
		require.NoError(t, err)

		completed, err := f.client.Withdrawals.Complete(ctx, toComplete, admin.Completion{TransactionID: "tx-1", Notes: "paid via bank"})
		require.NoError(t, err)
		require.Equal(t, admin.WithdrawalCompleted, completed.String("status"))
		require.Equal(t, "tx-1", completed.String("transaction_id"))
	})

	t.Run("filter by status", func(t *testing.T) {
		page, err := f.client.Withdrawals.List(ctx, resource.PageRequest{}, admin.WithdrawalFilter{Status: admin.WithdrawalCompleted})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		require.Equal(t, toComplete, page.Items[0].ID())
	})
}

func TestDashboard(t *testing.T) {
	f := newTestFixture(t)
	f.backend.Seed(adminfake.Users, map[string]any{"email": "a@example.com", "status": "active"})
	f.backend.Seed(adminfake.Users, map[string]any{"email": "b@example.com", "status": "inactive"})
	f.backend.Seed(adminfake.Withdrawals, map[string]any{"status": "pending"})
	f.backend.Seed(adminfake.Activity, map[string]any{"type": "login", "description": "older", "created_at": "2025-01-01T00:00:00Z"})
	f.backend.Seed(adminfake.Activity, map[string]any{"type": "signup", "description": "newer", "created_at": "2025-01-02T00:00:00Z"})
	f.login(t)
	ctx := context.Background()

	stats, err := f.client.Dashboard.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 1, stats.ActiveUsers)
	require.Equal(t, 1, stats.PendingWithdrawals)

	graph, err := f.client.Dashboard.Graph(ctx, admin.GraphQuery{})
	require.NoError(t, err)
	require.Equal(t, "weekly", graph["period"])
	require.Len(t, graph["labels"], 7)

	activity, err := f.client.Dashboard.RecentActivity(ctx)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	require.Equal(t, "newer", activity[0].String("description"))
}

func TestSession_ExpiredAccessTokenIsRefreshedOnce(t *testing.T) {
	f := newTestFixture(t)
	f.backend.Seed(adminfake.Users, map[string]any{"email": "a@example.com"})
	f.login(t)
	before, err := f.store.AccessToken()
	require.NoError(t, err)

	f.backend.ExpireAccessTokens()

	page, err := f.client.Users.List(context.Background(), resource.PageRequest{}, admin.UserFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, 1, f.backend.RefreshCalls())

	after, err := f.store.AccessToken()
	require.NoError(t, err)
	require.NotEqual(t, *before, *after)
	require.Zero(t, f.redirects)
}

func TestSession_ConcurrentExpiryRefreshesOnce(t *testing.T) {
	f := newTestFixture(t)
	f.backend.Seed(adminfake.Users, map[string]any{"email": "a@example.com"})
	f.login(t)
	f.backend.ExpireAccessTokens()

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.client.Users.List(context.Background(), resource.PageRequest{}, admin.UserFilter{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, f.backend.RefreshCalls())
}

func TestSession_RefreshFailureExpiresSession(t *testing.T) {
	f := newTestFixture(t)
	f.login(t)
	f.backend.ExpireAccessTokens()
	f.backend.RevokeRefreshTokens()
	before := f.backend.Requests()

	_, err := f.client.Users.List(context.Background(), resource.PageRequest{}, admin.UserFilter{})
	require.True(t, api.IsKind(err, api.KindSessionExpired))
	require.ErrorIs(t, err, auth.RefreshRejectedErr)
	require.False(t, f.manager.IsAuthenticated())
	require.Equal(t, 1, f.redirects)
	// the list call and the refresh; no retry
	require.Equal(t, before+2, f.backend.Requests())
}

func boolPtr(b bool) *bool {
	return &b
}
