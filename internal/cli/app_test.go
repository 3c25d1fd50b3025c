package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/jrsteele09/vpn-admin/admin"
	"github.com/jrsteele09/vpn-admin/admin/adminfake"
	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/auth"
	"github.com/jrsteele09/vpn-admin/internal/cli"
	"github.com/jrsteele09/vpn-admin/token"
	"github.com/jrsteele09/vpn-admin/token/kvfake"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "ops@vpn.example"
	adminPassword = "s3cret"
)

type testFixture struct {
	backend *adminfake.Backend
	out     *bytes.Buffer
	prompt  *cli.LoginPrompt
	app     *cli.App
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{backend: adminfake.New(), out: &bytes.Buffer{}}
	require.NoError(t, f.backend.AddAdmin(adminEmail, adminPassword))
	srv, baseURL := f.backend.Start()
	t.Cleanup(srv.Close)

	store := token.NewStore(kvfake.NewFakeKV())
	httpClient, err := apiclient.New(baseURL, store)
	require.NoError(t, err)

	f.prompt = cli.NewLoginPrompt(f.out)
	manager := auth.NewManager(httpClient, store, auth.WithNavigator(f.prompt))
	client := admin.New(httpClient, api.NewCaller(manager, store))
	f.app = cli.New(f.out, manager, client,
		cli.WithPerPage(5),
		cli.WithPasswordSource(func() string { return adminPassword }),
	)
	return f
}

func (f *testFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	f.out.Reset()
	err := f.app.Run(context.Background(), args)
	return f.out.String(), err
}

func TestRun_Usage(t *testing.T) {
	f := newTestFixture(t)

	out, err := f.run(t)
	require.NoError(t, err)
	require.Contains(t, out, "Usage: vpnadmin <command> [flags]")
	require.Contains(t, out, "complete-withdrawal <id>")

	_, err = f.run(t, "frobnicate")
	require.ErrorIs(t, err, cli.UnknownCommandErr)
}

func TestRun_LoginStatusLogout(t *testing.T) {
	f := newTestFixture(t)

	out, err := f.run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in.")

	out, err = f.run(t, "login", "-email", adminEmail, "-password", "wrong")
	require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	require.Contains(t, out, "error:")

	out, err = f.run(t, "login", "-email", adminEmail)
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as "+adminEmail)

	out, err = f.run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "State: authenticated")
	require.NotContains(t, out, "has expired")

	out, err = f.run(t, "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out.")

	out, err = f.run(t, "status")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in.")
}

func TestRun_ListsWithClientSideSearch(t *testing.T) {
	f := newTestFixture(t)
	for _, s := range []map[string]any{
		{"name": "ams-1", "ip_address": "10.1.0.1", "location": "Amsterdam", "status": "active"},
		{"name": "ams-2", "ip_address": "10.1.0.2", "location": "Amsterdam", "status": "active"},
		{"name": "nyc-1", "ip_address": "10.2.0.1", "location": "New York", "status": "active"},
	} {
		f.backend.Seed(adminfake.Servers, s)
	}
	_, err := f.run(t, "login", "-email", adminEmail)
	require.NoError(t, err)

	out, err := f.run(t, "servers")
	require.NoError(t, err)
	require.Contains(t, out, "NAME")
	require.Contains(t, out, "nyc-1")
	require.Contains(t, out, "page 1 of 1, 3 total")

	out, err = f.run(t, "servers", "-q", "ams")
	require.NoError(t, err)
	require.NotContains(t, out, "nyc-1")
	require.Contains(t, out, "2 matching on this page")
}

func TestRun_WithdrawalWorkflow(t *testing.T) {
	f := newTestFixture(t)
	id := f.backend.Seed(adminfake.Withdrawals, map[string]any{"amount": 1250.5, "status": "pending", "affiliate_id": 7})
	_, err := f.run(t, "login", "-email", adminEmail)
	require.NoError(t, err)

	out, err := f.run(t, "withdrawals")
	require.NoError(t, err)
	require.Contains(t, out, "$1,250.5")

	_, err = f.run(t, "reject-withdrawal", id)
	require.ErrorIs(t, err, cli.MissingArgumentErr)

	out, err = f.run(t, "reject-withdrawal", id, "-reason", "duplicate request")
	require.NoError(t, err)
	require.Contains(t, out, "Rejected withdrawal "+id+" (status: rejected)")

	out, err = f.run(t, "approve-withdrawal", id)
	require.True(t, api.IsKind(err, api.KindValidation))
	require.Contains(t, out, "Cannot mark a rejected request as approved")
	require.Contains(t, out, "status: transition not allowed")
}

func TestRun_SessionExpiredPromptsLogin(t *testing.T) {
	f := newTestFixture(t)
	_, err := f.run(t, "login", "-email", adminEmail)
	require.NoError(t, err)

	f.backend.ExpireAccessTokens()
	f.backend.RevokeRefreshTokens()

	out, err := f.run(t, "stats")
	require.True(t, api.IsKind(err, api.KindSessionExpired))
	require.Contains(t, out, "Run `vpnadmin login` to sign in again.")
	require.Equal(t, 1, f.prompt.Prompted())
}
