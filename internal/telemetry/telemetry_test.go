package telemetry_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/vpn-admin/internal/telemetry"
	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "vpn-admin-test", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	// Non-routable, nothing is exported.
	shutdown, err := telemetry.Setup(context.Background(), "vpn-admin-test", "http://192.0.2.1:4318")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
