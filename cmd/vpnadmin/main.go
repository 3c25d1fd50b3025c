package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/jrsteele09/vpn-admin/admin"
	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/auth"
	"github.com/jrsteele09/vpn-admin/internal/cli"
	"github.com/jrsteele09/vpn-admin/internal/config"
	"github.com/jrsteele09/vpn-admin/internal/telemetry"
	"github.com/jrsteele09/vpn-admin/token"
	"github.com/jrsteele09/vpn-admin/token/sqlitekv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return err
	}
	setupLogging(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, c.GetAppName(), c.GetOtelEndpoint())
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("flushing spans")
		}
	}()

	kv, err := sqlitekv.Open(c.GetTokenDBPath())
	if err != nil {
		log.Err(err).Msg("opening session store")
		return err
	}
	defer kv.Close()
	store := token.NewStore(kv)

	options := []apiclient.Option{
		apiclient.WithTimeout(c.GetRequestTimeout()),
		apiclient.WithUserAgent(c.GetUserAgent()),
	}
	if c.GetOtelEndpoint() != "" {
		options = append(options, apiclient.WithTracing())
	}
	httpClient, err := apiclient.New(c.GetBaseURL(), store, options...)
	if err != nil {
		log.Err(err).Msg("creating api client")
		return err
	}

	prompt := cli.NewLoginPrompt(os.Stdout)
	manager := auth.NewManager(httpClient, store,
		auth.WithNavigator(prompt),
		auth.WithDefaultExpiry(c.GetDefaultTokenExpiry()),
	)
	if _, err := manager.Restore(ctx); err != nil {
		log.Debug().Err(err).Msg("restoring session")
	}

	client := admin.New(httpClient, api.NewCaller(manager, store), admin.WithDefaultPerPage(c.GetDefaultPerPage()))
	app := cli.New(os.Stdout, manager, client,
		cli.WithAppName(c.GetAppName()),
		cli.WithPerPage(c.GetDefaultPerPage()),
		cli.WithPasswordSource(func() string { return config.GetEnv("VPN_ADMIN_PASSWORD", "") }),
	)
	return app.Run(ctx, args)
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(c.GetEnv(), "DEV") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
