// Package cli implements the vpnadmin commands on top of the admin client.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/vpn-admin/admin"
	"github.com/jrsteele09/vpn-admin/api"
	"github.com/jrsteele09/vpn-admin/auth"
	"github.com/rs/zerolog/log"
)

var UnknownCommandErr = errors.New("unknown command")

type command struct {
	usage string
	run   func(ctx context.Context, a *App, args []string) error
}

var commands = map[string]command{
	"login":               {"login -email <email> [-password <password>]", runLogin},
	"logout":              {"logout", runLogout},
	"status":              {"status", runStatus},
	"stats":               {"stats", runStats},
	"activity":            {"activity", runActivity},
	"users":               {"users [-page n] [-search text] [-status s] [-q text]", runUsers},
	"devices":             {"devices <user-id>", runDevices},
	"servers":             {"servers [-page n] [-status s] [-type t] [-q text]", runServers},
	"assignments":         {"assignments [-page n] [-status s] [-premium] [-server id] [-user id]", runAssignments},
	"pending":             {"pending [-page n]", runPending},
	"approve-assignment":  {"approve-assignment <id> [-days n]", runApproveAssignment},
	"reject-assignment":   {"reject-assignment <id>", runRejectAssignment},
	"affiliates":          {"affiliates [-page n] [-search text] [-status s]", runAffiliates},
	"commissions":         {"commissions [-page n] [-status s] [-affiliate id] [-from date] [-to date]", runCommissions},
	"withdrawals":         {"withdrawals [-page n] [-status s] [-affiliate id]", runWithdrawals},
	"approve-withdrawal":  {"approve-withdrawal <id>", runApproveWithdrawal},
	"reject-withdrawal":   {"reject-withdrawal <id> -reason <text>", runRejectWithdrawal},
	"complete-withdrawal": {"complete-withdrawal <id> -tx <transaction id> [-notes text]", runCompleteWithdrawal},
}

// App is one vpnadmin invocation's dependencies.
type App struct {
	out      io.Writer
	appName  string
	session  *auth.Manager
	client   *admin.Client
	perPage  int
	password func() string
}

type Option func(*App)

func WithAppName(name string) Option {
	return func(a *App) {
		a.appName = name
	}
}

// WithPerPage sets the page size list commands ask for.
func WithPerPage(n int) Option {
	return func(a *App) {
		a.perPage = n
	}
}

// WithPasswordSource supplies the login password when -password is omitted.
func WithPasswordSource(f func() string) Option {
	return func(a *App) {
		a.password = f
	}
}

func New(out io.Writer, session *auth.Manager, client *admin.Client, options ...Option) *App {
	a := &App{
		out:      out,
		appName:  "VPN Admin",
		session:  session,
		client:   client,
		password: func() string { return "" },
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Run executes args[0] with the remaining arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.Usage()
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.Usage()
		return fmt.Errorf("%w: %s", UnknownCommandErr, args[0])
	}

	log.Debug().Str("command", args[0]).Msg("[cli.Run] running command")
	if err := cmd.run(ctx, a, args[1:]); err != nil {
		return a.report(err)
	}
	return nil
}

// report prints the user facing message for err and returns it for the exit code.
func (a *App) report(err error) error {
	var appErr *api.AppError
	if !errors.As(err, &appErr) {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	switch appErr.Kind {
	case api.KindSessionExpired:
		// The LoginPrompt has already told the user what to do.
	case api.KindValidation:
		fmt.Fprintf(a.out, "error: %s\n", appErr.Message)
		names := make([]string, 0, len(appErr.Fields))
		for name := range appErr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(a.out, "  %s: %s\n", name, strings.Join(appErr.Fields[name], ", "))
		}
	default:
		fmt.Fprintf(a.out, "error: %s\n", appErr.Message)
		if appErr.Retryable() {
			fmt.Fprintln(a.out, "The request can be retried.")
		}
	}
	return err
}

func (a *App) Usage() {
	fmt.Fprintln(a.out, figure.NewFigure(a.appName, "cybermedium", true).String())
	fmt.Fprintln(a.out, "Usage: vpnadmin <command> [flags]")
	fmt.Fprintln(a.out)

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %s\n", commands[name].usage)
	}
}

func newFlagSet(a *App, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// LoginPrompt is the auth.Navigator for a terminal: instead of navigating it
// tells the user to log in again.
type LoginPrompt struct {
	out      io.Writer
	prompted atomic.Int32
}

var _ auth.Navigator = (*LoginPrompt)(nil)

func NewLoginPrompt(out io.Writer) *LoginPrompt {
	return &LoginPrompt{out: out}
}

func (p *LoginPrompt) RedirectToLogin(reason string) {
	p.prompted.Add(1)
	fmt.Fprintf(p.out, "Your session has ended (%s). Run `vpnadmin login` to sign in again.\n", reason)
}

// Prompted reports how many times the user was sent back to login.
func (p *LoginPrompt) Prompted() int {
	return int(p.prompted.Load())
}
