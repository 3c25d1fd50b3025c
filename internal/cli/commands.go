package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jrsteele09/vpn-admin/admin"
	"github.com/jrsteele09/vpn-admin/resource"
	"github.com/jrsteele09/vpn-admin/screen"
)

var MissingArgumentErr = errors.New("missing argument")

func runLogin(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet(a, "login")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password (defaults to VPN_ADMIN_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("%w: -email", MissingArgumentErr)
	}
	if *password == "" {
		*password = a.password()
	}

	session, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.", *email)
	if expiresAt := session.ExpiresAt(); !expiresAt.IsZero() {
		fmt.Fprintf(a.out, " Session expires %s.", humanize.RelTime(expiresAt, NowTimeFunc(), "ago", "from now"))
	}
	fmt.Fprintln(a.out)
	return nil
}

func runLogout(ctx context.Context, a *App, _ []string) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func runStatus(_ context.Context, a *App, _ []string) error {
	session, ok, err := a.session.Session()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	fmt.Fprintf(a.out, "State: %s\n", a.session.State())
	if expiresAt := session.ExpiresAt(); !expiresAt.IsZero() {
		fmt.Fprintf(a.out, "Access token expires %s\n", humanize.RelTime(expiresAt, NowTimeFunc(), "ago", "from now"))
	}
	if session.Expired() {
		fmt.Fprintln(a.out, "Access token has expired; it is refreshed on the next request.")
	}
	if session.RefreshToken == nil {
		fmt.Fprintln(a.out, "No refresh token stored.")
	}
	return nil
}

func runStats(ctx context.Context, a *App, _ []string) error {
	stats, err := a.client.Dashboard.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Users:               %s (%s active)\n", humanize.Comma(int64(stats.TotalUsers)), humanize.Comma(int64(stats.ActiveUsers)))
	fmt.Fprintf(a.out, "Servers:             %d (%d active)\n", stats.TotalServers, stats.ActiveServers)
	fmt.Fprintf(a.out, "Pending requests:    %d\n", stats.PendingRequests)
	fmt.Fprintf(a.out, "Pending withdrawals: %d\n", stats.PendingWithdrawals)
	fmt.Fprintf(a.out, "Revenue:             %s\n", money(stats.TotalRevenue))
	return nil
}

func runActivity(ctx context.Context, a *App, _ []string) error {
	items, err := a.client.Dashboard.RecentActivity(ctx)
	if err != nil {
		return err
	}
	printTable(a.out, resource.PageResult{}, items, []column{
		timeColumn("WHEN", "created_at"),
		attr("TYPE", "type"),
		attr("DESCRIPTION", "description"),
	})
	return nil
}

// listFlags are shared by every paginated command.
type listFlags struct {
	page   int
	query  string
	status string
}

func (l *listFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&l.page, "page", resource.DefaultPage, "page number")
	fs.StringVar(&l.query, "q", "", "search the loaded page")
	fs.StringVar(&l.status, "status", "", "status filter")
}

// showList loads one page through a screen.ListView and prints it.
func (a *App) showList(ctx context.Context, name string, fetch screen.Fetcher, flags listFlags, columns []column, options ...screen.Option) error {
	if a.perPage > 0 {
		options = append(options, screen.WithPerPage(a.perPage))
	}
	view := screen.NewListView(name, fetch, options...)
	defer view.Dispose()

	if err := view.Load(ctx, flags.page); err != nil {
		return err
	}
	state := view.State()
	items := view.Search(flags.query)
	printTable(a.out, state.Page, items, columns)
	printFooter(a.out, state.Page, len(items))
	return nil
}

func runUsers(ctx context.Context, a *App, args []string) error {
	var flags listFlags
	fs := newFlagSet(a, "users")
	flags.register(fs)
	search := fs.String("search", "", "server side search")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := admin.UserFilter{Search: *search, Status: flags.status}
	return a.showList(ctx, "users", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		return a.client.Users.List(ctx, req, filter)
	}, flags, []column{
		idColumn(),
		attr("EMAIL", "email"),
		attr("NAME", "name"),
		attr("STATUS", "status"),
		timeColumn("JOINED", "created_at"),
	}, screen.WithSearchFields("email", "name"))
}

func runDevices(ctx context.Context, a *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: user id", MissingArgumentErr)
	}
	devices, err := a.client.Users.Devices(ctx, args[0])
	if err != nil {
		return err
	}
	printTable(a.out, resource.PageResult{}, devices, []column{
		idColumn(),
		attr("NAME", "name"),
		attr("PLATFORM", "platform"),
		timeColumn("LAST SEEN", "last_seen_at"),
	})
	return nil
}

func runServers(ctx context.Context, a *App, args []string) error {
	var flags listFlags
	fs := newFlagSet(a, "servers")
	flags.register(fs)
	serverType := fs.String("type", "", "server type filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := admin.ServerFilter{Status: flags.status, Type: *serverType}
	return a.showList(ctx, "servers", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		return a.client.Servers.List(ctx, req, filter)
	}, flags, []column{
		idColumn(),
		attr("NAME", "name"),
		attr("IP", "ip_address"),
		attr("LOCATION", "location"),
		attr("STATUS", "status"),
	}, screen.WithSearchFields("name", "ip_address", "description"))
}

var assignmentColumns = []column{
	idColumn(),
	relatedColumn("USER", "user", "email"),
	relatedColumn("SERVER", "server", "name"),
	attr("STATUS", "status"),
	attr("PREMIUM", "is_premium"),
	timeColumn("EXPIRES", "expires_at"),
}

func runAssignments(ctx context.Context, a *App, args []string) error {
	var flags listFlags
	fs := newFlagSet(a, "assignments")
	flags.register(fs)
	premium := fs.Bool("premium", false, "only premium assignments")
	serverID := fs.String("server", "", "server id")
	userID := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := admin.AssignmentFilter{Status: flags.status, ServerID: *serverID, UserID: *userID}
	if *premium {
		filter.IsPremium = premium
	}
	return a.showList(ctx, "assignments", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		return a.client.Assignments.List(ctx, req, filter)
	}, flags, assignmentColumns)
}

func runPending(ctx context.Context, a *App, args []string) error {
	var flags listFlags
	fs := newFlagSet(a, "pending")
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.showList(ctx, "pending", a.client.Assignments.Pending, flags, assignmentColumns)
}

func runApproveAssignment(ctx context.Context, a *App, args []string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return err
	}
	fs := newFlagSet(a, "approve-assignment")
	days := fs.Int("days", 0, "access duration in days; 0 lets the backend decide")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	var expiresAt time.Time
	if *days > 0 {
		expiresAt = NowTimeFunc().AddDate(0, 0, *days)
	}
	item, err := a.client.Assignments.Approve(ctx, id, expiresAt)
	if err != nil {
		return err
	}
	printResource(a.out, "Approved assignment", item)
	return nil
}

func runRejectAssignment(ctx context.Context, a *App, args []string) error {
	id, _, err := splitID(args)
	if err != nil {
		return err
	}
	item, err := a.client.Assignments.Reject(ctx, id)
	if err != nil {
		return err
	}
	printResource(a.out, "Rejected assignment", item)
	return nil
}

func runAffiliates(ctx context.Context, a *App, args []string) error {
	var flags listFlags
	fs := newFlagSet(a, "affiliates")
	flags.register(fs)
	search := fs.String("search", "", "server side search")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := admin.AffiliateFilter{Search: *search, Status: flags.status}
	return a.showList(ctx, "affiliates", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		return a.client.Affiliates.List(ctx, req, filter)
	}, flags, []column{
		idColumn(),
		attr("NAME", "name"),
		attr("EMAIL", "email"),
		attr("STATUS", "status"),
		timeColumn("JOINED", "created_at"),
	}, screen.WithSearchFields("name", "email", "username"))
}

func runCommissions(ctx context.Context, a *App, args []string) error {
	var flags listFlags
	fs := newFlagSet(a, "commissions")
	flags.register(fs)
	affiliateID := fs.String("affiliate", "", "affiliate id")
	from := fs.String("from", "", "start date, YYYY-MM-DD")
	to := fs.String("to", "", "end date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := admin.CommissionFilter{Status: flags.status, AffiliateID: *affiliateID}
	var err error
	if filter.StartDate, err = parseDate(*from); err != nil {
		return err
	}
	if filter.EndDate, err = parseDate(*to); err != nil {
		return err
	}
	return a.showList(ctx, "commissions", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		return a.client.Commissions.List(ctx, req, filter)
	}, flags, []column{
		idColumn(),
		attr("AFFILIATE", "affiliate_id"),
		moneyColumn("AMOUNT", "amount"),
		attr("STATUS", "status"),
		timeColumn("CREATED", "created_at"),
	})
}

func runWithdrawals(ctx context.Context, a *App, args []string) error {
	var flags listFlags
	fs := newFlagSet(a, "withdrawals")
	flags.register(fs)
	affiliateID := fs.String("affiliate", "", "affiliate id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := admin.WithdrawalFilter{Status: flags.status, AffiliateID: *affiliateID}
	return a.showList(ctx, "withdrawals", func(ctx context.Context, req resource.PageRequest) (resource.PageResult, error) {
		return a.client.Withdrawals.List(ctx, req, filter)
	}, flags, []column{
		idColumn(),
		attr("AFFILIATE", "affiliate_id"),
		moneyColumn("AMOUNT", "amount"),
		attr("METHOD", "payment_method"),
		attr("STATUS", "status"),
		timeColumn("REQUESTED", "created_at"),
	}, screen.WithSearchFields("payment_details", "payment_method"))
}

func runApproveWithdrawal(ctx context.Context, a *App, args []string) error {
	id, _, err := splitID(args)
	if err != nil {
		return err
	}
	item, err := a.client.Withdrawals.Approve(ctx, id)
	if err != nil {
		return err
	}
	printResource(a.out, "Approved withdrawal", item)
	return nil
}

func runRejectWithdrawal(ctx context.Context, a *App, args []string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return err
	}
	fs := newFlagSet(a, "reject-withdrawal")
	reason := fs.String("reason", "", "reason shown to the affiliate")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if strings.TrimSpace(*reason) == "" {
		return fmt.Errorf("%w: -reason", MissingArgumentErr)
	}

	item, err := a.client.Withdrawals.Reject(ctx, id, *reason)
	if err != nil {
		return err
	}
	printResource(a.out, "Rejected withdrawal", item)
	return nil
}

func runCompleteWithdrawal(ctx context.Context, a *App, args []string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return err
	}
	fs := newFlagSet(a, "complete-withdrawal")
	tx := fs.String("tx", "", "payout transaction id")
	notes := fs.String("notes", "", "optional notes")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	item, err := a.client.Withdrawals.Complete(ctx, id, admin.Completion{TransactionID: *tx, Notes: *notes})
	if err != nil {
		return err
	}
	printResource(a.out, "Completed withdrawal", item)
	return nil
}

// splitID takes the leading positional id so flags may follow it.
func splitID(args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: id", MissingArgumentErr)
	}
	return args[0], args[1:], nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}
