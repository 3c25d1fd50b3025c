package adminfake

import (
	"net/http"

	"github.com/jrsteele09/vpn-admin/admin"
	"github.com/jrsteele09/vpn-admin/auth"
)

func (b *Backend) initRoutes() {
	api := b.router.PathPrefix(BasePath).Subrouter()
	public := func(method, route string, h http.HandlerFunc) {
		api.HandleFunc(route, chainMiddleware(h, b.publicMiddleware()...)).Methods(method)
	}
	protected := func(method, route string, h http.HandlerFunc) {
		api.HandleFunc(route, chainMiddleware(h, b.protectedMiddleware()...)).Methods(method)
	}

	// Session
	public(http.MethodPost, auth.RouteLogin, b.loginHandler())
	public(http.MethodPost, auth.RouteRefresh, b.refreshHandler())
	protected(http.MethodDelete, auth.RouteLogout, b.logoutHandler())

	// Dashboard
	protected(http.MethodGet, admin.RouteDashboardStats, b.statsHandler())
	protected(http.MethodGet, admin.RouteDashboardGraph, b.graphHandler())
	protected(http.MethodGet, admin.RouteRecentActivity, b.recentActivityHandler())

	// Users
	protected(http.MethodGet, admin.RouteUsers, b.listHandler(Users, userListing))
	protected(http.MethodGet, admin.RouteUser, b.getHandler(Users, flatItem))
	protected(http.MethodPut, admin.RouteUser, b.updateHandler(Users, "user", flatItem))
	protected(http.MethodGet, admin.RouteUserDevices, b.userDevicesHandler())
	protected(http.MethodDelete, admin.RouteUserDevice, b.removeDeviceHandler())

	// Servers
	protected(http.MethodGet, admin.RouteServers, b.listHandler(Servers, serverListing))
	protected(http.MethodPost, admin.RouteServers, b.createServerHandler())
	protected(http.MethodGet, admin.RouteServer, b.getHandler(Servers, serverItem))
	protected(http.MethodPut, admin.RouteServer, b.updateServerHandler())
	protected(http.MethodDelete, admin.RouteServer, b.deleteHandler(Servers))

	// Server assignments; pending_requests must be registered before {id}.
	protected(http.MethodGet, admin.RoutePendingAssignments, b.listHandler(Assignments, pendingListing))
	protected(http.MethodGet, admin.RouteAssignments, b.listHandler(Assignments, assignmentListing))
	protected(http.MethodPost, admin.RouteAssignments, b.createHandler(Assignments, "server_assignment", []string{"user_id", "server_id"}, flatItem))
	protected(http.MethodGet, admin.RouteAssignment, b.getHandler(Assignments, flatItem))
	protected(http.MethodPut, admin.RouteAssignment, b.updateHandler(Assignments, "server_assignment", flatItem))
	protected(http.MethodDelete, admin.RouteAssignment, b.deleteHandler(Assignments))
	protected(http.MethodPost, admin.RouteApproveAssignment, b.approveAssignmentHandler())
	protected(http.MethodPost, admin.RouteRejectAssignment, b.transitionHandler(Assignments, transitionRule{from: []string{statusPending}, to: statusRejected}))

	// Affiliates
	protected(http.MethodGet, admin.RouteAffiliates, b.listHandler(Affiliates, affiliateListing))
	protected(http.MethodPost, admin.RouteAffiliates, b.createHandler(Affiliates, "affiliate", []string{"name", "email"}, flatItem))
	protected(http.MethodGet, admin.RouteAffiliate, b.getHandler(Affiliates, flatItem))
	protected(http.MethodPut, admin.RouteAffiliate, b.updateHandler(Affiliates, "affiliate", flatItem))
	protected(http.MethodDelete, admin.RouteAffiliate, b.deleteHandler(Affiliates))
	protected(http.MethodPut, admin.RouteAffiliateStatus, b.affiliateStatusHandler())

	// Commissions
	protected(http.MethodGet, admin.RouteCommissions, b.listHandler(Commissions, commissionListing))
	protected(http.MethodGet, admin.RouteCommission, b.getHandler(Commissions, flatItem))
	protected(http.MethodPost, admin.RouteApproveCommission, b.transitionHandler(Commissions, transitionRule{from: []string{statusPending}, to: statusApproved}))
	protected(http.MethodPost, admin.RouteRejectCommission, b.transitionHandler(Commissions, transitionRule{from: []string{statusPending}, to: statusRejected, required: []string{"reason"}}))

	// Withdrawal requests
	protected(http.MethodGet, admin.RouteWithdrawals, b.listHandler(Withdrawals, withdrawalListing))
	protected(http.MethodGet, admin.RouteWithdrawal, b.getHandler(Withdrawals, flatItem))
	protected(http.MethodPost, admin.RouteApproveWithdrawal, b.transitionHandler(Withdrawals, transitionRule{from: []string{statusPending}, to: statusApproved}))
	protected(http.MethodPost, admin.RouteRejectWithdrawal, b.transitionHandler(Withdrawals, transitionRule{from: []string{statusPending}, to: statusRejected, required: []string{"reason"}}))
	protected(http.MethodPost, admin.RouteCompleteWithdrawal, b.transitionHandler(Withdrawals, transitionRule{from: []string{statusApproved}, to: statusCompleted, required: []string{"transaction_id"}, optional: []string{"notes"}}))

	b.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	b.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}
