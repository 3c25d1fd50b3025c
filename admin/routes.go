package admin

// Route path constants, relative to the API base URL.
// The session routes live in package auth.
const (
	// Dashboard
	RouteDashboardStats = "/admin/dashboard/stats"
	RouteDashboardGraph = "/admin/dashboard/graph-data"
	RouteRecentActivity = "/admin/recent-activity"

	// Users
	RouteUsers       = "/admin/users"
	RouteUser        = "/admin/users/{id}"
	RouteUserDevices = "/admin/users/{id}/devices"
	RouteUserDevice  = "/admin/users/{id}/devices/{device_id}"

	// Servers
	RouteServers = "/admin/servers"
	RouteServer  = "/admin/servers/{id}"

	// Server assignments
	RouteAssignments        = "/admin/server_assignments"
	RouteAssignment         = "/admin/server_assignments/{id}"
	RoutePendingAssignments = "/admin/server_assignments/pending_requests"
	RouteApproveAssignment  = "/admin/server_assignments/{id}/approve"
	RouteRejectAssignment   = "/admin/server_assignments/{id}/reject"

	// Affiliates
	RouteAffiliates      = "/admin/affiliates"
	RouteAffiliate       = "/admin/affiliates/{id}"
	RouteAffiliateStatus = "/admin/affiliates/{id}/status"

	// Commissions
	RouteCommissions       = "/admin/commissions"
	RouteCommission        = "/admin/commissions/{id}"
	RouteApproveCommission = "/admin/commissions/{id}/approve"
	RouteRejectCommission  = "/admin/commissions/{id}/reject"

	// Withdrawal requests
	RouteWithdrawals        = "/admin/withdrawal-requests"
	RouteWithdrawal         = "/admin/withdrawal-requests/{id}"
	RouteApproveWithdrawal  = "/admin/withdrawal-requests/{id}/approve"
	RouteRejectWithdrawal   = "/admin/withdrawal-requests/{id}/reject"
	RouteCompleteWithdrawal = "/admin/withdrawal-requests/{id}/complete"
)
