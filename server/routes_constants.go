package server

// Route path constants
const (
	// Authentication
	RouteLogin          = "/login"
	RouteMe             = "/me"
	RouteUpdatePassword = "/update-password"
	RouteDebug          = "/debug"

	// Members & inventory
	RouteMembers      = "/members"
	RouteRegistry     = "/registry"
	RouteRegistryItem = "/registry/{item_no}"

	// Borrowing
	RouteIssues        = "/issues"
	RouteMyIssues      = "/my-issues"
	RouteIssue         = "/issue"
	RouteFullReturn    = "/full"
	RoutePartialReturn = "/partial"

	// Projects & pools
	RouteProjects         = "/projects"
	RouteProject          = "/projects/{id}"
	RouteProjectAnalytics = "/projects/{id}/analytics"
	RoutePools            = "/pools"

	// Calendar & kanban
	RouteEvents       = "/events"
	RouteEvent        = "/events/{id}"
	RouteKanban       = "/kanban"
	RouteKanbanColumn = "/kanban/{id}"

	// Code host proxy
	RouteGitHubIssues       = "/github/{owner}/{repo}"
	RouteGitHubPulls        = "/github/{owner}/{repo}/pulls"
	RouteGitHubContributors = "/github/{owner}/{repo}/contributors"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
