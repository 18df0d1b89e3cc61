package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robodex/robodex-backend/auth"
	"github.com/robodex/robodex-backend/codehost"
)

// Access is what a route demands of the caller.
type Access int

const (
	// AccessPublic needs no credential.
	AccessPublic Access = iota
	// AccessIdentity needs a valid credential but no clearance lookup.
	AccessIdentity
	// AccessMember needs a resolvable clearance of at least auth.LevelMember.
	AccessMember
	// AccessAdmin needs a clearance of at least auth.LevelAdmin.
	AccessAdmin
)

// Level returns the clearance required, if any.
func (a Access) Level() (auth.Level, bool) {
	switch a {
	case AccessMember:
		return auth.LevelMember, true
	case AccessAdmin:
		return auth.LevelAdmin, true
	}
	return 0, false
}

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessIdentity:
		return "authenticated"
	}
	level, _ := a.Level()
	return level.String()
}

type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler http.HandlerFunc
}

// Pattern returns the ServeMux pattern, e.g. "GET /projects/{id}".
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

func (s *Server) routeTable() []Route {
	return []Route{
		{http.MethodPost, RouteLogin, AccessPublic, s.LoginHandler()},
		{http.MethodGet, RouteMe, AccessIdentity, s.MeHandler()},
		{http.MethodPost, RouteUpdatePassword, AccessIdentity, s.UpdatePasswordHandler()},
		{http.MethodGet, RouteDebug, AccessIdentity, s.DebugHandler()},

		{http.MethodGet, RouteMembers, AccessMember, s.ListMembersHandler()},
		{http.MethodGet, RouteRegistry, AccessMember, s.ListRegistryHandler()},
		{http.MethodGet, RouteRegistryItem, AccessMember, s.RegistryItemHandler()},

		{http.MethodGet, RouteIssues, AccessMember, s.ListIssuesHandler()},
		{http.MethodGet, RouteMyIssues, AccessMember, s.MyIssuesHandler()},
		{http.MethodPost, RouteIssue, AccessMember, s.IssueItemsHandler()},
		{http.MethodPost, RouteFullReturn, AccessMember, s.FullReturnHandler()},
		{http.MethodPost, RoutePartialReturn, AccessMember, s.PartialReturnHandler()},

		{http.MethodGet, RouteProjects, AccessMember, s.ListProjectsHandler()},
		{http.MethodPost, RouteProjects, AccessAdmin, s.CreateProjectHandler()},
		{http.MethodGet, RouteProject, AccessMember, s.ProjectHandler()},
		{http.MethodGet, RouteProjectAnalytics, AccessMember, s.ProjectAnalyticsHandler()},
		{http.MethodGet, RoutePools, AccessMember, s.ListPoolsHandler()},
		{http.MethodPost, RoutePools, AccessAdmin, s.CreatePoolHandler()},

		{http.MethodGet, RouteEvents, AccessMember, s.ListEventsHandler()},
		{http.MethodPost, RouteEvents, AccessAdmin, s.CreateEventHandler()},
		{http.MethodPatch, RouteEvent, AccessAdmin, s.UpdateEventHandler()},
		{http.MethodDelete, RouteEvent, AccessAdmin, s.DeleteEventHandler()},
		{http.MethodGet, RouteKanban, AccessMember, s.ListKanbanHandler()},
		{http.MethodPost, RouteKanban, AccessAdmin, s.UpsertKanbanColumnHandler()},
		{http.MethodDelete, RouteKanbanColumn, AccessAdmin, s.DeleteKanbanColumnHandler()},

		{http.MethodGet, RouteGitHubIssues, AccessMember, s.CodeHostHandler(codehost.Issues)},
		{http.MethodGet, RouteGitHubPulls, AccessMember, s.CodeHostHandler(codehost.Pulls)},
		{http.MethodGet, RouteGitHubContributors, AccessMember, s.CodeHostHandler(codehost.Contributors)},

		{http.MethodGet, RouteHealth, AccessPublic, s.HealthHandler()},
		{http.MethodGet, RouteMetrics, AccessPublic, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP},
	}
}

func (s *Server) initRoutes() {
	for _, route := range s.routeTable() {
		s.RegisterRoute(route)
	}
	// Anything the table does not match, including a known path with another
	// method, gets the JSON 404.
	s.mux.Handle("/", s.NotFoundHandler())
}
