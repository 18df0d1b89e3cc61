package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robodex/robodex-backend/auth"
	"github.com/robodex/robodex-backend/codehost"
	"github.com/robodex/robodex-backend/gateway"
	"github.com/robodex/robodex-backend/internal/config"
	"github.com/robodex/robodex-backend/internal/metrics"
	"github.com/robodex/robodex-backend/members"
	"github.com/rs/zerolog"
)

// CodeHost fetches repository listings for the /github routes.
type CodeHost interface {
	RepoResource(ctx context.Context, owner, repo string, resource codehost.Resource) (*codehost.Response, error)
}

// Backends holds the collaborators every handler forwards to.
type Backends struct {
	Gateway    gateway.API
	Members    *members.Service
	Authorizer *auth.Authorizer
	CodeHost   CodeHost
}

type Server struct {
	env      string
	mux      *http.ServeMux
	handler  http.Handler
	routes   []Route
	config   *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.HTTPServer

	gateway  gateway.API
	members  *members.Service
	auth     *auth.Authorizer
	codeHost CodeHost
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry serves /metrics from reg. By default the server owns a fresh
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

func New(cfg *config.Config, backends Backends, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if backends.Gateway == nil || backends.Members == nil || backends.Authorizer == nil || backends.CodeHost == nil {
		return nil, errors.New("[Server New] gateway, members, authorizer and code host are required")
	}

	s := &Server{
		env:      cfg.Env.Env,
		mux:      http.NewServeMux(),
		config:   cfg,
		logger:   zerolog.Nop(),
		gateway:  backends.Gateway,
		members:  backends.Members,
		auth:     backends.Authorizer,
		codeHost: backends.CodeHost,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = metrics.NewHTTPServer(s.registry)

	s.initRoutes()
	s.handler = s.StdMiddleware(s.mux)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RegisterRoute mounts route behind its access checks and per-route metrics.
func (s *Server) RegisterRoute(route Route) {
	pattern := route.Pattern()
	handler := ChainMiddleware(route.Handler, s.AccessMiddleware(route.Access)...)
	s.routes = append(s.routes, route)
	s.mux.Handle(pattern, s.metrics.Instrument(pattern, handler))
}

// Routes returns the registered route table.
func (s *Server) Routes() []Route {
	return append([]Route(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return
	}
	for _, route := range s.routes {
		s.logRoute(route.Method, route.Path, route.Access)
	}
}

func (s *Server) logRoute(method, path string, access Access) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Info().Msgf("[%-19s] %-36s %s", displayMethod, path, access)
}
