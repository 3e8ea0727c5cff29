package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-market-client/auth"
	"github.com/jrsteele09/go-market-client/internal/config"
	"github.com/jrsteele09/go-market-client/products"
	"github.com/jrsteele09/go-market-client/server/uploads"
	"github.com/jrsteele09/go-market-client/token/refresh"
	"github.com/jrsteele09/go-market-client/users"
)

// Repos holds the storage behind the development backend
type Repos struct {
	Users         users.UserRepo
	Products      products.Repo
	RefreshTokens refresh.Repo
	Uploads       uploads.Repo
}

// Server is an in-memory marketplace backend speaking the same JSON
// contract as the production API.
type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	repos  Repos
	logger zerolog.Logger

	serviceOptions []auth.ServiceOption
	skipBootstrap  bool
	seedPassword   string
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger, the global logger otherwise
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithServiceOptions passes options through to the auth service
func WithServiceOptions(options ...auth.ServiceOption) Option {
	return func(s *Server) {
		s.serviceOptions = append(s.serviceOptions, options...)
	}
}

// WithoutBootstrap skips seeding the demo account and products
func WithoutBootstrap() Option {
	return func(s *Server) {
		s.skipBootstrap = true
	}
}

func New(config config.Config, repos Repos, options ...Option) (*Server, error) {
	if config == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if repos.Users == nil || repos.Products == nil || repos.RefreshTokens == nil || repos.Uploads == nil {
		return nil, errors.New("[Server New] all repos are required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		repos:  repos,
		env:    config.GetEnv(),
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	authService, err := auth.NewService(auth.Repos{
		Users:         repos.Users,
		RefreshTokens: repos.RefreshTokens,
	}, config, s.serviceOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create auth service")
	}
	s.auth = authService

	if !s.skipBootstrap {
		password, err := s.InitialiseSystem(context.Background())
		if err != nil {
			return nil, errors.Wrap(err, "[Server New] failed to initialise the system")
		}
		s.seedPassword = password
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// SeedPassword is the generated demo account password, empty when configured or already seeded
func (s *Server) SeedPassword() string {
	return s.seedPassword
}

// Auth exposes the account service
func (s *Server) Auth() *auth.Service {
	return s.auth
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.logger.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}
