package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/services/app"
	auth2 "gitlab.com/magneto-ui.net/internal/core/services/auth"
	"gitlab.com/magneto-ui.net/internal/core/services/file"
	"gitlab.com/magneto-ui.net/internal/core/services/oracle"
	"gitlab.com/magneto-ui.net/internal/core/services/test"
	"gitlab.com/magneto-ui.net/internal/core/services/user"
	"gitlab.com/magneto-ui.net/internal/handlers"
	"gitlab.com/magneto-ui.net/internal/handlers/apps"
	"gitlab.com/magneto-ui.net/internal/handlers/auth"
	"gitlab.com/magneto-ui.net/internal/handlers/files"
	"gitlab.com/magneto-ui.net/internal/handlers/health"
	"gitlab.com/magneto-ui.net/internal/handlers/oracles"
	"gitlab.com/magneto-ui.net/internal/handlers/tests"
	"gitlab.com/magneto-ui.net/internal/handlers/users"
)

// slack on top of the oracle deadline for staging and writing the response
const runResponseSlack = 30 * time.Second

type ServiceProvider struct {
	ggAuth    auth2.IAuthService
	localAuth auth2.ILocalAuthService
	users     user.IUserService
	apps      app.IAppService
	tests     test.ITestService
	files     file.IFileService
	oracles   oracle.IOracleService
	jwt       primary.JWTService
	checks    []health.Check
}

func NewServiceProvider(
	ggAuth auth2.IAuthService,
	localAuth auth2.ILocalAuthService,
	users user.IUserService,
	apps app.IAppService,
	tests test.ITestService,
	files file.IFileService,
	oracles oracle.IOracleService,
	jwt primary.JWTService,
	checks ...health.Check,
) *ServiceProvider {
	return &ServiceProvider{
		ggAuth:    ggAuth,
		localAuth: localAuth,
		users:     users,
		apps:      apps,
		tests:     tests,
		files:     files,
		oracles:   oracles,
		jwt:       jwt,
		checks:    checks,
	}
}

type Server struct {
	handler         http.Handler
	srv             *http.Server
	cfg             *config.AppConfig
	ServiceName     string
	ServiceProvider ServiceProvider
	logger          primary.Logger
}

func NewServer(cfg *config.AppConfig, serviceName string, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		cfg:             cfg,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

// Init builds the router. Everything under /api except /api/auth requires a bearer token.
func (s *Server) Init() error {
	sp := s.ServiceProvider
	mw := handlers.New(sp.jwt, s.logger)

	r := mux.NewRouter()
	r.Use(mw.LoggingMiddleware)

	health.NewHealthHandler(s.logger, sp.checks...).RegisterRoutes(r)
	auth.NewHandler().RegisterRoutes(r, &auth.ServiceDependencies{
		GGAuthService:    sp.ggAuth,
		LocalAuthService: sp.localAuth,
		GGAuthConfig:     s.cfg.GGAuthConfig,
		Logger:           s.logger,
	})

	api := r.NewRoute().Subrouter()
	api.Use(mw.JWTMiddleware)
	users.NewUserHandler(sp.users, s.logger).RegisterRoutes(api)
	apps.NewAppHandler(sp.apps, s.logger).RegisterRoutes(api)
	tests.NewTestHandler(sp.tests, s.logger).RegisterRoutes(api)
	files.NewFileHandler(sp.files, s.cfg.HTTPConfig.MaxUploadBytes, s.logger).RegisterRoutes(api)
	oracles.NewOracleHandler(sp.oracles, s.logger).RegisterRoutes(api)

	s.handler = gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(s.cfg.HTTPConfig.CORSOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		gorillahandlers.AllowCredentials(),
	)(r)
	return nil
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves in the background. A listen failure is reported on the returned channel.
func (s *Server) Start(ctx context.Context) <-chan error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.HTTPConfig.Port),
		Handler:      s.handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: s.cfg.OracleConfig.Timeout + runResponseSlack,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr, "service", s.ServiceName)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
