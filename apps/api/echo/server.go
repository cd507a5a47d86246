package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/announcement"
	"github.com/trezcool/barangay/core/auth"
	"github.com/trezcool/barangay/core/dashboard"
	"github.com/trezcool/barangay/core/document"
	"github.com/trezcool/barangay/core/event"
	"github.com/trezcool/barangay/core/registry"
	"github.com/trezcool/barangay/core/user"
	"github.com/trezcool/barangay/services/metrics"
)

type (
	ServerDeps struct {
		Conf      *core.Config
		Logger    core.Logger
		Store     core.Store
		Validator *core.Validator
		Gate      *auth.Gate
		Metrics   *metrics.Metrics

		UserSvc         *user.Service
		RegistrySvc     *registry.Service
		AnnouncementSvc *announcement.Service
		EventSvc        *event.Service
		DocumentSvc     *document.Service
		DashboardSvc    *dashboard.Service

		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Validator, s.deps.Metrics, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	api := s.app.Group("/api")
	api.GET("/health", s.health)

	authed := authMiddleware(s.deps.Gate)
	registerAuthAPI(api, authed, s.deps)
	registerRegistryAPI(api, authed, s.deps.RegistrySvc)
	registerDashboardAPI(api, authed, s.deps.DashboardSvc)
	registerAnnouncementAPI(api, authed, s.deps.AnnouncementSvc)
	registerEventAPI(api, authed, s.deps.EventSvc)
	registerDocumentAPI(api, authed, s.deps.DocumentSvc)
}

// Start listens on the configured host in the background; listener failures are sent to Errors.
func (s *Server) Start() {
	go func() {
		if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
			s.errors <- err
		}
	}()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives SIGINT, SIGTERM and the shutdown requests of the error handler.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func (s *Server) health(ctx echo.Context) error {
	if err := s.deps.Store.Ping(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
