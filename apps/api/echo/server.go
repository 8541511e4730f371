package echoapi

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/academy"
	"github.com/vanderidme15/vz-academias-sub001/core/audit"
	"github.com/vanderidme15/vz-academias-sub001/core/auth"
	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/session"
	appfs "github.com/vanderidme15/vz-academias-sub001/fs"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		Auth      *auth.Service
		Gate      *auth.Gate
		Sessions  session.Store
		Inbox     *notify.Inbox
		Academies *academy.Registry
		CheckIns  *checkin.Manager
		Audit     *audit.Recorder

		DisableReqLogs bool
	}

	Server struct {
		ServerDeps
		app         *echo.Echo
		errors      chan error
		shutdown    chan os.Signal
		unsubscribe func()
	}
)

func NewServer(deps ServerDeps) (*Server, error) {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	r, err := newRenderer(appfs.FS, "templates/pages", deps.Conf.AppName)
	if err != nil {
		return nil, errors.Wrap(err, "parsing page templates")
	}
	s.app.Renderer = r

	// per-session state goes away with the session
	s.unsubscribe = deps.Auth.OnAuthStateChange(func(ev auth.Event) {
		if ev.Kind == auth.SignedOut {
			s.CheckIns.Teardown(ev.SessionID)
			s.Inbox.Forget(ev.SessionID)
		}
	})

	s.setup()
	return s, nil
}

func (s *Server) setup() {
	debug := s.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.SignalShutdown)
	s.app.Debug = debug

	assets, _ := fs.Sub(appfs.FS, "assets")
	s.app.GET("/assets/*", echo.WrapHandler(http.StripPrefix("/assets/", http.FileServer(http.FS(assets)))))
	s.app.GET("/health", s.health)

	// dashboard pages
	s.app.GET("/login", s.loginPage)
	s.app.POST("/login", s.login)
	s.app.POST("/logout", s.logout)

	pg := s.app.Group("", authMiddleware(s.Gate, false))
	pg.GET("/", s.home)
	registerPage(pg, s, (*academy.Academy).TeacherPage)
	registerPage(pg, s, (*academy.Academy).SchedulePage)
	registerPage(pg, s, (*academy.Academy).PeriodPage)
	registerPage(pg, s, (*academy.Academy).StudentPage)
	registerPage(pg, s, (*academy.Academy).CoursePage)
	registerPage(pg, s, (*academy.Academy).EnrollmentPage)
	registerPage(pg, s, (*academy.Academy).VolunteerPage)
	registerCheckIn(pg, s)

	// JSON API
	v1 := s.app.Group("/v1")
	v1.POST("/auth/login", s.apiLogin)

	ag := v1.Group("", authMiddleware(s.Gate, true))
	ag.POST("/auth/logout", s.apiLogout)
	ag.GET("/auth/me", s.me)
	ag.GET("/audit", s.auditLogs, adminMiddleware())
	registerResource(ag, s, (*academy.Academy).TeacherPage)
	registerResource(ag, s, (*academy.Academy).SchedulePage)
	registerResource(ag, s, (*academy.Academy).PeriodPage)
	registerResource(ag, s, (*academy.Academy).StudentPage)
	registerResource(ag, s, (*academy.Academy).CoursePage)
	enrollments := registerResource(ag, s, (*academy.Academy).EnrollmentPage)
	volunteers := registerResource(ag, s, (*academy.Academy).VolunteerPage)
	enrollments.GET("/:id/qr.png", badge(s, (*academy.Academy).EnrollmentPage))
	volunteers.GET("/:id/qr.png", badge(s, (*academy.Academy).VolunteerPage))
}

// Start listens until the server is shut down. Listen errors are sent to Errors.
func (s *Server) Start() {
	s.Logger.Info("API listening on " + s.Conf.Server.Address)
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	defer s.release()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	defer s.release()
	return s.app.Close()
}

func (s *Server) release() {
	s.unsubscribe()
	s.CheckIns.TeardownAll()
	signal.Stop(s.shutdown)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.Conf.Build})
}
