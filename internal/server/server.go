// Package server is the composition root: it opens the database, builds
// services and handlers, mounts the routes and runs the HTTP server with
// graceful shutdown.
//
//	config → sqlite.DB → repositories → services → handlers → chi router
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/builder"
	"github.com/sakif/waform/internal/config"
	"github.com/sakif/waform/internal/handler"
	"github.com/sakif/waform/internal/integration"
	"github.com/sakif/waform/internal/integration/sheets"
	"github.com/sakif/waform/internal/middleware"
	"github.com/sakif/waform/internal/render"
	sqliteRepo "github.com/sakif/waform/internal/repository/sqlite"
	"github.com/sakif/waform/internal/service"
)

// Server owns the database and the background dispatcher; both are closed
// on shutdown.
type Server struct {
	router     *chi.Mux
	cfg        *config.Config
	logger     *slog.Logger
	db         *sqliteRepo.DB
	dispatcher *integration.Dispatcher
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
		dispatcher: integration.NewDispatcher(integration.DispatcherConfig{
			Workers:   cfg.SheetsWorkers,
			QueueSize: cfg.SheetsQueue,
			Timeout:   cfg.SheetsTimeout,
		}, logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	s.dispatcher.Start()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var google *auth.GoogleProvider
	if s.cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(s.cfg.GoogleClientID, s.cfg.GoogleClientSecret, s.cfg.GoogleCallbackURL)
	} else {
		s.logger.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set, Google sign-in and sheets are disabled")
	}

	renderer, err := render.New()
	if err != nil {
		return err
	}

	// The sheets client saves refreshed tokens through the account
	// service, which in turn lists spreadsheets through the client.
	var (
		accountSvc *service.AccountService
		appender   integration.SheetAppender
		lister     integration.SheetLister
	)
	if google != nil {
		client := sheets.New(google, sheets.TokenSaverFunc(func(ctx context.Context, id int64, tok *oauth2.Token) error {
			return accountSvc.SaveToken(ctx, id, tok)
		}), s.logger)
		appender, lister = client, client
	}

	formSvc := service.NewFormService(s.db.Forms(), s.db.Accounts(), s.cfg.BaseURL, s.logger)
	submissionSvc := service.NewSubmissionService(formSvc, s.db.Submissions(), s.db.Accounts(), appender, s.dispatcher, s.logger)
	authSvc := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	accountSvc = service.NewAccountService(s.db.Accounts(), lister, s.logger)

	sessions := builder.NewStore(s.cfg.BuilderMaxSessions, s.cfg.BuilderSessionTTL)

	authHandler := handler.NewAuthHandler(authSvc, accountSvc, google, s.cfg.CookieSecure, s.logger)
	formHandler := handler.NewFormHandler(formSvc, submissionSvc, s.logger)
	publicHandler := handler.NewPublicHandler(formSvc, submissionSvc)
	builderHandler := handler.NewBuilderHandler(sessions, formSvc, renderer, s.logger)
	integrationHandler := handler.NewIntegrationHandler(accountSvc)
	pageHandler := handler.NewPageHandler(formSvc, submissionSvc, renderer, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Get("/share/{shareId}", pageHandler.HandleShare)
	s.router.Get("/share/{shareId}/{slug}", pageHandler.HandleShare)
	s.router.Post("/share/{shareId}", pageHandler.HandleShareSubmit)
	s.router.Post("/share/{shareId}/{slug}", pageHandler.HandleShareSubmit)
	s.router.With(requireAuth).Get("/forms/{id}/preview", pageHandler.HandleOwnerPreview)
	s.router.With(requireAuth).Post("/forms/{id}/preview", pageHandler.HandleOwnerPreviewSubmit)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.With(requireAuth).Get("/auth/me", authHandler.HandleMe)
		r.With(optionalAuth).Get("/auth/google", authHandler.HandleGoogleStart)
		r.With(optionalAuth).Get("/auth/google/callback", authHandler.HandleGoogleCallback)

		r.Get("/fields", formHandler.HandleFieldTypes)

		r.Get("/public/forms/{shareId}", publicHandler.HandleGet)
		r.Post("/public/forms/{shareId}/submissions", publicHandler.HandleSubmit)

		r.With(optionalAuth).Get("/forms/{id}", formHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/forms", formHandler.HandleList)
			r.Post("/forms", formHandler.HandleCreate)
			r.Post("/forms/save", formHandler.HandleSave)
			r.Put("/forms/{id}", formHandler.HandleUpdate)
			r.Delete("/forms/{id}", formHandler.HandleDelete)
			r.Get("/forms/{id}/share", formHandler.HandleShare)
			r.Get("/forms/{id}/submissions", formHandler.HandleSubmissions)

			r.Route("/builder/sessions", func(r chi.Router) {
				r.Post("/", builderHandler.HandleCreate)
				r.Route("/{sid}", func(r chi.Router) {
					r.Get("/", builderHandler.HandleGet)
					r.Delete("/", builderHandler.HandleDelete)
					r.Post("/fields", builderHandler.HandleAddField)
					r.Patch("/fields/{fieldId}", builderHandler.HandleUpdateField)
					r.Delete("/fields/{fieldId}", builderHandler.HandleRemoveField)
					r.Post("/reorder", builderHandler.HandleReorder)
					r.Put("/selection", builderHandler.HandleSelect)
					r.Put("/settings", builderHandler.HandleSettings)
					r.Post("/reset", builderHandler.HandleReset)
					r.Post("/save", builderHandler.HandleSave)
					r.Get("/preview", builderHandler.HandlePreview)
				})
			})

			r.Get("/integrations/accounts", integrationHandler.HandleListAccounts)
			r.Delete("/integrations/accounts/{id}", integrationHandler.HandleDisconnect)
			r.Get("/integrations/google/sheets", integrationHandler.HandleListSheets)
		})
	})

	return nil
}

// Close stops the dispatcher, letting queued deliveries finish, and closes
// the database.
func (s *Server) Close() error {
	s.dispatcher.Stop()
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// queued deliveries before returning.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("url", s.cfg.BaseURL),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
