package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/bisadmin/internal/auth"
	"github.com/abrezinsky/bisadmin/internal/config"
	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/handlers"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/repository"
	"github.com/abrezinsky/bisadmin/internal/services"
	"github.com/abrezinsky/bisadmin/internal/websocket"
	"github.com/abrezinsky/bisadmin/pkg/bis"
	"github.com/abrezinsky/bisadmin/pkg/nominatim"
)

const shutdownTimeout = 10 * time.Second

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     repository.FullRepository
	drafts   *drafts.Manager
	hub      *websocket.Hub
	stopHub  context.CancelFunc
}

// OpenRepository opens the draft and settings store selected by cfg
func OpenRepository(ctx context.Context, cfg config.DatabaseConfig) (repository.FullRepository, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		repo, err := repository.NewPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverSQLite, "":
		repo, err := repository.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// seedValues turns the startup config into initial runtime settings
func seedValues(cfg config.BISConfig) map[string]string {
	values := map[string]string{
		services.KeyBISAPIURL:    cfg.APIURL,
		services.KeyBISAPIToken:  cfg.Token,
		services.KeyPublicWebURL: cfg.PublicWebURL,
	}
	if cfg.OnlineLocationID > 0 {
		values[services.KeyOnlineLocationID] = strconv.Itoa(cfg.OnlineLocationID)
	}
	return values
}

// New creates and initializes a new application instance. The repository
// is owned by the app and closed by Close.
func New(ctx context.Context, log logger.Logger, cfg config.Config, repo repository.FullRepository,
	client bis.Client, geocoder nominatim.Geocoder, adminAuth *auth.Auth) (*App, error) {
	// Initialize services
	settingsService := services.NewSettingsService(log, repo, client)
	if err := settingsService.Seed(ctx, seedValues(cfg.BIS)); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}
	if err := settingsService.Apply(ctx); err != nil {
		return nil, fmt.Errorf("failed to apply settings: %w", err)
	}

	draftManager := drafts.NewManager(log, repo)
	forms := eventform.NewController(log, draftManager, nil)
	referenceService := services.NewReferenceService(log, client)
	eventService := services.NewEventService(log, client, forms, referenceService, settingsService)

	svcs := handlers.Services{
		Reference:    referenceService,
		Events:       eventService,
		Opportunity:  services.NewOpportunityService(log, client, draftManager),
		Location:     services.NewLocationService(log, client, geocoder),
		User:         services.NewUserService(log, client, referenceService, nil),
		Registration: services.NewRegistrationService(log, client, draftManager),
		Settings:     settingsService,
		Drafts:       draftManager,
	}

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, draftManager)
	hub.SetAllowedOrigins(cfg.CORS.AllowedOrigins)
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub.Start(hubCtx)
	eventService.SetBroadcaster(hub)

	h := handlers.New(svcs, adminAuth, http.HandlerFunc(hub.ServeWs), repo, log, cfg.CORS.AllowedOrigins)

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
		drafts:   draftManager,
		hub:      hub,
		stopHub:  stopHub,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close stops background work, flushes pending drafts and closes the store
func (a *App) Close() error {
	if a.stopHub != nil {
		a.stopHub()
	}
	var errs []error
	if err := a.drafts.Close(); err != nil {
		errs = append(errs, fmt.Errorf("flush drafts: %w", err))
	}
	if err := a.repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close repository: %w", err))
	}
	return errors.Join(errs...)
}

// Run serves HTTP on addr until ctx is done, then shuts the server down
// gracefully and closes the app.
func (a *App) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "addr", addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		a.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if closeErr := a.Close(); closeErr != nil {
		a.log.Error("Failed to close app", "error", closeErr)
	}
	return err
}
