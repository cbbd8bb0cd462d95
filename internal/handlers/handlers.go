package handlers

import (
	"context"
	"net/http"

	"github.com/abrezinsky/bisadmin/internal/auth"
	"github.com/abrezinsky/bisadmin/internal/services"
)

// Services bundles the service layer the handlers call into
type Services struct {
	Reference    services.ReferenceServicer
	Events       services.EventServicer
	Opportunity  services.OpportunityServicer
	Location     services.LocationServicer
	User         services.UserServicer
	Registration services.RegistrationServicer
	Settings     services.SettingsServicer
	Drafts       services.DraftServicer
}

// Pinger reports whether the draft store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Services
	Auth           *auth.Auth
	Hub            http.Handler
	DB             Pinger
	Log            HTTPLogger
	AllowedOrigins []string
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
	Error(msg string, args ...any)
}

// New creates a new Handlers instance with all dependencies. hub serves
// the websocket endpoint.
func New(
	svcs Services,
	adminAuth *auth.Auth,
	hub http.Handler,
	db Pinger,
	log HTTPLogger,
	allowedOrigins []string,
) *Handlers {
	return &Handlers{
		Services:       svcs,
		Auth:           adminAuth,
		Hub:            hub,
		DB:             db,
		Log:            log,
		AllowedOrigins: allowedOrigins,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

func (NoopHTTPLogger) Error(string, ...any) {}

// NewForTesting creates a Handlers instance with a known admin password
// ("test-password") and no websocket hub.
func NewForTesting(svcs Services) *Handlers {
	return &Handlers{
		Services: svcs,
		Auth:     auth.New("test-password"),
		Log:      NoopHTTPLogger{},
	}
}
