package services

import (
	"context"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/regform"
	"github.com/abrezinsky/bisadmin/internal/repository"
)

// ReferenceServicer defines the interface for reference data
type ReferenceServicer interface {
	Load(ctx context.Context) (models.ReferenceData, error)
}

// EventServicer defines the interface for event operations
type EventServicer interface {
	List(ctx context.Context, filter models.EventFilter) (models.Page[models.Event], error)
	Get(ctx context.Context, id int) (*models.Event, error)
	Delete(ctx context.Context, id int) error
	OpenNew(ctx context.Context, formID string) (*eventform.Opened, error)
	OpenEdit(ctx context.Context, id int) (*EditForm, error)
	Clone(ctx context.Context, id int) (*eventform.Opened, error)
	Validate(ctx context.Context, sub eventform.Submission) error
	Create(ctx context.Context, formID string, steps map[string]drafts.Values) (*models.Event, error)
	Update(ctx context.Context, id int, steps map[string]drafts.Values) (*models.Event, error)
	RegistrationLink(ctx context.Context, id int) (string, error)
	RegistrationQR(ctx context.Context, id, size int) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// OpportunityServicer defines the interface for opportunity operations
type OpportunityServicer interface {
	List(ctx context.Context, userID int) ([]models.Opportunity, error)
	Get(ctx context.Context, userID, id int) (*models.Opportunity, error)
	Create(ctx context.Context, userID int, formID string, o models.Opportunity) (*models.Opportunity, error)
	Update(ctx context.Context, userID, id int, o models.Opportunity) (*models.Opportunity, error)
	Delete(ctx context.Context, userID, id int) error
}

// LocationServicer defines the interface for location operations
type LocationServicer interface {
	Search(ctx context.Context, query string) ([]models.LocationRecord, error)
	Geocode(ctx context.Context, query string) ([]GeocodeResult, error)
	Create(ctx context.Context, loc models.LocationDetails) (*models.LocationRecord, error)
}

// UserServicer defines the interface for user operations
type UserServicer interface {
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	Get(ctx context.Context, id int) (*models.User, error)
	Eligibility(ctx context.Context, userID int, req EligibilityRequest) (*Eligibility, error)
}

// RegistrationServicer defines the interface for registrations
type RegistrationServicer interface {
	PublicEvent(ctx context.Context, eventID int) (*PublicEvent, error)
	Register(ctx context.Context, eventID int, formID string, form regform.Form) (*models.Application, error)
	Draft(ctx context.Context, eventID int, formID string) (*regform.Form, error)
	SaveDraft(ctx context.Context, eventID int, formID string, values drafts.Values) error
	DiscardDraft(ctx context.Context, eventID int, formID string) error
	ListApplications(ctx context.Context, eventID int, filter models.ApplicationFilter) (models.Page[models.Application], error)
	GetApplication(ctx context.Context, eventID, id int) (*models.Application, error)
	SetApplicationState(ctx context.Context, eventID, id int, state string) (*models.Application, error)
	ListParticipants(ctx context.Context, eventID int) ([]models.User, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, upd SettingsUpdate) error
	OnlineLocationID(ctx context.Context) (int, error)
	PublicWebURL(ctx context.Context) (string, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
}

// DraftServicer defines the interface for the draft layer
type DraftServicer interface {
	Submit(ev drafts.ChangeEvent) error
	Read(ctx context.Context, kind, id string) (drafts.Snapshot, error)
	Save(ctx context.Context, kind, id string, snap drafts.Snapshot) error
	Clear(ctx context.Context, kind, id string) error
	List(ctx context.Context, kind string) ([]repository.Draft, error)
}

// Ensure concrete types implement interfaces
var (
	_ ReferenceServicer    = (*ReferenceService)(nil)
	_ EventServicer        = (*EventService)(nil)
	_ OpportunityServicer  = (*OpportunityService)(nil)
	_ LocationServicer     = (*LocationService)(nil)
	_ UserServicer         = (*UserService)(nil)
	_ RegistrationServicer = (*RegistrationService)(nil)
	_ SettingsServicer     = (*SettingsService)(nil)
	_ DraftServicer        = (*drafts.Manager)(nil)
	_ RuntimeSettings      = (*SettingsService)(nil)
)
