package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/regform"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

// RegistrationDrafts is the draft layer the registration flow needs
type RegistrationDrafts interface {
	Submit(ev drafts.ChangeEvent) error
	Read(ctx context.Context, kind, id string) (drafts.Snapshot, error)
	Clear(ctx context.Context, kind, id string) error
}

// PublicEvent is what an applicant sees before registering
type PublicEvent struct {
	Event               models.Event `json:"event"`
	Open                bool         `json:"open"`
	Reason              string       `json:"reason,omitempty"`
	ClosePersonBelowAge int          `json:"close_person_below_age"`
}

// RegistrationService handles applications for events
type RegistrationService struct {
	log    logger.Logger
	client bis.Client
	drafts RegistrationDrafts
	now    func() time.Time
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(log logger.Logger, client bis.Client, drafts RegistrationDrafts) *RegistrationService {
	return &RegistrationService{log: log, client: client, drafts: drafts, now: time.Now}
}

// SetClock replaces the time source
func (s *RegistrationService) SetClock(now func() time.Time) {
	s.now = now
}

// registrationDraftID scopes an applicant's form id to the event
func registrationDraftID(eventID int, formID string) string {
	return fmt.Sprintf("%d:%s", eventID, formID)
}

// PublicEvent returns an event as shown on the registration page
func (s *RegistrationService) PublicEvent(ctx context.Context, eventID int) (*PublicEvent, error) {
	e, err := s.client.GetPublicEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst akci")
	}
	pe := &PublicEvent{Event: e, Open: true, ClosePersonBelowAge: regform.ClosePersonAge}
	var closed *apperrors.Error
	if err := regform.CheckOpen(e); errors.As(err, &closed) {
		pe.Open = false
		pe.Reason = closed.Message
	}
	return pe, nil
}

func questionsOf(e models.Event) []models.Question {
	if q := e.Registration.Questionnaire; q != nil {
		return q.Questions
	}
	return nil
}

// Register validates an application and sends it to the backend. The
// applicant's draft is cleared once the backend accepted it.
func (s *RegistrationService) Register(ctx context.Context, eventID int, formID string, form regform.Form) (*models.Application, error) {
	// capacity may have changed in BIS since the page was loaded
	e, err := s.client.GetPublicEvent(bis.WithoutCache(ctx), eventID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst akci")
	}
	if err := regform.CheckOpen(e); err != nil {
		return nil, err
	}
	questions := questionsOf(e)
	if err := regform.Validate(form, e, questions, s.now()); err != nil {
		return nil, err
	}

	app, err := s.client.CreatePublicApplication(ctx, eventID, regform.ToApplication(form, questions))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Přihlášku se nepodařilo odeslat")
	}
	if formID != "" {
		if err := s.drafts.Clear(ctx, drafts.KindRegistration, registrationDraftID(eventID, formID)); err != nil {
			s.log.Warn("Failed to clear registration draft", "event", eventID, "form", formID, "error", err)
		}
	}
	s.log.Info("Application submitted", "event", eventID, "application", app.ID)
	return &app, nil
}

// Draft returns the applicant's saved form, or an empty one
func (s *RegistrationService) Draft(ctx context.Context, eventID int, formID string) (*regform.Form, error) {
	if formID == "" {
		return nil, apperrors.InvalidInput("form id is required")
	}
	snap, err := s.drafts.Read(ctx, drafts.KindRegistration, registrationDraftID(eventID, formID))
	if err != nil {
		return nil, err
	}

	form := &regform.Form{}
	values, ok := snap[regform.StepName]
	if !ok {
		return form, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := json.Unmarshal(data, form); err != nil {
		s.log.Warn("Ignoring unreadable registration draft", "event", eventID, "form", formID, "error", err)
		return &regform.Form{}, nil
	}
	return form, nil
}

// SaveDraft queues the applicant's current form values
func (s *RegistrationService) SaveDraft(ctx context.Context, eventID int, formID string, values drafts.Values) error {
	if formID == "" {
		return apperrors.InvalidInput("form id is required")
	}
	return s.drafts.Submit(drafts.ChangeEvent{
		Kind:   drafts.KindRegistration,
		ID:     registrationDraftID(eventID, formID),
		Step:   regform.StepName,
		Values: values,
	})
}

// DiscardDraft deletes the applicant's saved form
func (s *RegistrationService) DiscardDraft(ctx context.Context, eventID int, formID string) error {
	return s.drafts.Clear(ctx, drafts.KindRegistration, registrationDraftID(eventID, formID))
}

// ListApplications returns a page of applications for an event
func (s *RegistrationService) ListApplications(ctx context.Context, eventID int, filter models.ApplicationFilter) (models.Page[models.Application], error) {
	if filter.State != "" && !validApplicationState(filter.State) {
		return models.Page[models.Application]{}, &InvalidStateError{State: filter.State}
	}
	page, err := s.client.ListApplications(ctx, eventID, filter)
	if err != nil {
		return page, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst přihlášky")
	}
	return page, nil
}

// GetApplication returns one application
func (s *RegistrationService) GetApplication(ctx context.Context, eventID, id int) (*models.Application, error) {
	app, err := s.client.GetApplication(ctx, eventID, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst přihlášku")
	}
	return &app, nil
}

func validApplicationState(state string) bool {
	switch state {
	case models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected, models.ApplicationCancelled:
		return true
	}
	return false
}

// SetApplicationState accepts, rejects or resets an application
func (s *RegistrationService) SetApplicationState(ctx context.Context, eventID, id int, state string) (*models.Application, error) {
	if !validApplicationState(state) {
		return nil, &InvalidStateError{State: state}
	}
	app, err := s.client.SetApplicationState(ctx, eventID, id, state)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se změnit stav přihlášky")
	}
	s.log.Info("Application state changed", "event", eventID, "application", id, "state", state)
	return &app, nil
}

// ListParticipants returns the participants recorded for an event
func (s *RegistrationService) ListParticipants(ctx context.Context, eventID int) ([]models.User, error) {
	users, err := s.client.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst účastníky")
	}
	return users, nil
}
