package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

// ReferenceLoader provides the lookup tables
type ReferenceLoader interface {
	Load(ctx context.Context) (models.ReferenceData, error)
}

// RuntimeSettings are the settings services read on every use
type RuntimeSettings interface {
	OnlineLocationID(ctx context.Context) (int, error)
	PublicWebURL(ctx context.Context) (string, error)
}

// EditForm is an existing event opened in the wizard
type EditForm struct {
	*eventform.Opened
	Event models.Event `json:"event"`
}

// EventService handles events and the event wizard
type EventService struct {
	log         logger.Logger
	client      bis.Client
	forms       *eventform.Controller
	ref         ReferenceLoader
	settings    RuntimeSettings
	broadcaster Broadcaster
}

// NewEventService creates a new EventService
func NewEventService(log logger.Logger, client bis.Client, forms *eventform.Controller, ref ReferenceLoader, settings RuntimeSettings) *EventService {
	return &EventService{log: log, client: client, forms: forms, ref: ref, settings: settings}
}

// SetBroadcaster sets where save results are announced
func (s *EventService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *EventService) announce(level, text string) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastSystemMessage(level, text)
	}
}

// List returns a page of events
func (s *EventService) List(ctx context.Context, filter models.EventFilter) (models.Page[models.Event], error) {
	page, err := s.client.ListEvents(ctx, filter)
	if err != nil {
		return page, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst akce")
	}
	return page, nil
}

// Get returns an event with its questionnaire questions
func (s *EventService) Get(ctx context.Context, id int) (*models.Event, error) {
	e, err := s.client.GetEvent(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst akci")
	}
	questions, err := s.client.ListQuestions(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst dotazník")
	}
	if len(questions) > 0 {
		q := models.Questionnaire{}
		if e.Registration.Questionnaire != nil {
			q = *e.Registration.Questionnaire
		}
		q.Questions = questions
		e.Registration.Questionnaire = &q
	}
	return &e, nil
}

// Delete removes an event
func (s *EventService) Delete(ctx context.Context, id int) error {
	if err := s.client.DeleteEvent(ctx, id); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se smazat akci")
	}
	s.log.Info("Event deleted", "id", id)
	return nil
}

// OpenNew opens the wizard for a new event. An empty formID starts a new
// form; a known one resumes its draft.
func (s *EventService) OpenNew(ctx context.Context, formID string) (*eventform.Opened, error) {
	if formID != "" && !strings.HasPrefix(formID, eventform.NewFormIDPrefix) {
		return nil, apperrors.InvalidInputf("invalid form id %q", formID)
	}
	return s.forms.Open(ctx, drafts.KindEvent, formID, nil)
}

func (s *EventService) formValues(ctx context.Context, e models.Event) (drafts.Values, error) {
	onlineID, err := s.settings.OnlineLocationID(ctx)
	if err != nil {
		return nil, err
	}
	values, err := eventform.ToValues(models.FormFromEvent(e, onlineID))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return values, nil
}

// OpenEdit opens the wizard for an existing event, merged with its draft
func (s *EventService) OpenEdit(ctx context.Context, id int) (*EditForm, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	values, err := s.formValues(ctx, *e)
	if err != nil {
		return nil, err
	}
	opened, err := s.forms.Open(ctx, drafts.KindEvent, strconv.Itoa(id), values)
	if err != nil {
		return nil, err
	}
	return &EditForm{Opened: opened, Event: *e}, nil
}

// Clone opens a new-event wizard prefilled from an existing event. Ids of
// the questions and images are dropped so they are created anew.
func (s *EventService) Clone(ctx context.Context, id int) (*eventform.Opened, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := *e
	clone.ID = 0
	clone.IsCanceled = false
	clone.IsClosed = false
	clone.Name = strings.TrimSpace(clone.Name + " (kopie)")
	if q := clone.Registration.Questionnaire; q != nil {
		cq := *q
		cq.Questions = make([]models.Question, len(q.Questions))
		for i, question := range q.Questions {
			question.ID = 0
			cq.Questions[i] = question
		}
		clone.Registration.Questionnaire = &cq
	}
	clone.Propagation.Images = make([]models.EventImage, len(e.Propagation.Images))
	for i, img := range e.Propagation.Images {
		img.ID = 0
		clone.Propagation.Images[i] = img
	}

	values, err := s.formValues(ctx, clone)
	if err != nil {
		return nil, err
	}
	return s.forms.Open(ctx, drafts.KindEvent, eventform.NewFormID(), values)
}

// Validate runs the wizard validation without saving anything
func (s *EventService) Validate(ctx context.Context, sub eventform.Submission) error {
	ref, err := s.ref.Load(ctx)
	if err != nil {
		return err
	}
	s.refreshOrganizer(ctx, sub.Steps)
	_, err = s.forms.Validate(ctx, ref, sub)
	return err
}

// Create validates a new-event wizard and creates the event. formID must
// name a new-event form, so submitting never clears an edit draft.
func (s *EventService) Create(ctx context.Context, formID string, steps map[string]drafts.Values) (*models.Event, error) {
	if formID != "" && !strings.HasPrefix(formID, eventform.NewFormIDPrefix) {
		return nil, apperrors.InvalidInputf("invalid form id %q", formID)
	}
	ref, err := s.ref.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.refreshOrganizer(ctx, steps)

	var created models.Event
	sub := eventform.Submission{Kind: drafts.KindEvent, ID: formID, Steps: steps}
	err = s.forms.Submit(ctx, ref, sub, func(ctx context.Context, form models.EventForm) error {
		e, err := s.save(ctx, 0, form)
		if err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		s.announceFailure("Akci se nepodařilo vytvořit", err)
		return nil, err
	}
	s.log.Info("Event created", "id", created.ID, "name", created.Name)
	s.announce(LevelSuccess, fmt.Sprintf("Akce %s byla vytvořena.", created.Name))
	return &created, nil
}

// Update validates an edit wizard and saves the event. Fields no step
// owns are taken from the backend's current state.
func (s *EventService) Update(ctx context.Context, id int, steps map[string]drafts.Values) (*models.Event, error) {
	ref, err := s.ref.Load(ctx)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(bis.WithoutCache(ctx), id)
	if err != nil {
		return nil, err
	}
	base, err := s.formValues(ctx, *current)
	if err != nil {
		return nil, err
	}
	s.refreshOrganizer(ctx, steps)

	var updated models.Event
	sub := eventform.Submission{Kind: drafts.KindEvent, ID: strconv.Itoa(id), Base: base, Steps: steps}
	err = s.forms.Submit(ctx, ref, sub, func(ctx context.Context, form models.EventForm) error {
		e, err := s.save(ctx, id, form)
		if err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		s.announceFailure("Akci se nepodařilo uložit", err)
		return nil, err
	}
	s.log.Info("Event updated", "id", id)
	s.announce(LevelSuccess, fmt.Sprintf("Akce %s byla uložena.", updated.Name))
	return &updated, nil
}

func (s *EventService) announceFailure(summary string, err error) {
	var ve *eventform.ValidationError
	if errors.As(err, &ve) {
		return
	}
	s.announce(LevelError, summary+": "+err.Error())
}

// save creates (id == 0) or updates the event and its dependents: a
// drafted location first, then the event, then questions and images.
func (s *EventService) save(ctx context.Context, id int, form models.EventForm) (models.Event, error) {
	if draft, ok := form.Location.Draft(); ok && !form.Online {
		loc, err := s.client.CreateLocation(ctx, models.LocationDetails(draft))
		if err != nil {
			return models.Event{}, apperrors.Wrap(&StepError{Step: "create location", Err: err},
				apperrors.ErrUnavailable, "Nepodařilo se vytvořit lokalitu")
		}
		form.Location = models.Existing(loc.ID)
		s.log.Info("Location created", "id", loc.ID, "name", loc.Name)
	}

	onlineID := 0
	if form.Online {
		var err error
		if onlineID, err = s.settings.OnlineLocationID(ctx); err != nil {
			return models.Event{}, err
		}
		if onlineID == 0 {
			return models.Event{}, ErrOnlineLocationNotConfigured
		}
	}

	payload := eventform.ToPayload(form, onlineID)
	var questions []models.Question
	if q := payload.Registration.Questionnaire; q != nil {
		questions = q.Questions
		stripped := *q
		stripped.Questions = nil
		payload.Registration.Questionnaire = &stripped
	}

	var e models.Event
	var err error
	if id == 0 {
		e, err = s.client.CreateEvent(ctx, payload)
		if err != nil {
			return e, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se vytvořit akci")
		}
	} else {
		e, err = s.client.UpdateEvent(ctx, id, payload)
		if err != nil {
			return e, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se uložit akci")
		}
		if err := s.clearQuestions(ctx, id); err != nil {
			return e, err
		}
	}

	for i, q := range questions {
		q.ID = 0
		q.Order = i
		if _, err := s.client.CreateQuestion(ctx, e.ID, q); err != nil {
			return e, apperrors.Wrap(&StepError{Step: "create questions", EventID: e.ID, Err: err},
				apperrors.ErrUnavailable, "Akce je uložena, ale nepodařilo se uložit dotazník")
		}
	}

	for _, img := range form.Propagation.Images {
		if img.ID != 0 {
			continue
		}
		if _, err := s.client.CreateImage(ctx, e.ID, img); err != nil {
			return e, apperrors.Wrap(&StepError{Step: "attach images", EventID: e.ID, Err: err},
				apperrors.ErrUnavailable, "Akce je uložena, ale nepodařilo se nahrát fotky")
		}
	}
	return e, nil
}

func (s *EventService) clearQuestions(ctx context.Context, eventID int) error {
	existing, err := s.client.ListQuestions(ctx, eventID)
	if err != nil {
		return apperrors.Wrap(&StepError{Step: "list questions", EventID: eventID, Err: err},
			apperrors.ErrUnavailable, "Akce je uložena, ale nepodařilo se načíst dotazník")
	}
	for _, q := range existing {
		if err := s.client.DeleteQuestion(ctx, eventID, q.ID); err != nil {
			return apperrors.Wrap(&StepError{Step: "delete questions", EventID: eventID, Err: err},
				apperrors.ErrUnavailable, "Akce je uložena, ale nepodařilo se upravit dotazník")
		}
	}
	return nil
}

// refreshOrganizer replaces the posted main organizer by the backend's
// record; pickers post search hits that may lack qualifications.
func (s *EventService) refreshOrganizer(ctx context.Context, steps map[string]drafts.Values) {
	org, ok := steps[eventform.StepOrganizers]
	if !ok {
		return
	}
	main, ok := org["main_organizer"].(map[string]any)
	if !ok {
		return
	}
	id, ok := intValue(main["id"])
	if !ok || id == 0 {
		return
	}
	u, err := s.client.GetUser(bis.WithoutCache(ctx), id)
	if err != nil {
		s.log.Warn("Failed to refresh main organizer", "id", id, "error", err)
		return
	}
	values, err := toAny(u)
	if err != nil {
		return
	}
	org = drafts.Clone(org)
	org["main_organizer"] = values
	steps[eventform.StepOrganizers] = org
}

// RegistrationLink returns the public registration URL of an event
func (s *EventService) RegistrationLink(ctx context.Context, id int) (string, error) {
	base, err := s.settings.PublicWebURL(ctx)
	if err != nil {
		return "", err
	}
	if base == "" {
		return "", ErrPublicWebURLNotConfigured
	}
	return fmt.Sprintf("%s/akce/%d/prihlasit", strings.TrimRight(base, "/"), id), nil
}

// RegistrationQR renders the public registration link as a PNG
func (s *EventService) RegistrationQR(ctx context.Context, id, size int) ([]byte, error) {
	if size == 0 {
		size = 256
	}
	if size < 64 || size > 1024 {
		return nil, ErrInvalidQRSize
	}
	link, err := s.RegistrationLink(ctx, id)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return png, nil
}
