package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

// DraftClearer deletes a stored draft
type DraftClearer interface {
	Clear(ctx context.Context, kind, id string) error
}

var opportunityLabels = map[string]string{
	"category":     "Kategorie",
	"name":         "Název",
	"start":        "Začátek",
	"end":          "Konec",
	"on_web_start": "Zobrazit na webu od",
	"on_web_end":   "Zobrazit na webu do",
	"location":     "Lokalita",
	"introduction": "Představení příležitosti",
	"description":  "Popis",
}

// ValidateOpportunity checks an opportunity form. It returns nil or an
// *eventform.ValidationError.
func ValidateOpportunity(o models.Opportunity) error {
	fe := eventform.FieldErrors{}
	add := func(path, msg string) {
		if _, ok := fe[path]; !ok {
			fe[path] = msg
		}
	}
	const required = "Toto pole je povinné."

	if o.Category == 0 {
		add("category", required)
	}
	if strings.TrimSpace(o.Name) == "" {
		add("name", required)
	}
	if o.Start.IsZero() {
		add("start", required)
	}
	switch {
	case o.End.IsZero():
		add("end", required)
	case !o.Start.IsZero() && o.End.Before(o.Start.Time):
		add("end", "Konec musí být stejný nebo pozdější než začátek.")
	}
	if o.OnWebStart.IsZero() {
		add("on_web_start", required)
	}
	switch {
	case o.OnWebEnd.IsZero():
		add("on_web_end", required)
	case !o.OnWebStart.IsZero() && o.OnWebEnd.Before(o.OnWebStart.Time):
		add("on_web_end", "Konec zobrazení musí být stejný nebo pozdější než začátek.")
	}
	if !o.Location.IsSet() {
		add("location", required)
	} else if draft, ok := o.Location.Draft(); ok {
		var invalid *apperrors.Error
		if err := ValidateLocation(models.LocationDetails(draft)); errors.As(err, &invalid) {
			add("location", invalid.Message)
		}
	}
	if strings.TrimSpace(o.Introduction) == "" {
		add("introduction", required)
	}
	if strings.TrimSpace(o.Description) == "" {
		add("description", required)
	}

	if len(fe) == 0 {
		return nil
	}
	paths := make([]string, 0, len(fe))
	for p := range fe {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = opportunityLabels[p]
	}
	return &eventform.ValidationError{
		Fields:  fe,
		Steps:   []string{"opportunity"},
		Summary: "Formulář obsahuje chyby: " + strings.Join(names, ", "),
	}
}

// OpportunityService manages a user's volunteering opportunities
type OpportunityService struct {
	log    logger.Logger
	client bis.Client
	drafts DraftClearer
}

// NewOpportunityService creates a new OpportunityService
func NewOpportunityService(log logger.Logger, client bis.Client, drafts DraftClearer) *OpportunityService {
	return &OpportunityService{log: log, client: client, drafts: drafts}
}

// List returns the opportunities of a user
func (s *OpportunityService) List(ctx context.Context, userID int) ([]models.Opportunity, error) {
	opps, err := s.client.ListOpportunities(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst příležitosti")
	}
	return opps, nil
}

// Get returns one opportunity of a user
func (s *OpportunityService) Get(ctx context.Context, userID, id int) (*models.Opportunity, error) {
	opps, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, o := range opps {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, apperrors.NotFoundf("opportunity %d not found", id)
}

func (s *OpportunityService) resolveLocation(ctx context.Context, o *models.Opportunity) error {
	draft, ok := o.Location.Draft()
	if !ok {
		return nil
	}
	loc, err := s.client.CreateLocation(ctx, models.LocationDetails(draft))
	if err != nil {
		return apperrors.Wrap(&StepError{Step: "create location", Err: err},
			apperrors.ErrUnavailable, "Nepodařilo se vytvořit lokalitu")
	}
	o.Location = models.Existing(loc.ID)
	return nil
}

func (s *OpportunityService) clearDraft(ctx context.Context, formID string) {
	if formID == "" || s.drafts == nil {
		return
	}
	if err := s.drafts.Clear(ctx, drafts.KindOpportunity, formID); err != nil {
		s.log.Warn("Failed to clear draft", "kind", drafts.KindOpportunity, "id", formID, "error", err)
	}
}

// Create validates and creates an opportunity, then clears its draft
func (s *OpportunityService) Create(ctx context.Context, userID int, formID string, o models.Opportunity) (*models.Opportunity, error) {
	if err := ValidateOpportunity(o); err != nil {
		return nil, err
	}
	if err := s.resolveLocation(ctx, &o); err != nil {
		return nil, err
	}
	o.ID = 0
	created, err := s.client.CreateOpportunity(ctx, userID, o)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se vytvořit příležitost")
	}
	s.clearDraft(ctx, formID)
	s.log.Info("Opportunity created", "user", userID, "id", created.ID)
	return &created, nil
}

// Update validates and saves an opportunity, then clears its draft
func (s *OpportunityService) Update(ctx context.Context, userID, id int, o models.Opportunity) (*models.Opportunity, error) {
	if err := ValidateOpportunity(o); err != nil {
		return nil, err
	}
	if err := s.resolveLocation(ctx, &o); err != nil {
		return nil, err
	}
	o.ID = id
	updated, err := s.client.UpdateOpportunity(ctx, userID, id, o)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se uložit příležitost")
	}
	s.clearDraft(ctx, fmt.Sprint(id))
	return &updated, nil
}

// Delete removes an opportunity
func (s *OpportunityService) Delete(ctx context.Context, userID, id int) error {
	if err := s.client.DeleteOpportunity(ctx, userID, id); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se smazat příležitost")
	}
	return nil
}
