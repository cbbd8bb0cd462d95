package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

// ReferenceService loads the lookup tables every form needs
type ReferenceService struct {
	log    logger.Logger
	client bis.Client
}

// NewReferenceService creates a new ReferenceService
func NewReferenceService(log logger.Logger, client bis.Client) *ReferenceService {
	return &ReferenceService{log: log, client: client}
}

// Load fetches all lookups concurrently and returns once every one of them
// resolved. Responses are cached by the client, so repeated loads are cheap.
func (s *ReferenceService) Load(ctx context.Context) (models.ReferenceData, error) {
	var ref models.ReferenceData
	g, gctx := errgroup.WithContext(ctx)

	categories := []struct {
		kind bis.CategoryKind
		dst  *[]models.Category
	}{
		{bis.EventGroupCategories, &ref.EventGroups},
		{bis.EventCategories, &ref.EventCategories},
		{bis.ProgramCategories, &ref.Programs},
		{bis.IntendedForCategories, &ref.IntendedFor},
		{bis.DietCategories, &ref.Diets},
		{bis.QualificationCategories, &ref.Qualifications},
		{bis.OpportunityCategories, &ref.OpportunityCategories},
		{bis.HealthInsuranceCompanies, &ref.HealthInsuranceCompanies},
	}
	for _, c := range categories {
		g.Go(func() error {
			cats, err := s.client.Categories(gctx, c.kind)
			if err != nil {
				return err
			}
			*c.dst = cats
			return nil
		})
	}
	g.Go(func() error {
		units, err := s.client.AdministrationUnits(gctx)
		if err != nil {
			return err
		}
		ref.AdministrationUnits = units
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Failed to load reference data", "error", err)
		return models.ReferenceData{}, apperrors.Unavailable("Nepodařilo se načíst číselníky z BIS", err)
	}
	return ref, nil
}
