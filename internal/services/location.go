package services

import (
	"context"
	"strings"

	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/pkg/bis"
	"github.com/abrezinsky/bisadmin/pkg/nominatim"
)

// maxGeocodeResults bounds the hits returned for one address
const maxGeocodeResults = 5

// GeocodeResult is a geocoder hit ready to be used as a location draft
type GeocodeResult struct {
	Name        string              `json:"name"`
	Address     string              `json:"address"`
	GPSLocation *models.Coordinates `json:"gps_location"`
}

// LocationService searches, geocodes and creates locations
type LocationService struct {
	log      logger.Logger
	client   bis.Client
	geocoder nominatim.Geocoder
}

// NewLocationService creates a new LocationService
func NewLocationService(log logger.Logger, client bis.Client, geocoder nominatim.Geocoder) *LocationService {
	return &LocationService{log: log, client: client, geocoder: geocoder}
}

// Search lists backend locations matching query
func (s *LocationService) Search(ctx context.Context, query string) ([]models.LocationRecord, error) {
	page, err := s.client.ListLocations(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst lokality")
	}
	if page.Results == nil {
		return []models.LocationRecord{}, nil
	}
	return page.Results, nil
}

// Geocode resolves a free-text address. Hits without usable coordinates
// are skipped.
func (s *LocationService) Geocode(ctx context.Context, query string) ([]GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	places, err := s.geocoder.Search(ctx, query, maxGeocodeResults)
	if err != nil {
		return nil, apperrors.Unavailable("Nepodařilo se vyhledat adresu", err)
	}

	results := make([]GeocodeResult, 0, len(places))
	for _, p := range places {
		point, err := p.Point()
		if err != nil {
			s.log.Debug("Skipping geocoder hit", "place", p.PlaceID, "error", err)
			continue
		}
		name, _, _ := strings.Cut(p.DisplayName, ",")
		results = append(results, GeocodeResult{
			Name:        strings.TrimSpace(name),
			Address:     p.DisplayName,
			GPSLocation: point,
		})
	}
	return results, nil
}

// ValidateLocation checks a location draft
func ValidateLocation(loc models.LocationDetails) error {
	if strings.TrimSpace(loc.Name) == "" {
		return apperrors.InvalidInput("Název lokality je povinný.")
	}
	if strings.TrimSpace(loc.Address) == "" && loc.GPSLocation == nil {
		return apperrors.InvalidInput("Zadejte adresu nebo vyberte místo na mapě.")
	}
	if p := loc.GPSLocation; p != nil {
		lon, lat := p.Coordinates[0], p.Coordinates[1]
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return apperrors.InvalidInput("Souřadnice jsou mimo rozsah.")
		}
	}
	return nil
}

// Create validates and creates a location
func (s *LocationService) Create(ctx context.Context, loc models.LocationDetails) (*models.LocationRecord, error) {
	if err := ValidateLocation(loc); err != nil {
		return nil, err
	}
	if loc.GPSLocation != nil && loc.GPSLocation.Type == "" {
		loc.GPSLocation.Type = "Point"
	}
	rec, err := s.client.CreateLocation(ctx, loc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se vytvořit lokalitu")
	}
	s.log.Info("Location created", "id", rec.ID, "name", rec.Name)
	return &rec, nil
}
