package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/services"
	"github.com/abrezinsky/bisadmin/internal/testutil"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

func validOpportunity() models.Opportunity {
	return models.Opportunity{
		Category:     1,
		Name:         "Pomoc na Hamru",
		Start:        models.MustDate("2024-07-01"),
		End:          models.MustDate("2024-07-31"),
		OnWebStart:   models.MustDate("2024-06-01"),
		OnWebEnd:     models.MustDate("2024-07-31"),
		Location:     models.Existing(2),
		Introduction: "Hledáme pomocníky",
		Description:  "Kosení louky",
	}
}

func newOpportunityService(t *testing.T, opts ...bis.MockOption) (*services.OpportunityService, *bis.MockClient, *drafts.Manager) {
	t.Helper()
	client := bis.NewMockClient(opts...)
	mgr := drafts.NewManager(logger.Nop(), testutil.NewTestRepository(t))
	t.Cleanup(func() { mgr.Close() })
	return services.NewOpportunityService(logger.Nop(), client, mgr), client, mgr
}

func TestValidateOpportunity(t *testing.T) {
	if err := services.ValidateOpportunity(validOpportunity()); err != nil {
		t.Fatalf("expected valid opportunity, got %v", err)
	}

	o := validOpportunity()
	o.Name = " "
	o.End = models.MustDate("2024-06-15")
	o.Location = models.LocationField{Value: models.NewLocation{Name: "Bez adresy"}}

	var ve *eventform.ValidationError
	if err := services.ValidateOpportunity(o); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, path := range []string{"name", "end", "location"} {
		if _, ok := ve.Fields[path]; !ok {
			t.Errorf("expected error at %s, got %v", path, ve.Fields)
		}
	}
	if ve.Summary == "" {
		t.Error("expected summary")
	}
}

func TestOpportunityService_CreateWithNewLocation(t *testing.T) {
	svc, client, mgr := newOpportunityService(t)
	ctx := context.Background()

	err := mgr.Submit(drafts.ChangeEvent{Kind: drafts.KindOpportunity, ID: "new-opp", Step: "opportunity",
		Values: drafts.Values{"name": "Pomoc"}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	o := validOpportunity()
	o.Location = models.LocationField{Value: models.NewLocation{Name: "Louka", Address: "Hamr 3"}}
	created, err := svc.Create(ctx, 1, "new-opp", o)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected id")
	}
	if id, ok := created.Location.ExistingID(); !ok || id <= 2 {
		t.Errorf("expected created location, got %+v", created.Location)
	}
	if !containsCall(client.Calls(), "CreateLocation") {
		t.Error("expected CreateLocation call")
	}

	snap, _ := mgr.Read(ctx, drafts.KindOpportunity, "new-opp")
	if len(snap) != 0 {
		t.Errorf("expected draft to be cleared, got %v", snap)
	}
}

func TestOpportunityService_UpdateGetDelete(t *testing.T) {
	existing := validOpportunity()
	existing.ID = 40
	svc, _, _ := newOpportunityService(t, bis.WithOpportunities(1, existing))
	ctx := context.Background()

	o := validOpportunity()
	o.Name = "Kosení"
	if _, err := svc.Update(ctx, 1, 40, o); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := svc.Get(ctx, 1, 40)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Kosení" {
		t.Errorf("expected updated name, got %q", got.Name)
	}

	if err := svc.Delete(ctx, 1, 40); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, 1, 40); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpportunityService_CreateBackendError(t *testing.T) {
	svc, _, _ := newOpportunityService(t, bis.WithError("CreateOpportunity", errors.New("down")))
	if _, err := svc.Create(context.Background(), 1, "", validOpportunity()); !apperrors.Is(err, apperrors.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
