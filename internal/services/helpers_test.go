package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/repository"
	"github.com/abrezinsky/bisadmin/internal/services"
	"github.com/abrezinsky/bisadmin/internal/testutil"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

// recordingBroadcaster collects system messages
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []string
	levels   []string
}

func (b *recordingBroadcaster) BroadcastSystemMessage(level, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels = append(b.levels, level)
	b.messages = append(b.messages, text)
}

func (b *recordingBroadcaster) last() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.messages) == 0 {
		return "", ""
	}
	return b.levels[len(b.levels)-1], b.messages[len(b.messages)-1]
}

// eventFixture wires an EventService against the mock backend
type eventFixture struct {
	svc      *services.EventService
	client   *bis.MockClient
	drafts   *drafts.Manager
	settings *services.SettingsService
	repo     repository.FullRepository
	bc       *recordingBroadcaster
}

func newEventFixture(t *testing.T, opts ...bis.MockOption) *eventFixture {
	t.Helper()
	log := logger.Nop()
	repo := testutil.NewTestRepository(t)
	client := bis.NewMockClient(opts...)

	mgr := drafts.NewManager(log, repo)
	t.Cleanup(func() { mgr.Close() })

	forms := eventform.NewController(log, mgr, nil)
	forms.SetClock(testutil.FixedNow("2024-06-01"))

	settings := services.NewSettingsService(log, repo, client)
	err := settings.Update(context.Background(), services.SettingsUpdate{
		OnlineLocationID: intPtr(bis.MockOnlineLocationID),
		PublicWebURL:     strPtr("https://brontosaurus.cz/"),
	})
	if err != nil {
		t.Fatalf("failed to configure settings: %v", err)
	}

	svc := services.NewEventService(log, client, forms, services.NewReferenceService(log, client), settings)
	bc := &recordingBroadcaster{}
	svc.SetBroadcaster(bc)

	return &eventFixture{svc: svc, client: client, drafts: mgr, settings: settings, repo: repo, bc: bc}
}

// campSteps is a complete, valid wizard submission for a summer camp. The
// main organizer is posted as a bare id the way the picker sends it.
func campSteps() map[string]drafts.Values {
	return map[string]drafts.Values{
		eventform.StepGroup: {"group": bis.MockGroupCamp},
		eventform.StepBasicInfo: {
			"name":                 "Letní tábor",
			"start":                "2024-07-10",
			"start_time":           "09:00",
			"end":                  "2024-07-20",
			"number_of_sub_events": 1,
			"category":             2,
			"program":              1,
			"administration_units": []any{2},
		},
		eventform.StepIntendedFor: {"intended_for": 1},
		eventform.StepLocation:    {"online": false, "location": map[string]any{"id": 2}},
		eventform.StepRegistration: {
			"registrationMethod": "standard",
			"registration": map[string]any{
				"questionnaire": map[string]any{"introduction": "Vyplň dotazník"},
			},
		},
		eventform.StepPropagation: {"propagation": map[string]any{
			"cost":          "3500",
			"accommodation": "stany",
			"diets":         []any{1, 2},
		}},
		eventform.StepInvitation: {"propagation": map[string]any{
			"invitation_text_introductory":          "Přijeď na tábor",
			"invitation_text_practical_information": "Sraz na nádraží",
		}},
		eventform.StepOrganizers: {
			"main_organizer":               map[string]any{"id": 1},
			"contactPersonIsMainOrganizer": true,
			"propagation":                  map[string]any{"contact_email": "jana@example.cz"},
		},
	}
}

func containsCall(calls []string, op string) bool {
	for _, c := range calls {
		if c == op {
			return true
		}
	}
	return false
}

func indexOfCall(calls []string, op string) int {
	for i, c := range calls {
		if c == op {
			return i
		}
	}
	return -1
}
