package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/abrezinsky/bisadmin/internal/auth"
	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/handlers"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/repository"
	"github.com/abrezinsky/bisadmin/internal/services"
	"github.com/abrezinsky/bisadmin/internal/testutil"
	"github.com/abrezinsky/bisadmin/pkg/bis"
	"github.com/abrezinsky/bisadmin/pkg/nominatim"
)

type testSetup struct {
	repo       *repository.Repository
	client     *bis.MockClient
	drafts     *drafts.Manager
	handlers   *handlers.Handlers
	router     http.Handler
	authCookie *http.Cookie
}

func newTestSetup(t *testing.T, opts ...bis.MockOption) *testSetup {
	t.Helper()
	log := logger.Nop()
	repo := testutil.NewTestRepository(t)
	client := bis.NewMockClient(opts...)

	mgr := drafts.NewManager(log, repo)
	t.Cleanup(func() { mgr.Close() })

	settings := services.NewSettingsService(log, repo, client)
	online := bis.MockOnlineLocationID
	web := "https://brontosaurus.cz/"
	err := settings.Update(context.Background(), services.SettingsUpdate{OnlineLocationID: &online, PublicWebURL: &web})
	if err != nil {
		t.Fatalf("failed to configure settings: %v", err)
	}

	forms := eventform.NewController(log, mgr, nil)
	forms.SetClock(testutil.FixedNow("2024-06-01"))
	ref := services.NewReferenceService(log, client)
	users := services.NewUserService(log, client, ref, nil)
	users.SetClock(testutil.FixedNow("2024-06-01"))
	registration := services.NewRegistrationService(log, client, mgr)
	registration.SetClock(testutil.FixedNow("2024-06-01"))

	h := handlers.NewForTesting(handlers.Services{
		Reference:    ref,
		Events:       services.NewEventService(log, client, forms, ref, settings),
		Opportunity:  services.NewOpportunityService(log, client, mgr),
		Location:     services.NewLocationService(log, client, nominatim.NewMockGeocoder(nil, nil)),
		User:         users,
		Registration: registration,
		Settings:     settings,
		Drafts:       mgr,
	})
	h.DB = repo

	// Login to get a session cookie for authenticated requests
	token, _ := h.Auth.Login("test-password")

	return &testSetup{
		repo:       repo,
		client:     client,
		drafts:     mgr,
		handlers:   h,
		router:     h.Router(),
		authCookie: &http.Cookie{Name: auth.CookieName, Value: token},
	}
}

// do sends an authenticated request and returns the recorder
func (s *testSetup) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(s.authCookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

const campJSON = `{
	"form_id": "new-camp",
	"steps": {
		"group": {"group": 2},
		"basicInfo": {
			"name": "Letní tábor", "start": "2024-07-10", "start_time": "09:00", "end": "2024-07-20",
			"number_of_sub_events": 1, "category": 2, "program": 1, "administration_units": [2]
		},
		"intendedFor": {"intended_for": 1},
		"location": {"online": false, "location": {"id": 2}},
		"registration": {"registrationMethod": "standard",
			"registration": {"questionnaire": {"introduction": "Vyplň dotazník"}}},
		"propagation": {"propagation": {"cost": "3500", "accommodation": "stany", "diets": [1, 2]}},
		"invitation": {"propagation": {"invitation_text_introductory": "Přijeď na tábor",
			"invitation_text_practical_information": "Sraz na nádraží"}},
		"organizers": {"main_organizer": {"id": 1}, "contactPersonIsMainOrganizer": true,
			"propagation": {"contact_email": "jana@example.cz"}}
	}
}`

func TestHealth(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/healthz", "")
	expectStatus(t, rec, http.StatusOK)

	var body handlers.HealthResponse
	decode(t, rec, &body)
	if body.Status != "ok" {
		t.Errorf("expected ok, got %+v", body)
	}
}

func TestAdminAPI_RequiresSession(t *testing.T) {
	setup := newTestSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/events", nil)
	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestReference(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/reference", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "administration_units") {
		t.Errorf("expected reference data, got %s", rec.Body.String())
	}
}

func TestReference_BackendDown(t *testing.T) {
	setup := newTestSetup(t, bis.WithError("AdministrationUnits", context.DeadlineExceeded))

	rec := setup.do(t, http.MethodGet, "/api/admin/reference", "")
	expectStatus(t, rec, http.StatusBadGateway)

	var body handlers.APIError
	decode(t, rec, &body)
	if body.Code != handlers.ErrCodeBackendUnavailable {
		t.Errorf("expected BACKEND_UNAVAILABLE, got %q", body.Code)
	}
}

func TestEvents_CreateValidCamp(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/admin/events", campJSON)
	expectStatus(t, rec, http.StatusCreated)

	var event models.Event
	decode(t, rec, &event)
	if event.ID == 0 || event.Name != "Letní tábor" {
		t.Errorf("unexpected event %+v", event)
	}

	// The created event is now listed and readable
	rec = setup.do(t, http.MethodGet, "/api/admin/events?search=Letn", "")
	expectStatus(t, rec, http.StatusOK)
	var page models.Page[models.Event]
	decode(t, rec, &page)
	if page.Count == 0 {
		t.Error("expected created event in list")
	}
}

func TestEvents_ValidateReturnsFieldErrors(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/admin/events/validate",
		`{"form_id":"new-x","steps":{"group":{"group":2},"basicInfo":{"name":""}}}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	var body handlers.APIError
	decode(t, rec, &body)
	if body.Code != handlers.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %q", body.Code)
	}
	if len(body.Fields) == 0 || body.Message == "" {
		t.Errorf("expected field errors and summary, got %+v", body)
	}
	if containsCall(setup.client.Calls(), "CreateEvent") {
		t.Error("validation must not create anything")
	}
}

func TestEvents_ValidateValid(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/admin/events/validate", campJSON)
	expectStatus(t, rec, http.StatusOK)
}

func TestEvents_CreateRequiresSteps(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/admin/events", `{"form_id":"new-x"}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestEvents_CreateRejectsEditFormID(t *testing.T) {
	setup := newTestSetup(t)

	body := strings.Replace(campJSON, `"form_id": "new-camp"`, `"form_id": "42"`, 1)
	rec := setup.do(t, http.MethodPost, "/api/admin/events", body)
	expectStatus(t, rec, http.StatusBadRequest)
	if containsCall(setup.client.Calls(), "CreateEvent") {
		t.Error("expected nothing to be created")
	}
}

func TestEvents_InvalidJSON(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/admin/events", `{`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestEvents_GetMissingPassesBackend404(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/events/999", "")
	expectStatus(t, rec, http.StatusNotFound)

	var body handlers.APIError
	decode(t, rec, &body)
	if body.Code != handlers.ErrCodeBackend {
		t.Errorf("expected BACKEND_ERROR, got %q", body.Code)
	}
}

func TestEvents_InvalidID(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/events/abc", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestEvents_OpenNewAndDraftRoundTrip(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/events/new/new-abc", "")
	expectStatus(t, rec, http.StatusOK)
	var opened eventform.Opened
	decode(t, rec, &opened)
	if opened.ID != "new-abc" || opened.HasDraft {
		t.Errorf("unexpected opened form %+v", opened)
	}

	rec = setup.do(t, http.MethodPost, "/api/admin/drafts/changes",
		`{"kind":"event","id":"new-abc","step":"basicInfo","values":{"name":"Víkend"}}`)
	expectStatus(t, rec, http.StatusAccepted)

	rec = setup.do(t, http.MethodGet, "/api/admin/events/new/new-abc", "")
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &opened)
	if !opened.HasDraft || opened.Steps["basicInfo"]["name"] != "Víkend" {
		t.Errorf("expected draft to be restored, got %+v", opened)
	}

	rec = setup.do(t, http.MethodDelete, "/api/admin/drafts/event/new-abc", "")
	expectStatus(t, rec, http.StatusNoContent)

	rec = setup.do(t, http.MethodGet, "/api/admin/drafts/event/new-abc", "")
	expectStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Errorf("expected empty draft, got %s", rec.Body.String())
	}
}

func TestEvents_OpenNewRejectsExistingID(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/events/new/42", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDrafts_SubmitInvalidChange(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/admin/drafts/changes", `{"kind":"event"}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDrafts_ListNeedsKind(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/drafts", "")
	expectStatus(t, rec, http.StatusBadRequest)

	setup.do(t, http.MethodPut, "/api/admin/drafts/opportunity/new-1", `{"opportunity":{"name":"Pomoc"}}`)
	rec = setup.do(t, http.MethodGet, "/api/admin/drafts?kind=opportunity", "")
	expectStatus(t, rec, http.StatusOK)
	var list []repository.Draft
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != "new-1" {
		t.Errorf("unexpected drafts %+v", list)
	}
}

func TestEvents_RegistrationQR(t *testing.T) {
	setup := newTestSetup(t, bis.WithEvents(models.Event{ID: 12, EventCore: models.EventCore{Name: "Tábor"}}))

	rec := setup.do(t, http.MethodGet, "/api/admin/events/12/registration-qr?size=128", "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG body")
	}

	rec = setup.do(t, http.MethodGet, "/api/admin/events/12/registration-qr?size=5", "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = setup.do(t, http.MethodGet, "/api/admin/events/12/registration-link", "")
	expectStatus(t, rec, http.StatusOK)
	var link handlers.RegistrationLinkResponse
	decode(t, rec, &link)
	if link.URL != "https://brontosaurus.cz/akce/12/prihlasit" {
		t.Errorf("unexpected link %q", link.URL)
	}
}

func TestUsers_SearchAndEligibility(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/users?q=Jana&limit=5", "")
	expectStatus(t, rec, http.StatusOK)
	var users []models.User
	decode(t, rec, &users)
	if len(users) == 0 || users[0].ID != 1 {
		t.Errorf("expected Jana first, got %+v", users)
	}

	rec = setup.do(t, http.MethodGet, "/api/admin/users?q=", "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = setup.do(t, http.MethodPost, "/api/admin/users/2/eligibility",
		`{"group":2,"category":2,"intended_for":1,"start":"2024-07-10"}`)
	expectStatus(t, rec, http.StatusOK)
	var result services.Eligibility
	decode(t, rec, &result)
	if result.Eligible || result.Message == "" {
		t.Errorf("user without qualification should not lead a camp, got %+v", result)
	}
}

func TestLocations(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodGet, "/api/admin/locations?q=hamr", "")
	expectStatus(t, rec, http.StatusOK)

	rec = setup.do(t, http.MethodPost, "/api/admin/locations", `{"name":"Louka","address":"Hamr 3"}`)
	expectStatus(t, rec, http.StatusCreated)

	rec = setup.do(t, http.MethodPost, "/api/admin/locations", `{"name":""}`)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = setup.do(t, http.MethodGet, "/api/admin/geocode?q=", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestOpportunities_CRUD(t *testing.T) {
	setup := newTestSetup(t)
	body := `{"category":1,"name":"Pomoc na Hamru","start":"2024-07-01","end":"2024-07-31",
		"on_web_start":"2024-06-01","on_web_end":"2024-07-31","location":{"id":2},
		"introduction":"Hledáme pomocníky","description":"Kosení louky"}`

	rec := setup.do(t, http.MethodPost, "/api/admin/users/1/opportunities?form_id=new-opp", body)
	expectStatus(t, rec, http.StatusCreated)
	var created models.Opportunity
	decode(t, rec, &created)

	path := "/api/admin/users/1/opportunities/" + itoa(created.ID)
	rec = setup.do(t, http.MethodGet, path, "")
	expectStatus(t, rec, http.StatusOK)

	rec = setup.do(t, http.MethodDelete, path, "")
	expectStatus(t, rec, http.StatusNoContent)

	rec = setup.do(t, http.MethodGet, path, "")
	expectStatus(t, rec, http.StatusNotFound)

	rec = setup.do(t, http.MethodPost, "/api/admin/users/1/opportunities", `{"name":""}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestSettings_GetAndUpdate(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPut, "/api/admin/settings", `{"public_web_url":" https://example.cz/ "}`)
	expectStatus(t, rec, http.StatusOK)

	var settings services.Settings
	decode(t, rec, &settings)
	if settings.PublicWebURL != "https://example.cz/" {
		t.Errorf("expected trimmed URL, got %q", settings.PublicWebURL)
	}

	rec = setup.do(t, http.MethodPut, "/api/admin/settings", `{"bis_api_url":"not a url"}`)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestBISLogin(t *testing.T) {
	setup := newTestSetup(t)

	rec := setup.do(t, http.MethodPost, "/api/admin/bis/login", `{"email":"jana@example.cz"}`)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = setup.do(t, http.MethodPost, "/api/admin/bis/login", `{"email":"jana@example.cz","password":"tajne"}`)
	expectStatus(t, rec, http.StatusOK)

	rec = setup.do(t, http.MethodGet, "/api/admin/bis/me", "")
	expectStatus(t, rec, http.StatusOK)

	rec = setup.do(t, http.MethodPost, "/api/admin/bis/logout", "")
	expectStatus(t, rec, http.StatusOK)

	rec = setup.do(t, http.MethodGet, "/api/admin/bis/me", "")
	expectStatus(t, rec, http.StatusConflict)
}

func containsCall(calls []string, op string) bool {
	for _, c := range calls {
		if c == op {
			return true
		}
	}
	return false
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
