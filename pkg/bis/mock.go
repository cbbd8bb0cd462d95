package bis

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/abrezinsky/bisadmin/internal/models"
)

// MockClient is an in-memory BIS backend for testing
type MockClient struct {
	mu            sync.Mutex
	baseURL       string
	token         string
	loginToken    string
	me            models.User
	categories    map[CategoryKind][]models.Category
	units         []models.AdministrationUnit
	events        map[int]models.Event
	questions     map[int][]models.Question
	images        map[int][]models.EventImage
	applications  map[int][]models.Application
	participants  map[int][]models.User
	users         []models.User
	opportunities map[int][]models.Opportunity
	locations     []models.LocationRecord
	errs          map[string]error
	calls         []string
	freshReads    []string
	eventPayloads []models.EventPayload
	nextID        int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithEvents seeds the events
func WithEvents(events ...models.Event) MockOption {
	return func(m *MockClient) {
		for _, e := range events {
			m.events[e.ID] = e
		}
	}
}

// WithUsers replaces the default users
func WithUsers(users ...models.User) MockOption {
	return func(m *MockClient) {
		m.users = users
	}
}

// WithLocations replaces the default locations
func WithLocations(locs ...models.LocationRecord) MockOption {
	return func(m *MockClient) {
		m.locations = locs
	}
}

// WithCategories replaces one lookup table
func WithCategories(kind CategoryKind, cats ...models.Category) MockOption {
	return func(m *MockClient) {
		m.categories[kind] = cats
	}
}

// WithQuestions seeds the questionnaire of an event
func WithQuestions(eventID int, qs ...models.Question) MockOption {
	return func(m *MockClient) {
		m.questions[eventID] = qs
	}
}

// WithApplications seeds the applications of an event
func WithApplications(eventID int, apps ...models.Application) MockOption {
	return func(m *MockClient) {
		m.applications[eventID] = apps
	}
}

// WithParticipants seeds the participants of an event
func WithParticipants(eventID int, users ...models.User) MockOption {
	return func(m *MockClient) {
		m.participants[eventID] = users
	}
}

// WithOpportunities seeds the opportunities of a user
func WithOpportunities(userID int, opps ...models.Opportunity) MockOption {
	return func(m *MockClient) {
		m.opportunities[userID] = opps
	}
}

// WithMe sets the user returned by WhoAmI
func WithMe(u models.User) MockOption {
	return func(m *MockClient) {
		m.me = u
	}
}

// WithLoginToken sets the token returned by Login
func WithLoginToken(token string) MockOption {
	return func(m *MockClient) {
		m.loginToken = token
	}
}

// WithError makes the named operation (e.g. "CreateEvent") fail with err
func WithError(op string, err error) MockOption {
	return func(m *MockClient) {
		m.errs[op] = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock BIS client seeded with default data
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL:       "http://mock-bis.local/api",
		loginToken:    "mock-token",
		me:            DefaultMockUsers()[0],
		categories:    DefaultMockCategories(),
		units:         DefaultMockAdministrationUnits(),
		events:        make(map[int]models.Event),
		questions:     make(map[int][]models.Question),
		images:        make(map[int][]models.EventImage),
		applications:  make(map[int][]models.Application),
		participants:  make(map[int][]models.User),
		users:         DefaultMockUsers(),
		opportunities: make(map[int][]models.Opportunity),
		locations:     DefaultMockLocations(),
		errs:          make(map[string]error),
		nextID:        1000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetError makes the named operation fail from now on; nil clears it
func (m *MockClient) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// call records op and returns its configured error. Callers hold m.mu.
func (m *MockClient) call(op string) error {
	m.calls = append(m.calls, op)
	return m.errs[op]
}

// noteFresh records a read made with WithoutCache. Callers hold m.mu.
func (m *MockClient) noteFresh(ctx context.Context, op string) {
	if bypassCache(ctx) {
		m.freshReads = append(m.freshReads, op)
	}
}

// FreshReads returns the reads that asked to skip the response cache
func (m *MockClient) FreshReads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.freshReads...)
}

func (m *MockClient) newID() int {
	m.nextID++
	return m.nextID
}

func notFound(method, path string) error {
	return &APIError{Method: method, Path: path, StatusCode: http.StatusNotFound, Detail: "Nenalezeno."}
}

// Calls returns the operations invoked so far, in order
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// EventPayloads returns every payload passed to CreateEvent or UpdateEvent
func (m *MockClient) EventPayloads() []models.EventPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.EventPayload(nil), m.eventPayloads...)
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseURL = url
}

// SetToken stores the token
func (m *MockClient) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// HasToken reports whether a token was set
func (m *MockClient) HasToken() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// Token returns the stored token (for testing)
func (m *MockClient) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MockClient) Login(ctx context.Context, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Login"); err != nil {
		return "", err
	}
	if password == "" {
		return "", &APIError{Method: http.MethodPost, Path: "/auth/login/", StatusCode: http.StatusBadRequest, Detail: "Chybné přihlašovací údaje."}
	}
	return m.loginToken, nil
}

func (m *MockClient) WhoAmI(ctx context.Context) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("WhoAmI"); err != nil {
		return models.User{}, err
	}
	return m.me, nil
}

func (m *MockClient) Categories(ctx context.Context, kind CategoryKind) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Categories:" + string(kind)); err != nil {
		return nil, err
	}
	if err := m.errs["Categories"]; err != nil {
		return nil, err
	}
	return append([]models.Category(nil), m.categories[kind]...), nil
}

func (m *MockClient) AdministrationUnits(ctx context.Context) ([]models.AdministrationUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("AdministrationUnits"); err != nil {
		return nil, err
	}
	return append([]models.AdministrationUnit(nil), m.units...), nil
}

func paginate[T any](items []T, page, pageSize int) models.Page[T] {
	if pageSize <= 0 {
		pageSize = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	p := models.Page[T]{Count: len(items), Results: []T{}}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return p
	}
	end := start + pageSize
	if end < len(items) {
		next := fmt.Sprintf("?page=%d", page+1)
		p.Next = &next
	} else {
		end = len(items)
	}
	p.Results = append(p.Results, items[start:end]...)
	return p
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *MockClient) ListEvents(ctx context.Context, filter models.EventFilter) (models.Page[models.Event], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListEvents"); err != nil {
		return models.Page[models.Event]{}, err
	}

	ids := make(map[int]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = true
	}
	var out []models.Event
	for _, e := range m.events {
		if len(ids) > 0 && !ids[e.ID] {
			continue
		}
		if filter.Search != "" && !containsFold(e.Name, filter.Search) {
			continue
		}
		if filter.Group > 0 && e.Group != filter.Group {
			continue
		}
		if filter.Category > 0 && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filter.Page, filter.PageSize), nil
}

func (m *MockClient) GetEvent(ctx context.Context, id int) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noteFresh(ctx, "GetEvent")
	if err := m.call("GetEvent"); err != nil {
		return models.Event{}, err
	}
	e, ok := m.events[id]
	if !ok {
		return models.Event{}, notFound(http.MethodGet, eventPath(id))
	}
	return e, nil
}

func (m *MockClient) userByID(id *int) *models.User {
	if id == nil {
		return nil
	}
	for _, u := range m.users {
		if u.ID == *id {
			u := u
			return &u
		}
	}
	return &models.User{ID: *id}
}

// eventFromPayload stores what the backend would return after a write
func (m *MockClient) eventFromPayload(id int, p models.EventPayload) models.Event {
	e := models.Event{
		ID:            id,
		EventCore:     p.EventCore,
		MainOrganizer: m.userByID(p.MainOrganizer),
		Registration:  p.Registration,
		Propagation: models.EventPropagation{
			PropagationCore: p.Propagation.PropagationCore,
			ContactPerson:   m.userByID(p.Propagation.ContactPerson),
			Images:          m.images[id],
		},
	}
	for _, oid := range p.OtherOrganizers {
		oid := oid
		e.OtherOrganizers = append(e.OtherOrganizers, *m.userByID(&oid))
	}
	return e
}

func (m *MockClient) CreateEvent(ctx context.Context, payload models.EventPayload) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventPayloads = append(m.eventPayloads, payload)
	if err := m.call("CreateEvent"); err != nil {
		return models.Event{}, err
	}
	e := m.eventFromPayload(m.newID(), payload)
	m.events[e.ID] = e
	return e, nil
}

func (m *MockClient) UpdateEvent(ctx context.Context, id int, payload models.EventPayload) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventPayloads = append(m.eventPayloads, payload)
	if err := m.call("UpdateEvent"); err != nil {
		return models.Event{}, err
	}
	if _, ok := m.events[id]; !ok {
		return models.Event{}, notFound(http.MethodPatch, eventPath(id))
	}
	e := m.eventFromPayload(id, payload)
	m.events[id] = e
	return e, nil
}

func (m *MockClient) DeleteEvent(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteEvent"); err != nil {
		return err
	}
	if _, ok := m.events[id]; !ok {
		return notFound(http.MethodDelete, eventPath(id))
	}
	delete(m.events, id)
	delete(m.questions, id)
	delete(m.applications, id)
	return nil
}

func (m *MockClient) ListQuestions(ctx context.Context, eventID int) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListQuestions"); err != nil {
		return nil, err
	}
	return append([]models.Question(nil), m.questions[eventID]...), nil
}

func (m *MockClient) CreateQuestion(ctx context.Context, eventID int, q models.Question) (models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateQuestion"); err != nil {
		return models.Question{}, err
	}
	q.ID = m.newID()
	m.questions[eventID] = append(m.questions[eventID], q)
	return q, nil
}

func (m *MockClient) DeleteQuestion(ctx context.Context, eventID, questionID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteQuestion"); err != nil {
		return err
	}
	qs := m.questions[eventID]
	for i, q := range qs {
		if q.ID == questionID {
			m.questions[eventID] = append(qs[:i:i], qs[i+1:]...)
			return nil
		}
	}
	return notFound(http.MethodDelete, questionsPath(eventID))
}

func (m *MockClient) CreateImage(ctx context.Context, eventID int, img models.EventImage) (models.EventImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateImage"); err != nil {
		return models.EventImage{}, err
	}
	img.ID = m.newID()
	m.images[eventID] = append(m.images[eventID], img)
	return img, nil
}

func (m *MockClient) ListApplications(ctx context.Context, eventID int, filter models.ApplicationFilter) (models.Page[models.Application], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListApplications"); err != nil {
		return models.Page[models.Application]{}, err
	}
	var out []models.Application
	for _, a := range m.applications[eventID] {
		if filter.State == "" || a.State == filter.State {
			out = append(out, a)
		}
	}
	return paginate(out, filter.Page, filter.PageSize), nil
}

func (m *MockClient) GetApplication(ctx context.Context, eventID, id int) (models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetApplication"); err != nil {
		return models.Application{}, err
	}
	for _, a := range m.applications[eventID] {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Application{}, notFound(http.MethodGet, applicationsPath(eventID))
}

func (m *MockClient) SetApplicationState(ctx context.Context, eventID, id int, state string) (models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SetApplicationState"); err != nil {
		return models.Application{}, err
	}
	for i, a := range m.applications[eventID] {
		if a.ID == id {
			a.State = state
			m.applications[eventID][i] = a
			return a, nil
		}
	}
	return models.Application{}, notFound(http.MethodPatch, applicationsPath(eventID))
}

func (m *MockClient) ListParticipants(ctx context.Context, eventID int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListParticipants"); err != nil {
		return nil, err
	}
	return append([]models.User(nil), m.participants[eventID]...), nil
}

func (m *MockClient) ListUsers(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListUsers"); err != nil {
		return models.Page[models.User]{}, err
	}
	ids := make(map[int]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = true
	}
	var out []models.User
	for _, u := range m.users {
		if len(ids) > 0 && !ids[u.ID] {
			continue
		}
		if filter.Search != "" && !containsFold(u.DisplayName()+" "+u.Email, filter.Search) {
			continue
		}
		out = append(out, u)
	}
	return paginate(out, filter.Page, filter.PageSize), nil
}

func (m *MockClient) GetUser(ctx context.Context, id int) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noteFresh(ctx, "GetUser")
	if err := m.call("GetUser"); err != nil {
		return models.User{}, err
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, notFound(http.MethodGet, fmt.Sprintf("/frontend/users/%d/", id))
}

func (m *MockClient) ListOpportunities(ctx context.Context, userID int) ([]models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListOpportunities"); err != nil {
		return nil, err
	}
	return append([]models.Opportunity(nil), m.opportunities[userID]...), nil
}

func (m *MockClient) CreateOpportunity(ctx context.Context, userID int, o models.Opportunity) (models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateOpportunity"); err != nil {
		return models.Opportunity{}, err
	}
	o.ID = m.newID()
	m.opportunities[userID] = append(m.opportunities[userID], o)
	return o, nil
}

func (m *MockClient) UpdateOpportunity(ctx context.Context, userID, id int, o models.Opportunity) (models.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateOpportunity"); err != nil {
		return models.Opportunity{}, err
	}
	for i, existing := range m.opportunities[userID] {
		if existing.ID == id {
			o.ID = id
			m.opportunities[userID][i] = o
			return o, nil
		}
	}
	return models.Opportunity{}, notFound(http.MethodPatch, opportunitiesPath(userID))
}

func (m *MockClient) DeleteOpportunity(ctx context.Context, userID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("DeleteOpportunity"); err != nil {
		return err
	}
	opps := m.opportunities[userID]
	for i, o := range opps {
		if o.ID == id {
			m.opportunities[userID] = append(opps[:i:i], opps[i+1:]...)
			return nil
		}
	}
	return notFound(http.MethodDelete, opportunitiesPath(userID))
}

func (m *MockClient) ListLocations(ctx context.Context, search string) (models.Page[models.LocationRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListLocations"); err != nil {
		return models.Page[models.LocationRecord]{}, err
	}
	var out []models.LocationRecord
	for _, l := range m.locations {
		if search == "" || containsFold(l.Name+" "+l.Address, search) {
			out = append(out, l)
		}
	}
	return paginate(out, 1, maxPageSize), nil
}

func (m *MockClient) CreateLocation(ctx context.Context, loc models.LocationDetails) (models.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateLocation"); err != nil {
		return models.LocationRecord{}, err
	}
	rec := models.LocationRecord{ID: m.newID(), LocationDetails: loc}
	m.locations = append(m.locations, rec)
	return rec, nil
}

func (m *MockClient) GetPublicEvent(ctx context.Context, id int) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noteFresh(ctx, "GetPublicEvent")
	if err := m.call("GetPublicEvent"); err != nil {
		return models.Event{}, err
	}
	e, ok := m.events[id]
	if !ok {
		return models.Event{}, notFound(http.MethodGet, fmt.Sprintf("/web/events/%d/", id))
	}
	return e, nil
}

func (m *MockClient) CreatePublicApplication(ctx context.Context, eventID int, app models.Application) (models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreatePublicApplication"); err != nil {
		return models.Application{}, err
	}
	app.ID = m.newID()
	app.State = models.ApplicationPending
	m.applications[eventID] = append(m.applications[eventID], app)
	return app, nil
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
