package bis

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/abrezinsky/bisadmin/internal/models"
)

// Login exchanges credentials for an API token. The token is not stored.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.send(ctx, http.MethodPost, "/auth/login/", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("BIS login returned no token")
	}
	c.log.Info("BIS login successful", "email", email)
	return resp.Token, nil
}

// WhoAmI returns the user owning the configured token. Never cached.
func (c *HTTPClient) WhoAmI(ctx context.Context) (models.User, error) {
	var u models.User
	body, err := c.doRequest(ctx, http.MethodGet, "/auth/whoami/", nil, nil)
	if err != nil {
		return u, err
	}
	return u, decode(body, &u)
}

// Categories returns every row of a lookup table
func (c *HTTPClient) Categories(ctx context.Context, kind CategoryKind) ([]models.Category, error) {
	return listAll[models.Category](ctx, c, "/categories/"+string(kind)+"/", nil, TagCategories)
}

// AdministrationUnits returns every BIS club/branch
func (c *HTTPClient) AdministrationUnits(ctx context.Context) ([]models.AdministrationUnit, error) {
	return listAll[models.AdministrationUnit](ctx, c, "/categories/administration_units/", nil, TagCategories)
}

func eventPath(id int) string {
	return fmt.Sprintf("/frontend/events/%d/", id)
}

// ListEvents returns one page of events matching filter
func (c *HTTPClient) ListEvents(ctx context.Context, filter models.EventFilter) (models.Page[models.Event], error) {
	q := pageQuery(url.Values{}, filter.Page, filter.PageSize)
	if len(filter.IDs) > 0 {
		q.Set("id", joinIDs(filter.IDs))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Group > 0 {
		q.Set("group", strconv.Itoa(filter.Group))
	}
	if filter.Category > 0 {
		q.Set("category", strconv.Itoa(filter.Category))
	}

	var page models.Page[models.Event]
	err := c.get(ctx, "/frontend/events/", q, &page, TagEvents)
	return page, err
}

// GetEvent fetches a single event
func (c *HTTPClient) GetEvent(ctx context.Context, id int) (models.Event, error) {
	var e models.Event
	err := c.get(ctx, eventPath(id), nil, &e, TagEvents, eventTag(id))
	return e, err
}

// CreateEvent creates an event from a mapped payload
func (c *HTTPClient) CreateEvent(ctx context.Context, payload models.EventPayload) (models.Event, error) {
	var e models.Event
	err := c.send(ctx, http.MethodPost, "/frontend/events/", payload, &e, TagEvents)
	return e, err
}

// UpdateEvent patches an existing event
func (c *HTTPClient) UpdateEvent(ctx context.Context, id int, payload models.EventPayload) (models.Event, error) {
	var e models.Event
	err := c.send(ctx, http.MethodPatch, eventPath(id), payload, &e, TagEvents, eventTag(id))
	return e, err
}

// DeleteEvent deletes an event
func (c *HTTPClient) DeleteEvent(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, eventPath(id), nil, nil, TagEvents, eventTag(id), applicationsTag(id))
}

func questionsPath(eventID int) string {
	return eventPath(eventID) + "registration/questionnaire/questions/"
}

// ListQuestions returns the questionnaire questions of an event
func (c *HTTPClient) ListQuestions(ctx context.Context, eventID int) ([]models.Question, error) {
	return listAll[models.Question](ctx, c, questionsPath(eventID), nil, eventTag(eventID))
}

// CreateQuestion adds a question to the event's questionnaire
func (c *HTTPClient) CreateQuestion(ctx context.Context, eventID int, q models.Question) (models.Question, error) {
	var created models.Question
	err := c.send(ctx, http.MethodPost, questionsPath(eventID), q, &created, eventTag(eventID))
	return created, err
}

// DeleteQuestion removes a question from the event's questionnaire
func (c *HTTPClient) DeleteQuestion(ctx context.Context, eventID, questionID int) error {
	path := fmt.Sprintf("%s%d/", questionsPath(eventID), questionID)
	return c.send(ctx, http.MethodDelete, path, nil, nil, eventTag(eventID))
}

// CreateImage attaches an image to the event's propagation
func (c *HTTPClient) CreateImage(ctx context.Context, eventID int, img models.EventImage) (models.EventImage, error) {
	var created models.EventImage
	err := c.send(ctx, http.MethodPost, eventPath(eventID)+"propagation/images/", img, &created, eventTag(eventID))
	return created, err
}

func applicationsPath(eventID int) string {
	return eventPath(eventID) + "registration/applications/"
}

// ListApplications returns one page of an event's applications
func (c *HTTPClient) ListApplications(ctx context.Context, eventID int, filter models.ApplicationFilter) (models.Page[models.Application], error) {
	q := pageQuery(url.Values{}, filter.Page, filter.PageSize)
	if filter.State != "" {
		q.Set("state", filter.State)
	}
	var page models.Page[models.Application]
	// applications also arrive through the public web, so they are always read fresh
	err := c.get(WithoutCache(ctx), applicationsPath(eventID), q, &page, applicationsTag(eventID))
	return page, err
}

// GetApplication fetches one application
func (c *HTTPClient) GetApplication(ctx context.Context, eventID, id int) (models.Application, error) {
	var a models.Application
	err := c.get(WithoutCache(ctx), fmt.Sprintf("%s%d/", applicationsPath(eventID), id), nil, &a, applicationsTag(eventID))
	return a, err
}

// SetApplicationState moves an application to another state
func (c *HTTPClient) SetApplicationState(ctx context.Context, eventID, id int, state string) (models.Application, error) {
	var a models.Application
	path := fmt.Sprintf("%s%d/", applicationsPath(eventID), id)
	err := c.send(ctx, http.MethodPatch, path, map[string]string{"state": state}, &a, applicationsTag(eventID))
	return a, err
}

// ListParticipants returns the recorded participants of an event
func (c *HTTPClient) ListParticipants(ctx context.Context, eventID int) ([]models.User, error) {
	return listAll[models.User](WithoutCache(ctx), c, eventPath(eventID)+"record/participants/", nil, eventTag(eventID), applicationsTag(eventID))
}

// ListUsers searches users
func (c *HTTPClient) ListUsers(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error) {
	q := pageQuery(url.Values{}, filter.Page, filter.PageSize)
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if len(filter.IDs) > 0 {
		q.Set("id", joinIDs(filter.IDs))
	}
	var page models.Page[models.User]
	err := c.get(ctx, "/frontend/users/", q, &page, TagUsers)
	return page, err
}

// GetUser fetches a user with qualifications
func (c *HTTPClient) GetUser(ctx context.Context, id int) (models.User, error) {
	var u models.User
	err := c.get(ctx, fmt.Sprintf("/frontend/users/%d/", id), nil, &u, TagUsers, userTag(id))
	return u, err
}

func opportunitiesPath(userID int) string {
	return fmt.Sprintf("/frontend/users/%d/opportunities/", userID)
}

// ListOpportunities returns every opportunity of a user
func (c *HTTPClient) ListOpportunities(ctx context.Context, userID int) ([]models.Opportunity, error) {
	return listAll[models.Opportunity](ctx, c, opportunitiesPath(userID), nil, TagOpportunities, userTag(userID))
}

// CreateOpportunity creates an opportunity owned by userID
func (c *HTTPClient) CreateOpportunity(ctx context.Context, userID int, o models.Opportunity) (models.Opportunity, error) {
	var created models.Opportunity
	err := c.send(ctx, http.MethodPost, opportunitiesPath(userID), o, &created, TagOpportunities)
	return created, err
}

// UpdateOpportunity patches an opportunity
func (c *HTTPClient) UpdateOpportunity(ctx context.Context, userID, id int, o models.Opportunity) (models.Opportunity, error) {
	var updated models.Opportunity
	path := fmt.Sprintf("%s%d/", opportunitiesPath(userID), id)
	err := c.send(ctx, http.MethodPatch, path, o, &updated, TagOpportunities)
	return updated, err
}

// DeleteOpportunity deletes an opportunity
func (c *HTTPClient) DeleteOpportunity(ctx context.Context, userID, id int) error {
	path := fmt.Sprintf("%s%d/", opportunitiesPath(userID), id)
	return c.send(ctx, http.MethodDelete, path, nil, nil, TagOpportunities)
}

// ListLocations searches backend locations
func (c *HTTPClient) ListLocations(ctx context.Context, search string) (models.Page[models.LocationRecord], error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	var page models.Page[models.LocationRecord]
	err := c.get(ctx, "/frontend/locations/", q, &page, TagLocations)
	return page, err
}

// CreateLocation creates a physical location
func (c *HTTPClient) CreateLocation(ctx context.Context, loc models.LocationDetails) (models.LocationRecord, error) {
	var created models.LocationRecord
	err := c.send(ctx, http.MethodPost, "/frontend/locations/", loc, &created, TagLocations)
	return created, err
}

// GetPublicEvent fetches the public web view of an event
func (c *HTTPClient) GetPublicEvent(ctx context.Context, id int) (models.Event, error) {
	var e models.Event
	err := c.get(ctx, fmt.Sprintf("/web/events/%d/", id), nil, &e, TagEvents, eventTag(id))
	return e, err
}

// CreatePublicApplication registers an end user for an event
func (c *HTTPClient) CreatePublicApplication(ctx context.Context, eventID int, app models.Application) (models.Application, error) {
	var created models.Application
	path := fmt.Sprintf("/web/events/%d/registration/applications/", eventID)
	err := c.send(ctx, http.MethodPost, path, app, &created, applicationsTag(eventID))
	return created, err
}
