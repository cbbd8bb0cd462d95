// Package bis provides a typed client for the BIS REST backend.
package bis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
)

const (
	// maxPageSize is used when a listing is fetched in full
	maxPageSize = 100
	// requestTimeout bounds one backend call
	requestTimeout = 30 * time.Second
)

// CategoryKind names a BIS lookup table under /categories/
type CategoryKind string

const (
	EventGroupCategories     CategoryKind = "event_group_categories"
	EventCategories          CategoryKind = "event_categories"
	ProgramCategories        CategoryKind = "event_program_categories"
	IntendedForCategories    CategoryKind = "event_intended_for_categories"
	DietCategories           CategoryKind = "diet_categories"
	QualificationCategories  CategoryKind = "qualification_categories"
	OpportunityCategories    CategoryKind = "opportunity_categories"
	HealthInsuranceCompanies CategoryKind = "health_insurance_companies"
)

// Client defines the interface for BIS backend operations
type Client interface {
	// BaseURL returns the configured backend URL
	BaseURL() string
	// SetBaseURL points the client at another backend and drops the cache
	SetBaseURL(url string)
	// SetToken configures the API token sent with every request
	SetToken(token string)
	// HasToken reports whether a token is configured
	HasToken() bool

	// Login exchanges credentials for an API token
	Login(ctx context.Context, email, password string) (string, error)
	// WhoAmI returns the user owning the configured token
	WhoAmI(ctx context.Context) (models.User, error)

	Categories(ctx context.Context, kind CategoryKind) ([]models.Category, error)
	AdministrationUnits(ctx context.Context) ([]models.AdministrationUnit, error)

	ListEvents(ctx context.Context, filter models.EventFilter) (models.Page[models.Event], error)
	GetEvent(ctx context.Context, id int) (models.Event, error)
	CreateEvent(ctx context.Context, payload models.EventPayload) (models.Event, error)
	UpdateEvent(ctx context.Context, id int, payload models.EventPayload) (models.Event, error)
	DeleteEvent(ctx context.Context, id int) error

	ListQuestions(ctx context.Context, eventID int) ([]models.Question, error)
	CreateQuestion(ctx context.Context, eventID int, q models.Question) (models.Question, error)
	DeleteQuestion(ctx context.Context, eventID, questionID int) error
	CreateImage(ctx context.Context, eventID int, img models.EventImage) (models.EventImage, error)

	ListApplications(ctx context.Context, eventID int, filter models.ApplicationFilter) (models.Page[models.Application], error)
	GetApplication(ctx context.Context, eventID, id int) (models.Application, error)
	SetApplicationState(ctx context.Context, eventID, id int, state string) (models.Application, error)
	ListParticipants(ctx context.Context, eventID int) ([]models.User, error)

	ListUsers(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error)
	GetUser(ctx context.Context, id int) (models.User, error)

	ListOpportunities(ctx context.Context, userID int) ([]models.Opportunity, error)
	CreateOpportunity(ctx context.Context, userID int, o models.Opportunity) (models.Opportunity, error)
	UpdateOpportunity(ctx context.Context, userID, id int, o models.Opportunity) (models.Opportunity, error)
	DeleteOpportunity(ctx context.Context, userID, id int) error

	ListLocations(ctx context.Context, search string) (models.Page[models.LocationRecord], error)
	CreateLocation(ctx context.Context, loc models.LocationDetails) (models.LocationRecord, error)

	GetPublicEvent(ctx context.Context, id int) (models.Event, error)
	CreatePublicApplication(ctx context.Context, eventID int, app models.Application) (models.Application, error)
}

// HTTPClient is a real HTTP client for the BIS backend
type HTTPClient struct {
	mu         sync.RWMutex
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
	cache      *responseCache
	inflight   singleflight.Group
}

// NewHTTPClient creates a new BIS client with a 30 second timeout
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, &http.Client{Timeout: requestTimeout}, log)
}

// NewHTTPClientWithHTTPClient creates a new BIS client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
		cache:      newResponseCache(DefaultCacheTTL),
	}
}

// SetCacheTTL changes how long GET responses are reused. Zero disables
// the cache.
func (c *HTTPClient) SetCacheTTL(ttl time.Duration) {
	c.cache.mu.Lock()
	c.cache.ttl = ttl
	c.cache.mu.Unlock()
	c.cache.clear()
}

// BaseURL returns the configured backend URL
func (c *HTTPClient) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL updates the backend URL and drops all cached responses
func (c *HTTPClient) SetBaseURL(url string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(url, "/")
	c.mu.Unlock()
	c.cache.clear()
}

// SetToken updates the API token and drops all cached responses
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.cache.clear()
}

// HasToken reports whether a token is configured
func (c *HTTPClient) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// doRequest executes a request against the backend and returns the raw
// body of a 2xx answer. Any other status becomes an *APIError.
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	c.mu.RLock()
	base, token := c.baseURL, c.token
	c.mu.RUnlock()

	reqURL := base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	c.log.Debug("BIS request", "method", method, "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to BIS: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("BIS response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

// get fetches path through the cache. Concurrent identical requests share
// one backend call; the shared call outlives callers that give up, and each
// caller waits only as long as its own ctx allows.
func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any, tags ...string) error {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	if !bypassCache(ctx) {
		if body, ok := c.cache.get(key); ok {
			return decode(body, out)
		}
	}

	gen := c.cache.gen()
	ch := c.inflight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		body, err := c.doRequest(fetchCtx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}
		c.cache.put(key, body, tags, gen)
		return body, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if res.Shared {
			c.log.Debug("BIS request shared", "key", key)
		}
		return decode(res.Val.([]byte), out)
	}
}

// send performs a mutation and invalidates the given cache tags on success
func (c *HTTPClient) send(ctx context.Context, method, path string, payload, out any, invalidate ...string) error {
	body, err := c.doRequest(ctx, method, path, nil, payload)
	if err != nil {
		return err
	}
	if n := c.cache.invalidate(invalidate...); n > 0 {
		c.log.Debug("BIS cache invalidated", "tags", invalidate, "entries", n)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// listAll follows pagination until the last page
func listAll[T any](ctx context.Context, c *HTTPClient, path string, query url.Values, tags ...string) ([]T, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("page_size", strconv.Itoa(maxPageSize))

	var all []T
	for page := 1; ; page++ {
		q.Set("page", strconv.Itoa(page))
		var p models.Page[T]
		if err := c.get(ctx, path, q, &p, tags...); err != nil {
			return nil, err
		}
		all = append(all, p.Results...)
		if p.Next == nil || *p.Next == "" || len(p.Results) == 0 {
			return all, nil
		}
	}
}

func pageQuery(q url.Values, page, pageSize int) url.Values {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return q
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func itoa(n int) string { return strconv.Itoa(n) }

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
