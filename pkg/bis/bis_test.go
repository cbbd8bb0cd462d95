package bis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, logger.Nop()), server
}

func TestHTTPClient_GetEvent_SendsToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/frontend/events/7/" {
			t.Errorf("expected path /frontend/events/7/, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("expected token header, got %q", got)
		}
		fmt.Fprint(w, `{"id": 7, "name": "Jarní úklid", "start": "2024-04-20", "location": {"id": 2}}`)
	})
	client.SetToken("secret")

	e, err := client.GetEvent(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if e.ID != 7 || e.Name != "Jarní úklid" {
		t.Errorf("unexpected event %+v", e)
	}
	if id, ok := e.Location.ExistingID(); !ok || id != 2 {
		t.Errorf("expected existing location 2, got %#v", e.Location.Value)
	}
}

func TestHTTPClient_NoTokenNoHeader(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("expected no Authorization header without a token")
		}
		fmt.Fprint(w, `{"id": 1}`)
	})
	if client.HasToken() {
		t.Fatal("new client should have no token")
	}
	if _, err := client.GetPublicEvent(context.Background(), 1); err != nil {
		t.Fatalf("GetPublicEvent failed: %v", err)
	}
}

func TestHTTPClient_APIError_Detail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail": "Nemáte oprávnění."}`)
	})

	_, err := client.GetEvent(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Detail != "Nemáte oprávnění." {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Errorf("StatusCode = %d", StatusCode(err))
	}
}

func TestHTTPClient_APIError_RawBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"name": ["Toto pole je povinné."]}`)
	})

	_, err := client.CreateEvent(context.Background(), models.EventPayload{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `{"name": ["Toto pole je povinné."]}`) {
		t.Errorf("expected raw JSON in error, got %q", err.Error())
	}
}

func TestHTTPClient_APIError_EmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := client.GetUser(context.Background(), 9)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), "Not Found") {
		t.Errorf("expected status text as detail, got %q", err.Error())
	}
}

func TestHTTPClient_Categories_FollowsPagination(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/categories/diet_categories/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"count": 3, "next": "http://x/categories/diet_categories/?page=2", "previous": null, "results": [{"id": 1, "slug": "meat"}, {"id": 2, "slug": "vegetarian"}]}`)
		case "2":
			fmt.Fprint(w, `{"count": 3, "next": null, "previous": "x", "results": [{"id": 3, "slug": "vegan"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	cats, err := client.Categories(context.Background(), DietCategories)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(cats) != 3 || cats[2].Slug != "vegan" {
		t.Errorf("expected 3 diets ending with vegan, got %+v", cats)
	}
}

func TestHTTPClient_CacheAndInvalidation(t *testing.T) {
	var gets atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			fmt.Fprint(w, `{"count": 1, "next": null, "previous": null, "results": [{"id": 5, "name": "Akce"}]}`)
		case http.MethodPatch:
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("invalid PATCH body: %v", err)
			}
			fmt.Fprint(w, `{"id": 5, "name": "Akce 2"}`)
		}
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.ListEvents(ctx, models.EventFilter{Search: "akce"}); err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
	}
	if gets.Load() != 1 {
		t.Fatalf("expected one backend GET for repeated listing, got %d", gets.Load())
	}

	if _, err := client.UpdateEvent(ctx, 5, models.EventPayload{}); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	if client.cache.size() != 0 {
		t.Errorf("expected event listings invalidated, %d entries left", client.cache.size())
	}

	if _, err := client.ListEvents(ctx, models.EventFilter{Search: "akce"}); err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if gets.Load() != 2 {
		t.Errorf("expected refetch after invalidation, got %d GETs", gets.Load())
	}
}

func TestHTTPClient_MutationKeepsUnrelatedCache(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"id": 10, "name": "Louka"}`)
			return
		}
		fmt.Fprint(w, `{"count": 0, "next": null, "previous": null, "results": []}`)
	})
	ctx := context.Background()

	if _, err := client.Categories(ctx, EventCategories); err != nil {
		t.Fatal(err)
	}
	if _, err := client.CreateLocation(ctx, models.LocationDetails{Name: "Louka"}); err != nil {
		t.Fatal(err)
	}
	if client.cache.size() != 1 {
		t.Errorf("creating a location must not drop categories, cache size %d", client.cache.size())
	}
}

func TestHTTPClient_SetTokenClearsCache(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1}`)
	})
	if _, err := client.GetUser(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	client.SetToken("other")
	if client.cache.size() != 0 {
		t.Error("changing the token must drop cached responses")
	}
}

func TestHTTPClient_Login(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "jana@example.cz" {
			t.Errorf("unexpected body %v", body)
		}
		fmt.Fprint(w, `{"token": "abc"}`)
	})

	token, err := client.Login(context.Background(), "jana@example.cz", "heslo")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "abc" {
		t.Errorf("expected token abc, got %q", token)
	}
	if client.HasToken() {
		t.Error("Login must not store the token")
	}
}

func TestHTTPClient_ListUsers_Query(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") != "nov" || q.Get("id") != "1,2" || q.Get("page_size") != "20" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"count": 0, "next": null, "previous": null, "results": []}`)
	})
	_, err := client.ListUsers(context.Background(), models.UserFilter{Search: "nov", IDs: []int{1, 2}, PageSize: 20})
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
}

func TestHTTPClient_ConnectionError(t *testing.T) {
	client := NewHTTPClient("http://localhost:99999", logger.Nop())
	if _, err := client.GetEvent(context.Background(), 1); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestHTTPClient_BaseURL(t *testing.T) {
	client := NewHTTPClient("http://example.com/api/", logger.Nop())
	if client.BaseURL() != "http://example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %q", client.BaseURL())
	}
	client.SetBaseURL("http://other")
	if client.BaseURL() != "http://other" {
		t.Errorf("SetBaseURL did not apply, got %q", client.BaseURL())
	}
}

func TestResponseCache_StaleFetchNotStored(t *testing.T) {
	c := newResponseCache(DefaultCacheTTL)
	gen := c.gen()
	c.invalidate(TagEvents)
	c.put("/frontend/events/", []byte("{}"), []string{TagEvents}, gen)
	if _, ok := c.get("/frontend/events/"); ok {
		t.Error("a response fetched before invalidation must not be cached")
	}
}

func TestResponseCache_EntriesExpire(t *testing.T) {
	c := newResponseCache(time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.put("/web/events/7/", []byte(`{"id":7}`), []string{TagEvents}, c.gen())
	if _, ok := c.get("/web/events/7/"); !ok {
		t.Fatal("expected fresh entry to be served")
	}

	now = now.Add(time.Minute)
	if _, ok := c.get("/web/events/7/"); ok {
		t.Error("expected entry to expire after the TTL")
	}

	c.put("/web/events/8/", []byte(`{"id":8}`), nil, c.gen())
	if c.size() != 1 {
		t.Errorf("expected expired entries to be pruned, cache size %d", c.size())
	}
}

func TestHTTPClient_BackendChangeBecomesVisible(t *testing.T) {
	var full atomic.Bool
	var gets atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		fmt.Fprintf(w, `{"id": 7, "registration": {"is_registration_required": true, "is_event_full": %t}}`, full.Load())
	})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	client.cache.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := client.GetPublicEvent(ctx, 7); err != nil {
		t.Fatal(err)
	}
	full.Store(true)

	e, err := client.GetPublicEvent(WithoutCache(ctx), 7)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Registration.IsEventFull {
		t.Error("expected a cache-bypassing read to see the backend change")
	}

	full.Store(false)
	now = now.Add(DefaultCacheTTL)
	e, err = client.GetPublicEvent(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if e.Registration.IsEventFull {
		t.Error("expected the cached event to expire and be refetched")
	}
	if gets.Load() != 3 {
		t.Errorf("expected 3 backend calls, got %d", gets.Load())
	}
}

func TestHTTPClient_ApplicationsAreNotCached(t *testing.T) {
	var gets atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		fmt.Fprint(w, `{"count": 0, "next": null, "previous": null, "results": []}`)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.ListApplications(ctx, 7, models.ApplicationFilter{}); err != nil {
			t.Fatal(err)
		}
		if _, err := client.ListParticipants(ctx, 7); err != nil {
			t.Fatal(err)
		}
	}
	if gets.Load() != 4 {
		t.Errorf("expected every application and participant read to reach BIS, got %d calls", gets.Load())
	}
}

func TestHTTPClient_SetCacheTTLZeroDisablesCache(t *testing.T) {
	var gets atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		fmt.Fprint(w, `{"id": 1}`)
	})
	client.SetCacheTTL(0)

	for i := 0; i < 2; i++ {
		if _, err := client.GetUser(context.Background(), 1); err != nil {
			t.Fatal(err)
		}
	}
	if gets.Load() != 2 {
		t.Errorf("expected no caching, got %d calls", gets.Load())
	}
}

func TestHTTPClient_SharedRequestSurvivesCancelledCaller(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 2)
	var gets atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		arrived <- struct{}{}
		<-release
		fmt.Fprint(w, `{"id": 7, "name": "Jarní úklid"}`)
	})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := client.GetEvent(ctxA, 7)
		errA <- err
	}()
	<-arrived

	type result struct {
		e   models.Event
		err error
	}
	resB := make(chan result, 1)
	go func() {
		e, err := client.GetEvent(context.Background(), 7)
		resB <- result{e, err}
	}()
	// give B time to join the in-flight call
	time.Sleep(50 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled caller to get context.Canceled, got %v", err)
	}

	close(release)
	select {
	case res := <-resB:
		if res.err != nil {
			t.Fatalf("expected the other caller to succeed, got %v", res.err)
		}
		if res.e.Name != "Jarní úklid" {
			t.Errorf("unexpected event %+v", res.e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shared request did not finish")
	}
	if gets.Load() != 1 {
		t.Errorf("expected one shared backend call, got %d", gets.Load())
	}
}
