package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

// userSearchPageSize bounds how many backend hits are ranked
const userSearchPageSize = 50

// EligibilityRequest describes the event a candidate main organizer is
// checked against
type EligibilityRequest struct {
	Group       int         `json:"group"`
	Category    int         `json:"category"`
	IntendedFor int         `json:"intended_for"`
	Start       models.Date `json:"start"`
}

// Eligibility is the outcome of a main organizer check
type Eligibility struct {
	Eligible bool     `json:"eligible"`
	Message  string   `json:"message,omitempty"`
	Required []string `json:"required"`
}

// UserService searches users and checks organizer eligibility
type UserService struct {
	log    logger.Logger
	client bis.Client
	ref    ReferenceLoader
	rules  eventform.Rules
	now    func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(log logger.Logger, client bis.Client, ref ReferenceLoader, rules eventform.Rules) *UserService {
	if rules == nil {
		rules = eventform.DefaultRules
	}
	return &UserService{log: log, client: client, ref: ref, rules: rules, now: time.Now}
}

// SetClock replaces the time source used for qualification validity
func (s *UserService) SetClock(now func() time.Time) {
	s.now = now
}

// Search asks the backend for users matching query and orders the hits by
// how closely their display names match. Hits the backend matched on
// other fields (e.g. email) come last in backend order.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	page, err := s.client.ListUsers(ctx, models.UserFilter{Search: query, PageSize: userSearchPageSize})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se vyhledat uživatele")
	}

	users := page.Results
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.DisplayName()
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]models.User, 0, len(users))
	ranked := make(map[int]bool, len(ranks))
	for _, r := range ranks {
		out = append(out, users[r.OriginalIndex])
		ranked[r.OriginalIndex] = true
	}
	for i, u := range users {
		if !ranked[i] {
			out = append(out, u)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a user with qualifications
func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	u, err := s.client.GetUser(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst uživatele")
	}
	return &u, nil
}

// Eligibility checks whether a user may be the main organizer of the
// described event
func (s *UserService) Eligibility(ctx context.Context, userID int, req EligibilityRequest) (*Eligibility, error) {
	ref, err := s.ref.Load(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	form := models.EventForm{}
	form.Group = req.Group
	form.Category = req.Category
	form.IntendedFor = req.IntendedFor
	form.Start = req.Start
	flags := eventform.DeriveFlags(form, ref, s.rules, s.now())

	ok, msg := eventform.CanBeMainOrganizer(s.rules, flags.Event, *u, flags.Now)
	required := flags.RequiredQualifications
	if required == nil {
		required = []string{}
	}
	return &Eligibility{Eligible: ok, Message: msg, Required: required}, nil
}
