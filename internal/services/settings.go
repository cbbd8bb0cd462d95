package services

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/repository"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

// Setting keys
const (
	KeyBISAPIURL        = "bis_api_url"
	KeyBISAPIToken      = "bis_api_token"
	KeyPublicWebURL     = "public_web_url"
	KeyOnlineLocationID = "online_location_id"
)

// Broadcaster sends system messages to connected browser clients
type Broadcaster interface {
	BroadcastSystemMessage(level, text string)
}

// Message levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Settings are the runtime settings editable through the admin API. The
// token itself is never returned.
type Settings struct {
	BISAPIURL        string `json:"bis_api_url"`
	PublicWebURL     string `json:"public_web_url"`
	OnlineLocationID int    `json:"online_location_id"`
	HasToken         bool   `json:"has_token"`
}

// SettingsUpdate changes some settings; nil fields are left alone
type SettingsUpdate struct {
	BISAPIURL        *string `json:"bis_api_url"`
	BISAPIToken      *string `json:"bis_api_token"`
	PublicWebURL     *string `json:"public_web_url"`
	OnlineLocationID *int    `json:"online_location_id"`
}

// SettingsService handles runtime settings and the BIS session
type SettingsService struct {
	log    logger.Logger
	repo   repository.SettingsRepository
	client bis.Client
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository, client bis.Client) *SettingsService {
	return &SettingsService{log: log, repo: repo, client: client}
}

func (s *SettingsService) get(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	return value, err
}

// Seed fills settings that are still empty, e.g. from the startup config
func (s *SettingsService) Seed(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if value == "" {
			continue
		}
		current, err := s.get(ctx, key)
		if err != nil {
			return err
		}
		if current == "" {
			if err := s.repo.SetSetting(ctx, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Apply points the BIS client at the stored backend URL and token
func (s *SettingsService) Apply(ctx context.Context) error {
	apiURL, err := s.get(ctx, KeyBISAPIURL)
	if err != nil {
		return err
	}
	token, err := s.get(ctx, KeyBISAPIToken)
	if err != nil {
		return err
	}
	if apiURL != "" && apiURL != s.client.BaseURL() {
		s.client.SetBaseURL(apiURL)
	}
	s.client.SetToken(token)
	s.log.Info("BIS client configured", "url", s.client.BaseURL(), "token", token != "")
	return nil
}

// Get returns the current settings
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	all, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	onlineID, _ := strconv.Atoi(all[KeyOnlineLocationID])
	apiURL := all[KeyBISAPIURL]
	if apiURL == "" {
		apiURL = s.client.BaseURL()
	}
	return &Settings{
		BISAPIURL:        apiURL,
		PublicWebURL:     all[KeyPublicWebURL],
		OnlineLocationID: onlineID,
		HasToken:         s.client.HasToken(),
	}, nil
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Update validates and stores the given settings and reconfigures the
// BIS client when its URL or token changed
func (s *SettingsService) Update(ctx context.Context, upd SettingsUpdate) error {
	values := map[string]string{}
	if upd.BISAPIURL != nil {
		v := strings.TrimRight(strings.TrimSpace(*upd.BISAPIURL), "/")
		if !validHTTPURL(v) {
			return apperrors.InvalidInputf("invalid BIS API URL %q", v)
		}
		values[KeyBISAPIURL] = v
	}
	if upd.PublicWebURL != nil {
		v := strings.TrimRight(strings.TrimSpace(*upd.PublicWebURL), "/")
		if v != "" && !validHTTPURL(v) {
			return apperrors.InvalidInputf("invalid public web URL %q", v)
		}
		values[KeyPublicWebURL] = v
	}
	if upd.OnlineLocationID != nil {
		if *upd.OnlineLocationID < 0 {
			return apperrors.InvalidInput("online location id must not be negative")
		}
		values[KeyOnlineLocationID] = strconv.Itoa(*upd.OnlineLocationID)
	}
	if upd.BISAPIToken != nil {
		values[KeyBISAPIToken] = strings.TrimSpace(*upd.BISAPIToken)
	}

	for key, value := range values {
		if err := s.repo.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}

	if v, ok := values[KeyBISAPIURL]; ok && v != s.client.BaseURL() {
		s.client.SetBaseURL(v)
		s.log.Info("BIS API URL changed", "url", v)
	}
	if v, ok := values[KeyBISAPIToken]; ok {
		s.client.SetToken(v)
	}
	return nil
}

// OnlineLocationID returns the id of the location used by online events,
// or 0 when not configured
func (s *SettingsService) OnlineLocationID(ctx context.Context) (int, error) {
	value, err := s.get(ctx, KeyOnlineLocationID)
	if err != nil || value == "" {
		return 0, err
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		s.log.Warn("Ignoring invalid online location id", "value", value)
		return 0, nil
	}
	return id, nil
}

// PublicWebURL returns the base URL of the public event pages
func (s *SettingsService) PublicWebURL(ctx context.Context) (string, error) {
	return s.get(ctx, KeyPublicWebURL)
}

// Login exchanges BIS credentials for a token, stores it and returns the
// logged-in user
func (s *SettingsService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.InvalidInput("email and password are required")
	}
	token, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Přihlášení do BIS selhalo")
	}
	if err := s.repo.SetSetting(ctx, KeyBISAPIToken, token); err != nil {
		return nil, err
	}
	s.client.SetToken(token)

	me, err := s.client.WhoAmI(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst přihlášeného uživatele")
	}
	s.log.Info("Logged in to BIS", "user", me.ID)
	return &me, nil
}

// Logout forgets the stored token
func (s *SettingsService) Logout(ctx context.Context) error {
	if err := s.repo.SetSetting(ctx, KeyBISAPIToken, ""); err != nil {
		return err
	}
	s.client.SetToken("")
	return nil
}

// Me returns the user owning the configured token
func (s *SettingsService) Me(ctx context.Context) (*models.User, error) {
	if !s.client.HasToken() {
		return nil, ErrNotLoggedIn
	}
	me, err := s.client.WhoAmI(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnavailable, "Nepodařilo se načíst přihlášeného uživatele")
	}
	return &me, nil
}
