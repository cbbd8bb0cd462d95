package mock

import (
	"context"

	"github.com/abrezinsky/bisadmin/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveDraftError = errors.New("database error")
//	svc := drafts.NewService(log, mockRepo)
type Repository struct {
	repository.FullRepository

	// ===== Draft Errors =====
	GetDraftError    error
	SaveDraftError   error
	DeleteDraftError error
	ListDraftsError  error

	// ===== Settings Errors =====
	GetSettingError   error
	SetSettingError   error
	ListSettingsError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

func (m *Repository) GetDraft(ctx context.Context, kind, id string) ([]byte, error) {
	if m.GetDraftError != nil {
		return nil, m.GetDraftError
	}
	return m.FullRepository.GetDraft(ctx, kind, id)
}

func (m *Repository) SaveDraft(ctx context.Context, kind, id string, data []byte) error {
	if m.SaveDraftError != nil {
		return m.SaveDraftError
	}
	return m.FullRepository.SaveDraft(ctx, kind, id, data)
}

func (m *Repository) DeleteDraft(ctx context.Context, kind, id string) error {
	if m.DeleteDraftError != nil {
		return m.DeleteDraftError
	}
	return m.FullRepository.DeleteDraft(ctx, kind, id)
}

func (m *Repository) ListDrafts(ctx context.Context, kind string) ([]repository.Draft, error) {
	if m.ListDraftsError != nil {
		return nil, m.ListDraftsError
	}
	return m.FullRepository.ListDrafts(ctx, kind)
}

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) ListSettings(ctx context.Context) (map[string]string, error) {
	if m.ListSettingsError != nil {
		return nil, m.ListSettingsError
	}
	return m.FullRepository.ListSettings(ctx)
}

// Ensure Repository implements FullRepository
var _ repository.FullRepository = (*Repository)(nil)
