// Package drafts persists unsaved form state so an organizer can leave a
// multi-step form and resume it later.
package drafts

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/repository"
)

// Form kinds
const (
	KindEvent        = "event"
	KindOpportunity  = "opportunity"
	KindRegistration = "registration"
	KindLocation     = "location"
)

// Values is the partial JSON object of one form step
type Values = map[string]any

// Snapshot maps step names to their last saved values
type Snapshot map[string]Values

// ChangeEvent is emitted by the UI whenever a step's values change
type ChangeEvent struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Step   string `json:"step"`
	Values Values `json:"values"`
}

// Validate checks that the event addresses a draft step
func (e ChangeEvent) Validate() error {
	if e.Kind == "" || e.ID == "" || e.Step == "" {
		return fmt.Errorf("change event needs kind, id and step")
	}
	return nil
}

// Store is what the writer persists through
type Store interface {
	Persist(ctx context.Context, ev ChangeEvent) error
	Clear(ctx context.Context, kind, id string) error
}

// Service reads and writes draft snapshots
type Service struct {
	log  logger.Logger
	repo repository.DraftRepository
}

// NewService creates a new draft service
func NewService(log logger.Logger, repo repository.DraftRepository) *Service {
	return &Service{log: log, repo: repo}
}

// Read returns the stored snapshot. A missing or unreadable draft yields an
// empty snapshot.
func (s *Service) Read(ctx context.Context, kind, id string) (Snapshot, error) {
	data, err := s.repo.GetDraft(ctx, kind, id)
	if errors.Is(err, repository.ErrNotFound) {
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s/%s: %w", kind, id, err)
	}

	snap := Snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("Ignoring corrupt draft", "kind", kind, "id", id, "error", err)
		return Snapshot{}, nil
	}
	for step, v := range snap {
		if v == nil {
			delete(snap, step)
		}
	}
	return snap, nil
}

// Persist replaces the values of one step in the stored snapshot
func (s *Service) Persist(ctx context.Context, ev ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	snap, err := s.Read(ctx, ev.Kind, ev.ID)
	if err != nil {
		return err
	}
	snap[ev.Step] = ev.Values
	return s.write(ctx, ev.Kind, ev.ID, snap)
}

// Save replaces the whole snapshot
func (s *Service) Save(ctx context.Context, kind, id string, snap Snapshot) error {
	return s.write(ctx, kind, id, snap)
}

func (s *Service) write(ctx context.Context, kind, id string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.repo.SaveDraft(ctx, kind, id, data); err != nil {
		return fmt.Errorf("failed to save draft %s/%s: %w", kind, id, err)
	}
	s.log.Debug("Draft saved", "kind", kind, "id", id, "bytes", len(data))
	return nil
}

// Clear deletes the draft
func (s *Service) Clear(ctx context.Context, kind, id string) error {
	if err := s.repo.DeleteDraft(ctx, kind, id); err != nil {
		return fmt.Errorf("failed to clear draft %s/%s: %w", kind, id, err)
	}
	s.log.Debug("Draft cleared", "kind", kind, "id", id)
	return nil
}

// List returns stored drafts of kind, or of every kind when empty
func (s *Service) List(ctx context.Context, kind string) ([]repository.Draft, error) {
	return s.repo.ListDrafts(ctx, kind)
}

var _ Store = (*Service)(nil)
