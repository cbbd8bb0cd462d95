package drafts

import (
	"context"

	"github.com/abrezinsky/bisadmin/internal/logger"
	"github.com/abrezinsky/bisadmin/internal/repository"
)

// Manager is the draft layer used by the rest of bisadmin. Writes go
// through the single Writer; reads and clears are ordered after any queued
// writes so a cleared draft never comes back.
type Manager struct {
	svc    *Service
	writer *Writer
}

// NewManager wires a service and its writer
func NewManager(log logger.Logger, repo repository.DraftRepository) *Manager {
	svc := NewService(log, repo)
	return &Manager{svc: svc, writer: NewWriter(log, svc, 0)}
}

// Submit queues a change event
func (m *Manager) Submit(ev ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return m.writer.Submit(ev)
}

// Read flushes pending writes and returns the stored snapshot
func (m *Manager) Read(ctx context.Context, kind, id string) (Snapshot, error) {
	if err := m.writer.Flush(ctx); err != nil {
		return nil, err
	}
	return m.svc.Read(ctx, kind, id)
}

// Save replaces the whole snapshot after pending writes land
func (m *Manager) Save(ctx context.Context, kind, id string, snap Snapshot) error {
	if err := m.writer.Discard(ctx, kind, id); err != nil {
		return err
	}
	return m.svc.Save(ctx, kind, id, snap)
}

// Clear drops queued changes of the draft and deletes it
func (m *Manager) Clear(ctx context.Context, kind, id string) error {
	return m.writer.Discard(ctx, kind, id)
}

// List flushes pending writes and lists stored drafts
func (m *Manager) List(ctx context.Context, kind string) ([]repository.Draft, error) {
	if err := m.writer.Flush(ctx); err != nil {
		return nil, err
	}
	return m.svc.List(ctx, kind)
}

// Close flushes and stops the writer
func (m *Manager) Close() error {
	return m.writer.Close()
}
