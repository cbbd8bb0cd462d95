package repository

import (
	"context"
	"time"
)

// Draft is a stored form snapshot
type Draft struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Data      []byte    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftRepository stores one opaque snapshot per (kind, id). Writes are
// last-write-wins.
type DraftRepository interface {
	GetDraft(ctx context.Context, kind, id string) ([]byte, error)
	SaveDraft(ctx context.Context, kind, id string, data []byte) error
	DeleteDraft(ctx context.Context, kind, id string) error
	ListDrafts(ctx context.Context, kind string) ([]Draft, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)
}

// FullRepository combines all repository interfaces
type FullRepository interface {
	DraftRepository
	SettingsRepository
	Ping(ctx context.Context) error
	Close() error
}

// DefaultSettings are inserted when missing. Values are filled from the
// startup configuration by the app.
var DefaultSettings = map[string]string{
	"bis_api_url":        "",
	"bis_api_token":      "",
	"public_web_url":     "",
	"online_location_id": "",
}

func validKey(kind, id string) error {
	if kind == "" || id == "" {
		return ErrInvalidKey
	}
	return nil
}

// Ensure both stores implement all interfaces
var (
	_ FullRepository = (*Repository)(nil)
	_ FullRepository = (*PostgresRepository)(nil)
)
