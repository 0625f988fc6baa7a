package store

import (
	"context"

	"github.com/duckchat/duckchat/internal/assist"
)

// Settings is the AI configuration surface. It is read-mostly and replaced
// wholesale on save so readers never observe a partially updated value.
type Settings struct {
	APIKey        string         `json:"api_key"`
	APIURL        string         `json:"api_url"`
	Model         string         `json:"model"`
	CustomPrompts assist.Prompts `json:"custom_prompts"`
}

// SettingsStore loads and saves settings on behalf of the core, which
// never reaches into ambient storage itself. Load reports found=false when
// nothing has been saved yet.
type SettingsStore interface {
	Load(ctx context.Context) (Settings, bool, error)
	Save(ctx context.Context, settings Settings) error
}
