package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/duckchat/duckchat/internal/assist"
	"github.com/duckchat/duckchat/internal/chat"
	"github.com/duckchat/duckchat/internal/store"
)

// Repository persists settings and chat transcripts. It implements
// store.SettingsStore and chat.Recorder.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the backing tables when they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS duckchat_settings (
    singleton      BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    api_key        TEXT NOT NULL DEFAULT '',
    api_url        TEXT NOT NULL DEFAULT '',
    model          TEXT NOT NULL DEFAULT '',
    custom_prompts JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS duckchat_message (
    message_id   TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL,
    seq          BIGSERIAL,
    payload_json JSONB NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS duckchat_message_session_idx ON duckchat_message (session_id, seq)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure store schema: %w", err)
	}
	return nil
}

func (r *Repository) Load(ctx context.Context) (store.Settings, bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT api_key, api_url, model, custom_prompts
FROM duckchat_settings
WHERE singleton`)

	var settings store.Settings
	var promptsJSON []byte
	err := row.Scan(&settings.APIKey, &settings.APIURL, &settings.Model, &promptsJSON)
	if err == sql.ErrNoRows {
		return store.Settings{}, false, nil
	}
	if err != nil {
		return store.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}

	var prompts assist.Prompts
	if err := json.Unmarshal(promptsJSON, &prompts); err != nil {
		return store.Settings{}, false, fmt.Errorf("decode custom prompts: %w", err)
	}
	settings.CustomPrompts = prompts
	return settings, true, nil
}

func (r *Repository) Save(ctx context.Context, settings store.Settings) error {
	promptsJSON, err := json.Marshal(settings.CustomPrompts)
	if err != nil {
		return fmt.Errorf("encode custom prompts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO duckchat_settings (singleton, api_key, api_url, model, custom_prompts, updated_at)
VALUES (TRUE, $1, $2, $3, $4::jsonb, now())
ON CONFLICT (singleton)
DO UPDATE SET api_key = $1, api_url = $2, model = $3, custom_prompts = $4::jsonb, updated_at = now()`,
		settings.APIKey, settings.APIURL, settings.Model, string(promptsJSON))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SaveMessage upserts one message by identity. Messages are mutated in
// place by the execution lifecycle, so later saves of the same id replace
// the stored payload.
func (r *Repository) SaveMessage(ctx context.Context, sessionID string, message chat.Message) error {
	payloadJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO duckchat_message (message_id, session_id, payload_json, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (message_id)
DO UPDATE SET payload_json = $3::jsonb, updated_at = now()`,
		message.ID, sessionID, string(payloadJSON))
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func (r *Repository) ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT payload_json
FROM duckchat_message
WHERE session_id = $1
ORDER BY seq`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []chat.Message
	for rows.Next() {
		var payloadJSON []byte
		if err := rows.Scan(&payloadJSON); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var message chat.Message
		if err := json.Unmarshal(payloadJSON, &message); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
