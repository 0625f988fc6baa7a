package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/duckchat/duckchat/internal/chat"
	"github.com/duckchat/duckchat/internal/store"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadSettingsMissingRow(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT api_key, api_url, model, custom_prompts
FROM duckchat_settings
WHERE singleton`)).
		WillReturnError(sql.ErrNoRows)

	_, found, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if found {
		t.Fatal("found = true for empty store")
	}
	assertSQLMock(t, mock)
}

func TestLoadSettingsDecodesPrompts(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT api_key, api_url, model, custom_prompts`)).
		WillReturnRows(sqlmock.NewRows([]string{"api_key", "api_url", "model", "custom_prompts"}).
			AddRow("k", "https://api.example.com", "gpt-5", []byte(`{"system":"custom system prompt"}`)))

	settings, found, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !found {
		t.Fatal("found = false")
	}
	if settings.Model != "gpt-5" || settings.CustomPrompts.System != "custom system prompt" {
		t.Fatalf("settings = %+v", settings)
	}
	assertSQLMock(t, mock)
}

func TestSaveSettingsUpserts(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO duckchat_settings (singleton, api_key, api_url, model, custom_prompts, updated_at)
VALUES (TRUE, $1, $2, $3, $4::jsonb, now())
ON CONFLICT (singleton)
DO UPDATE SET api_key = $1, api_url = $2, model = $3, custom_prompts = $4::jsonb, updated_at = now()`)).
		WithArgs("k", "https://api.example.com", "gpt-5", `{}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), store.Settings{
		APIKey: "k",
		APIURL: "https://api.example.com",
		Model:  "gpt-5",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestSaveMessageUpsertsByIdentity(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO duckchat_message (message_id, session_id, payload_json, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (message_id)
DO UPDATE SET payload_json = $3::jsonb, updated_at = now()`)).
		WithArgs("m-1", "s-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveMessage(context.Background(), "s-1", chat.Message{ID: "m-1", Role: chat.RoleUser, Content: "hi"})
	if err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestListMessagesOrdersBySequence(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT payload_json
FROM duckchat_message
WHERE session_id = $1
ORDER BY seq`)).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload_json"}).
			AddRow([]byte(`{"id":"m-1","role":"user","content":"hi","timestamp":"2026-08-30T00:00:00Z"}`)).
			AddRow([]byte(`{"id":"m-2","role":"assistant","content":"hello","timestamp":"2026-08-30T00:00:01Z"}`)))

	messages, err := repo.ListMessages(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 2 || messages[0].ID != "m-1" || messages[1].Role != chat.RoleAssistant {
		t.Fatalf("messages = %+v", messages)
	}
	assertSQLMock(t, mock)
}
