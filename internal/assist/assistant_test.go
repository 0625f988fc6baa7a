package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/duckchat/duckchat/internal/engine"
	"github.com/duckchat/duckchat/internal/schema"
)

type fakeClient struct {
	reply        string
	err          error
	calls        [][]Message
	temperatures []float64
}

func (f *fakeClient) Complete(_ context.Context, messages []Message, temperature float64) (string, error) {
	f.calls = append(f.calls, messages)
	f.temperatures = append(f.temperatures, temperature)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func logSnapshot() schema.DatabaseSnapshot {
	return schema.NewDatabaseSnapshot([]schema.TableSnapshot{
		{
			Name: "raw_log_entries__2_",
			Columns: []schema.ColumnDescriptor{
				{Name: "user_id", Type: "VARCHAR"},
				{Name: "timestamp", Type: "TIMESTAMP"},
			},
		},
	})
}

func lastUserContent(t *testing.T, client *fakeClient) string {
	t.Helper()
	if len(client.calls) == 0 {
		t.Fatal("no completion calls recorded")
	}
	messages := client.calls[len(client.calls)-1]
	last := messages[len(messages)-1]
	if last.Role != RoleUser {
		t.Fatalf("final message role = %q", last.Role)
	}
	return last.Content
}

func TestGenerateSQLUserMessageCarriesSchemaAndQuestion(t *testing.T) {
	client := &fakeClient{reply: "SELECT COUNT(*) FROM raw_log_entries__2_"}
	assistant := New(Config{Client: client})

	question := "query number of date group by user"
	resp, err := assistant.GenerateSQL(context.Background(), question, logSnapshot(), nil)
	if err != nil {
		t.Fatalf("GenerateSQL() error = %v", err)
	}
	if resp.Kind != KindSQL {
		t.Fatalf("kind = %q", resp.Kind)
	}

	content := lastUserContent(t, client)
	if !strings.HasPrefix(content, "DATABASE SCHEMA:\n") {
		t.Fatalf("user message missing schema header:\n%s", content)
	}
	if !strings.HasSuffix(content, "QUESTION: "+question) {
		t.Fatalf("user message does not end with the question:\n%s", content)
	}
	for _, want := range []string{
		"raw_log_entries__2_",
		"user_id",
		"timestamp",
		"user_id (VARCHAR)",
		"timestamp (TIMESTAMP)",
		question,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("user message missing %q:\n%s", want, content)
		}
	}
}

func TestGenerateSQLEmptySnapshotSendsBareQuestion(t *testing.T) {
	// With no grounding the model may clarify or chat; either is valid
	// evidence of the empty schema, so the stub exercises both.
	for _, reply := range []string{"CLARIFY: no tables are loaded yet", "CHAT: load some data first"} {
		client := &fakeClient{reply: reply}
		assistant := New(Config{Client: client})

		resp, err := assistant.GenerateSQL(context.Background(), "show me all users", schema.DatabaseSnapshot{}, nil)
		if err != nil {
			t.Fatalf("GenerateSQL() error = %v", err)
		}
		if resp.Kind == KindSQL {
			t.Fatalf("kind = sql for ungrounded question, payload %q", resp.Payload)
		}
		if strings.Contains(resp.Payload, "SELECT") {
			t.Fatalf("ungrounded reply contains SELECT: %q", resp.Payload)
		}

		content := lastUserContent(t, client)
		if content != "show me all users" {
			t.Fatalf("user message = %q, want bare question", content)
		}
	}
}

func TestGenerateSQLIncludesFormattedHistory(t *testing.T) {
	client := &fakeClient{reply: "SELECT 1"}
	assistant := New(Config{Client: client})

	history := []Turn{
		{Role: RoleUser, Content: "how many users?"},
		{Role: RoleAssistant, Content: "42 users", SQL: "SELECT COUNT(*) FROM users", Error: "boom"},
	}
	if _, err := assistant.GenerateSQL(context.Background(), "and per day?", logSnapshot(), history); err != nil {
		t.Fatalf("GenerateSQL() error = %v", err)
	}

	messages := client.calls[0]
	if len(messages) != 4 {
		t.Fatalf("messages = %d, want system + 2 history + user", len(messages))
	}
	assistantTurn := messages[2]
	want := "Generated SQL: SELECT COUNT(*) FROM users\nResult: 42 users\nError: boom"
	if assistantTurn.Content != want {
		t.Fatalf("history turn = %q, want %q", assistantTurn.Content, want)
	}
}

func TestHistoryTruncatesToLimit(t *testing.T) {
	turns := make([]Turn, 15)
	for i := range turns {
		turns[i] = Turn{Role: RoleUser, Content: strings.Repeat("x", i+1)}
	}
	messages := formatHistory(turns, 10)
	if len(messages) != 10 {
		t.Fatalf("messages = %d", len(messages))
	}
	if messages[0].Content != strings.Repeat("x", 6) {
		t.Fatalf("oldest kept turn = %q", messages[0].Content)
	}
}

func TestInterpretResultsLimitsRows(t *testing.T) {
	client := &fakeClient{reply: "There are many rows."}
	assistant := New(Config{Client: client})

	rows := make([]map[string]any, 25)
	for i := range rows {
		rows[i] = map[string]any{"n": int64(i)}
	}
	insight, err := assistant.InterpretResults(context.Background(), "how many?", engine.Result{
		Columns:  []string{"n"},
		Rows:     rows,
		RowCount: 25,
	})
	if err != nil {
		t.Fatalf("InterpretResults() error = %v", err)
	}
	if insight != "There are many rows." {
		t.Fatalf("insight = %q", insight)
	}

	content := lastUserContent(t, client)
	if strings.Contains(content, `{"n":10}`) {
		t.Fatalf("more than 10 rows sent:\n%s", content)
	}
	if !strings.Contains(content, `{"n":9}`) {
		t.Fatalf("first 10 rows not sent:\n%s", content)
	}
	if !strings.Contains(content, "ROW COUNT: 25") {
		t.Fatalf("row count missing:\n%s", content)
	}
}

func TestSuggestQuestionsParsesAndUsesLeanSchema(t *testing.T) {
	client := &fakeClient{reply: "1. How many log entries per user?\n\n2) What is the busiest day?\n3. Which users are new?\n"}
	assistant := New(Config{Client: client, SuggestTemperature: 0.9})

	suggestions, err := assistant.SuggestQuestions(context.Background(), logSnapshot())
	if err != nil {
		t.Fatalf("SuggestQuestions() error = %v", err)
	}
	want := []string{
		"How many log entries per user?",
		"What is the busiest day?",
		"Which users are new?",
	}
	if len(suggestions) != len(want) {
		t.Fatalf("suggestions = %v", suggestions)
	}
	for i := range want {
		if suggestions[i] != want[i] {
			t.Fatalf("suggestions[%d] = %q, want %q", i, suggestions[i], want[i])
		}
	}

	if client.temperatures[0] != 0.9 {
		t.Fatalf("suggestion temperature = %v", client.temperatures[0])
	}
	content := lastUserContent(t, client)
	if strings.Contains(content, "Sample rows:") {
		t.Fatalf("suggestion prompt carries sample details:\n%s", content)
	}
}

func TestFixSQLSendsVerbatimErrorAndColumnOnlySchema(t *testing.T) {
	client := &fakeClient{reply: "```sql\nSELECT user_id FROM raw_log_entries__2_\n```"}
	assistant := New(Config{Client: client})

	fixed, err := assistant.FixSQL(context.Background(),
		"SELECT user FROM raw_log_entries__2_",
		`Binder Error: Referenced column "user" not found`,
		"show users",
		logSnapshot(),
	)
	if err != nil {
		t.Fatalf("FixSQL() error = %v", err)
	}
	if fixed != "SELECT user_id FROM raw_log_entries__2_" {
		t.Fatalf("fixed = %q", fixed)
	}

	content := lastUserContent(t, client)
	if !strings.Contains(content, `ERROR: Binder Error: Referenced column "user" not found`) {
		t.Fatalf("raw engine error not verbatim:\n%s", content)
	}
	if !strings.Contains(content, "FAILING SQL: SELECT user FROM raw_log_entries__2_") {
		t.Fatalf("original sql missing:\n%s", content)
	}
	if strings.Contains(content, "Sample rows:") || strings.Contains(content, "Statistics:") {
		t.Fatalf("repair prompt should be column-only:\n%s", content)
	}
}

func TestFixSQLRejectsNonSQLReply(t *testing.T) {
	client := &fakeClient{reply: "CLARIFY: the error is not fixable"}
	assistant := New(Config{Client: client})

	_, err := assistant.FixSQL(context.Background(), "SELECT 1", "boom", "q", logSnapshot())
	var typed *Error
	if !errors.As(err, &typed) || typed.Code != CodeAPIError {
		t.Fatalf("err = %v, want typed API error", err)
	}
}
