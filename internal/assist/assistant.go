package assist

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/duckchat/duckchat/internal/engine"
	"github.com/duckchat/duckchat/internal/observability"
	"github.com/duckchat/duckchat/internal/schema"
)

const (
	defaultHistoryLimit = 10
	interpretRowLimit   = 10
)

type Config struct {
	Client             CompletionClient
	Prompts            Prompts
	Temperature        float64 // used by every operation except suggestions
	SuggestTemperature float64 // higher, to diversify suggestion phrasing
	HistoryLimit       int
	Logger             *slog.Logger
}

// Assistant composes prompts for the five model operations and applies the
// classifier to replies. It holds no ambient state: credential, model and
// custom prompts all arrive through the injected client and config.
type Assistant struct {
	client             CompletionClient
	prompts            Prompts
	temperature        float64
	suggestTemperature float64
	historyLimit       int
	logger             *slog.Logger
}

func New(cfg Config) *Assistant {
	suggestTemperature := cfg.SuggestTemperature
	if suggestTemperature <= 0 {
		suggestTemperature = 0.7
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		client:             cfg.Client,
		prompts:            cfg.Prompts,
		temperature:        cfg.Temperature,
		suggestTemperature: suggestTemperature,
		historyLimit:       historyLimit,
		logger:             logger,
	}
}

// GenerateSQL turns a natural-language question into a classified model
// response. The user message always carries the serialized schema when one
// exists; without grounding the model is instructed to clarify rather than
// guess.
func (a *Assistant) GenerateSQL(ctx context.Context, question string, snapshot schema.DatabaseSnapshot, history []Turn) (Response, error) {
	messages := make([]Message, 0, a.historyLimit+2)
	messages = append(messages, Message{Role: RoleSystem, Content: a.prompts.system()})
	messages = append(messages, formatHistory(history, a.historyLimit)...)
	messages = append(messages, Message{Role: RoleUser, Content: buildGenerateUserMessage(question, snapshot)})

	reply, err := a.complete(ctx, "generate_sql", messages, a.temperature)
	if err != nil {
		return Response{}, err
	}
	return Classify(reply), nil
}

func buildGenerateUserMessage(question string, snapshot schema.DatabaseSnapshot) string {
	serialized := schema.Serialize(snapshot, true)
	if serialized == "" {
		return question
	}
	return "DATABASE SCHEMA:\n" + serialized + "\n\nQUESTION: " + question
}

// InterpretResults asks for a one-sentence summary of an execution result.
// The reply is always conversational and is not classified.
func (a *Assistant) InterpretResults(ctx context.Context, question string, result engine.Result) (string, error) {
	rows := result.Rows
	if len(rows) > interpretRowLimit {
		rows = rows[:interpretRowLimit]
	}
	content := "QUESTION: " + question +
		"\nROW COUNT: " + strconv.Itoa(result.RowCount) +
		"\nROWS: " + schema.EncodeJSON(rows)

	reply, err := a.complete(ctx, "interpret_results", []Message{
		{Role: RoleSystem, Content: a.prompts.interpret()},
		{Role: RoleUser, Content: content},
	}, a.temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

var ordinalPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

// SuggestQuestions proposes short questions about the loaded tables, using
// the detail-free schema rendering to keep the prompt small.
func (a *Assistant) SuggestQuestions(ctx context.Context, snapshot schema.DatabaseSnapshot) ([]string, error) {
	reply, err := a.complete(ctx, "suggest_questions", []Message{
		{Role: RoleSystem, Content: a.prompts.suggest()},
		{Role: RoleUser, Content: schema.Serialize(snapshot, false)},
	}, a.suggestTemperature)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(ordinalPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
	}
	return suggestions, nil
}

// DiscoveryInput is the precomputed profile for one table handed to the
// discover operation.
type DiscoveryInput struct {
	Table          string
	RowCount       int64
	Samples        []map[string]any
	DistinctValues string
}

func (a *Assistant) DiscoverData(ctx context.Context, input DiscoveryInput) (string, error) {
	var b strings.Builder
	b.WriteString("TABLE: ")
	b.WriteString(input.Table)
	b.WriteString("\nROW COUNT: ")
	b.WriteString(strconv.FormatInt(input.RowCount, 10))
	b.WriteString("\nSAMPLE ROWS: ")
	b.WriteString(schema.EncodeJSON(input.Samples))
	if input.DistinctValues != "" {
		b.WriteString("\nDISTINCT VALUES:\n")
		b.WriteString(input.DistinctValues)
	}

	reply, err := a.complete(ctx, "discover_data", []Message{
		{Role: RoleSystem, Content: a.prompts.discover()},
		{Role: RoleUser, Content: b.String()},
	}, a.temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// FixSQL asks for a repaired query. The repair prompt carries a
// column-only schema rendering, the original intent, the failing SQL and
// the verbatim engine error. The reply is re-classified; a fix that comes
// back as chat or clarification is surfaced as a typed error instead of
// being executed.
func (a *Assistant) FixSQL(ctx context.Context, sqlText, errorText, question string, snapshot schema.DatabaseSnapshot) (string, error) {
	var b strings.Builder
	if serialized := schema.SerializeColumnsOnly(snapshot); serialized != "" {
		b.WriteString("DATABASE SCHEMA:\n")
		b.WriteString(serialized)
		b.WriteString("\n\n")
	}
	b.WriteString("QUESTION: ")
	b.WriteString(question)
	b.WriteString("\nFAILING SQL: ")
	b.WriteString(sqlText)
	b.WriteString("\nERROR: ")
	b.WriteString(errorText)

	reply, err := a.complete(ctx, "fix_sql", []Message{
		{Role: RoleSystem, Content: a.prompts.fix()},
		{Role: RoleUser, Content: b.String()},
	}, a.temperature)
	if err != nil {
		return "", err
	}

	classified := Classify(reply)
	if classified.Kind != KindSQL {
		return "", NewError(CodeAPIError, "the model could not repair the query", classified.Payload, true)
	}
	return classified.Payload, nil
}

func (a *Assistant) complete(ctx context.Context, operation string, messages []Message, temperature float64) (string, error) {
	reply, err := a.client.Complete(ctx, messages, temperature)
	if err != nil {
		observability.ObserveCompletion(operation, "error")
		a.logger.Warn("completion call failed",
			slog.String("operation", operation),
			slog.Any("error", err),
		)
		return "", err
	}
	observability.ObserveCompletion(operation, "ok")
	return reply, nil
}
