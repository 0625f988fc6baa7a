package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/duckchat/duckchat/internal/assist"
	"github.com/duckchat/duckchat/internal/engine"
	"github.com/duckchat/duckchat/internal/observability"
	"github.com/duckchat/duckchat/internal/schema"
)

// Assistant is the slice of prompt operations the session drives.
// *assist.Assistant satisfies it.
type Assistant interface {
	GenerateSQL(ctx context.Context, question string, snapshot schema.DatabaseSnapshot, history []assist.Turn) (assist.Response, error)
	InterpretResults(ctx context.Context, question string, result engine.Result) (string, error)
	FixSQL(ctx context.Context, sqlText, errorText, question string, snapshot schema.DatabaseSnapshot) (string, error)
}

// ErrMessageNotFound is returned when an operation targets a message ID
// the session does not hold.
var ErrMessageNotFound = errors.New("message not found")

// ErrInvalidStatus is returned when a lifecycle operation targets a
// message in a state it cannot transition from.
var ErrInvalidStatus = errors.New("invalid message status")

// SnapshotSource provides the current published schema snapshot.
// *schema.Builder satisfies it.
type SnapshotSource interface {
	Current() (schema.DatabaseSnapshot, bool)
}

// Recorder persists messages as they are appended. Persistence is optional
// and failures are non-critical: they are logged and swallowed.
type Recorder interface {
	SaveMessage(ctx context.Context, sessionID string, message Message) error
}

// Session holds one conversation and drives the generated → executing →
// succeeded/failed lifecycle. Generated SQL is never executed
// automatically: execution and repair are distinct, caller-triggered
// transitions, so the repair loop is bounded by the user, not a counter.
type Session struct {
	id        string
	assistant Assistant
	eng       engine.Engine
	snapshots SnapshotSource
	recorder  Recorder
	logger    *slog.Logger

	mu       sync.Mutex
	messages []*Message
}

func NewSession(assistant Assistant, eng engine.Engine, snapshots SnapshotSource, recorder Recorder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:        observability.NewTraceID(),
		assistant: assistant,
		eng:       eng,
		snapshots: snapshots,
		recorder:  recorder,
		logger:    logger,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]Message, 0, len(s.messages))
	for _, message := range s.messages {
		messages = append(messages, *message)
	}
	return messages
}

// Ask records the user question, generates a model response grounded in
// the current snapshot, and appends the assistant message. SQL responses
// are held for explicit execution.
func (s *Session) Ask(ctx context.Context, question string) (Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, fmt.Errorf("question is required")
	}

	snapshot, _ := s.snapshots.Current()
	history := s.historyTurns()
	s.append(ctx, &Message{
		ID:        observability.NewTraceID(),
		Role:      RoleUser,
		Content:   question,
		Timestamp: time.Now().UTC(),
	})

	response, err := s.assistant.GenerateSQL(ctx, question, snapshot, history)
	if err != nil {
		return Message{}, err
	}

	reply := &Message{
		ID:        observability.NewTraceID(),
		Role:      RoleAssistant,
		Timestamp: time.Now().UTC(),
	}
	if response.Kind == assist.KindSQL {
		reply.SQL = response.Payload
		reply.Status = StatusGenerated
		reply.Content = "I generated a SQL query for your question. Run it to see the results."
	} else {
		reply.Content = response.Payload
	}
	s.append(ctx, reply)
	return *reply, nil
}

// Execute runs a generated message's SQL against the engine. On success
// the result set is recorded and an interpretation is fetched; an
// interpretation failure degrades to a missing insight, never a failed
// execution. On failure the raw engine error is recorded and surfaced as
// a typed SQL error.
func (s *Session) Execute(ctx context.Context, messageID string) (Message, error) {
	message, err := s.transition(messageID, StatusExecuting, StatusGenerated)
	if err != nil {
		return Message{}, err
	}
	question := s.questionFor(messageID)

	start := time.Now()
	result, execErr := s.eng.Execute(ctx, message.SQL)
	if execErr != nil {
		raw := execErr.Error()
		s.mutate(ctx, messageID, func(m *Message) {
			m.Status = StatusFailed
			m.Error = raw
		})
		observability.ObserveQueryExecution("error", time.Since(start))
		return s.get(messageID), assist.NewError(assist.CodeSQLError, friendlySQLError(raw), raw, true)
	}
	observability.ObserveQueryExecution("ok", time.Since(start))

	s.mutate(ctx, messageID, func(m *Message) {
		m.Status = StatusSucceeded
		m.SQLExecuted = true
		m.Results = &result
		m.Error = ""
	})

	insight, insightErr := s.assistant.InterpretResults(ctx, question, result)
	if insightErr != nil {
		s.logger.Warn("result interpretation failed", slog.Any("error", insightErr))
	} else {
		s.mutate(ctx, messageID, func(m *Message) {
			m.Content = insight
			m.Insight = insight
		})
	}
	return s.get(messageID), nil
}

// Fix asks the model to repair a failed message's SQL using the exact
// recorded engine error, and returns the message to the generated state
// with the replacement query.
func (s *Session) Fix(ctx context.Context, messageID string) (Message, error) {
	message := s.get(messageID)
	if message.ID == "" {
		return Message{}, fmt.Errorf("message %q: %w", messageID, ErrMessageNotFound)
	}
	if message.Status != StatusFailed {
		return Message{}, fmt.Errorf("message %q is %q, only failed messages can be fixed: %w", messageID, message.Status, ErrInvalidStatus)
	}

	observability.ObserveFixAttempt()
	snapshot, _ := s.snapshots.Current()
	fixed, err := s.assistant.FixSQL(ctx, message.SQL, message.Error, s.questionFor(messageID), snapshot)
	if err != nil {
		return Message{}, err
	}

	s.mutate(ctx, messageID, func(m *Message) {
		m.SQL = fixed
		m.Status = StatusGenerated
		m.Error = ""
		m.Results = nil
		m.SQLExecuted = false
	})
	return s.get(messageID), nil
}

func (s *Session) historyTurns() []assist.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]assist.Turn, 0, len(s.messages))
	for _, message := range s.messages {
		turns = append(turns, assist.Turn{
			Role:    string(message.Role),
			Content: message.Content,
			SQL:     message.SQL,
			Error:   message.Error,
		})
	}
	return turns
}

func (s *Session) append(ctx context.Context, message *Message) {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	snapshot := *message
	s.mu.Unlock()
	s.record(ctx, snapshot)
}

func (s *Session) mutate(ctx context.Context, messageID string, apply func(*Message)) {
	s.mu.Lock()
	var snapshot Message
	for _, message := range s.messages {
		if message.ID == messageID {
			apply(message)
			snapshot = *message
			break
		}
	}
	s.mu.Unlock()
	if snapshot.ID != "" {
		s.record(ctx, snapshot)
	}
}

// transition atomically moves a message from an expected status to the
// next one, so concurrent execute triggers cannot double-run a query.
func (s *Session) transition(messageID string, to Status, from Status) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range s.messages {
		if message.ID != messageID {
			continue
		}
		if message.Status != from {
			return Message{}, fmt.Errorf("message %q is %q, want %q: %w", messageID, message.Status, from, ErrInvalidStatus)
		}
		message.Status = to
		return *message, nil
	}
	return Message{}, fmt.Errorf("message %q: %w", messageID, ErrMessageNotFound)
}

func (s *Session) get(messageID string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range s.messages {
		if message.ID == messageID {
			return *message
		}
	}
	return Message{}
}

// questionFor returns the closest user message preceding the given
// assistant message, the original natural-language intent behind its SQL.
func (s *Session) questionFor(messageID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := -1
	for i, message := range s.messages {
		if message.ID == messageID {
			index = i
			break
		}
	}
	for i := index - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleUser {
			return s.messages[i].Content
		}
	}
	return ""
}

func (s *Session) record(ctx context.Context, message Message) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.SaveMessage(ctx, s.id, message); err != nil {
		s.logger.Warn("message persistence failed", slog.Any("error", err))
	}
}

// friendlySQLError maps common engine error shapes to a readable message.
// The raw technical text travels alongside it, never replaced.
func friendlySQLError(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "does not exist") || strings.Contains(lower, "not found"):
		return "The query references a table or column that does not exist."
	case strings.Contains(lower, "syntax error") || strings.Contains(lower, "parser error"):
		return "The generated SQL has a syntax error."
	case strings.Contains(lower, "type mismatch") || strings.Contains(lower, "cannot be cast") || strings.Contains(lower, "conversion error"):
		return "The query mixes incompatible value types."
	default:
		return "The query failed to execute."
	}
}
