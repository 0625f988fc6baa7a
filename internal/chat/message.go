package chat

import (
	"time"

	"github.com/duckchat/duckchat/internal/engine"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status tracks the query lifecycle of an assistant message that carries
// SQL. Plain conversational messages stay at StatusNone.
type Status string

const (
	StatusNone      Status = ""
	StatusGenerated Status = "generated"
	StatusExecuting Status = "executing"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Message is one entry of the append-only conversation log. The ID is
// immutable; the execute-and-repair loop mutates Content, SQL, Results,
// Insight, Error, SQLExecuted and Status in place as the lifecycle
// progresses.
type Message struct {
	ID          string         `json:"id"`
	Role        Role           `json:"role"`
	Content     string         `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
	SQL         string         `json:"sql,omitempty"`
	SQLExecuted bool           `json:"sql_executed,omitempty"`
	Results     *engine.Result `json:"results,omitempty"`
	Insight     string         `json:"insight,omitempty"`
	Error       string         `json:"error,omitempty"`
	Status      Status         `json:"status,omitempty"`
}
