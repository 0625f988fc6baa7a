package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duckchat/duckchat/internal/assist"
	"github.com/duckchat/duckchat/internal/chat"
	"github.com/duckchat/duckchat/internal/config"
	"github.com/duckchat/duckchat/internal/engine"
	"github.com/duckchat/duckchat/internal/observability"
	"github.com/duckchat/duckchat/internal/schema"
	"github.com/duckchat/duckchat/internal/store"
)

type ReadinessCheck func(ctx context.Context) error

// SchemaSource exposes the published snapshot and a full rebuild.
// *schema.Builder satisfies it.
type SchemaSource interface {
	Current() (schema.DatabaseSnapshot, bool)
	Refresh(ctx context.Context) (schema.DatabaseSnapshot, error)
}

// ChatSession is the conversation surface the API drives. *chat.Session
// satisfies it.
type ChatSession interface {
	ID() string
	Messages() []chat.Message
	Ask(ctx context.Context, question string) (chat.Message, error)
	Execute(ctx context.Context, messageID string) (chat.Message, error)
	Fix(ctx context.Context, messageID string) (chat.Message, error)
}

// AssistOps is the slice of assistant operations served outside the chat
// lifecycle. *assist.Assistant satisfies it.
type AssistOps interface {
	SuggestQuestions(ctx context.Context, snapshot schema.DatabaseSnapshot) ([]string, error)
	DiscoverData(ctx context.Context, input assist.DiscoveryInput) (string, error)
}

// CSVImporter loads CSV files into the engine. *ingest.Importer satisfies
// it.
type CSVImporter interface {
	ImportLocal(ctx context.Context, path, table string) error
	ImportObject(ctx context.Context, key, table string) error
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
	Schema            SchemaSource
	Session           ChatSession
	Assist            AssistOps
	Engine            engine.Engine
	Importer          CSVImporter
	Settings          store.SettingsStore
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		handleGetSchema(deps, w, r)
	})
	mux.HandleFunc("POST /v1/schema/refresh", func(w http.ResponseWriter, r *http.Request) {
		handleRefreshSchema(deps, w, r)
	})

	mux.HandleFunc("POST /v1/chat/ask", func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	})
	mux.HandleFunc("POST /v1/chat/{message}/execute", func(w http.ResponseWriter, r *http.Request) {
		handleExecute(deps, w, r)
	})
	mux.HandleFunc("POST /v1/chat/{message}/fix", func(w http.ResponseWriter, r *http.Request) {
		handleFix(deps, w, r)
	})
	mux.HandleFunc("GET /v1/chat/messages", func(w http.ResponseWriter, r *http.Request) {
		handleListMessages(deps, w, r)
	})
	mux.HandleFunc("GET /v1/chat/{message}/export.parquet", func(w http.ResponseWriter, r *http.Request) {
		handleExportResults(deps, w, r)
	})

	mux.HandleFunc("GET /v1/suggestions", func(w http.ResponseWriter, r *http.Request) {
		handleSuggestions(deps, w, r)
	})
	mux.HandleFunc("POST /v1/discover/{table}", func(w http.ResponseWriter, r *http.Request) {
		handleDiscover(deps, w, r)
	})

	mux.HandleFunc("POST /v1/import/csv", func(w http.ResponseWriter, r *http.Request) {
		handleImportCSV(deps, w, r)
	})

	mux.HandleFunc("GET /v1/settings", func(w http.ResponseWriter, r *http.Request) {
		handleGetSettings(deps, w, r)
	})
	mux.HandleFunc("PUT /v1/settings", func(w http.ResponseWriter, r *http.Request) {
		handlePutSettings(deps, w, r)
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckEngine(eng interface {
	Ping(ctx context.Context) error
}) ReadinessCheck {
	return func(ctx context.Context) error {
		if eng == nil {
			return errors.New("engine is not configured")
		}
		return eng.Ping(ctx)
	}
}

func CheckCompletionConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.AI.BaseURL == "" {
			return errors.New("completion api base url is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}

// writeDomainError maps typed assistant errors and lifecycle sentinels to
// HTTP statuses; everything else is an internal error.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var typed *assist.Error
	if errors.As(err, &typed) {
		extra := map[string]any{}
		if typed.Technical != "" {
			extra["details"] = typed.Technical
		}
		writeError(ctx, w, statusForCode(typed.Code), string(typed.Code), typed.Message, typed.Recoverable, extra)
		return
	}
	switch {
	case errors.Is(err, chat.ErrMessageNotFound):
		writeError(ctx, w, http.StatusNotFound, "MESSAGE_NOT_FOUND", err.Error(), false, nil)
	case errors.Is(err, chat.ErrInvalidStatus):
		writeError(ctx, w, http.StatusConflict, "INVALID_STATUS", err.Error(), false, nil)
	case errors.Is(err, schema.ErrRefreshInFlight):
		writeError(ctx, w, http.StatusConflict, "REFRESH_IN_FLIGHT", err.Error(), true, nil)
	default:
		writeError(ctx, w, http.StatusInternalServerError, "INTERNAL", err.Error(), false, nil)
	}
}

func statusForCode(code assist.Code) int {
	switch code {
	case assist.CodeAuth:
		return http.StatusBadGateway
	case assist.CodeRateLimit:
		return http.StatusTooManyRequests
	case assist.CodeBadRequest:
		return http.StatusBadRequest
	case assist.CodeAPIError, assist.CodeNetwork:
		return http.StatusBadGateway
	case assist.CodeSQLError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
