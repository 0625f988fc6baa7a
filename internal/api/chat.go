package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/duckchat/duckchat/internal/export"
)

type askRequest struct {
	Question string `json:"question"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Session == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat session is not configured", false, nil)
		return
	}

	var req askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	message, err := deps.Session.Ask(r.Context(), req.Question)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": deps.Session.ID(), "message": message})
}

func handleExecute(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Session == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat session is not configured", false, nil)
		return
	}
	message, err := deps.Session.Execute(r.Context(), r.PathValue("message"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message})
}

func handleFix(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Session == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat session is not configured", false, nil)
		return
	}
	message, err := deps.Session.Fix(r.Context(), r.PathValue("message"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message})
}

func handleListMessages(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Session == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat session is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": deps.Session.ID(),
		"messages":   deps.Session.Messages(),
	})
}

func handleExportResults(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Session == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat session is not configured", false, nil)
		return
	}

	messageID := r.PathValue("message")
	for _, message := range deps.Session.Messages() {
		if message.ID != messageID {
			continue
		}
		if message.Results == nil {
			writeError(r.Context(), w, http.StatusConflict, "NO_RESULTS", "message has no results to export", false, nil)
			return
		}
		data, err := export.EncodeResult(*message.Results)
		if err != nil {
			writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", "failed to encode results", false, map[string]any{"details": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="results-`+messageID+`.parquet"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	writeError(r.Context(), w, http.StatusNotFound, "MESSAGE_NOT_FOUND", "message "+messageID+" not found", false, nil)
}
