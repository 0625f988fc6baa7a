package api

import (
	"net/http"

	"github.com/duckchat/duckchat/internal/assist"
)

func handleSuggestions(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assist == nil || deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSIST_NOT_CONFIGURED", "assistant is not configured", false, nil)
		return
	}
	snapshot, _ := deps.Schema.Current()
	questions, err := deps.Assist.SuggestQuestions(r.Context(), snapshot)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func handleDiscover(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assist == nil || deps.Schema == nil || deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSIST_NOT_CONFIGURED", "assistant is not configured", false, nil)
		return
	}

	snapshot, _ := deps.Schema.Current()
	tableName := r.PathValue("table")
	table, ok := snapshot.Table(tableName)
	if !ok {
		writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", "table "+tableName+" is not in the current snapshot", false, nil)
		return
	}

	input := assist.BuildDiscoveryInput(r.Context(), deps.Engine, table)
	summary, err := deps.Assist.DiscoverData(r.Context(), input)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table.Name, "summary": summary})
}
