package api

import (
	"net/http"

	"github.com/duckchat/duckchat/internal/observability"
	"github.com/duckchat/duckchat/internal/schema"
)

func handleGetSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema source is not configured", false, nil)
		return
	}
	snapshot, ready := deps.Schema.Current()
	writeJSON(w, http.StatusOK, schemaResponse(snapshot, ready))
}

func handleRefreshSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema source is not configured", false, nil)
		return
	}
	snapshot, err := deps.Schema.Refresh(r.Context())
	if err != nil {
		observability.ObserveSchemaRefresh("error")
		writeDomainError(r.Context(), w, err)
		return
	}
	observability.ObserveSchemaRefresh("ok")
	writeJSON(w, http.StatusOK, schemaResponse(snapshot, true))
}

func schemaResponse(snapshot schema.DatabaseSnapshot, ready bool) map[string]any {
	response := map[string]any{
		"ready":      ready,
		"tables":     snapshot.Tables(),
		"serialized": schema.Serialize(snapshot, true),
	}
	if table, ok := schema.DefaultTable(snapshot); ok {
		response["default_table"] = table.Name
	}
	return response
}
