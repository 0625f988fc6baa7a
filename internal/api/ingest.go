package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// importRequest names either a local CSV path or an object store key.
// Exactly one of the two must be set.
type importRequest struct {
	Path  string `json:"path"`
	Key   string `json:"key"`
	Table string `json:"table"`
}

func handleImportCSV(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Importer == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "IMPORT_NOT_CONFIGURED", "csv import is not configured", false, nil)
		return
	}

	var req importRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid import request body", false, map[string]any{"details": err.Error()})
		return
	}

	path := strings.TrimSpace(req.Path)
	key := strings.TrimSpace(req.Key)
	switch {
	case path == "" && key == "":
		writeError(r.Context(), w, http.StatusBadRequest, "SOURCE_REQUIRED", "either path or key is required", false, nil)
		return
	case path != "" && key != "":
		writeError(r.Context(), w, http.StatusBadRequest, "SOURCE_AMBIGUOUS", "path and key are mutually exclusive", false, nil)
		return
	}

	var err error
	if path != "" {
		err = deps.Importer.ImportLocal(r.Context(), path, req.Table)
	} else {
		err = deps.Importer.ImportObject(r.Context(), key, req.Table)
	}
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "IMPORT_FAILED", "csv import failed", false, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "imported"})
}
