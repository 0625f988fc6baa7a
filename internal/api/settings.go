package api

import (
	"encoding/json"
	"net/http"

	"github.com/duckchat/duckchat/internal/store"
)

func handleGetSettings(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Settings == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SETTINGS_NOT_CONFIGURED", "settings store is not configured", false, nil)
		return
	}
	settings, found, err := deps.Settings.Load(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SETTINGS_LOAD_FAILED", "failed to load settings", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse(settings, found))
}

func handlePutSettings(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Settings == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SETTINGS_NOT_CONFIGURED", "settings store is not configured", false, nil)
		return
	}

	var settings store.Settings
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&settings); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid settings body", false, map[string]any{"details": err.Error()})
		return
	}
	if err := deps.Settings.Save(r.Context(), settings); err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SETTINGS_SAVE_FAILED", "failed to save settings", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse(settings, true))
}

// settingsResponse never echoes the credential itself, only whether one is
// stored.
func settingsResponse(settings store.Settings, found bool) map[string]any {
	return map[string]any{
		"found":          found,
		"api_url":        settings.APIURL,
		"model":          settings.Model,
		"api_key_set":    settings.APIKey != "",
		"custom_prompts": settings.CustomPrompts,
	}
}
