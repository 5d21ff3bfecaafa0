package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSONBody writes a JSON response body
func WriteJSONBody(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	WriteJSONBody(w, status, map[string]string{"error": message})
}
