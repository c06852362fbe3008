package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Error codes returned in {"error": ...}
const (
	ErrCodeInsufficientData  = "insufficient_data"
	ErrCodeSourceUnavailable = "source_unavailable"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeInternal          = "internal_error"
)

// respondJSON encodes before writing the status so an unencodable body becomes a 500
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + ErrCodeInternal + `"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]string{
		"error": code,
	})
}

// queryInt parses an optional non-negative integer query parameter (missing = 0)
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
