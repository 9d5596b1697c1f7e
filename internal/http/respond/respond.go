package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the standard success wrapper used across handlers.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorEnvelope is the standard failure wrapper.
type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

// JSON writes a success response using the common envelope. Statuses of 400
// and above are still reported as success=false.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string, details ...string) {
	write(w, status, ErrorEnvelope{StatusCode: status, Message: message, Success: false, Errors: details})
}

func write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", "error", err)
	}
}
