package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/mikey/contact-relay/internal/core"
)

// Outcome is the JSON body of every contact endpoint response
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, outcome Outcome) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(outcome)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, Outcome{Success: true})
}

// writeError writes only the caller-safe message; the cause stays in the log
func writeError(w http.ResponseWriter, err error) {
	e := core.AsError(err)
	writeJSON(w, e.Status, Outcome{Success: false, Error: e.Message})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
