package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the handler error envelope so middleware rejections
// look the same as handler errors.
type errorBody struct {
	Status  string `json:"status"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Status: "error", Type: errType, Message: message})
}
