// Package api holds the JSON response envelope shared by all handlers.
package api

import (
	"encoding/json"
	"net/http"
)

// Envelope is the success response body: {status, data, message}.
type Envelope struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// errorEnvelope carries the HTTP status and a human-readable message.
type errorEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Respond writes a success envelope with the given status code.
func Respond(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Status: status, Data: data, Message: message})
}

// Error writes an error envelope with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorEnvelope{Status: status, Message: message})
}
