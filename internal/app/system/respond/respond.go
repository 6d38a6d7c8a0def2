// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"net/http"
)

// MessageBody is the envelope every mutation and every error uses.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Error writes an error envelope. It is Message under a name that reads
// better at failure sites.
func Error(w http.ResponseWriter, status int, msg string) {
	Message(w, status, msg)
}
