// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger logs a failed request with its context and writes the JSON
// {message} envelope. Internal error text is logged, never sent.
type ErrorLogger struct {
	Log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fs = append(fs, zap.String("request_id", id))
	}
	if u, ok := auth.CurrentUser(r); ok {
		fs = append(fs, zap.String("user_id", u.ID), zap.String("group_id", u.GroupID))
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	return fs
}

// LogServerError logs at error level and responds 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.Log.Error(logMsg, e.fields(r, err)...)
	if userMsg == "" {
		userMsg = "Internal server error."
	}
	respond.Error(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs at info level and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.Log.Info(logMsg, e.fields(r, err)...)
	respond.Error(w, http.StatusBadRequest, userMsg)
}

// LogForbidden logs at warn level and responds 403 with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, userMsg string) {
	e.Log.Warn(logMsg, e.fields(r, nil)...)
	if userMsg == "" {
		userMsg = "You do not have permission to do that."
	}
	respond.Error(w, http.StatusForbidden, userMsg)
}

// NotFound responds 404 with msg. Missing records are routine; nothing is
// logged.
func NotFound(w http.ResponseWriter, msg string) {
	respond.Error(w, http.StatusNotFound, msg)
}

// Conflict responds 409 with msg.
func Conflict(w http.ResponseWriter, msg string) {
	respond.Error(w, http.StatusConflict, msg)
}

// Unauthorized responds 401. The client treats it as a forced logout.
func Unauthorized(w http.ResponseWriter) {
	respond.Error(w, http.StatusUnauthorized, "Authentication required.")
}

// Forbidden responds 403 with msg.
func Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "You do not have permission to do that."
	}
	respond.Error(w, http.StatusForbidden, msg)
}
