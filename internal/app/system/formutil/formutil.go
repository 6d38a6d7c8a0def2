// Package formutil decodes JSON request bodies.
//
// Every handler that accepts a body calls DecodeJSON so the size limit and
// the error wording are the same everywhere:
//
//	var in loginInput
//	if err := formutil.DecodeJSON(w, r, &in); err != nil {
//		h.ErrLog.LogBadRequest(w, r, "bad login body", err, formutil.Message(err))
//		return
//	}
package formutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/system/limits"
)

var (
	ErrEmptyBody    = errors.New("request body is required")
	ErrBodyTooBig   = errors.New("request body is too large")
	ErrMalformed    = errors.New("request body is not valid JSON")
	ErrTrailingData = errors.New("request body must hold a single JSON object")
)

// DecodeJSON reads one JSON value from r's body into v. The returned error
// text is safe to show to the user (see Message).
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	body := http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)
	dec := json.NewDecoder(body)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return ErrEmptyBody
		case errors.As(err, &tooBig):
			return ErrBodyTooBig
		case errors.As(err, &typeErr):
			return fmt.Errorf("field %q has the wrong type", typeErr.Field)
		default:
			return ErrMalformed
		}
	}
	if dec.More() {
		return ErrTrailingData
	}
	return nil
}

// Message renders a DecodeJSON error as a user-facing sentence.
func Message(err error) string {
	s := err.Error()
	if s == "" {
		return "Invalid request body."
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
