// Package response writes JSON bodies for plain http.Handlers.
//
// Successful product responses are the bare resource. Errors use a single
// "detail" key so clients can treat every failure the same way:
//
//	{"detail":"Product not found"}
//	{"detail":{"name":"The name field is required."}}
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Detail interface{} `json:"detail"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK sends a 200 with v as the body.
func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Error sends {"detail": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Detail: message})
}

// ValidationError sends a 422 with a field → message map under "detail".
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, ErrorBody{Detail: errs})
}

// NotFound sends a 404 with the given message, or "Not Found".
func NotFound(w http.ResponseWriter, message ...string) {
	msg := "Not Found"
	if len(message) > 0 {
		msg = message[0]
	}
	Error(w, http.StatusNotFound, msg)
}

// InternalError sends the generic 500 body. Details belong in the log.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Internal Server Error")
}
