// Package response writes the JSON envelope used by every controller and maps
// domain errors onto HTTP status codes.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mosaicpim/mosaic/pkg/apperr"
)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Envelope{Success: status < 400, Data: data})
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error inspects err with errors.As and picks the status that fits the kind.
func Error(w http.ResponseWriter, err error) {
	var (
		validation *apperr.ValidationError
		card       *apperr.CardinalityError
		locale     *apperr.LocaleError
		reqCh      *apperr.RequiredChannelError
		dup        *apperr.DuplicateValueError
		notFound   *apperr.NotFoundError
		conflict   *apperr.ConflictError
		stale      *apperr.StaleTokenError
		running    *apperr.AlreadyRunningError
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusUnprocessableEntity, validation.Error(), validation.Fields)
	case errors.As(err, &card):
		writeError(w, http.StatusUnprocessableEntity, card.Error(), nil)
	case errors.As(err, &locale):
		writeError(w, http.StatusUnprocessableEntity, locale.Error(), nil)
	case errors.As(err, &reqCh):
		writeError(w, http.StatusUnprocessableEntity, reqCh.Error(), nil)
	case errors.As(err, &dup):
		writeError(w, http.StatusUnprocessableEntity, dup.Error(), nil)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error(), nil)
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error(), nil)
	case errors.As(err, &stale):
		writeError(w, http.StatusConflict, stale.Error(), nil)
	case errors.As(err, &running):
		writeError(w, http.StatusConflict, running.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

func BadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message, nil)
}

func Internal(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message, nil)
}

func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	writeError(w, http.StatusUnprocessableEntity, "validation failed", fields)
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	write(w, status, Envelope{Success: false, Error: &ErrorBody{Message: message, Fields: fields}})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
