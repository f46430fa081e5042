// Package respond renders the {success, data | error} envelope every HTTP
// endpoint answers with.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// Error maps err's kind to a status code. Internal errors are logged and
// their message is not exposed.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	status := StatusFor(apperr.KindOf(err))
	body := envelope{Error: err.Error()}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		// wrap prefixes added on the way up are not for clients
		body.Error = ae.Error()
		body.Fields = ae.Fields
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		body.Error = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindPayment:
		return http.StatusPaymentRequired
	case apperr.KindRemote, apperr.KindStorage:
		return http.StatusBadGateway
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON body, rejecting unknown fields.
func Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid body: " + err.Error())
	}
	return nil
}
