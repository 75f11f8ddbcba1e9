// Package api exposes the pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"factuboard/internal/domain"
)

// errorBody is the JSON error envelope. Schema violations carry the full
// collect-all detail so the operator can fix the source file in one pass.
type errorBody struct {
	Code           int               `json:"code"`
	Message        string            `json:"message"`
	MissingColumns []string          `json:"missing_columns,omitempty"`
	RowErrors      []domain.RowError `json:"row_errors,omitempty"`
}

// writeError maps domain errors to HTTP statuses and writes the envelope.
func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Message: err.Error()}

	var (
		notFound  *domain.NotFoundError
		schemaErr *domain.SchemaError
		roster    *domain.RosterUnavailableError
		cacheMiss *domain.CacheMissError
		ioErr     *domain.IngestionIOError
		validate  *domain.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		body.Code = http.StatusNotFound
	case errors.As(err, &schemaErr):
		body.Code = http.StatusUnprocessableEntity
		body.MissingColumns = schemaErr.MissingColumns
		body.RowErrors = schemaErr.RowErrors
	case errors.As(err, &roster):
		body.Code = http.StatusConflict
	case errors.As(err, &cacheMiss):
		// Not a failure: the module needs a fresh upload.
		body.Code = http.StatusNotFound
	case errors.As(err, &ioErr):
		body.Code = http.StatusInsufficientStorage
	case errors.As(err, &validate):
		body.Code = http.StatusBadRequest
	default:
		body.Code = http.StatusInternalServerError
	}

	writeJSON(w, body.Code, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
