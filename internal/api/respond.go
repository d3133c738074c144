package api

import (
	"encoding/json"
	"net/http"

	"clubhub/pkg/errors"
	"clubhub/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

const maxRequestBody = 1 << 20 // 1 MiB

// decodeJSON parses a bounded request body
func decodeJSON(r *http.Request, dst interface{}) error {
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeJSON serializes the payload; encoding failures are logged, the
// status line has already been sent by then.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Get().Errorw("Failed to encode response", "error", err)
	}
}

// writeError maps domain sentinels onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, errors.ErrSyncInProgress):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrExternal):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}
