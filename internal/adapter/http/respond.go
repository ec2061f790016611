package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	sharedobs.WriteJSON(w, status, v)
}

// writeError maps domain sentinels to status codes. Anything unrecognized
// is reported as fallback with a generic message and logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback int) {
	status := fallback
	msg := http.StatusText(fallback)
	switch {
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, errBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAlreadyWatched):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotWatched), errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, err.Error()
	default:
		logger.Error("request failed",
			"request_id", RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

var errBadRequest = errors.New("bad request")

// decodeJSON reads a bounded JSON body into v. An empty body is allowed
// when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}
