package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-recovery-api/internal/domain"
)

// Client-facing messages. They never say which part of a token or code was wrong.
const (
	msgUnknownError        = "unknown error"
	msgUnknownErrorRetry   = "unknown error, please retry"
	msgInvalidCode         = "invalid code, please retry"
	msgCodeExpired         = "code expired, please retry"
	msgPersistenceFailure  = "error occurred, please retry"
	msgInternalServerError = "internal server error"
)

// httpError maps a service error to its status code and public message.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownChannel):
		writeError(w, http.StatusInternalServerError, msgUnknownErrorRetry)
	case errors.Is(err, domain.ErrMalformedToken):
		writeError(w, http.StatusInternalServerError, msgUnknownError)
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusUnprocessableEntity, msgInvalidCode)
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusUnprocessableEntity, msgCodeExpired)
	case errors.Is(err, domain.ErrPersistence):
		writeError(w, http.StatusInternalServerError, msgPersistenceFailure)
	default:
		slog.Error("unhandled error", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternalServerError)
	}
}
