package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/auth"
	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
)

// envelope is the body of every API response
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeOK(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeError maps domain errors onto status codes. Unknown errors are 500s
// and their text is not exposed.
func writeError(w http.ResponseWriter, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Error())
	case marketerrors.Is(err, marketerrors.ErrInvalidRequest), marketerrors.Is(err, marketerrors.ErrInvalidOTP):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case marketerrors.Is(err, marketerrors.ErrInvalidCredentials),
		marketerrors.Is(err, marketerrors.ErrInvalidToken),
		marketerrors.Is(err, marketerrors.ErrTokenExpired),
		marketerrors.Is(err, marketerrors.ErrInvalidRefreshToken),
		marketerrors.Is(err, marketerrors.ErrRefreshTokenExpired):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case marketerrors.Is(err, marketerrors.ErrUserNotVerified), marketerrors.Is(err, marketerrors.ErrNotOwner):
		writeMessage(w, http.StatusForbidden, err.Error())
	case marketerrors.Is(err, marketerrors.ErrUserNotFound),
		marketerrors.Is(err, marketerrors.ErrProductNotFound),
		marketerrors.Is(err, marketerrors.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case marketerrors.Is(err, marketerrors.ErrUserExists):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a JSON request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		return errors.Wrap(marketerrors.ErrInvalidRequest, "invalid request body")
	}
	return nil
}
