package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robodex/robodex-backend/auth"
	apperrors "github.com/robodex/robodex-backend/internal/errors"
	"github.com/robodex/robodex-backend/internal/upstream"
	"github.com/rs/zerolog"
)

const maxRequestBytes = 1 << 20

const (
	msgUnauthorized          = "Unauthorized"
	msgInsufficientClearance = "Insufficient clearance"
	msgInvalidBody           = "Invalid request body"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type successBody struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes an already encoded JSON document.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// writeError maps err onto the response taxonomy: 401 for credential and
// clearance failures, 400 for bad input, 500 for upstream failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := zerolog.Ctx(r.Context())
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeText(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, auth.ErrInsufficientClearance):
		writeText(w, http.StatusUnauthorized, msgInsufficientClearance)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		writeText(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		writeText(w, http.StatusBadRequest, msgInvalidBody)
	case errors.Is(err, apperrors.ErrPasswordMismatch):
		writeText(w, http.StatusBadRequest, "Current password is incorrect")
	case errors.Is(err, apperrors.ErrPasswordTooShort):
		writeText(w, http.StatusBadRequest, "New password is too short")
	case errors.Is(err, apperrors.ErrPasswordUnchanged):
		writeText(w, http.StatusBadRequest, "New password must differ from the current password")
	default:
		kind, ok := upstream.Kind(err)
		if !ok {
			kind = "internal"
		}
		log.Error().Err(err).Str("kind", kind).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Kind: kind})
	}
}

// decodeBody reads a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "decode body: %v", err)
	}
	return nil
}

// present reports whether a raw JSON field was supplied with a non-null value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
