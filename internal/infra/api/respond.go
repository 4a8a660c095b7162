package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/infra/logging"
)

const maxJSONBody = 12 << 20 // whiteboard images ride inside JSON bodies

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// publicMessage is the text shown to clients for a 4xx error: the detail
// after the sentinel prefix when there is one.
func publicMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalidArgument, domain.ErrNotFound, domain.ErrInvalidTransition, domain.ErrUnauthorized} {
		if errors.Is(err, sentinel) {
			if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
				return rest
			}
		}
	}
	return msg
}

// fail logs err and answers with its mapped status. Server-side failures get
// the generic fallback text so provider details never reach the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)
	l := logging.With(r.Context(), s.log)
	if status >= 500 {
		l.Error().Err(err).Int("status", status).Msg("request failed")
		if status == http.StatusServiceUnavailable {
			fallback = "Service not configured."
		}
		writeError(w, status, fallback)
		return
	}
	l.Debug().Err(err).Int("status", status).Msg("request rejected")
	writeError(w, status, publicMessage(err))
}
