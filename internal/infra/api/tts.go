package api

import (
	"net/http"
	"strconv"
)

type ttsRequest struct {
	Text string `json:"text"`
}

func ttsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ttsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		audio, contentType, err := s.deps.Speech.Speak(r.Context(), req.Text)
		if err != nil {
			s.fail(w, r, err, "Failed to generate speech.")
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audio)
	}
}
