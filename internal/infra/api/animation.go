package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/infra/metrics"
	"lovelace-tutor/internal/usecase"
)

func jobGetHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := s.deps.Animation.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		if err != nil {
			s.fail(w, r, err, "Failed to load job.")
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, job)
	}
}

type callbackRequest struct {
	JobID       string `json:"jobId"`
	Status      string `json:"status"`
	VideoURL    string `json:"videoUrl"`
	VideoBase64 string `json:"videoBase64"`
	Error       string `json:"error"`
}

func callbackHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := ""
		if s.deps.Callbacks != nil {
			sub, err := s.deps.Callbacks.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				metrics.IncCallbackRejected("unauthorized")
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			subject = sub
		}

		var req callbackRequest
		if err := decodeJSON(w, r, &req); err != nil {
			metrics.IncCallbackRejected("bad_body")
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.JobID = strings.TrimSpace(req.JobID)
		if req.JobID == "" || req.Status == "" {
			metrics.IncCallbackRejected("missing_fields")
			writeError(w, http.StatusBadRequest, "Missing jobId or status")
			return
		}
		if subject != "" && subject != req.JobID {
			metrics.IncCallbackRejected("wrong_job")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		status, ok := model.ParseAnimationJobStatus(req.Status)
		if !ok || status == model.AnimationJobQueued {
			metrics.IncCallbackRejected("bad_status")
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}

		in := usecase.CallbackInput{JobID: req.JobID, Status: status, VideoURL: strings.TrimSpace(req.VideoURL), Error: req.Error}
		if status == model.AnimationJobCompleted && in.VideoURL == "" && req.VideoBase64 != "" {
			video, err := base64.StdEncoding.DecodeString(req.VideoBase64)
			if err != nil {
				metrics.IncCallbackRejected("bad_video")
				writeError(w, http.StatusBadRequest, "Invalid videoBase64")
				return
			}
			in.Video = video
		}

		ctx := logging.WithJobID(r.Context(), req.JobID)
		if _, err := s.deps.Animation.ApplyCallback(ctx, in); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				writeError(w, http.StatusNotFound, "Job not found")
			case errors.Is(err, domain.ErrUpstream):
				s.fail(w, r.WithContext(ctx), err, "Failed to store video.")
			default:
				s.fail(w, r.WithContext(ctx), err, "Failed to update job.")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
