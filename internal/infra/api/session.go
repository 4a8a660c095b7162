package api

import (
	"net/http"

	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/usecase"
)

type askRequest struct {
	LessonID              string `json:"lessonId"`
	CourseID              string `json:"courseId"`
	VoiceTranscript       string `json:"voiceTranscript"`
	TypedText             string `json:"typedText"`
	WhiteboardImageBase64 string `json:"whiteboardImageBase64"`
}

type askResponse struct {
	AnimationPrompt string `json:"animationPrompt"`
}

func sessionAskHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		img, err := decodeImage(req.WhiteboardImageBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lessonID := firstNonEmpty(req.CourseID, req.LessonID, usecase.DefaultLessonID)
		ctx := logging.WithLessonID(r.Context(), lessonID)
		prompt, err := s.deps.Tutor.AskSession(ctx, usecase.AskInput{
			LessonID:        lessonID,
			VoiceTranscript: req.VoiceTranscript,
			TypedText:       req.TypedText,
			Whiteboard:      img,
		})
		if err != nil {
			s.fail(w, r.WithContext(ctx), err, "Failed to build animation prompt.")
			return
		}
		writeJSON(w, http.StatusOK, askResponse{AnimationPrompt: prompt})
	}
}
