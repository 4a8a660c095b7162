package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/usecase"
)

const (
	maxQueryChars      = 4000
	maxExpressions     = 500
	maxWhiteboardBytes = 8 << 20
)

type chatRequest struct {
	Query                 string                   `json:"query"`
	Mode                  string                   `json:"mode"`
	CurrentExpressions    []model.DesmosExpression `json:"currentExpressions"`
	Dimension             string                   `json:"dimension"`
	LessonID              string                   `json:"lessonId"`
	CourseID              string                   `json:"courseId"`
	WhiteboardImageBase64 string                   `json:"whiteboardImageBase64"`
}

type chatResponse struct {
	Actions   []model.DesmosAction      `json:"actions"`
	Message   string                    `json:"message"`
	Animation *usecase.AnimationSummary `json:"animation,omitempty"`
}

var errImageTooLarge = errors.New("Whiteboard image too large")

// decodeImage accepts a data: URL or bare base64 and returns the bytes with
// their mime type.
func decodeImage(s string) (*usecase.Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	mime := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("Invalid whiteboard image")
		}
		mime = strings.TrimSuffix(meta, ";base64")
		s = payload
	}
	if base64.StdEncoding.DecodedLen(len(s)) > maxWhiteboardBytes+3 {
		return nil, errImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New("Invalid whiteboard image")
	}
	if len(data) > maxWhiteboardBytes {
		return nil, errImageTooLarge
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return &usecase.Image{Data: data, MimeType: mime}, nil
}

// callbackURL is the configured override or {request origin}/api/animation/callback.
// Forwarded headers are client controlled and only count behind a trusted proxy,
// since the callback secret travels to whatever host this names.
func (s *Server) callbackURL(r *http.Request) string {
	if s.deps.CallbackURL != "" {
		return s.deps.CallbackURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if s.deps.TrustProxy {
		if p := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); p == "http" || p == "https" {
			scheme = p
		}
		if h := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); h != "" {
			host = h
		}
	}
	return scheme + "://" + host + "/api/animation/callback"
}

func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

func chatHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req chatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		query := strings.TrimSpace(req.Query)
		if query == "" {
			writeError(w, http.StatusBadRequest, "Missing query")
			return
		}
		if utf8.RuneCountInString(query) > maxQueryChars {
			writeError(w, http.StatusBadRequest, "Query too long")
			return
		}
		mode := req.Mode
		if mode == "" {
			mode = "graph"
		}
		if mode != "graph" && mode != "animation" {
			writeError(w, http.StatusBadRequest, "Invalid mode")
			return
		}
		dim, ok := model.ParseDimension(req.Dimension)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid dimension")
			return
		}
		if len(req.CurrentExpressions) > maxExpressions {
			writeError(w, http.StatusBadRequest, "Too many expressions")
			return
		}
		img, err := decodeImage(req.WhiteboardImageBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		lessonID := req.LessonID
		if lessonID == "" {
			lessonID = req.CourseID
		}
		if s.deps.Tutor != nil && (lessonID != "" || img != nil) {
			query = s.deps.Tutor.EnrichQuery(ctx, usecase.EnrichInput{Query: query, LessonID: lessonID, Whiteboard: img})
		}

		if mode == "animation" {
			res, err := s.deps.Animation.Generate(ctx, query, s.callbackURL(r))
			if err != nil {
				s.fail(w, r, err, "Failed to process request.")
				return
			}
			writeJSON(w, http.StatusOK, chatResponse{Actions: []model.DesmosAction{}, Message: res.Message, Animation: res.Animation})
			return
		}

		res, err := s.deps.Graph.Run(ctx, usecase.GraphRequest{Query: query, Expressions: req.CurrentExpressions, Dimension: dim})
		if err != nil {
			s.fail(w, r, err, "Failed to process request.")
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Actions: res.Actions, Message: res.Message})
	}
}
