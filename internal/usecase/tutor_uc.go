// File: internal/usecase/tutor_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/rag"
)

// SessionTopK is how many lecture chunks ground a session question.
const SessionTopK = 6

// Compile-time check
var _ TutorUseCase = (*tutorUC)(nil)

// Image is a decoded whiteboard snapshot.
type Image struct {
	Data     []byte
	MimeType string
}

type AskInput struct {
	LessonID        string
	VoiceTranscript string
	TypedText       string
	Whiteboard      *Image
}

type EnrichInput struct {
	Query      string
	LessonID   string
	Whiteboard *Image
}

// TutorUseCase grounds student questions in the whiteboard and the lesson's
// uploaded material.
type TutorUseCase interface {
	AskSession(ctx context.Context, in AskInput) (string, error)
	EnrichQuery(ctx context.Context, in EnrichInput) string
}

type tutorUC struct {
	vision adapter.VisionExtractor
	writer adapter.PromptWriter
	ingest IngestUseCase
	topK   int
	log    *zerolog.Logger
}

// NewTutorUseCase accepts nil vision or ingest; the matching enrichment is
// then skipped.
func NewTutorUseCase(vision adapter.VisionExtractor, writer adapter.PromptWriter, ingest IngestUseCase, topK int, logger *zerolog.Logger) TutorUseCase {
	if topK <= 0 {
		topK = SessionTopK
	}
	return &tutorUC{vision: vision, writer: writer, ingest: ingest, topK: topK, log: logger}
}

// MergeQuestion joins a spoken question with a typed add-on.
func MergeQuestion(voice, typed string) string {
	voice, typed = strings.TrimSpace(voice), strings.TrimSpace(typed)
	switch {
	case voice != "" && typed != "":
		return voice + "\n(typed add-on: " + typed + ")"
	case voice != "":
		return voice
	default:
		return typed
	}
}

func (uc *tutorUC) AskSession(ctx context.Context, in AskInput) (string, error) {
	lessonID := in.LessonID
	if lessonID == "" {
		lessonID = DefaultLessonID
	}
	ctx = logging.WithLessonID(ctx, lessonID)
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "TutorUC.AskSession")()

	question := MergeQuestion(in.VoiceTranscript, in.TypedText)
	if question == "" {
		return "", fmt.Errorf("%w: No question provided", domain.ErrInvalidArgument)
	}
	if uc.writer == nil {
		return "", fmt.Errorf("%w: prompt model", domain.ErrNotConfigured)
	}

	whiteboard := uc.readWhiteboard(ctx, in.Whiteboard)
	lecture := uc.lectureContext(ctx, lessonID, question+"\n\nWhiteboard:\n"+whiteboard)

	out, err := uc.writer.Complete(ctx, sessionPromptSystem, sessionPromptUser(question, whiteboard, lecture))
	if err != nil {
		log.Error().Err(err).Msg("session prompt failed")
		return "", fmt.Errorf("%w: prompt model: %w", domain.ErrUpstream, err)
	}
	return strings.TrimSpace(out), nil
}

// EnrichQuery folds whiteboard text and lesson context into a chat query.
// Either source failing leaves the query as it was.
func (uc *tutorUC) EnrichQuery(ctx context.Context, in EnrichInput) string {
	query := strings.TrimSpace(in.Query)
	whiteboard := uc.readWhiteboard(ctx, in.Whiteboard)

	var lecture string
	if in.LessonID != "" {
		lecture = uc.lectureContext(logging.WithLessonID(ctx, in.LessonID), in.LessonID, query)
		if lecture == rag.NoContextPlaceholder {
			lecture = ""
		}
	}

	var b strings.Builder
	b.WriteString(query)
	if whiteboard != "" {
		b.WriteString("\n\nWhiteboard:\n")
		b.WriteString(whiteboard)
	}
	if lecture != "" {
		b.WriteString("\n\nLecture context:\n")
		b.WriteString(lecture)
	}
	return b.String()
}

func (uc *tutorUC) readWhiteboard(ctx context.Context, img *Image) string {
	if img == nil || len(img.Data) == 0 || uc.vision == nil {
		return ""
	}
	text, err := uc.vision.ExtractWhiteboard(ctx, img.Data, img.MimeType)
	if err != nil {
		logging.With(ctx, uc.log).Warn().Err(err).Msg("whiteboard extraction failed")
		return ""
	}
	return strings.TrimSpace(text)
}

func (uc *tutorUC) lectureContext(ctx context.Context, lessonID, query string) string {
	if uc.ingest == nil {
		return rag.NoContextPlaceholder
	}
	chunks, err := uc.ingest.Retrieve(ctx, lessonID, query, uc.topK)
	if err != nil {
		logging.With(ctx, uc.log).Warn().Err(err).Msg("lecture retrieval failed")
		return rag.NoContextPlaceholder
	}
	return rag.CompactContext(chunks, rag.DefaultContextChars)
}
