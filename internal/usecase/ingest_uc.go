// File: internal/usecase/ingest_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/domain/ports/repository"
	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/infra/metrics"
	"lovelace-tutor/internal/infra/worker"
	"lovelace-tutor/internal/rag"
)

const (
	kindAudioVideo = "audio_video"
	kindDocument   = "document"
)

// DefaultLessonID is used when an upload or question names no lesson.
const DefaultLessonID = "default"

var audioVideoExt = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".mp4": true, ".mov": true, ".webm": true,
}

// Compile-time check
var _ IngestUseCase = (*ingestUC)(nil)

type UploadFile struct {
	Name     string
	MimeType string
	Data     []byte
}

type FileError struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
}

// ValidationError rejects a whole upload before any file is processed.
type ValidationError struct {
	Message string
	Files   []FileError
}

func (e *ValidationError) Error() string {
	if len(e.Files) == 0 {
		return e.Message
	}
	names := make([]string, len(e.Files))
	for i, f := range e.Files {
		names[i] = f.FileName
	}
	return e.Message + ": " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidArgument }

type IngestOptions struct {
	MaxFileBytes     int64
	Concurrency      int
	EmbedBatchTokens int
}

type IngestUseCase interface {
	Ingest(ctx context.Context, lessonID string, files []UploadFile) ([]model.IngestResult, error)
	Retrieve(ctx context.Context, lessonID, query string, k int) ([]model.RetrievedChunk, error)
}

type ingestUC struct {
	chunks      repository.RAGChunkRepository
	embedder    adapter.Embedder
	transcriber adapter.Transcriber
	extractor   adapter.DocumentExtractor
	tokens      rag.TokenCounter
	opts        IngestOptions
	log         *zerolog.Logger
}

func NewIngestUseCase(
	chunks repository.RAGChunkRepository,
	embedder adapter.Embedder,
	transcriber adapter.Transcriber,
	extractor adapter.DocumentExtractor,
	tokens rag.TokenCounter,
	opts IngestOptions,
	logger *zerolog.Logger,
) IngestUseCase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 25 << 20
	}
	if tokens == nil {
		tokens = rag.EstimateCounter
	}
	return &ingestUC{
		chunks:      chunks,
		embedder:    embedder,
		transcriber: transcriber,
		extractor:   extractor,
		tokens:      tokens,
		opts:        opts,
		log:         logger,
	}
}

func isAudioVideo(name, mime string) bool {
	mime = strings.ToLower(mime)
	if strings.HasPrefix(mime, "audio/") || strings.HasPrefix(mime, "video/") {
		return true
	}
	return audioVideoExt[strings.ToLower(filepath.Ext(name))]
}

func (uc *ingestUC) validate(files []UploadFile) error {
	if len(files) == 0 {
		return &ValidationError{Message: "No files uploaded"}
	}
	var bad []FileError
	for _, f := range files {
		var err error
		switch {
		case len(f.Data) == 0:
			err = domain.ErrEmptyFile
		case int64(len(f.Data)) > uc.opts.MaxFileBytes:
			err = fmt.Errorf("%w (%d MiB)", domain.ErrFileTooLarge, uc.opts.MaxFileBytes>>20)
		case !isAudioVideo(f.Name, f.MimeType) && (uc.extractor == nil || !uc.extractor.Supports(f.Name, f.MimeType)):
			err = domain.ErrUnsupportedFile
		}
		if err != nil {
			bad = append(bad, FileError{FileName: f.Name, Error: err.Error()})
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Message: "Invalid files", Files: bad}
	}
	return nil
}

// Ingest validates every file up front, then indexes them with a fixed pool
// of workers. Results are in input order; a file that fails to index reports
// its error in its own result.
func (uc *ingestUC) Ingest(ctx context.Context, lessonID string, files []UploadFile) ([]model.IngestResult, error) {
	ctx = logging.WithLessonID(ctx, lessonID)
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "IngestUC.Ingest")()

	if err := uc.validate(files); err != nil {
		return nil, err
	}
	if uc.chunks == nil || uc.embedder == nil {
		return nil, fmt.Errorf("%w: lecture retrieval store", domain.ErrNotConfigured)
	}

	results := make([]model.IngestResult, len(files))
	err := worker.RunIndexed(ctx, len(files), uc.opts.Concurrency, func(ctx context.Context, i int) error {
		f := files[i]
		res := model.IngestResult{FileName: f.Name, Kind: kindDocument, SourceType: model.SourceNotesOrTextbook}
		if isAudioVideo(f.Name, f.MimeType) {
			res.Kind, res.SourceType = kindAudioVideo, model.SourceLectureTranscript
		}
		n, err := uc.ingestFile(ctx, lessonID, f, res.SourceType)
		res.Chunks = n
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("file", f.Name).Msg("file ingestion failed")
			res.Error = err.Error()
		}
		metrics.IncIngestedFile(res.SourceType, err == nil)
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (uc *ingestUC) ingestFile(ctx context.Context, lessonID string, f UploadFile, sourceType string) (int, error) {
	text, err := uc.readText(ctx, f, sourceType)
	if err != nil {
		return 0, err
	}
	pieces := rag.ChunkText(text, rag.DefaultChunkChars, rag.DefaultChunkOverlap)
	if len(pieces) == 0 {
		return 0, domain.ErrNoExtractedText
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}
	vectors, err := uc.embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	rows := make([]*model.RAGChunk, len(pieces))
	for i, p := range pieces {
		rows[i] = &model.RAGChunk{
			LessonID:    lessonID,
			SourceType:  sourceType,
			SourceName:  f.Name,
			ChunkIndex:  p.ChunkIndex,
			Content:     p.Content,
			ContentHash: rag.HashText(p.Content),
			Embedding:   vectors[i],
		}
	}
	if err := uc.chunks.Insert(ctx, rows); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	metrics.AddIngestedChunks(sourceType, len(rows))
	return len(rows), nil
}

func (uc *ingestUC) readText(ctx context.Context, f UploadFile, sourceType string) (string, error) {
	if sourceType == model.SourceLectureTranscript {
		if uc.transcriber == nil {
			return "", fmt.Errorf("%w: transcription", domain.ErrNotConfigured)
		}
		text, err := uc.transcriber.Transcribe(ctx, f.Name, f.MimeType, f.Data)
		if err != nil {
			return "", fmt.Errorf("transcribe: %w", err)
		}
		return text, nil
	}
	text, err := uc.extractor.Extract(ctx, f.Name, f.MimeType, f.Data)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	return text, nil
}

// embed sends texts in batches that fit the embedding token budget.
func (uc *ingestUC) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for _, batch := range rag.BatchByTokens(texts, uc.opts.EmbedBatchTokens, uc.tokens) {
		in := make([]string, len(batch))
		for j, idx := range batch {
			in[j] = texts[idx]
		}
		vecs, err := uc.embedder.Embed(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(in) {
			return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vecs), len(in))
		}
		for j, idx := range batch {
			out[idx] = vecs[j]
		}
	}
	return out, nil
}

func (uc *ingestUC) Retrieve(ctx context.Context, lessonID, query string, k int) ([]model.RetrievedChunk, error) {
	if uc.chunks == nil || uc.embedder == nil {
		return nil, fmt.Errorf("%w: lecture retrieval store", domain.ErrNotConfigured)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 6
	}
	vecs, err := uc.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, errors.New("embed query: no vector returned")
	}
	return uc.chunks.Match(ctx, lessonID, vecs[0], k)
}
