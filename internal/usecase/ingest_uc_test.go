//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/infra/memstore"
)

func newIngest(emb *hashEmbedder, tr *fakeTranscriber, opts IngestOptions) (IngestUseCase, *memstore.RAGChunkRepo) {
	repo := memstore.NewRAGChunkRepo()
	return NewIngestUseCase(repo, emb, tr, textExtractor{}, nil, opts, nopLogger()), repo
}

func TestIngest_RejectsBeforeWork(t *testing.T) {
	emb := &hashEmbedder{}
	uc, _ := newIngest(emb, nil, IngestOptions{MaxFileBytes: 10})

	_, err := uc.Ingest(context.Background(), "l1", nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, domain.ErrInvalidArgument) || verr.Message != "No files uploaded" {
		t.Fatalf("zero files: %v", err)
	}

	files := []UploadFile{
		{Name: "ok.txt", MimeType: "text/plain", Data: []byte("fine")},
		{Name: "big.txt", MimeType: "text/plain", Data: []byte(strings.Repeat("x", 11))},
		{Name: "empty.md", Data: nil},
		{Name: "slides.pptx", MimeType: "application/vnd.ms-powerpoint", Data: []byte("pk")},
	}
	_, err = uc.Ingest(context.Background(), "l1", files)
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Files) != 3 {
		t.Fatalf("expected 3 offending files, got %+v", verr.Files)
	}
	names := []string{verr.Files[0].FileName, verr.Files[1].FileName, verr.Files[2].FileName}
	if names[0] != "big.txt" || names[1] != "empty.md" || names[2] != "slides.pptx" {
		t.Fatalf("unexpected offending files %v", names)
	}
	if !strings.Contains(verr.Files[0].Error, domain.ErrFileTooLarge.Error()) {
		t.Fatalf("unexpected size error %q", verr.Files[0].Error)
	}
	if len(emb.batches) != 0 {
		t.Fatalf("nothing should be embedded when validation fails")
	}
}

func TestIngest_IndexesFilesInOrder(t *testing.T) {
	emb := &hashEmbedder{}
	tr := &fakeTranscriber{text: "today we derive the quadratic formula"}
	uc, repo := newIngest(emb, tr, IngestOptions{Concurrency: 3})

	long := strings.Repeat("a", 2000)
	files := []UploadFile{
		{Name: "notes.md", Data: []byte("# Limits\nA limit describes approach.")},
		{Name: "lecture.mp3", MimeType: "audio/mpeg", Data: []byte{1, 2, 3}},
		{Name: "broken.txt", Data: []byte("FAIL")},
		{Name: "chapter.txt", Data: []byte(long)},
	}
	res, err := uc.Ingest(context.Background(), "calc-1", files)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res) != 4 {
		t.Fatalf("expected 4 results, got %d", len(res))
	}
	want := []model.IngestResult{
		{FileName: "notes.md", Kind: kindDocument, SourceType: model.SourceNotesOrTextbook, Chunks: 1},
		{FileName: "lecture.mp3", Kind: kindAudioVideo, SourceType: model.SourceLectureTranscript, Chunks: 1},
		{FileName: "broken.txt", Kind: kindDocument, SourceType: model.SourceNotesOrTextbook, Error: "extract: cannot read broken.txt"},
		{FileName: "chapter.txt", Kind: kindDocument, SourceType: model.SourceNotesOrTextbook, Chunks: 2},
	}
	for i := range want {
		if res[i] != want[i] {
			t.Fatalf("result %d = %+v, want %+v", i, res[i], want[i])
		}
	}

	got, _ := repo.Match(context.Background(), "calc-1", []float32{1, 1}, 10)
	if len(got) != 4 {
		t.Fatalf("expected 4 stored chunks, got %d", len(got))
	}
}

func TestIngest_TranscriberMissing(t *testing.T) {
	uc, _ := newIngest(&hashEmbedder{}, nil, IngestOptions{})
	res, err := uc.Ingest(context.Background(), "l", []UploadFile{{Name: "talk.wav", Data: []byte{1}}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.Contains(res[0].Error, domain.ErrNotConfigured.Error()) {
		t.Fatalf("expected not-configured error, got %+v", res[0])
	}
}

func TestIngest_EmbedBatchesRespectBudget(t *testing.T) {
	emb := &hashEmbedder{}
	// 1200-char chunks estimate at 300 tokens; a 400 budget forces one per batch
	uc, _ := newIngest(emb, nil, IngestOptions{EmbedBatchTokens: 400})
	text := strings.Repeat("b", 3000)
	res, err := uc.Ingest(context.Background(), "l", []UploadFile{{Name: "t.txt", Data: []byte(text)}})
	if err != nil || res[0].Error != "" {
		t.Fatalf("Ingest: %v %+v", err, res)
	}
	if res[0].Chunks != 3 || len(emb.batches) != 3 {
		t.Fatalf("expected 3 chunks in 3 batches, got %d chunks %d batches", res[0].Chunks, len(emb.batches))
	}
}

func TestIngest_NotConfigured(t *testing.T) {
	uc := NewIngestUseCase(nil, nil, nil, textExtractor{}, nil, IngestOptions{}, nopLogger())
	if _, err := uc.Ingest(context.Background(), "l", []UploadFile{{Name: "a.txt", Data: []byte("x")}}); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := uc.Retrieve(context.Background(), "l", "q", 3); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestIngest_ValidatesWhenStoreDisabled(t *testing.T) {
	uc := NewIngestUseCase(nil, nil, nil, textExtractor{}, nil, IngestOptions{MaxFileBytes: 4}, nopLogger())

	_, err := uc.Ingest(context.Background(), DefaultLessonID, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != "No files uploaded" {
		t.Fatalf("zero files: expected ValidationError, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("zero files must map to invalid argument, got %v", err)
	}

	_, err = uc.Ingest(context.Background(), DefaultLessonID, []UploadFile{
		{Name: "empty.txt"},
		{Name: "big.txt", Data: []byte("too large")},
	})
	if !errors.As(err, &verr) || len(verr.Files) != 2 || verr.Files[0].FileName != "empty.txt" || verr.Files[1].FileName != "big.txt" {
		t.Fatalf("bad files: expected itemized ValidationError, got %v", err)
	}
}

func TestIsAudioVideo(t *testing.T) {
	cases := []struct {
		name, mime string
		want       bool
	}{
		{"a.MP3", "", true},
		{"clip", "video/webm", true},
		{"x.mov", "application/octet-stream", true},
		{"notes.pdf", "application/pdf", false},
		{"notes.txt", "text/plain", false},
	}
	for _, tc := range cases {
		if got := isAudioVideo(tc.name, tc.mime); got != tc.want {
			t.Errorf("isAudioVideo(%q, %q) = %v", tc.name, tc.mime, got)
		}
	}
}
