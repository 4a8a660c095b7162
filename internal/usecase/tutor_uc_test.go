//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
)

func TestMergeQuestion(t *testing.T) {
	cases := []struct{ voice, typed, want string }{
		{"what is a derivative", "of x^2", "what is a derivative\n(typed add-on: of x^2)"},
		{"  spoken ", "", "spoken"},
		{"", " typed ", "typed"},
		{" ", "\t", ""},
	}
	for _, tc := range cases {
		if got := MergeQuestion(tc.voice, tc.typed); got != tc.want {
			t.Errorf("MergeQuestion(%q, %q) = %q, want %q", tc.voice, tc.typed, got, tc.want)
		}
	}
}

func TestAskSession_BuildsGroundedPrompt(t *testing.T) {
	page := 3
	vision := &fakeVision{text: "x^2 + 2x + 1 = 0"}
	writer := &fakeWriter{out: "  STUDENT QUESTION: ...  "}
	ret := &fakeRetriever{chunks: []model.RetrievedChunk{{SourceName: "week1.pdf", Content: "Factor the quadratic.", Page: &page}}}
	uc := NewTutorUseCase(vision, writer, ret, 0, nopLogger())

	out, err := uc.AskSession(context.Background(), AskInput{
		VoiceTranscript: "how do I solve this",
		Whiteboard:      &Image{Data: []byte{0x89}, MimeType: "image/png"},
	})
	if err != nil {
		t.Fatalf("AskSession: %v", err)
	}
	if out != "STUDENT QUESTION: ..." {
		t.Fatalf("unexpected prompt %q", out)
	}
	if ret.lesson != DefaultLessonID {
		t.Fatalf("lesson should default, got %q", ret.lesson)
	}
	if ret.query != "how do I solve this\n\nWhiteboard:\nx^2 + 2x + 1 = 0" {
		t.Fatalf("unexpected retrieval query %q", ret.query)
	}
	if writer.system != sessionPromptSystem {
		t.Fatalf("wrong system prompt")
	}
	for _, part := range []string{"Student question:\nhow do I solve this", "Whiteboard extract:\nx^2 + 2x + 1 = 0", "week1.pdf (page 3)"} {
		if !strings.Contains(writer.user, part) {
			t.Fatalf("user prompt missing %q:\n%s", part, writer.user)
		}
	}
	if vision.mime != "image/png" {
		t.Fatalf("mime not forwarded: %q", vision.mime)
	}
}

func TestAskSession_DegradesAndValidates(t *testing.T) {
	writer := &fakeWriter{out: "plan"}
	uc := NewTutorUseCase(&fakeVision{err: errBoom}, writer, &fakeRetriever{err: errBoom}, 0, nopLogger())

	if _, err := uc.AskSession(context.Background(), AskInput{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty question: %v", err)
	}

	out, err := uc.AskSession(context.Background(), AskInput{TypedText: "limits?", Whiteboard: &Image{Data: []byte{1}}})
	if err != nil || out != "plan" {
		t.Fatalf("AskSession: %q %v", out, err)
	}
	if !strings.Contains(writer.user, "Whiteboard extract:\nNONE") || !strings.Contains(writer.user, "Retrieved lecture context:\nNONE") {
		t.Fatalf("failures should degrade to NONE:\n%s", writer.user)
	}

	writer.err = errBoom
	if _, err := uc.AskSession(context.Background(), AskInput{TypedText: "q"}); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("writer failure: %v", err)
	}
}

func TestEnrichQuery(t *testing.T) {
	ret := &fakeRetriever{chunks: []model.RetrievedChunk{{SourceName: "notes.md", Content: "Circles have constant radius."}}}
	uc := NewTutorUseCase(&fakeVision{text: "circle sketch"}, nil, ret, 0, nopLogger())

	got := uc.EnrichQuery(context.Background(), EnrichInput{Query: " plot a circle ", LessonID: "geo", Whiteboard: &Image{Data: []byte{1}}})
	if !strings.HasPrefix(got, "plot a circle\n\nWhiteboard:\ncircle sketch\n\nLecture context:\n[1] notes.md") {
		t.Fatalf("unexpected enriched query %q", got)
	}

	plain := uc.EnrichQuery(context.Background(), EnrichInput{Query: "plot a circle"})
	if plain != "plot a circle" {
		t.Fatalf("no enrichment expected, got %q", plain)
	}

	ret.chunks, ret.err = nil, nil
	empty := uc.EnrichQuery(context.Background(), EnrichInput{Query: "q", LessonID: "geo"})
	if empty != "q" {
		t.Fatalf("empty retrieval should not add a section, got %q", empty)
	}
}
