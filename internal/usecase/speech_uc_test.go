//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lovelace-tutor/internal/domain"
)

func TestSpeak(t *testing.T) {
	ctx := context.Background()
	uc := NewSpeechUseCase(&fakeSynth{audio: []byte("ID3")}, nopLogger())

	audio, ct, err := uc.Speak(ctx, " hello ")
	if err != nil || string(audio) != "ID3" || ct != "audio/mpeg" {
		t.Fatalf("Speak: %q %q %v", audio, ct, err)
	}
	if _, _, err := uc.Speak(ctx, "  "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("blank text: %v", err)
	}
	if _, _, err := uc.Speak(ctx, strings.Repeat("a", MaxSpeechChars+1)); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("long text: %v", err)
	}

	failing := NewSpeechUseCase(&fakeSynth{err: errBoom}, nopLogger())
	if _, _, err := failing.Speak(ctx, "hi"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("upstream: %v", err)
	}

	none := NewSpeechUseCase(nil, nopLogger())
	if _, _, err := none.Speak(ctx, "hi"); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("unconfigured: %v", err)
	}
}
