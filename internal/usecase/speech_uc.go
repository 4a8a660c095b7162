package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/ports/adapter"
)

// MaxSpeechChars is the longest text accepted for synthesis.
const MaxSpeechChars = 4096

// Compile-time check
var _ SpeechUseCase = (*speechUC)(nil)

type SpeechUseCase interface {
	Speak(ctx context.Context, text string) (audio []byte, contentType string, err error)
}

type speechUC struct {
	tts adapter.SpeechSynthesizer
	log *zerolog.Logger
}

func NewSpeechUseCase(tts adapter.SpeechSynthesizer, logger *zerolog.Logger) SpeechUseCase {
	return &speechUC{tts: tts, log: logger}
}

func (uc *speechUC) Speak(ctx context.Context, text string) ([]byte, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", fmt.Errorf("%w: Missing text.", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(text) > MaxSpeechChars {
		return nil, "", fmt.Errorf("%w: text longer than %d characters", domain.ErrInvalidArgument, MaxSpeechChars)
	}
	if uc.tts == nil {
		return nil, "", fmt.Errorf("%w: speech synthesis", domain.ErrNotConfigured)
	}
	audio, ct, err := uc.tts.Synthesize(ctx, text)
	if err != nil {
		uc.log.Error().Err(err).Int("chars", len(text)).Msg("speech synthesis failed")
		return nil, "", fmt.Errorf("%w: speech: %w", domain.ErrUpstream, err)
	}
	if ct == "" {
		ct = "audio/mpeg"
	}
	return audio, ct, nil
}
