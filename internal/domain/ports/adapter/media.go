package adapter

import "context"

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type SpeechSynthesizer interface {
	// Synthesize returns encoded audio and its content type.
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}

// VisionExtractor reads a whiteboard image (raw bytes) and returns its content as text.
type VisionExtractor interface {
	ExtractWhiteboard(ctx context.Context, image []byte, mimeType string) (string, error)
}

// PromptWriter completes a single-shot instruction with no tools.
type PromptWriter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// DocumentExtractor pulls plain text out of an uploaded document.
type DocumentExtractor interface {
	Supports(fileName, mimeType string) bool
	Extract(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}
