package model

// Source types recorded on every stored chunk.
const (
	SourceLectureTranscript = "lecture_transcript"
	SourceNotesOrTextbook   = "notes_or_textbook"
)

// RAGChunk is one embedded slice of an uploaded lecture or document.
type RAGChunk struct {
	ID          string    `json:"id"`
	LessonID    string    `json:"lesson_id"`
	SourceType  string    `json:"source_type"`
	SourceName  string    `json:"source_name"`
	Page        *int      `json:"page"`
	ChunkIndex  int       `json:"chunk_index"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
}

// RetrievedChunk is a chunk returned by similarity search.
type RetrievedChunk struct {
	SourceName string  `json:"source_name"`
	SourceType string  `json:"source_type"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	ChunkIndex *int    `json:"chunk_index"`
	Page       *int    `json:"page"`
}

// IngestResult reports what happened to one uploaded file.
type IngestResult struct {
	FileName   string `json:"fileName"`
	Kind       string `json:"kind,omitempty"` // audio_video | document
	SourceType string `json:"sourceType,omitempty"`
	Chunks     int    `json:"chunksIndexed"`
	Error      string `json:"error,omitempty"`
}
