package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/usecase"
)

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 32 << 20

type uploadResponse struct {
	Success  bool                 `json:"success"`
	LessonID string               `json:"lessonId"`
	Results  []model.IngestResult `json:"results"`
}

type uploadErrorResponse struct {
	Error string               `json:"error"`
	Files []usecase.FileError `json:"files,omitempty"`
}

func uploadHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Room for a handful of maximum-size files plus form overhead.
		r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes*8+1<<20)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		lessonID := firstNonEmpty(r.FormValue("lessonId"), r.FormValue("courseId"), usecase.DefaultLessonID)
		ctx := logging.WithLessonID(r.Context(), lessonID)

		headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["files[]"]...)
		files := make([]usecase.UploadFile, 0, len(headers))
		for _, fh := range headers {
			f, err := readPart(fh, s.deps.MaxUploadBytes)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid multipart form")
				return
			}
			files = append(files, f)
		}

		results, err := s.deps.Ingest.Ingest(ctx, lessonID, files)
		var verr *usecase.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, uploadErrorResponse{Error: verr.Message, Files: verr.Files})
			return
		}
		if err != nil {
			s.fail(w, r.WithContext(ctx), err, "Failed to process upload.")
			return
		}
		writeJSON(w, http.StatusOK, uploadResponse{Success: true, LessonID: lessonID, Results: results})
	}
}

// readPart loads one uploaded file. Reading stops one byte past limit so the
// size check in ingestion still sees an oversized file as oversized.
func readPart(fh *multipart.FileHeader, limit int64) (usecase.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return usecase.UploadFile{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return usecase.UploadFile{}, err
	}
	return usecase.UploadFile{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
