package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(ingestedFiles, ingestedChunks) }

var (
	ingestedFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_files_total",
			Help: "Uploaded files processed, by source type and outcome.",
		},
		[]string{"source_type", "result"}, // result: 'ok', 'error'
	)

	ingestedChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_chunks_total",
			Help: "RAG chunks stored, by source type.",
		},
		[]string{"source_type"},
	)
)

func IncIngestedFile(sourceType string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	if sourceType == "" {
		sourceType = "unknown"
	}
	ingestedFiles.WithLabelValues(norm(sourceType), result).Inc()
}

func AddIngestedChunks(sourceType string, n int) {
	ingestedChunks.WithLabelValues(norm(sourceType)).Add(float64(n))
}
