package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(animationJobTransitions, renderEnqueueFailures, callbackRejections) }

var (
	animationJobTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animation_job_transitions_total",
			Help: "Animation job status changes, labeled by the new status.",
		},
		[]string{"status"}, // 'queued', 'rendering', 'completed', 'failed'
	)

	renderEnqueueFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "render_enqueue_failures_total",
			Help: "Render jobs the worker refused or could not be reached for.",
		},
	)

	callbackRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_callback_rejections_total",
			Help: "Render callbacks rejected, labeled by reason.",
		},
		[]string{"reason"}, // 'unauthorized', 'invalid', 'not_found', 'conflict', 'upload'
	)
)

func IncJobTransition(status string) {
	animationJobTransitions.WithLabelValues(norm(status)).Inc()
}

func IncEnqueueFailure() { renderEnqueueFailures.Inc() }

func IncCallbackRejected(reason string) {
	callbackRejections.WithLabelValues(norm(reason)).Inc()
}
