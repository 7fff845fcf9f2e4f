// Package metrics defines and registers all custom Prometheus metrics for the
// recipe API. Metrics are registered with the default registry on package
// initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric exported by the service, including the
// HTTP metrics recorded by the echo middleware.
const Namespace = "recipes"

// ── Recipe metrics ────────────────────────────────────────────────────────────

// RecipeOperationsTotal counts recipe mutations.
// Labels:
//   - operation: "create", "update" or "delete"
//   - result: "ok", "not_found", "invalid", "upload_error" or "error"
var RecipeOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "operations_total",
		Help:      "Total number of recipe mutations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Image metrics ─────────────────────────────────────────────────────────────

// ImageUploadsTotal counts image upload attempts.
// Label:
//   - result: "ok", "rejected" (size or type) or "error" (object store failure)
var ImageUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "image_uploads_total",
		Help:      "Total number of image uploads, by result.",
	},
	[]string{"result"},
)

// ImageUploadDuration measures the object store write, compression excluded.
var ImageUploadDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "image_upload_duration_seconds",
		Help:      "Duration of object store writes for recipe images.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ImageCleanupTotal counts asynchronous object removals.
// Label:
//   - result: "ok", "error" or "dropped" (queue full)
var ImageCleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "image_cleanup_total",
		Help:      "Total number of orphaned image removals, by result.",
	},
	[]string{"result"},
)

// CleanupQueueDepth tracks the number of removals waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "cleanup_queue_depth",
		Help:      "Current number of image removals pending in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts authentication attempts.
// Labels:
//   - method: "register", "local" or "google"
//   - result: "ok" or "failed"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by method and result.",
	},
	[]string{"method", "result"},
)
