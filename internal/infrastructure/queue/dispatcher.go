package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/recipehub/recipe-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	removeTimeout  = 30 * time.Second
)

// Remover deletes a stored object by its public URL.
type Remover interface {
	Remove(ctx context.Context, url string) error
}

// CleanupDispatcher removes orphaned images in the background. URLs are
// sharded across a fixed set of workers by hash, so repeated requests for the
// same object are handled in order by one worker.
type CleanupDispatcher struct {
	workers []chan string
	remover Remover
	log     zerolog.Logger
}

// NewCleanupDispatcher creates a CleanupDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewCleanupDispatcher(numWorkers int, remover Remover, log zerolog.Logger) *CleanupDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &CleanupDispatcher{
		workers: make([]chan string, numWorkers),
		remover: remover,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *CleanupDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules url for removal. It never blocks: when the worker's
// buffer is full the URL is dropped and logged.
func (d *CleanupDispatcher) Enqueue(url string) {
	if url == "" {
		return
	}
	idx := d.shardIndex(url)
	select {
	case d.workers[idx] <- url:
		metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.ImageCleanupTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("url", url).Int("worker_id", idx).Msg("cleanup queue full, image left in bucket")
	}
}

// shardIndex maps a URL deterministically to a worker index.
func (d *CleanupDispatcher) shardIndex(url string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *CleanupDispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	depth := metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case url, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.remove(ctx, id, url)
		}
	}
}

func (d *CleanupDispatcher) remove(ctx context.Context, id int, url string) {
	ctx, cancel := context.WithTimeout(ctx, removeTimeout)
	defer cancel()

	if err := d.remover.Remove(ctx, url); err != nil {
		metrics.ImageCleanupTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).Str("url", url).Int("worker_id", id).Msg("image cleanup failed")
		return
	}
	metrics.ImageCleanupTotal.WithLabelValues("ok").Inc()
}
