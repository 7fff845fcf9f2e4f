package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingRemover struct {
	mu      sync.Mutex
	removed []string
	err     error
	done    chan struct{}
}

func (r *recordingRemover) Remove(_ context.Context, url string) error {
	r.mu.Lock()
	r.removed = append(r.removed, url)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return r.err
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for removal %d/%d", i+1, n)
		}
	}
}

func TestCleanupDispatcher_RemovesQueuedURLs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remover := &recordingRemover{done: make(chan struct{}, 8)}
	d := NewCleanupDispatcher(2, remover, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue("https://cdn/b/one.png")
	d.Enqueue("https://cdn/b/two.png")
	d.Enqueue("")
	waitFor(t, remover.done, 2)

	remover.mu.Lock()
	defer remover.mu.Unlock()
	if len(remover.removed) != 2 {
		t.Fatalf("expected 2 removals, got %v", remover.removed)
	}
}

func TestCleanupDispatcher_ErrorsDoNotStopWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remover := &recordingRemover{err: errors.New("denied"), done: make(chan struct{}, 8)}
	d := NewCleanupDispatcher(1, remover, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue("https://cdn/b/a.png")
	d.Enqueue("https://cdn/b/b.png")
	waitFor(t, remover.done, 2)
}

func TestCleanupDispatcher_EnqueueNeverBlocks(t *testing.T) {
	d := NewCleanupDispatcher(1, &recordingRemover{}, zerolog.Nop())

	finished := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue("https://cdn/b/x.png")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked on a full queue")
	}
}

func TestCleanupDispatcher_ShardIndexStable(t *testing.T) {
	d := NewCleanupDispatcher(0, &recordingRemover{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	a := d.shardIndex("https://cdn/b/x.png")
	if a != d.shardIndex("https://cdn/b/x.png") || a < 0 || a >= len(d.workers) {
		t.Fatalf("unstable or out of range shard index %d", a)
	}
}
