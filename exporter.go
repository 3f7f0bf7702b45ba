package taskstore

import (
	"context"
	"sync"
	"time"
)

// exporter reconciles the cache with the logs after a quiet period. Each
// write resets the timer; once debounce elapses with no further writes, a
// staleness probe runs and a Sync follows if anything changed on disk. This
// keeps a store that shares its directory with other processes fresh without
// syncing on every append.
type exporter struct {
	store    *Store
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	once sync.Once
}

func newExporter(s *Store, debounceMS int) *exporter {
	return &exporter{
		store:    s,
		debounce: time.Duration(debounceMS) * time.Millisecond,
		done:     make(chan struct{}),
	}
}

// notify marks the store dirty and (re)starts the debounce timer.
func (e *exporter) notify() {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.done:
		return
	default:
	}

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.fire)
}

func (e *exporter) fire() {
	select {
	case <-e.done:
		return
	default:
	}
	e.run(context.Background())
}

func (e *exporter) run(ctx context.Context) error {
	stale, err := e.store.IsStale(ctx)
	if err != nil {
		e.store.logger.Warn("exporter staleness probe failed", "error", err)
		return err
	}
	if !stale {
		return nil
	}
	if err := e.store.Sync(ctx); err != nil {
		e.store.logger.Warn("exporter sync failed", "error", err)
		return err
	}
	return nil
}

// flush cancels any pending timer and reconciles immediately.
func (e *exporter) flush(ctx context.Context) error {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
	return e.run(ctx)
}

// stop cancels any pending work. Idempotent.
func (e *exporter) stop() {
	e.once.Do(func() {
		close(e.done)
		e.mu.Lock()
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.mu.Unlock()
	})
}
