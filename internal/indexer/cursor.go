package indexer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/metrics"
	"github.com/feral-file/ff-chain-indexer/internal/store"
)

// cursorAdvancer is the only writer of the sync cursor during forward ingestion.
// Workers report committed heights in any order; the cursor moves only to the
// highest height below which every height is committed.
type cursorAdvancer struct {
	store store.Store

	commits chan uint64
	done    chan struct{}

	// owned by the run goroutine until done is closed
	cursor  uint64
	pending map[uint64]struct{}
	err     error

	closeOnce sync.Once
}

func newCursorAdvancer(store store.Store, cursor uint64) *cursorAdvancer {
	return &cursorAdvancer{
		store:   store,
		commits: make(chan uint64),
		done:    make(chan struct{}),
		cursor:  cursor,
		pending: make(map[uint64]struct{}),
	}
}

// Start runs the writer goroutine. Cursor writes outlive ctx cancellation so that
// blocks committed during shutdown are still reflected in the cursor.
func (a *cursorAdvancer) Start(ctx context.Context) {
	go a.run(context.WithoutCancel(ctx))
}

func (a *cursorAdvancer) run(ctx context.Context) {
	defer close(a.done)

	for height := range a.commits {
		if height <= a.cursor {
			continue
		}
		a.pending[height] = struct{}{}

		next := a.cursor
		for {
			if _, ok := a.pending[next+1]; !ok {
				break
			}
			delete(a.pending, next+1)
			next++
		}
		if next == a.cursor {
			continue
		}

		if _, err := a.store.AdvanceSyncCursor(ctx, next); err != nil {
			// keep the heights so the next commit retries the write
			for h := a.cursor + 1; h <= next; h++ {
				a.pending[h] = struct{}{}
			}
			if a.err == nil {
				a.err = fmt.Errorf("failed to advance sync cursor to %d: %w", next, err)
			}
			logger.WarnCtx(ctx, "Failed to advance sync cursor", zap.Uint64("block", next), zap.Error(err))
			continue
		}

		a.cursor = next
		a.err = nil
		metrics.IndexedHeight.Set(float64(next))
	}
}

// Commit reports a committed height. It must not be called after Close.
func (a *cursorAdvancer) Commit(height uint64) {
	a.commits <- height
}

// Close stops the writer after all reported heights are handled and returns the final cursor.
// The error is the last unresolved cursor write failure, if any.
func (a *cursorAdvancer) Close() (uint64, error) {
	a.closeOnce.Do(func() { close(a.commits) })
	<-a.done
	return a.cursor, a.err
}
