package indexer

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-indexer/internal/store"
)

// cursorRecorder records cursor writes and which heights were committed when each write happened
type cursorRecorder struct {
	store.Store

	mu        sync.Mutex
	base      uint64
	committed map[uint64]bool
	gaps      []uint64 // writes that covered an uncommitted height
	writes    []uint64
	failures  int
}

func newCursorRecorder(base uint64) *cursorRecorder {
	return &cursorRecorder{base: base, committed: make(map[uint64]bool)}
}

func (r *cursorRecorder) commit(height uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed[height] = true
}

func (r *cursorRecorder) AdvanceSyncCursor(_ context.Context, block uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failures > 0 {
		r.failures--
		return false, errors.New("connection reset")
	}
	for h := r.base + 1; h <= block; h++ {
		if !r.committed[h] {
			r.gaps = append(r.gaps, block)
			break
		}
	}
	r.writes = append(r.writes, block)
	return true, nil
}

func TestCursorAdvancer_OutOfOrderCommits(t *testing.T) {
	const start, end = 99, 200

	rec := newCursorRecorder(start)
	advancer := newCursorAdvancer(rec, start)
	advancer.Start(context.Background())

	heights := make([]uint64, 0, end-start)
	for h := uint64(start + 1); h <= end; h++ {
		heights = append(heights, h)
	}
	rand.New(rand.NewSource(7)).Shuffle(len(heights), func(i, j int) {
		heights[i], heights[j] = heights[j], heights[i]
	})

	var wg sync.WaitGroup
	for _, h := range heights {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.commit(h)
			advancer.Commit(h)
		}()
	}
	wg.Wait()

	cursor, err := advancer.Close()
	require.NoError(t, err)
	assert.Equal(t, uint64(end), cursor)

	require.NotEmpty(t, rec.writes)
	assert.Equal(t, uint64(end), rec.writes[len(rec.writes)-1])

	prev := uint64(start)
	for _, w := range rec.writes {
		assert.Greater(t, w, prev, "cursor moved backward or repeated")
		prev = w
	}
	assert.Empty(t, rec.gaps)
}

func TestCursorAdvancer_NeverSkipsGaps(t *testing.T) {
	rec := newCursorRecorder(99)
	advancer := newCursorAdvancer(rec, 99)
	advancer.Start(context.Background())

	// 101 never commits
	for _, h := range []uint64{103, 100, 102, 104} {
		advancer.Commit(h)
	}

	cursor, err := advancer.Close()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cursor)
	assert.Equal(t, []uint64{100}, rec.writes)
}

func TestCursorAdvancer_WritesOnlyContiguousPrefix(t *testing.T) {
	rec := newCursorRecorder(0)
	advancer := newCursorAdvancer(rec, 0)
	advancer.Start(context.Background())

	for _, h := range []uint64{3, 1, 5, 2, 4, 7, 6} {
		rec.commit(h)
		advancer.Commit(h)
	}

	cursor, err := advancer.Close()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cursor)

	// 1 alone, then 1..3 once 2 arrives, then 1..5, then 1..7
	assert.Equal(t, []uint64{1, 3, 5, 7}, rec.writes)
	assert.Empty(t, rec.gaps)
}

func TestCursorAdvancer_RetriesFailedWrite(t *testing.T) {
	rec := newCursorRecorder(10)
	rec.failures = 1
	advancer := newCursorAdvancer(rec, 10)
	advancer.Start(context.Background())

	advancer.Commit(11)
	advancer.Commit(12)

	cursor, err := advancer.Close()
	require.NoError(t, err)
	assert.Equal(t, uint64(12), cursor)
	assert.Equal(t, []uint64{12}, rec.writes)
}

func TestCursorAdvancer_ReportsUnresolvedFailure(t *testing.T) {
	rec := newCursorRecorder(10)
	rec.failures = 1
	advancer := newCursorAdvancer(rec, 10)
	advancer.Start(context.Background())

	advancer.Commit(11)

	cursor, err := advancer.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to advance sync cursor to 11")
	assert.Equal(t, uint64(10), cursor)
	assert.Empty(t, rec.writes)
}

func TestCursorAdvancer_IgnoresHeightsAtOrBelowCursor(t *testing.T) {
	rec := newCursorRecorder(50)
	advancer := newCursorAdvancer(rec, 50)
	advancer.Start(context.Background())

	advancer.Commit(49)
	advancer.Commit(50)

	cursor, err := advancer.Close()
	require.NoError(t, err)
	assert.Equal(t, uint64(50), cursor)
	assert.Empty(t, rec.writes)

	// Close is idempotent
	cursor, err = advancer.Close()
	require.NoError(t, err)
	assert.Equal(t, uint64(50), cursor)
}
