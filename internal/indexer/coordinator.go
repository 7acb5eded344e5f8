package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/adapter"
	"github.com/feral-file/ff-chain-indexer/internal/block"
	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/messaging"
	"github.com/feral-file/ff-chain-indexer/internal/metrics"
	"github.com/feral-file/ff-chain-indexer/internal/providers/ethereum"
	"github.com/feral-file/ff-chain-indexer/internal/store"
)

// Config holds the configuration for the ingestion coordinator
type Config struct {
	ChainID      domain.Chain
	StartBlock   uint64 // 0 starts from the current head
	PollInterval time.Duration
	BatchSize    int
}

// Coordinator follows the chain head and drives block ingestion
type Coordinator interface {
	// Run resumes from the sync cursor and indexes until ctx is canceled or Stop is called.
	// It returns nil on stop and an error wrapping domain.ErrReorgTooDeep when the store
	// cannot be reconciled with the chain.
	Run(ctx context.Context) error
	// Stop cancels the run loop and waits for in-flight blocks to finish.
	// Run returns nil without indexing once Stop has been called.
	Stop()
	// Health returns an error when the coordinator is not running
	Health(ctx context.Context) error
}

type coordinator struct {
	config    Config
	client    ethereum.Client
	store     store.Store
	processor Processor
	reorg     ReorgHandler
	heads     block.BlockHeadProvider
	publisher messaging.Publisher
	clock     adapter.Clock
	stats     *statsRecorder

	// owned by the run goroutine
	pool     pond.Pool
	cursor   uint64
	lastHash string

	running atomic.Bool
	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewCoordinator creates a new ingestion coordinator
func NewCoordinator(
	config Config,
	client ethereum.Client,
	store store.Store,
	processor Processor,
	reorg ReorgHandler,
	heads block.BlockHeadProvider,
	publisher messaging.Publisher,
	clock adapter.Clock,
) Coordinator {
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}

	return &coordinator{
		config:    config,
		client:    client,
		store:     store,
		processor: processor,
		reorg:     reorg,
		heads:     heads,
		publisher: publisher,
		clock:     clock,
		stats:     newStatsRecorder(store, clock),
	}
}

// Run starts the coordinator
func (c *coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("coordinator is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		cancel()
		c.running.Store(false)
		return nil
	}
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	defer func() {
		cancel()
		c.running.Store(false)
		close(done)
	}()

	// not bound to ctx: a task that already started must finish and report its commit
	c.pool = pond.NewPool(
		c.config.BatchSize,
		pond.WithQueueSize(c.config.BatchSize),
	)
	defer c.pool.StopAndWait()

	cursor, err := c.initCursor(ctx)
	if err != nil {
		return err
	}
	c.cursor = cursor
	metrics.IndexedHeight.Set(float64(cursor))

	var source BlockSource
	if c.client.SupportsSubscription() {
		source = newSubscriptionSource(c.client, c.heads)
	} else {
		source = newPollSource(c.heads, c.config.PollInterval, c.clock)
	}

	for {
		metrics.SetSourceMode(source.Mode())
		logger.InfoCtx(ctx, "Starting block source",
			zap.String("chain", string(c.config.ChainID)),
			zap.String("mode", source.Mode()),
			zap.Uint64("cursor", c.cursor))

		// close the gap before waiting for new heads
		err := c.catchUpToHead(ctx)
		if err == nil {
			err = source.Run(ctx, c.handleHead)
		}

		if ctx.Err() != nil {
			logger.InfoCtx(ctx, "Coordinator stopped", zap.Uint64("cursor", c.cursor))
			return nil
		}

		if errors.Is(err, domain.ErrSubscriptionFailed) && source.Mode() == SourceModeSubscription {
			logger.WarnCtx(ctx, "Subscription failed, falling back to polling", zap.Error(err))
			source = newPollSource(c.heads, c.config.PollInterval, c.clock)
			continue
		}

		return err
	}
}

// Stop stops the coordinator and waits for it to exit. A coordinator is not restarted
// after Stop; a later Run returns nil immediately.
func (c *coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Health reports whether the run loop is alive
func (c *coordinator) Health(context.Context) error {
	if !c.running.Load() {
		return errors.New("coordinator is not running")
	}
	return nil
}

// initCursor reads the sync cursor, creating it on first run
func (c *coordinator) initCursor(ctx context.Context) (uint64, error) {
	state, err := c.store.GetSyncCursor(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	if state != nil {
		logger.InfoCtx(ctx, "Resuming from sync cursor",
			zap.String("chain", string(c.config.ChainID)),
			zap.Uint64("block", state.CurrentBlock))
		return state.CurrentBlock, nil
	}

	var start uint64
	if c.config.StartBlock > 0 {
		start = c.config.StartBlock - 1
		logger.InfoCtx(ctx, "Starting from configured block",
			zap.String("chain", string(c.config.ChainID)),
			zap.Uint64("block", c.config.StartBlock))
	} else {
		head, err := c.client.GetBlockHeight(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to get chain head: %w", err)
		}
		start = head
		logger.InfoCtx(ctx, "Starting from latest block",
			zap.String("chain", string(c.config.ChainID)),
			zap.Uint64("block", head))
	}

	state, err = c.store.InitSyncCursor(ctx, start)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize sync cursor: %w", err)
	}
	return state.CurrentBlock, nil
}

// catchUpToHead ingests up to the current chain head
func (c *coordinator) catchUpToHead(ctx context.Context) error {
	head, err := c.client.GetBlockHeight(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to get chain head", zap.Error(err))
		return nil
	}
	c.heads.Observe(head)
	return c.handleHead(ctx, head)
}

// handleHead ingests up to head. Only fatal errors are returned;
// anything else is logged and retried on the next head.
func (c *coordinator) handleHead(ctx context.Context, head uint64) error {
	err := c.catchUp(ctx, head)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrReorgTooDeep) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger.ErrorCtx(ctx, fmt.Errorf("failed to index up to block %d: %w", head, err), zap.Uint64("cursor", c.cursor))
	return nil
}

// catchUp ingests cursor+1..head in batches
func (c *coordinator) catchUp(ctx context.Context, head uint64) error {
	metrics.ChainHead.Set(float64(head))
	if head <= c.cursor {
		metrics.ProcessingLag.Set(0)
		return nil
	}

	from := c.cursor + 1
	total := head - c.cursor
	var processed uint64

	if total > 1 {
		c.setSyncing(ctx, true)
		defer c.setSyncing(ctx, false)
		logger.InfoCtx(ctx, "Catching up", zap.Uint64("from", from), zap.Uint64("to", head), zap.Uint64("total", total))
	}

	for c.cursor < head {
		if err := ctx.Err(); err != nil {
			return err
		}

		batchFrom := c.cursor + 1
		batchTo := min(head, batchFrom+uint64(c.config.BatchSize)-1)
		before := c.cursor

		err := c.processBatch(ctx, batchFrom, batchTo)
		if c.cursor > before {
			processed += c.cursor - before
		}
		metrics.ProcessingLag.Set(float64(head - min(head, c.cursor)))

		var reorgErr *ReorgError
		if errors.As(err, &reorgErr) {
			outcome, err := c.reorg.Handle(ctx, reorgErr.Reorg)
			if err != nil {
				return err
			}
			c.cursor = outcome.Ancestor
			from = min(from, outcome.Ancestor+1)
			metrics.IndexedHeight.Set(float64(c.cursor))
			c.stats.RecordReorg(outcome)
			c.notify(ctx, &domain.Notification{
				Chain:         c.config.ChainID,
				Type:          domain.NotificationChainReorganized,
				Timestamp:     c.clock.Now().UTC(),
				Ancestor:      outcome.Ancestor,
				Depth:         outcome.Depth,
				InvalidatedAt: outcome.Ancestor + 1,
			})
			continue
		}
		if err != nil {
			return err
		}

		if total > 1 {
			logger.InfoCtx(ctx, "Catch-up progress",
				zap.Uint64("processed", processed),
				zap.Uint64("total", total),
				zap.String("percent", fmt.Sprintf("%.2f%%", float64(min(processed, total))*100/float64(total))),
				zap.Uint64("cursor", c.cursor))
		}
	}

	c.stats.Refresh(ctx, head)
	c.notify(ctx, &domain.Notification{
		Chain:     c.config.ChainID,
		Type:      domain.NotificationBlockIndexed,
		Timestamp: c.clock.Now().UTC(),
		FromBlock: from,
		ToBlock:   c.cursor,
		BlockHash: c.lastHash,
	})

	return nil
}

// processBatch ingests [from, to] concurrently. The cursor advances to the highest contiguous
// committed height. The first failure stops heights that have not started yet.
func (c *coordinator) processBatch(ctx context.Context, from, to uint64) error {
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	advancer := newCursorAdvancer(c.store, c.cursor)
	advancer.Start(ctx)

	blocks := make([]*domain.Block, to-from+1)
	tasks := make([]pond.Task, 0, len(blocks))
	var running sync.WaitGroup
	for height := from; height <= to; height++ {
		running.Add(1)
		tasks = append(tasks, c.pool.SubmitErr(func() error {
			defer running.Done()
			if err := batchCtx.Err(); err != nil {
				return err
			}

			b, err := c.ingestBlock(batchCtx, height)
			if err != nil {
				cancel()
				return err
			}

			blocks[height-from] = b
			advancer.Commit(height)
			return nil
		}))
	}

	errs := make([]error, 0)
	for _, task := range tasks {
		if err := task.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	// every Commit must happen before Close
	running.Wait()
	cursor, cursorErr := advancer.Close()
	c.cursor = cursor

	if err := firstBatchError(errs); err != nil {
		return err
	}
	if cursorErr != nil {
		return cursorErr
	}

	// heights were fetched concurrently, so a reorg between fetches can leave a broken link
	// that the per-block check could not see
	for i := 1; i < len(blocks); i++ {
		if blocks[i].ParentHash != blocks[i-1].Hash {
			return &ReorgError{Reorg: &Reorg{Height: blocks[i-1].Number, StoredHash: blocks[i-1].Hash}}
		}
	}

	c.lastHash = blocks[len(blocks)-1].Hash
	return nil
}

// ingestBlock fetches, checks and processes one height
func (c *coordinator) ingestBlock(ctx context.Context, height uint64) (*domain.Block, error) {
	start := c.clock.Now()

	b, err := c.client.GetBlock(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", height, err)
	}

	reorg, err := c.reorg.Check(ctx, b)
	if err != nil {
		return nil, err
	}
	if reorg != nil {
		return nil, &ReorgError{Reorg: reorg}
	}

	if err := c.processor.Process(ctx, b); err != nil {
		metrics.BlocksProcessed.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.BlocksProcessed.WithLabelValues("success").Inc()
	metrics.TransactionsIndexed.Add(float64(len(b.TxHashes)))
	metrics.BlockProcessingDuration.Observe(c.clock.Since(start).Seconds())

	logger.DebugCtx(ctx, "Block indexed",
		zap.Uint64("block", b.Number),
		zap.String("hash", b.Hash),
		zap.Int("transactions", len(b.TxHashes)))

	return b, nil
}

// firstBatchError prefers a detected reorg, then the first error that is not a sibling cancellation
func firstBatchError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs {
		var reorgErr *ReorgError
		if errors.As(err, &reorgErr) {
			return err
		}
	}
	for _, err := range errs {
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return errs[0]
}

func (c *coordinator) setSyncing(ctx context.Context, syncing bool) {
	if syncing {
		metrics.Syncing.Set(1)
	} else {
		metrics.Syncing.Set(0)
	}

	if err := c.store.SetSyncing(context.WithoutCancel(ctx), syncing); err != nil {
		logger.WarnCtx(ctx, "Failed to update syncing flag", zap.Bool("syncing", syncing), zap.Error(err))
	}
}

// notify publishes a notification; failures never affect ingestion
func (c *coordinator) notify(ctx context.Context, notification *domain.Notification) {
	if err := c.publisher.Publish(ctx, notification); err != nil {
		metrics.NotificationFailures.Inc()
		logger.WarnCtx(ctx, "Failed to publish notification",
			zap.String("type", string(notification.Type)),
			zap.Error(err))
	}
}
