package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/adapter"
	"github.com/feral-file/ff-chain-indexer/internal/block"
	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/providers/ethereum"
)

const (
	SourceModeSubscription = "subscription"
	SourceModePoll         = "poll"
)

// HeadHandler is called with each new chain head. A returned error stops the source.
type HeadHandler func(ctx context.Context, head uint64) error

// BlockSource delivers chain heads to the coordinator, one at a time
type BlockSource interface {
	// Mode returns the source name
	Mode() string
	// Run delivers heads until ctx is canceled or the source fails
	Run(ctx context.Context, onHead HeadHandler) error
}

// subscriptionSource receives heads pushed by the node
type subscriptionSource struct {
	client ethereum.Client
	heads  block.BlockHeadProvider
}

func newSubscriptionSource(client ethereum.Client, heads block.BlockHeadProvider) BlockSource {
	return &subscriptionSource{client: client, heads: heads}
}

func (s *subscriptionSource) Mode() string {
	return SourceModeSubscription
}

// Run blocks on the subscription; failures are returned wrapping domain.ErrSubscriptionFailed
func (s *subscriptionSource) Run(ctx context.Context, onHead HeadHandler) error {
	return s.client.WatchNewBlocks(ctx, func(header domain.BlockHeader) error {
		logger.DebugCtx(ctx, "New head received", zap.Uint64("block", header.Number), zap.String("hash", header.Hash))
		s.heads.Observe(header.Number)
		return onHead(ctx, header.Number)
	})
}

// pollSource asks for the head every interval
type pollSource struct {
	heads    block.BlockHeadProvider
	interval time.Duration
	clock    adapter.Clock
}

func newPollSource(heads block.BlockHeadProvider, interval time.Duration, clock adapter.Clock) BlockSource {
	return &pollSource{heads: heads, interval: interval, clock: clock}
}

func (s *pollSource) Mode() string {
	return SourceModePoll
}

// Run polls until ctx is canceled. Head lookup failures are logged and retried on the next tick.
func (s *pollSource) Run(ctx context.Context, onHead HeadHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.interval):
		}

		head, err := s.heads.GetLatestBlock(ctx)
		if err != nil {
			logger.WarnCtx(ctx, "Failed to get chain head", zap.Error(err))
			continue
		}

		if err := onHead(ctx, head); err != nil {
			return err
		}
	}
}
