package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/adapter"
	"github.com/feral-file/ff-chain-indexer/internal/logger"
)

// headInfo is the cached chain head and when it was learned
type headInfo struct {
	Number    uint64
	FetchedAt time.Time
}

// BlockHeadProvider provides cached access to the chain head height.
// Poll mode asks for the head on every tick; the cache keeps that to one RPC per TTL.
//
//go:generate mockgen -source=head.go -destination=../mocks/block_head_provider.go -package=mocks -mock_names=BlockHeadProvider=MockBlockHeadProvider
type BlockHeadProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)
	// Observe records a head learned elsewhere, such as from a new-head subscription
	Observe(number uint64)
}

// BlockFetcher is the interface for fetching the latest block from the blockchain
//
//go:generate mockgen -source=head.go -destination=../mocks/block_head_provider.go -package=mocks -mock_names=BlockFetcher=MockBlockFetcher
type BlockFetcher interface {
	// FetchLatestBlock fetches the latest block from the blockchain
	FetchLatestBlock(ctx context.Context) (uint64, error)
}

// Config holds configuration for the BlockHeadProvider
type Config struct {
	// TTL is how long to cache the block number
	TTL time.Duration

	// StaleWindow is how long a cached head may still be served when fetching fails
	StaleWindow time.Duration
}

type blockHeadProvider struct {
	fetcher BlockFetcher
	config  Config
	clock   adapter.Clock

	mu   sync.RWMutex
	head *headInfo
}

// NewBlockHeadProvider creates a new BlockHeadProvider with caching
func NewBlockHeadProvider(fetcher BlockFetcher, config Config, clock adapter.Clock) BlockHeadProvider {
	return &blockHeadProvider{
		fetcher: fetcher,
		config:  config,
		clock:   clock,
	}
}

// GetLatestBlock returns the latest block number, using cache if valid
func (p *blockHeadProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.FetchedAt) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached block number", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	blockNumber, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.FetchedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Using stale block number",
				zap.Uint64("block_number", cached.Number),
				zap.Error(err))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.store(blockNumber, now)
	return blockNumber, nil
}

// Observe records a head height without an RPC call
func (p *blockHeadProvider) Observe(number uint64) {
	p.store(number, p.clock.Now())
}

// store keeps the highest head seen; a lagging node answer does not move the cached head backward
// while the cache is fresh
func (p *blockHeadProvider) store(number uint64, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.head != nil && p.head.Number > number && now.Sub(p.head.FetchedAt) < p.config.TTL {
		return
	}
	p.head = &headInfo{Number: number, FetchedAt: now}
}
