package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/providers/ethereum"
	"github.com/feral-file/ff-chain-indexer/internal/store"
)

// Reorg describes a conflict between the chain and the stored blocks
type Reorg struct {
	// Height is the lowest height known to differ from the chain
	Height uint64
	// StoredHash is the hash stored at Height
	StoredHash string
	// ChainHash is the hash the chain reports at Height; empty when the conflict was found through a parent hash
	ChainHash string
}

// ReorgError carries a detected reorg out of block ingestion
type ReorgError struct {
	Reorg *Reorg
}

func (e *ReorgError) Error() string {
	return fmt.Sprintf("%s at block %d", domain.ErrReorgDetected, e.Reorg.Height)
}

func (e *ReorgError) Unwrap() error {
	return domain.ErrReorgDetected
}

// ReorgOutcome is the result of a recovered reorg
type ReorgOutcome struct {
	Reorg       *Reorg
	Ancestor    uint64
	Depth       uint64
	Invalidated *store.InvalidationResult
}

// ReorgConfig holds the reorg detection settings
type ReorgConfig struct {
	// MaxDepth is the maximum number of blocks searched for a common ancestor
	MaxDepth uint64
	// ConfirmationDepth skips checks for heights at or below it
	ConfirmationDepth uint64
}

// ReorgHandler detects reorganizations and rolls the store back to the common ancestor
//
//go:generate mockgen -source=reorg.go -destination=../mocks/reorg_handler.go -package=mocks -mock_names=ReorgHandler=MockReorgHandler
type ReorgHandler interface {
	// Check compares an incoming block with the stored chain. It returns nil when the block extends
	// or matches the stored chain.
	Check(ctx context.Context, block *domain.Block) (*Reorg, error)
	// Resolve finds the common ancestor of the stored chain and the current chain.
	// It returns an error wrapping domain.ErrReorgTooDeep when none exists within MaxDepth.
	Resolve(ctx context.Context, reorg *Reorg) (uint64, error)
	// Invalidate removes every stored row above the ancestor and rewinds the cursor to it
	Invalidate(ctx context.Context, ancestor uint64) (*store.InvalidationResult, error)
	// Handle resolves and invalidates in one step
	Handle(ctx context.Context, reorg *Reorg) (*ReorgOutcome, error)
}

type reorgHandler struct {
	config ReorgConfig
	client ethereum.Client
	store  store.Store
}

// NewReorgHandler creates a new reorg handler
func NewReorgHandler(config ReorgConfig, client ethereum.Client, store store.Store) ReorgHandler {
	return &reorgHandler{config: config, client: client, store: store}
}

// Check detects a conflict at the block's height or between the block and its stored parent
func (h *reorgHandler) Check(ctx context.Context, block *domain.Block) (*Reorg, error) {
	if block.Number <= h.config.ConfirmationDepth {
		return nil, nil
	}

	stored, err := h.store.GetBlockByNumber(ctx, block.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to get stored block %d: %w", block.Number, err)
	}
	if stored != nil {
		if stored.Hash == block.Hash {
			return nil, nil
		}
		return &Reorg{Height: block.Number, StoredHash: stored.Hash, ChainHash: block.Hash}, nil
	}

	if block.Number == 0 {
		return nil, nil
	}

	parent, err := h.store.GetBlockByNumber(ctx, block.Number-1)
	if err != nil {
		return nil, fmt.Errorf("failed to get stored block %d: %w", block.Number-1, err)
	}
	if parent != nil && parent.Hash != block.ParentHash {
		return &Reorg{Height: block.Number - 1, StoredHash: parent.Hash}, nil
	}

	return nil, nil
}

// Resolve walks backward from the conflict, comparing stored hashes with hashes fetched from the chain
func (h *reorgHandler) Resolve(ctx context.Context, reorg *Reorg) (uint64, error) {
	if reorg.Height == 0 {
		return 0, fmt.Errorf("%w: genesis block differs from the stored chain", domain.ErrReorgTooDeep)
	}

	for candidate := reorg.Height - 1; ; candidate-- {
		if reorg.Height-candidate > h.config.MaxDepth {
			return 0, fmt.Errorf("%w: no common ancestor within %d blocks of %d",
				domain.ErrReorgTooDeep, h.config.MaxDepth, reorg.Height)
		}

		stored, err := h.store.GetBlockByNumber(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("failed to get stored block %d: %w", candidate, err)
		}
		if stored == nil {
			// below the indexed range
			return candidate, nil
		}

		header, err := h.client.GetBlockHeader(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("failed to get chain block %d: %w", candidate, err)
		}
		if header.Hash == stored.Hash {
			return candidate, nil
		}

		logger.DebugCtx(ctx, "Stored block differs from chain",
			zap.Uint64("block", candidate),
			zap.String("stored_hash", stored.Hash),
			zap.String("chain_hash", header.Hash))

		if candidate == 0 {
			return 0, fmt.Errorf("%w: genesis block differs from the stored chain", domain.ErrReorgTooDeep)
		}
	}
}

// Invalidate removes stored rows above the ancestor
func (h *reorgHandler) Invalidate(ctx context.Context, ancestor uint64) (*store.InvalidationResult, error) {
	result, err := h.store.InvalidateFrom(ctx, ancestor+1)
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate blocks above %d: %w", ancestor, err)
	}
	return result, nil
}

// Handle resolves the ancestor and invalidates everything above it
func (h *reorgHandler) Handle(ctx context.Context, reorg *Reorg) (*ReorgOutcome, error) {
	logger.WarnCtx(ctx, "Chain reorganization detected",
		zap.Uint64("block", reorg.Height),
		zap.String("stored_hash", reorg.StoredHash),
		zap.String("chain_hash", reorg.ChainHash))

	ancestor, err := h.Resolve(ctx, reorg)
	if err != nil {
		if errors.Is(err, domain.ErrReorgTooDeep) {
			logger.ErrorCtx(ctx, err, zap.Uint64("block", reorg.Height), zap.Uint64("max_depth", h.config.MaxDepth))
		}
		return nil, err
	}

	// rows above the cursor may exist without the heights below them; the cursor never moves up here
	state, err := h.store.GetSyncCursor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	if state != nil && ancestor > state.CurrentBlock {
		ancestor = state.CurrentBlock
	}

	result, err := h.Invalidate(ctx, ancestor)
	if err != nil {
		return nil, err
	}

	outcome := &ReorgOutcome{
		Reorg:       reorg,
		Ancestor:    ancestor,
		Depth:       reorg.Height - ancestor,
		Invalidated: result,
	}

	logger.InfoCtx(ctx, "Recovered from chain reorganization",
		zap.Uint64("ancestor", ancestor),
		zap.Uint64("depth", outcome.Depth),
		zap.Int64("blocks", result.Blocks),
		zap.Int64("transactions", result.Transactions),
		zap.Int64("logs", result.Logs),
		zap.Int64("token_transfers", result.TokenTransfers))

	return outcome, nil
}
