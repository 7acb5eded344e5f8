package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/adapter"
	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/ratelimit"
)

const (
	defaultRPCTimeout           = 10 * time.Second
	defaultRetryInitialInterval = 200 * time.Millisecond
	defaultRetryMaxInterval     = 5 * time.Second
)

// Config holds the configuration for the Ethereum chain client
type Config struct {
	ChainID domain.Chain // e.g., "eip155:1" for Ethereum mainnet

	// RPCTimeout bounds every single RPC attempt
	RPCTimeout time.Duration

	// MaxRetries is the number of retries after the first failed attempt
	MaxRetries uint64

	// RetryInitialInterval is the first backoff interval between attempts
	RetryInitialInterval time.Duration

	// RequestsPerSecond limits RPC attempts sent to the node; zero disables limiting
	RequestsPerSecond float64
	RequestBurst      int
}

// Client is the chain client used by the indexer
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=Client=MockEthereumClient
type Client interface {
	// GetBlockHeight returns the latest block number
	GetBlockHeight(ctx context.Context) (uint64, error)

	// GetBlock returns the block at the given height with its transaction hashes in index order.
	// It returns an error wrapping domain.ErrBlockNotFound when the chain has no block at that height.
	GetBlock(ctx context.Context, number uint64) (*domain.Block, error)

	// GetBlockByHash returns the block with the given hash
	GetBlockByHash(ctx context.Context, hash string) (*domain.Block, error)

	// GetBlockHeader returns the header of the block at the given height, without its transactions
	GetBlockHeader(ctx context.Context, number uint64) (*domain.BlockHeader, error)

	// GetTransaction returns a mined transaction by hash
	GetTransaction(ctx context.Context, hash string) (*domain.Transaction, error)

	// GetTransactionReceipt returns the receipt of a mined transaction
	GetTransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error)

	// SupportsSubscription reports whether new heads can be pushed by the node
	SupportsSubscription() bool

	// WatchNewBlocks subscribes to new heads and calls handler for each of them, one at a time.
	// It blocks until the context is canceled, the handler returns an error, or the subscription fails.
	// Subscription failures are returned wrapping domain.ErrSubscriptionFailed.
	WatchNewBlocks(ctx context.Context, handler func(domain.BlockHeader) error) error

	// Close closes the connections
	Close()
}

type ethereumClient struct {
	config  Config
	rpc     adapter.EthClient
	ws      adapter.EthClient // nil when no websocket endpoint is configured
	signer  types.Signer
	limiter ratelimit.Limiter
}

// NewClient creates a chain client over an RPC connection and an optional websocket connection.
// The node's chain ID must match the configured chain.
func NewClient(ctx context.Context, config Config, rpc adapter.EthClient, ws adapter.EthClient) (Client, error) {
	if config.RPCTimeout <= 0 {
		config.RPCTimeout = defaultRPCTimeout
	}
	if config.RetryInitialInterval <= 0 {
		config.RetryInitialInterval = defaultRetryInitialInterval
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerSecond: config.RequestsPerSecond,
		Burst:             config.RequestBurst,
	})
	c := &ethereumClient{config: config, rpc: rpc, ws: ws, limiter: limiter}

	var chainID *big.Int
	err := c.call(ctx, "eth_chainId", func(ctx context.Context) error {
		var err error
		chainID, err = rpc.ChainID(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	if actual := domain.Chain(fmt.Sprintf("eip155:%s", chainID.String())); actual != config.ChainID {
		return nil, fmt.Errorf("chain id mismatch: configured %s, node reports %s", config.ChainID, actual)
	}

	c.signer = types.LatestSignerForChainID(chainID)
	return c, nil
}

// call runs op with a per-attempt timeout and bounded exponential backoff.
// ethereum.NotFound is permanent and is returned as is.
func (c *ethereumClient) call(ctx context.Context, method string, op func(ctx context.Context) error) error {
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.config.RPCTimeout)
		defer cancel()

		err := op(callCtx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ethereum.NotFound) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RetryInitialInterval
	b.MaxInterval = defaultRetryMaxInterval

	notify := func(err error, d time.Duration) {
		logger.WarnCtx(ctx, "RPC call failed, retrying",
			zap.String("method", method),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.config.MaxRetries), ctx), notify)
}

// GetBlockHeight returns the latest block number
func (c *ethereumClient) GetBlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.call(ctx, "eth_blockNumber", func(ctx context.Context) error {
		var err error
		height, err = c.rpc.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get block height: %w", err)
	}
	return height, nil
}

// GetBlock returns the block at the given height
func (c *ethereumClient) GetBlock(ctx context.Context, number uint64) (*domain.Block, error) {
	var block *types.Block
	err := c.call(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var err error
		block, err = c.rpc.BlockByNumber(ctx, new(big.Int).SetUint64(number))
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: block %d", domain.ErrBlockNotFound, number)
		}
		return nil, fmt.Errorf("failed to get block %d: %w", number, err)
	}
	return toDomainBlock(block), nil
}

// GetBlockByHash returns the block with the given hash
func (c *ethereumClient) GetBlockByHash(ctx context.Context, hash string) (*domain.Block, error) {
	var block *types.Block
	err := c.call(ctx, "eth_getBlockByHash", func(ctx context.Context) error {
		var err error
		block, err = c.rpc.BlockByHash(ctx, common.HexToHash(hash))
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: block %s", domain.ErrBlockNotFound, hash)
		}
		return nil, fmt.Errorf("failed to get block %s: %w", hash, err)
	}
	return toDomainBlock(block), nil
}

// GetBlockHeader returns the header at the given height
func (c *ethereumClient) GetBlockHeader(ctx context.Context, number uint64) (*domain.BlockHeader, error) {
	var header *types.Header
	err := c.call(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var err error
		header, err = c.rpc.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: block %d", domain.ErrBlockNotFound, number)
		}
		return nil, fmt.Errorf("failed to get header %d: %w", number, err)
	}
	h := toDomainHeader(header)
	return &h, nil
}

// GetTransaction returns a mined transaction by hash
func (c *ethereumClient) GetTransaction(ctx context.Context, hash string) (*domain.Transaction, error) {
	var (
		tx        *types.Transaction
		isPending bool
	)
	err := c.call(ctx, "eth_getTransactionByHash", func(ctx context.Context) error {
		var err error
		tx, isPending, err = c.rpc.TransactionByHash(ctx, common.HexToHash(hash))
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, hash)
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", hash, err)
	}
	if isPending {
		return nil, fmt.Errorf("%w: %s is pending", domain.ErrTransactionNotFound, hash)
	}

	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender of %s: %w", hash, err)
	}

	return toDomainTransaction(tx, from), nil
}

// GetTransactionReceipt returns the receipt of a mined transaction
func (c *ethereumClient) GetTransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error) {
	var receipt *types.Receipt
	err := c.call(ctx, "eth_getTransactionReceipt", func(ctx context.Context) error {
		var err error
		receipt, err = c.rpc.TransactionReceipt(ctx, common.HexToHash(hash))
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrReceiptNotFound, hash)
		}
		return nil, fmt.Errorf("failed to get receipt %s: %w", hash, err)
	}
	return toDomainReceipt(receipt), nil
}

// SupportsSubscription reports whether a websocket connection is available
func (c *ethereumClient) SupportsSubscription() bool {
	return c.ws != nil
}

// WatchNewBlocks subscribes to new heads over the websocket connection
func (c *ethereumClient) WatchNewBlocks(ctx context.Context, handler func(domain.BlockHeader) error) error {
	if c.ws == nil {
		return fmt.Errorf("%w: no websocket endpoint configured", domain.ErrSubscriptionFailed)
	}

	headers := make(chan *types.Header, 16)
	sub, err := c.ws.SubscribeNewHead(ctx, headers)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSubscriptionFailed, err)
	}
	defer func() {
		sub.Unsubscribe()
		logger.InfoCtx(ctx, "Unsubscribed from new heads")
	}()

	logger.InfoCtx(ctx, "Subscribed to new heads", zap.String("chain", string(c.config.ChainID)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return fmt.Errorf("%w: %w", domain.ErrSubscriptionFailed, err)
		case header := <-headers:
			if header == nil {
				continue
			}
			if err := handler(toDomainHeader(header)); err != nil {
				return err
			}
		}
	}
}

// Close closes the connections
func (c *ethereumClient) Close() {
	c.rpc.Close()
	if c.ws != nil {
		c.ws.Close()
	}
	logger.Info("Ethereum connections closed")
}
