package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-chain-indexer/internal/adapter"
	"github.com/feral-file/ff-chain-indexer/internal/block"
	"github.com/feral-file/ff-chain-indexer/internal/config"
	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/indexer"
	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/messaging"
	"github.com/feral-file/ff-chain-indexer/internal/metrics"
	"github.com/feral-file/ff-chain-indexer/internal/providers/ethereum"
	"github.com/feral-file/ff-chain-indexer/internal/providers/jetstream"
	"github.com/feral-file/ff-chain-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadChainIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "chain-indexer",
			"chain":   string(cfg.Ethereum.ChainID),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Chain Indexer", zap.String("chain", string(cfg.Ethereum.ChainID)))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, store.PoolSettings{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	ethDialer := adapter.NewEthClientDialer()

	// Initialize ethereum client; the websocket endpoint is optional and enables push mode
	rpcClient, err := ethDialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.Fatal("Failed to dial Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}

	var wsClient adapter.EthClient
	if cfg.Ethereum.WebSocketURL != "" {
		wsClient, err = ethDialer.Dial(ctx, cfg.Ethereum.WebSocketURL)
		if err != nil {
			logger.WarnCtx(ctx, "Failed to dial Ethereum WebSocket, using polling",
				zap.Error(err),
				zap.String("websocket_url", cfg.Ethereum.WebSocketURL))
			wsClient = nil
		}
	}

	ethereumClient, err := ethereum.NewClient(ctx, ethereum.Config{
		ChainID:           cfg.Ethereum.ChainID,
		RPCTimeout:        cfg.Ethereum.RPCTimeout,
		MaxRetries:        cfg.Ethereum.RPCMaxRetries,
		RequestsPerSecond: cfg.Ethereum.RPCRequestsPerSecond,
		RequestBurst:      cfg.Ethereum.RPCBurst,
	}, rpcClient, wsClient)
	if err != nil {
		logger.Fatal("Failed to create Ethereum client", zap.Error(err))
	}
	defer ethereumClient.Close()
	logger.InfoCtx(ctx, "Connected to Ethereum node", zap.Bool("subscription", ethereumClient.SupportsSubscription()))

	blockHeadProvider := block.NewBlockHeadProvider(
		ethereum.NewEthereumBlockFetcher(ethereumClient),
		block.Config{
			TTL:         cfg.Ethereum.BlockHeadTTL,
			StaleWindow: cfg.Ethereum.BlockHeadStaleWindow,
		},
		clockAdapter,
	)

	// Initialize NATS publisher; notifications are optional
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(
			ctx,
			jetstream.Config{
				URL:            cfg.NATS.URL,
				StreamName:     cfg.NATS.StreamName,
				MaxReconnects:  cfg.NATS.MaxReconnects,
				ReconnectWait:  cfg.NATS.ReconnectWait,
				ConnectionName: cfg.NATS.ConnectionName,
			}, natsJS, jsonAdapter)
		if err != nil {
			logger.Fatal("Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Connected to NATS JetStream")
	} else {
		publisher = messaging.NewNoopPublisher()
		logger.InfoCtx(ctx, "NATS is not configured, notifications are disabled")
	}
	defer publisher.Close()

	// Wire the indexer
	processor := indexer.NewProcessor(ethereumClient, dataStore)
	reorgHandler := indexer.NewReorgHandler(indexer.ReorgConfig{
		MaxDepth:          cfg.Indexer.MaxReorgDepth,
		ConfirmationDepth: cfg.Indexer.ConfirmationDepth,
	}, ethereumClient, dataStore)

	coordinator := indexer.NewCoordinator(
		indexer.Config{
			ChainID:      cfg.Ethereum.ChainID,
			StartBlock:   cfg.Ethereum.StartBlock,
			PollInterval: cfg.Indexer.PollInterval,
			BatchSize:    cfg.Indexer.BatchSize,
		},
		ethereumClient,
		dataStore,
		processor,
		reorgHandler,
		blockHeadProvider,
		publisher,
		clockAdapter,
	)

	metricsServer := metrics.NewServer(cfg.Metrics.Address(), map[string]metrics.HealthCheck{
		"indexer": coordinator.Health,
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metricsServer.Run(gctx)
	})
	g.Go(func() error {
		return coordinator.Run(gctx)
	})

	err = g.Wait()
	switch {
	case errors.Is(err, domain.ErrReorgTooDeep):
		logger.Error(err, zap.String("component", "indexer"), zap.Uint64("max_reorg_depth", cfg.Indexer.MaxReorgDepth))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	case err != nil:
		logger.Error(err, zap.String("component", "chain-indexer"))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Chain Indexer stopped")
}
