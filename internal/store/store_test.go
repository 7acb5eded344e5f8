package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var testBaseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const (
	testTokenAddress = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	testSender       = "0x1111111111111111111111111111111111111111"
	testMiner        = "0x9999999999999999999999999999999999999999"
)

func testBlockHash(number uint64, fork int) string {
	return fmt.Sprintf("0x%060x%04x", number, fork)
}

func testTxHash(number uint64, fork int, index int) string {
	return fmt.Sprintf("0x%054x%04x%06x", number, fork, index)
}

func testRecipient(index int) string {
	return fmt.Sprintf("0x%040x", 0xabc000+index)
}

func testBlockTime(number uint64) time.Time {
	return testBaseTime.Add(time.Duration(number) * 12 * time.Second)
}

// buildTestIngestInput creates a block with txCount ERC-20 transfers, one log each
func buildTestIngestInput(number uint64, fork int, txCount int) IngestBlockInput {
	timestamp := testBlockTime(number)
	parent := ""
	if number > 0 {
		parent = testBlockHash(number-1, fork)
	}

	block := &domain.Block{
		Number:     number,
		Hash:       testBlockHash(number, fork),
		ParentHash: parent,
		Timestamp:  timestamp,
		GasUsed:    uint64(21000 * txCount),
		GasLimit:   30_000_000,
		BaseFee:    big.NewInt(7_000_000_000),
		Miner:      testMiner,
		Size:       1024,
	}

	input := IngestBlockInput{Block: block}
	amount, _ := new(big.Int).SetString("1000000000000000000000000000000", 10)

	for i := 0; i < txCount; i++ {
		hash := testTxHash(number, fork, i)
		to := testTokenAddress
		recipient := testRecipient(i)
		block.TxHashes = append(block.TxHashes, hash)

		input.Transactions = append(input.Transactions, domain.IndexedTransaction{
			Transaction: domain.Transaction{
				Hash:        hash,
				BlockNumber: number,
				BlockHash:   block.Hash,
				Index:       uint(i),
				From:        testSender,
				To:          &to,
				Value:       big.NewInt(0),
				Gas:         60000,
				GasPrice:    big.NewInt(9_000_000_000),
				Nonce:       uint64(i),
				Input:       "0xa9059cbb",
			},
			Status:    domain.TransactionStatusSuccess,
			GasUsed:   21000,
			Fee:       new(big.Int).Mul(big.NewInt(21000), big.NewInt(9_000_000_000)),
			Method:    "transfer",
			Timestamp: timestamp,
		})
		input.Logs = append(input.Logs, domain.Log{
			TxHash:      hash,
			BlockNumber: number,
			LogIndex:    uint(i),
			Address:     testTokenAddress,
			Topics: []string{
				"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
				"0x000000000000000000000000" + testSender[2:],
				"0x000000000000000000000000" + recipient[2:],
			},
			Data: "0x0000000000000000000000000000000000000000000c9f2c9cd04674edea40000000",
		})
		input.TokenTransfers = append(input.TokenTransfers, domain.TokenTransfer{
			TxHash:       hash,
			LogIndex:     uint(i),
			BlockNumber:  number,
			TokenAddress: testTokenAddress,
			Standard:     domain.StandardERC20,
			From:         testSender,
			To:           recipient,
			Value:        amount,
		})
		input.Addresses = append(input.Addresses,
			domain.AddressObservation{Address: testSender, SeenAt: timestamp},
			domain.AddressObservation{Address: testTokenAddress, SeenAt: timestamp},
			domain.AddressObservation{Address: recipient, SeenAt: timestamp},
		)
	}

	return input
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

// =============================================================================
// Tests
// =============================================================================

func testIngestBlock(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()
	input := buildTestIngestInput(100, 0, 3)

	require.NoError(t, store.IngestBlock(ctx, input))

	block, err := store.GetBlockByNumber(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, testBlockHash(100, 0), block.Hash)
	assert.Equal(t, testBlockHash(99, 0), block.ParentHash)
	assert.Equal(t, "0x9999999999999999999999999999999999999999", block.Miner)
	assert.Equal(t, 3, block.TxCount)
	require.NotNil(t, block.BaseFeePerGas)
	assert.Equal(t, "7000000000", *block.BaseFeePerGas)
	assert.True(t, testBlockTime(100).Equal(block.Timestamp))

	txs, err := store.GetTransactionsByBlock(ctx, 100)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for i, tx := range txs {
		assert.Equal(t, uint(i), tx.TransactionIndex)
		assert.Equal(t, "189000000000000", tx.Fee)
		assert.Equal(t, domain.TransactionStatusSuccess, tx.Status)
		require.NotNil(t, tx.ToAddress)
		assert.Equal(t, "0x6b175474e89094c44da98b954eedeac495271d0f", *tx.ToAddress)
	}

	logs, err := store.GetLogsByTransaction(ctx, testTxHash(100, 0, 1))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	var topics []string
	require.NoError(t, json.Unmarshal(logs[0].Topics, &topics))
	assert.Len(t, topics, 3)
	assert.Equal(t, "0x6b175474e89094c44da98b954eedeac495271d0f", logs[0].Address)

	transfers, err := store.GetTokenTransfersByTransaction(ctx, testTxHash(100, 0, 1))
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "1000000000000000000000000000000", transfers[0].Value)
	assert.Equal(t, testRecipient(1), transfers[0].ToAddress)
	assert.Nil(t, transfers[0].TokenID)

	sender, err := store.GetAddress(ctx, testSender)
	require.NoError(t, err)
	require.NotNil(t, sender)
	assert.True(t, testBlockTime(100).Equal(sender.FirstSeen))

	missing, err := store.GetTransactionByHash(ctx, "0xdoesnotexist")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_ = db
}

func testIngestBlockIdempotent(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()
	input := buildTestIngestInput(200, 0, 4)

	require.NoError(t, store.IngestBlock(ctx, input))
	firstTxs, err := store.GetTransactionsByBlock(ctx, 200)
	require.NoError(t, err)
	firstTransfers, err := store.GetTokenTransfersByTransaction(ctx, testTxHash(200, 0, 2))
	require.NoError(t, err)

	// backdate bookkeeping columns so a rewrite would show up
	indexedAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Exec("UPDATE blocks SET created_at = ?, updated_at = ? WHERE number = ?", indexedAt, indexedAt, 200).Error)
	require.NoError(t, db.Exec("UPDATE transactions SET created_at = ?, updated_at = ? WHERE block_number = ?", indexedAt, indexedAt, 200).Error)

	require.NoError(t, store.IngestBlock(ctx, input))
	secondTxs, err := store.GetTransactionsByBlock(ctx, 200)
	require.NoError(t, err)
	secondTransfers, err := store.GetTokenTransfersByTransaction(ctx, testTxHash(200, 0, 2))
	require.NoError(t, err)

	assert.Equal(t, int64(1), countRows(t, db, &schema.Block{}, "number = ?", 200))
	assert.Equal(t, int64(4), countRows(t, db, &schema.Transaction{}, "block_number = ?", 200))
	assert.Equal(t, int64(4), countRows(t, db, &schema.Log{}, "block_number = ?", 200))
	assert.Equal(t, int64(4), countRows(t, db, &schema.TokenTransfer{}, "block_number = ?", 200))

	require.Len(t, secondTxs, len(firstTxs))
	for i := range firstTxs {
		assert.Equal(t, firstTxs[i].Hash, secondTxs[i].Hash)
		assert.Equal(t, firstTxs[i].Fee, secondTxs[i].Fee)
		assert.Equal(t, firstTxs[i].Method, secondTxs[i].Method)
		assert.Equal(t, firstTxs[i].TransactionIndex, secondTxs[i].TransactionIndex)
	}
	require.Len(t, secondTransfers, 1)
	assert.Equal(t, firstTransfers[0].Value, secondTransfers[0].Value)

	block, err := store.GetBlockByNumber(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.True(t, indexedAt.Equal(block.CreatedAt))
	assert.True(t, indexedAt.Equal(block.UpdatedAt))
	for _, tx := range secondTxs {
		assert.True(t, indexedAt.Equal(tx.CreatedAt))
		assert.True(t, indexedAt.Equal(tx.UpdatedAt))
	}
}

func testIngestBlockReplacesHeight(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(300, 0, 3)))
	require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(300, 1, 1)))

	block, err := store.GetBlockByNumber(ctx, 300)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, testBlockHash(300, 1), block.Hash)

	assert.Equal(t, int64(1), countRows(t, db, &schema.Transaction{}, "block_number = ?", 300))
	assert.Equal(t, int64(1), countRows(t, db, &schema.Log{}, "block_number = ?", 300))
	old, err := store.GetTransactionByHash(ctx, testTxHash(300, 0, 0))
	require.NoError(t, err)
	assert.Nil(t, old)
}

func testIngestBlockAtomic(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()
	input := buildTestIngestInput(400, 0, 3)

	// A transfer whose log does not exist fails after transactions and logs were written
	input.TokenTransfers = append(input.TokenTransfers, domain.TokenTransfer{
		TxHash:       testTxHash(400, 0, 2),
		LogIndex:     99,
		BlockNumber:  400,
		TokenAddress: testTokenAddress,
		Standard:     domain.StandardERC20,
		From:         testSender,
		To:           testRecipient(99),
		Value:        big.NewInt(1),
	})
	input.Addresses = append(input.Addresses, domain.AddressObservation{Address: testRecipient(99), SeenAt: testBlockTime(400)})

	err := store.IngestBlock(ctx, input)
	require.Error(t, err)

	assert.Equal(t, int64(0), countRows(t, db, &schema.Block{}, "number = ?", 400))
	assert.Equal(t, int64(0), countRows(t, db, &schema.Transaction{}, "block_number = ?", 400))
	assert.Equal(t, int64(0), countRows(t, db, &schema.Log{}, "block_number = ?", 400))
	assert.Equal(t, int64(0), countRows(t, db, &schema.TokenTransfer{}, "block_number = ?", 400))

	address, err := store.GetAddress(ctx, testRecipient(99))
	require.NoError(t, err)
	assert.Nil(t, address)
}

func testAddressFirstLastSeen(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	// Later block first, as concurrent catch-up may commit out of order
	require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(502, 0, 1)))
	require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(501, 0, 1)))

	sender, err := store.GetAddress(ctx, testSender)
	require.NoError(t, err)
	require.NotNil(t, sender)
	assert.True(t, testBlockTime(502).Equal(sender.FirstSeen), "first seen is never rewritten")
	assert.True(t, testBlockTime(502).Equal(sender.LastSeen), "last seen never moves backward")

	require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(503, 0, 1)))
	sender, err = store.GetAddress(ctx, testSender)
	require.NoError(t, err)
	assert.True(t, testBlockTime(502).Equal(sender.FirstSeen))
	assert.True(t, testBlockTime(503).Equal(sender.LastSeen))

	_ = db
}

func testInvalidateFrom(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	for n := uint64(0); n <= 10; n++ {
		require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(n, 0, 2)))
	}
	_, err := store.InitSyncCursor(ctx, 10)
	require.NoError(t, err)

	result, err := store.InvalidateFrom(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), result.FromBlock)
	assert.Equal(t, int64(3), result.Blocks)
	assert.Equal(t, int64(6), result.Transactions)
	assert.Equal(t, int64(6), result.Logs)
	assert.Equal(t, int64(6), result.TokenTransfers)

	assert.Equal(t, int64(0), countRows(t, db, &schema.Block{}, "number >= ?", 8))
	assert.Equal(t, int64(0), countRows(t, db, &schema.Transaction{}, "block_number >= ?", 8))
	assert.Equal(t, int64(0), countRows(t, db, &schema.Log{}, "block_number >= ?", 8))
	assert.Equal(t, int64(0), countRows(t, db, &schema.TokenTransfer{}, "block_number >= ?", 8))
	assert.Equal(t, int64(8), countRows(t, db, &schema.Block{}, "number < ?", 8))

	cursor, err := store.GetSyncCursor(ctx)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, uint64(7), cursor.CurrentBlock)

	// Addresses are observations and survive invalidation
	sender, err := store.GetAddress(ctx, testSender)
	require.NoError(t, err)
	assert.NotNil(t, sender)

	_, err = store.InvalidateFrom(ctx, 0)
	assert.Error(t, err)
}

func testSyncCursor(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	t.Run("missing cursor returns nil", func(t *testing.T) {
		cursor, err := store.GetSyncCursor(ctx)
		require.NoError(t, err)
		assert.Nil(t, cursor)
	})

	t.Run("init only on first run", func(t *testing.T) {
		cursor, err := store.InitSyncCursor(ctx, 99)
		require.NoError(t, err)
		require.NotNil(t, cursor)
		assert.Equal(t, uint64(99), cursor.CurrentBlock)

		cursor, err = store.InitSyncCursor(ctx, 50)
		require.NoError(t, err)
		assert.Equal(t, uint64(99), cursor.CurrentBlock)
	})

	t.Run("advance is monotonic", func(t *testing.T) {
		moved, err := store.AdvanceSyncCursor(ctx, 100)
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = store.AdvanceSyncCursor(ctx, 100)
		require.NoError(t, err)
		assert.False(t, moved)

		moved, err = store.AdvanceSyncCursor(ctx, 90)
		require.NoError(t, err)
		assert.False(t, moved)

		cursor, err := store.GetSyncCursor(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), cursor.CurrentBlock)
	})

	t.Run("syncing flag", func(t *testing.T) {
		require.NoError(t, store.SetSyncing(ctx, true))
		cursor, err := store.GetSyncCursor(ctx)
		require.NoError(t, err)
		assert.True(t, cursor.IsSyncing)

		require.NoError(t, store.SetSyncing(ctx, false))
		cursor, err = store.GetSyncCursor(ctx)
		require.NoError(t, err)
		assert.False(t, cursor.IsSyncing)
	})

	_ = db
}

func testChainStats(t *testing.T, store Store, db *gorm.DB) {
	ctx := context.Background()

	stats, err := store.GetChainStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats)

	require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(700, 0, 2)))
	require.NoError(t, store.IngestBlock(ctx, buildTestIngestInput(701, 0, 3)))

	require.NoError(t, store.UpdateChainStats(ctx, UpdateChainStatsInput{ChainHead: 710}))
	require.NoError(t, store.UpdateChainStats(ctx, UpdateChainStatsInput{ChainHead: 712, NewReorgs: 1}))

	stats, err = store.GetChainStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, uint64(701), stats.LatestBlockNumber)
	assert.Equal(t, testBlockHash(701, 0), stats.LatestBlockHash)
	assert.Equal(t, uint64(712), stats.ChainHead)
	assert.Equal(t, int64(2), stats.TotalBlocks)
	assert.Equal(t, int64(5), stats.TotalTransactions)
	assert.Equal(t, int64(5), stats.TotalTokenTransfers)
	assert.Equal(t, int64(1), stats.TotalReorgs)

	_ = db
}

func RunStoreTests(t *testing.T, initDB func(t *testing.T) (Store, *gorm.DB)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store, *gorm.DB)
	}{
		{"IngestBlock", testIngestBlock},
		{"IngestBlockIdempotent", testIngestBlockIdempotent},
		{"IngestBlockReplacesHeight", testIngestBlockReplacesHeight},
		{"IngestBlockAtomic", testIngestBlockAtomic},
		{"AddressFirstLastSeen", testAddressFirstLastSeen},
		{"InvalidateFrom", testInvalidateFrom},
		{"SyncCursor", testSyncCursor},
		{"ChainStats", testChainStats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, db := initDB(t)
			tt.fn(t, store, db)
		})
	}
}

func TestPoolSettingsNormalize(t *testing.T) {
	settings := PoolSettings{}.Normalize()
	assert.Equal(t, 20, settings.MaxOpenConns)
	assert.Equal(t, 5, settings.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, settings.ConnMaxLifetime)
	assert.Equal(t, 10*time.Minute, settings.ConnMaxIdleTime)

	settings = PoolSettings{MaxOpenConns: 4, MaxIdleConns: 8}.Normalize()
	assert.Equal(t, 4, settings.MaxIdleConns)
}

func TestCalculateSafeBatchSize(t *testing.T) {
	assert.Equal(t, 10, calculateSafeBatchSize(10, 18))
	assert.Equal(t, (65535-1000)/7, calculateSafeBatchSize(100000, 7))
	assert.Equal(t, 1, calculateSafeBatchSize(5, 100000))
}
