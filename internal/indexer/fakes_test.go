package indexer_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/store"
	"github.com/feral-file/ff-chain-indexer/internal/store/schema"
)

var (
	testTransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")).Hex()
	testToken         = "0x00000000000000000000000000000000000000dd"
	testGenesisTime   = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func testHash(parts ...interface{}) string {
	return domain.NormalizeHash(crypto.Keccak256Hash([]byte(fmt.Sprint(parts...))).Hex())
}

func testAddress(n uint64) string {
	return domain.NormalizeAddress(common.BigToAddress(new(big.Int).SetUint64(n + 0x1000)).Hex())
}

func addressTopic(address string) string {
	return domain.NormalizeHash(common.BytesToHash(common.HexToAddress(address).Bytes()).Hex())
}

// fakeChain is an in-memory chain implementing ethereum.Client
type fakeChain struct {
	mu       sync.Mutex
	blocks   map[uint64]*domain.Block
	txs      map[string]*domain.Transaction
	receipts map[string]*domain.Receipt
	head     uint64
	empty    bool

	subscribe  bool
	subErr     error
	headsCh    chan domain.BlockHeader
	watchCalls atomic.Int32

	receiptFailures map[string]int
}

func newFakeChain() *fakeChain {
	c := &fakeChain{
		blocks:          make(map[uint64]*domain.Block),
		txs:             make(map[string]*domain.Transaction),
		receipts:        make(map[string]*domain.Receipt),
		headsCh:         make(chan domain.BlockHeader, 128),
		receiptFailures: make(map[string]int),
		empty:           true,
	}
	c.extend(0, "a")
	return c
}

// extend mines blocks up to height on top of the current head
func (c *fakeChain) extend(to uint64, fork string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extendLocked(to, fork)
}

func (c *fakeChain) extendLocked(to uint64, fork string) {
	start := c.head + 1
	if c.empty {
		start = 0
		c.empty = false
	}

	for n := start; n <= to; n++ {
		parent := domain.NormalizeHash(common.Hash{}.Hex())
		if n > 0 {
			parent = c.blocks[n-1].Hash
		}

		b := &domain.Block{
			Number:     n,
			Hash:       testHash("block", n, fork),
			ParentHash: parent,
			Timestamp:  testGenesisTime.Add(time.Duration(n) * 12 * time.Second),
			GasUsed:    42_000,
			GasLimit:   30_000_000,
			BaseFee:    big.NewInt(7),
			Miner:      testAddress(999),
		}

		for i := uint64(0); i < 2; i++ {
			hash := testHash("tx", n, i, fork)
			to := testAddress(i + 1)
			tx := &domain.Transaction{
				Hash:     hash,
				From:     testAddress(n + 100),
				To:       &to,
				Value:    big.NewInt(0),
				Gas:      60_000,
				GasPrice: big.NewInt(10),
				Nonce:    n,
				Input:    "0xa9059cbb",
			}

			receipt := &domain.Receipt{
				TxHash:            hash,
				BlockNumber:       n,
				BlockHash:         b.Hash,
				TransactionIndex:  uint(i),
				Status:            1,
				GasUsed:           21_000,
				EffectiveGasPrice: big.NewInt(9),
			}
			if i == 0 {
				receipt.Logs = []domain.Log{{
					TxHash:      hash,
					BlockNumber: n,
					LogIndex:    0,
					Address:     testToken,
					Topics:      []string{domain.NormalizeHash(testTransferTopic), addressTopic(tx.From), addressTopic(to)},
					Data:        domain.NormalizeHash(common.BigToHash(big.NewInt(int64(n) + 1)).Hex()),
				}}
			}

			b.TxHashes = append(b.TxHashes, hash)
			c.txs[hash] = tx
			c.receipts[hash] = receipt
		}

		c.blocks[n] = b
		c.head = n

		if c.subscribe {
			select {
			case c.headsCh <- b.Header():
			default:
			}
		}
	}
}

// fork replaces every block from height on with a new branch reaching to
func (c *fakeChain) fork(from, to uint64, fork string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for n := from; n <= c.head; n++ {
		delete(c.blocks, n)
	}
	c.head = from - 1
	c.extendLocked(to, fork)
}

func (c *fakeChain) failReceiptOnce(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiptFailures[hash]++
}

func (c *fakeChain) block(n uint64) *domain.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[n]
}

func (c *fakeChain) GetBlockHeight(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *fakeChain) GetBlock(_ context.Context, number uint64) (*domain.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.blocks[number]
	if !ok {
		return nil, fmt.Errorf("%w: block %d", domain.ErrBlockNotFound, number)
	}
	cp := *b
	cp.TxHashes = append([]string(nil), b.TxHashes...)
	return &cp, nil
}

func (c *fakeChain) GetBlockByHash(_ context.Context, hash string) (*domain.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.blocks {
		if b.Hash == hash {
			cp := *b
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: block %s", domain.ErrBlockNotFound, hash)
}

func (c *fakeChain) GetBlockHeader(_ context.Context, number uint64) (*domain.BlockHeader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.blocks[number]
	if !ok {
		return nil, fmt.Errorf("%w: block %d", domain.ErrBlockNotFound, number)
	}
	h := b.Header()
	return &h, nil
}

func (c *fakeChain) GetTransaction(_ context.Context, hash string) (*domain.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, ok := c.txs[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, hash)
	}
	cp := *tx
	return &cp, nil
}

func (c *fakeChain) GetTransactionReceipt(_ context.Context, hash string) (*domain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.receiptFailures[hash] > 0 {
		c.receiptFailures[hash]--
		return nil, errors.New("upstream timeout")
	}

	r, ok := c.receipts[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReceiptNotFound, hash)
	}
	cp := *r
	cp.Logs = append([]domain.Log(nil), r.Logs...)
	return &cp, nil
}

func (c *fakeChain) SupportsSubscription() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribe
}

func (c *fakeChain) WatchNewBlocks(ctx context.Context, handler func(domain.BlockHeader) error) error {
	c.watchCalls.Add(1)
	if c.subErr != nil {
		return c.subErr
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case h := <-c.headsCh:
			if err := handler(h); err != nil {
				return err
			}
		}
	}
}

func (c *fakeChain) Close() {}

// fakeStore is an in-memory store.Store
type fakeStore struct {
	mu           sync.Mutex
	blocks       map[uint64]schema.Block
	txs          map[string]schema.Transaction
	logs         map[uint64]int
	transfers    map[uint64]int
	addresses    map[string]schema.Address
	cursor       *schema.SyncState
	syncing      bool
	cursorWrites []uint64
	statsUpdates []store.UpdateChainStatsInput
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blocks:    make(map[uint64]schema.Block),
		txs:       make(map[string]schema.Transaction),
		logs:      make(map[uint64]int),
		transfers: make(map[uint64]int),
		addresses: make(map[string]schema.Address),
	}
}

func (s *fakeStore) deleteFromLocked(from uint64, exact bool) *store.InvalidationResult {
	result := &store.InvalidationResult{FromBlock: from}
	match := func(n uint64) bool {
		if exact {
			return n == from
		}
		return n >= from
	}

	for hash, tx := range s.txs {
		if match(tx.BlockNumber) {
			delete(s.txs, hash)
			result.Transactions++
		}
	}
	for n, count := range s.logs {
		if match(n) {
			delete(s.logs, n)
			result.Logs += int64(count)
		}
	}
	for n, count := range s.transfers {
		if match(n) {
			delete(s.transfers, n)
			result.TokenTransfers += int64(count)
		}
	}
	for n := range s.blocks {
		if match(n) {
			delete(s.blocks, n)
			result.Blocks++
		}
	}
	return result
}

func (s *fakeStore) IngestBlock(_ context.Context, input store.IngestBlockInput) error {
	if input.Block == nil {
		return errors.New("block is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := input.Block
	s.deleteFromLocked(b.Number, true)

	s.blocks[b.Number] = schema.Block{
		Number:     b.Number,
		Hash:       b.Hash,
		ParentHash: b.ParentHash,
		Timestamp:  b.Timestamp,
		TxCount:    len(b.TxHashes),
	}
	for _, tx := range input.Transactions {
		s.txs[tx.Hash] = schema.Transaction{
			Hash:             tx.Hash,
			BlockNumber:      tx.BlockNumber,
			TransactionIndex: tx.Index,
			FromAddress:      tx.From,
			Fee:              tx.Fee.String(),
			Method:           tx.Method,
			Status:           tx.Status,
		}
	}
	s.logs[b.Number] = len(input.Logs)
	s.transfers[b.Number] = len(input.TokenTransfers)
	for _, a := range input.Addresses {
		existing, ok := s.addresses[a.Address]
		if !ok {
			existing = schema.Address{Address: a.Address, FirstSeen: a.SeenAt}
		}
		if a.SeenAt.After(existing.LastSeen) {
			existing.LastSeen = a.SeenAt
		}
		s.addresses[a.Address] = existing
	}
	return nil
}

func (s *fakeStore) GetBlockByNumber(_ context.Context, number uint64) (*schema.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blocks[number]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *fakeStore) GetLatestBlock(context.Context) (*schema.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *schema.Block
	for _, b := range s.blocks {
		if latest == nil || b.Number > latest.Number {
			cp := b
			latest = &cp
		}
	}
	return latest, nil
}

func (s *fakeStore) GetTransactionByHash(_ context.Context, hash string) (*schema.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[hash]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (s *fakeStore) GetTransactionsByBlock(_ context.Context, number uint64) ([]schema.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var txs []schema.Transaction
	for _, tx := range s.txs {
		if tx.BlockNumber == number {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].TransactionIndex < txs[j].TransactionIndex })
	return txs, nil
}

func (s *fakeStore) GetLogsByTransaction(context.Context, string) ([]schema.Log, error) {
	return nil, nil
}

func (s *fakeStore) GetTokenTransfersByTransaction(context.Context, string) ([]schema.TokenTransfer, error) {
	return nil, nil
}

func (s *fakeStore) GetAddress(_ context.Context, address string) (*schema.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.addresses[address]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *fakeStore) InvalidateFrom(_ context.Context, fromBlock uint64) (*store.InvalidationResult, error) {
	if fromBlock == 0 {
		return nil, errors.New("cannot invalidate from genesis")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.deleteFromLocked(fromBlock, false)
	s.cursor = &schema.SyncState{ID: schema.SyncStateID, CurrentBlock: fromBlock - 1}
	return result, nil
}

func (s *fakeStore) GetSyncCursor(context.Context) (*schema.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == nil {
		return nil, nil
	}
	cp := *s.cursor
	return &cp, nil
}

func (s *fakeStore) InitSyncCursor(_ context.Context, block uint64) (*schema.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == nil {
		s.cursor = &schema.SyncState{ID: schema.SyncStateID, CurrentBlock: block}
	}
	cp := *s.cursor
	return &cp, nil
}

func (s *fakeStore) AdvanceSyncCursor(_ context.Context, block uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == nil || s.cursor.CurrentBlock >= block {
		return false, nil
	}
	s.cursor.CurrentBlock = block
	s.cursorWrites = append(s.cursorWrites, block)
	return true, nil
}

func (s *fakeStore) SetSyncing(_ context.Context, syncing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = syncing
	return nil
}

func (s *fakeStore) GetChainStats(context.Context) (*schema.ChainStats, error) {
	return nil, nil
}

func (s *fakeStore) UpdateChainStats(_ context.Context, input store.UpdateChainStatsInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsUpdates = append(s.statsUpdates, input)
	return nil
}

func (s *fakeStore) currentBlock() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == nil {
		return 0
	}
	return s.cursor.CurrentBlock
}

func (s *fakeStore) blockHash(n uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[n]
	return b.Hash, ok
}

func (s *fakeStore) txCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

func (s *fakeStore) totalReorgs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, u := range s.statsUpdates {
		total += u.NewReorgs
	}
	return total
}

// recordingPublisher records published notifications
type recordingPublisher struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n *domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, *n)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) ofType(t domain.NotificationType) []domain.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Notification
	for _, n := range p.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}
