package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/providers/ethereum"
	"github.com/feral-file/ff-chain-indexer/internal/store"
)

// maxConcurrentTxFetches bounds the RPC fan-out inside a single block
const maxConcurrentTxFetches = 8

// Processor ingests a single block
//
//go:generate mockgen -source=processor.go -destination=../mocks/processor.go -package=mocks -mock_names=Processor=MockProcessor
type Processor interface {
	// Process fetches every transaction and receipt of the block and writes the block with all derived rows
	// in one store transaction. Any failure leaves the store untouched.
	Process(ctx context.Context, block *domain.Block) error
}

type processor struct {
	client ethereum.Client
	store  store.Store
}

// NewProcessor creates a new block processor
func NewProcessor(client ethereum.Client, store store.Store) Processor {
	return &processor{client: client, store: store}
}

type fetchedTransaction struct {
	tx      *domain.Transaction
	receipt *domain.Receipt
}

// Process ingests a block as one atomic unit
func (p *processor) Process(ctx context.Context, block *domain.Block) error {
	fetched, err := p.fetchTransactions(ctx, block)
	if err != nil {
		return err
	}

	input := store.IngestBlockInput{
		Block:        block,
		Transactions: make([]domain.IndexedTransaction, 0, len(fetched)),
	}
	addresses := newAddressCollector(block.Timestamp)

	for _, f := range fetched {
		input.Transactions = append(input.Transactions, buildIndexedTransaction(f.tx, f.receipt, block))

		addresses.add(f.tx.From)
		if f.tx.To != nil {
			addresses.add(*f.tx.To)
		}
		if f.receipt.ContractAddress != nil {
			addresses.add(*f.receipt.ContractAddress)
		}

		for _, l := range f.receipt.Logs {
			l.TxHash = f.tx.Hash
			l.BlockNumber = block.Number
			input.Logs = append(input.Logs, l)
			addresses.add(l.Address)

			transfer, ok := DecodeTransfer(l)
			if !ok {
				continue
			}
			input.TokenTransfers = append(input.TokenTransfers, *transfer)
			addresses.add(transfer.From)
			addresses.add(transfer.To)
		}
	}
	input.Addresses = addresses.list()

	if err := p.store.IngestBlock(ctx, input); err != nil {
		return fmt.Errorf("failed to ingest block %d: %w", block.Number, err)
	}
	return nil
}

// fetchTransactions fetches every transaction and receipt of the block, preserving index order.
// The first failure cancels the remaining fetches.
func (p *processor) fetchTransactions(ctx context.Context, block *domain.Block) ([]fetchedTransaction, error) {
	results := make([]fetchedTransaction, len(block.TxHashes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTxFetches)

	for i, hash := range block.TxHashes {
		g.Go(func() error {
			tx, err := p.client.GetTransaction(gctx, hash)
			if err != nil {
				return fmt.Errorf("failed to fetch transaction %s of block %d: %w", hash, block.Number, err)
			}

			receipt, err := p.client.GetTransactionReceipt(gctx, hash)
			if err != nil {
				return fmt.Errorf("failed to fetch receipt %s of block %d: %w", hash, block.Number, err)
			}

			if receipt.BlockHash != block.Hash || receipt.BlockNumber != block.Number {
				return fmt.Errorf("%w: receipt of %s belongs to block %d (%s), expected %d (%s)",
					domain.ErrBlockChanged, hash, receipt.BlockNumber, receipt.BlockHash, block.Number, block.Hash)
			}
			if receipt.TransactionIndex != uint(i) {
				return fmt.Errorf("%w: transaction %s has index %d, expected %d",
					domain.ErrBlockChanged, hash, receipt.TransactionIndex, i)
			}

			tx.BlockNumber = block.Number
			tx.BlockHash = block.Hash
			tx.Index = uint(i)

			results[i] = fetchedTransaction{tx: tx, receipt: receipt}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func buildIndexedTransaction(tx *domain.Transaction, receipt *domain.Receipt, block *domain.Block) domain.IndexedTransaction {
	status := domain.TransactionStatusFailed
	if receipt.Status == 1 {
		status = domain.TransactionStatusSuccess
	}

	price := receipt.EffectiveGasPrice
	if price == nil {
		price = tx.GasPrice
	}
	fee := new(big.Int)
	if price != nil {
		fee.Mul(new(big.Int).SetUint64(receipt.GasUsed), price)
	}

	hasValue := tx.Value != nil && tx.Value.Sign() > 0

	return domain.IndexedTransaction{
		Transaction:     *tx,
		Status:          status,
		GasUsed:         receipt.GasUsed,
		Fee:             fee,
		Method:          domain.DecodeMethod(tx.Input, hasValue),
		ContractAddress: receipt.ContractAddress,
		Timestamp:       block.Timestamp,
	}
}

// addressCollector deduplicates the addresses observed in a block
type addressCollector struct {
	seenAt time.Time
	set    map[string]struct{}
}

func newAddressCollector(seenAt time.Time) *addressCollector {
	return &addressCollector{seenAt: seenAt, set: make(map[string]struct{})}
}

func (c *addressCollector) add(address string) {
	address = domain.NormalizeAddress(address)
	if address == "" || address == domain.ETHEREUM_ZERO_ADDRESS {
		return
	}
	c.set[address] = struct{}{}
}

// list returns the observations sorted by address
func (c *addressCollector) list() []domain.AddressObservation {
	addresses := make([]string, 0, len(c.set))
	for a := range c.set {
		addresses = append(addresses, a)
	}
	sort.Strings(addresses)

	observations := make([]domain.AddressObservation, len(addresses))
	for i, a := range addresses {
		observations[i] = domain.AddressObservation{Address: a, SeenAt: c.seenAt}
	}
	return observations
}
