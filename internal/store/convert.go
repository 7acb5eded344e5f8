package store

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/store/schema"
)

// numericString renders a big integer for a numeric(78,0) column
func numericString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func optionalNumericString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func optionalAddress(v *string) *string {
	if v == nil {
		return nil
	}
	s := domain.NormalizeAddress(*v)
	return &s
}

func toBlockRow(b *domain.Block) schema.Block {
	return schema.Block{
		Number:        b.Number,
		Hash:          domain.NormalizeHash(b.Hash),
		ParentHash:    domain.NormalizeHash(b.ParentHash),
		Timestamp:     b.Timestamp.UTC(),
		GasUsed:       b.GasUsed,
		GasLimit:      b.GasLimit,
		BaseFeePerGas: optionalNumericString(b.BaseFee),
		Miner:         domain.NormalizeAddress(b.Miner),
		Size:          b.Size,
		TxCount:       len(b.TxHashes),
	}
}

func toTransactionRows(txs []domain.IndexedTransaction) []schema.Transaction {
	rows := make([]schema.Transaction, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, schema.Transaction{
			Hash:             domain.NormalizeHash(tx.Hash),
			BlockNumber:      tx.BlockNumber,
			TransactionIndex: tx.Index,
			FromAddress:      domain.NormalizeAddress(tx.From),
			ToAddress:        optionalAddress(tx.To),
			Value:            numericString(tx.Value),
			Gas:              tx.Gas,
			GasPrice:         numericString(tx.GasPrice),
			GasUsed:          tx.GasUsed,
			Fee:              numericString(tx.Fee),
			Nonce:            tx.Nonce,
			Input:            tx.Input,
			Method:           tx.Method,
			Status:           tx.Status,
			ContractAddress:  optionalAddress(tx.ContractAddress),
			Timestamp:        tx.Timestamp.UTC(),
		})
	}
	return rows
}

func toLogRows(logs []domain.Log) ([]schema.Log, error) {
	rows := make([]schema.Log, 0, len(logs))
	for _, l := range logs {
		topics := make([]string, 0, len(l.Topics))
		for _, topic := range l.Topics {
			topics = append(topics, domain.NormalizeHash(topic))
		}
		raw, err := json.Marshal(topics)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal topics: %w", err)
		}
		rows = append(rows, schema.Log{
			TransactionHash: domain.NormalizeHash(l.TxHash),
			LogIndex:        l.LogIndex,
			BlockNumber:     l.BlockNumber,
			Address:         domain.NormalizeAddress(l.Address),
			Topics:          datatypes.JSON(raw),
			Data:            l.Data,
		})
	}
	return rows, nil
}

func toTokenTransferRows(transfers []domain.TokenTransfer) []schema.TokenTransfer {
	rows := make([]schema.TokenTransfer, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, schema.TokenTransfer{
			TransactionHash: domain.NormalizeHash(t.TxHash),
			LogIndex:        t.LogIndex,
			BlockNumber:     t.BlockNumber,
			TokenAddress:    domain.NormalizeAddress(t.TokenAddress),
			TokenStandard:   t.Standard,
			FromAddress:     domain.NormalizeAddress(t.From),
			ToAddress:       domain.NormalizeAddress(t.To),
			Value:           numericString(t.Value),
			TokenID:         optionalNumericString(t.TokenID),
		})
	}
	return rows
}

// toAddressRows merges observations per address and sorts them so concurrent
// blocks upsert shared addresses in the same order
func toAddressRows(observations []domain.AddressObservation) []schema.Address {
	merged := make(map[string]schema.Address, len(observations))
	for _, o := range observations {
		address := domain.NormalizeAddress(o.Address)
		if address == "" {
			continue
		}
		seen := o.SeenAt.UTC()
		row, ok := merged[address]
		if !ok {
			merged[address] = schema.Address{Address: address, FirstSeen: seen, LastSeen: seen}
			continue
		}
		if seen.Before(row.FirstSeen) {
			row.FirstSeen = seen
		}
		if seen.After(row.LastSeen) {
			row.LastSeen = seen
		}
		merged[address] = row
	}

	rows := make([]schema.Address, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Address < rows[j].Address
	})
	return rows
}
