package ethereum

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
)

func toDomainHeader(h *types.Header) domain.BlockHeader {
	return domain.BlockHeader{
		Number:     h.Number.Uint64(),
		Hash:       domain.NormalizeHash(h.Hash().Hex()),
		ParentHash: domain.NormalizeHash(h.ParentHash.Hex()),
		Timestamp:  time.Unix(int64(h.Time), 0).UTC(), //nolint:gosec,G115
	}
}

func toDomainBlock(b *types.Block) *domain.Block {
	txs := b.Transactions()
	hashes := make([]string, len(txs))
	for i, tx := range txs {
		hashes[i] = domain.NormalizeHash(tx.Hash().Hex())
	}

	var baseFee *big.Int
	if b.BaseFee() != nil {
		baseFee = new(big.Int).Set(b.BaseFee())
	}

	return &domain.Block{
		Number:     b.NumberU64(),
		Hash:       domain.NormalizeHash(b.Hash().Hex()),
		ParentHash: domain.NormalizeHash(b.ParentHash().Hex()),
		Timestamp:  time.Unix(int64(b.Time()), 0).UTC(), //nolint:gosec,G115
		GasUsed:    b.GasUsed(),
		GasLimit:   b.GasLimit(),
		BaseFee:    baseFee,
		Miner:      domain.NormalizeAddress(b.Coinbase().Hex()),
		Size:       b.Size(),
		TxHashes:   hashes,
	}
}

func toDomainTransaction(tx *types.Transaction, from common.Address) *domain.Transaction {
	var to *string
	if tx.To() != nil {
		addr := domain.NormalizeAddress(tx.To().Hex())
		to = &addr
	}

	return &domain.Transaction{
		Hash:     domain.NormalizeHash(tx.Hash().Hex()),
		From:     domain.NormalizeAddress(from.Hex()),
		To:       to,
		Value:    new(big.Int).Set(tx.Value()),
		Gas:      tx.Gas(),
		GasPrice: new(big.Int).Set(tx.GasPrice()),
		Nonce:    tx.Nonce(),
		Input:    hexutil.Encode(tx.Data()),
	}
}

func toDomainReceipt(r *types.Receipt) *domain.Receipt {
	var contract *string
	if r.ContractAddress != (common.Address{}) {
		addr := domain.NormalizeAddress(r.ContractAddress.Hex())
		contract = &addr
	}

	var effectiveGasPrice *big.Int
	if r.EffectiveGasPrice != nil {
		effectiveGasPrice = new(big.Int).Set(r.EffectiveGasPrice)
	}

	var blockNumber uint64
	if r.BlockNumber != nil {
		blockNumber = r.BlockNumber.Uint64()
	}

	logs := make([]domain.Log, 0, len(r.Logs))
	for _, l := range r.Logs {
		logs = append(logs, toDomainLog(l))
	}

	return &domain.Receipt{
		TxHash:            domain.NormalizeHash(r.TxHash.Hex()),
		BlockNumber:       blockNumber,
		BlockHash:         domain.NormalizeHash(r.BlockHash.Hex()),
		TransactionIndex:  r.TransactionIndex,
		Status:            r.Status,
		GasUsed:           r.GasUsed,
		EffectiveGasPrice: effectiveGasPrice,
		ContractAddress:   contract,
		Logs:              logs,
	}
}

func toDomainLog(l *types.Log) domain.Log {
	topics := make([]string, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = domain.NormalizeHash(t.Hex())
	}

	return domain.Log{
		TxHash:      domain.NormalizeHash(l.TxHash.Hex()),
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
		Address:     domain.NormalizeAddress(l.Address.Hex()),
		Topics:      topics,
		Data:        hexutil.Encode(l.Data),
	}
}
