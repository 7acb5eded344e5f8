package domain

import (
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const eip155Namespace = "eip155:"

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
	ChainEthereumHolesky Chain = "eip155:17000"
)

// IsValidChain reports whether chain is a well-formed EVM chain id ("eip155:<positive decimal>").
// The reference must be canonical so it compares equal to the id reported by the node.
func IsValidChain(chain Chain) bool {
	ref, ok := strings.CutPrefix(string(chain), eip155Namespace)
	if !ok {
		return false
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	return err == nil && id > 0 && strconv.FormatUint(id, 10) == ref
}

// Name returns the short network name used for subjects and log fields
func (c Chain) Name() string {
	switch c {
	case ChainEthereumMainnet:
		return "mainnet"
	case ChainEthereumSepolia:
		return "sepolia"
	case ChainEthereumHolesky:
		return "holesky"
	default:
		return strings.ReplaceAll(string(c), ":", "-")
	}
}

// TokenStandard represents the token standard of a decoded transfer
type TokenStandard string

const (
	StandardERC20   TokenStandard = "erc20"
	StandardERC721  TokenStandard = "erc721"
	StandardERC1155 TokenStandard = "erc1155"
)

// TransactionStatus is the execution outcome recorded in the receipt
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// BlockHeader is the minimal view of a block used for head tracking and ancestry checks
type BlockHeader struct {
	Number     uint64
	Hash       string
	ParentHash string
	Timestamp  time.Time
}

// Block is a block as fetched from the chain, with its transaction hashes in index order
type Block struct {
	Number     uint64
	Hash       string
	ParentHash string
	Timestamp  time.Time
	GasUsed    uint64
	GasLimit   uint64
	BaseFee    *big.Int // nil before London
	Miner      string
	Size       uint64
	TxHashes   []string
}

// Header returns the header view of the block
func (b *Block) Header() BlockHeader {
	return BlockHeader{
		Number:     b.Number,
		Hash:       b.Hash,
		ParentHash: b.ParentHash,
		Timestamp:  b.Timestamp,
	}
}

// Transaction is a transaction as fetched from the chain.
// The block position fields are filled from the block and receipt during processing.
type Transaction struct {
	Hash        string
	BlockNumber uint64
	BlockHash   string
	Index       uint
	From        string
	To          *string // nil for contract creation
	Value       *big.Int
	Gas         uint64
	GasPrice    *big.Int
	Nonce       uint64
	Input       string
}

// Receipt is the execution receipt of a transaction
type Receipt struct {
	TxHash            string
	BlockNumber       uint64
	BlockHash         string
	TransactionIndex  uint
	Status            uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	ContractAddress   *string
	Logs              []Log
}

// Log is an event log emitted during transaction execution
type Log struct {
	TxHash      string
	BlockNumber uint64
	LogIndex    uint
	Address     string
	Topics      []string
	Data        string
}

// IndexedTransaction is a transaction enriched with its receipt outcome, ready to be stored
type IndexedTransaction struct {
	Transaction
	Status          TransactionStatus
	GasUsed         uint64
	Fee             *big.Int
	Method          string
	ContractAddress *string
	Timestamp       time.Time
}

// TokenTransfer is a decoded token transfer event.
// It shares its key (transaction hash, log index) with the log it was decoded from.
type TokenTransfer struct {
	TxHash       string
	LogIndex     uint
	BlockNumber  uint64
	TokenAddress string
	Standard     TokenStandard
	From         string
	To           string
	Value        *big.Int
	TokenID      *big.Int // nil for ERC-20
}

// AddressObservation records that an address took part in a block at a given time
type AddressObservation struct {
	Address string
	SeenAt  time.Time
}

// NormalizeAddress returns the canonical lowercase 0x-prefixed form of an address
func NormalizeAddress(address string) string {
	return normalizeHex(address)
}

// NormalizeHash returns the canonical lowercase 0x-prefixed form of a hash
func NormalizeHash(hash string) string {
	return normalizeHex(hash)
}

func normalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}
