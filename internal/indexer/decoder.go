package indexer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
)

// Event signatures
var (
	// Transfer event signature - shared by ERC20 and ERC721
	// ERC20: Transfer(address indexed from, address indexed to, uint256 value) - 3 topics
	// ERC721: Transfer(address indexed from, address indexed to, uint256 indexed tokenId) - 4 topics
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	// ERC1155 TransferSingle(address indexed operator, address indexed from, address indexed to, uint256 id, uint256 value)
	transferSingleEventSignature = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
)

const wordSize = 32

// DecodeTransfer decodes a token transfer from a log.
// It returns false when the log is not a transfer event this indexer understands,
// including logs that carry a transfer signature with a non-standard layout.
func DecodeTransfer(l domain.Log) (*domain.TokenTransfer, bool) {
	if len(l.Topics) == 0 {
		return nil, false
	}

	data, err := hexutil.Decode(dataOrEmpty(l.Data))
	if err != nil {
		return nil, false
	}

	transfer := &domain.TokenTransfer{
		TxHash:       l.TxHash,
		LogIndex:     l.LogIndex,
		BlockNumber:  l.BlockNumber,
		TokenAddress: l.Address,
	}

	switch common.HexToHash(l.Topics[0]) {
	case transferEventSignature:
		switch len(l.Topics) {
		case 3:
			if len(data) != wordSize {
				return nil, false
			}
			transfer.Standard = domain.StandardERC20
			transfer.From = topicToAddress(l.Topics[1])
			transfer.To = topicToAddress(l.Topics[2])
			transfer.Value = new(big.Int).SetBytes(data)
		case 4:
			transfer.Standard = domain.StandardERC721
			transfer.From = topicToAddress(l.Topics[1])
			transfer.To = topicToAddress(l.Topics[2])
			transfer.TokenID = common.HexToHash(l.Topics[3]).Big()
			transfer.Value = big.NewInt(1)
		default:
			return nil, false
		}

	case transferSingleEventSignature:
		if len(l.Topics) != 4 || len(data) != 2*wordSize {
			return nil, false
		}
		transfer.Standard = domain.StandardERC1155
		transfer.From = topicToAddress(l.Topics[2])
		transfer.To = topicToAddress(l.Topics[3])
		transfer.TokenID = new(big.Int).SetBytes(data[:wordSize])
		transfer.Value = new(big.Int).SetBytes(data[wordSize:])

	default:
		return nil, false
	}

	return transfer, true
}

// topicToAddress extracts an address from an indexed topic (last 20 bytes)
func topicToAddress(topic string) string {
	return domain.NormalizeAddress(common.BytesToAddress(common.HexToHash(topic).Bytes()).Hex())
}

func dataOrEmpty(data string) string {
	if data == "" {
		return "0x"
	}
	return data
}
