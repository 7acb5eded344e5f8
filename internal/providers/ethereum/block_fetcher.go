package ethereum

import (
	"context"

	"github.com/feral-file/ff-chain-indexer/internal/block"
)

// ethereumBlockFetcher implements block.BlockFetcher for Ethereum
type ethereumBlockFetcher struct {
	client Client
}

func NewEthereumBlockFetcher(client Client) block.BlockFetcher {
	return &ethereumBlockFetcher{client: client}
}

// FetchLatestBlock fetches the latest block number from Ethereum
func (f *ethereumBlockFetcher) FetchLatestBlock(ctx context.Context) (uint64, error) {
	return f.client.GetBlockHeight(ctx)
}
