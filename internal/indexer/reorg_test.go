package indexer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/indexer"
	"github.com/feral-file/ff-chain-indexer/internal/mocks"
	"github.com/feral-file/ff-chain-indexer/internal/store"
	"github.com/feral-file/ff-chain-indexer/internal/store/schema"
)

type testReorgMocks struct {
	ctrl    *gomock.Controller
	client  *mocks.MockEthereumClient
	store   *mocks.MockStore
	handler indexer.ReorgHandler
}

func setupReorgTest(t *testing.T, config indexer.ReorgConfig) *testReorgMocks {
	ctrl := gomock.NewController(t)

	client := mocks.NewMockEthereumClient(ctrl)
	st := mocks.NewMockStore(ctrl)

	return &testReorgMocks{
		ctrl:    ctrl,
		client:  client,
		store:   st,
		handler: indexer.NewReorgHandler(config, client, st),
	}
}

func tearDownReorgTest(tm *testReorgMocks) {
	tm.ctrl.Finish()
}

func storedBlock(number uint64, fork string) *schema.Block {
	return &schema.Block{Number: number, Hash: testHash("block", number, fork)}
}

func chainHeader(number uint64, fork string) *domain.BlockHeader {
	return &domain.BlockHeader{Number: number, Hash: testHash("block", number, fork)}
}

func TestReorgHandler_Check(t *testing.T) {
	incoming := &domain.Block{
		Number:     10,
		Hash:       testHash("block", 10, "a"),
		ParentHash: testHash("block", 9, "a"),
	}

	tests := []struct {
		name   string
		setup  func(st *mocks.MockStore)
		expect *indexer.Reorg
	}{
		{
			name: "extends the stored parent",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(10)).Return(nil, nil)
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(9)).Return(storedBlock(9, "a"), nil)
			},
		},
		{
			name: "same block already stored",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(10)).Return(storedBlock(10, "a"), nil)
			},
		},
		{
			name: "different block stored at height",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(10)).Return(storedBlock(10, "b"), nil)
			},
			expect: &indexer.Reorg{Height: 10, StoredHash: testHash("block", 10, "b"), ChainHash: testHash("block", 10, "a")},
		},
		{
			name: "stored parent differs",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(10)).Return(nil, nil)
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(9)).Return(storedBlock(9, "b"), nil)
			},
			expect: &indexer.Reorg{Height: 9, StoredHash: testHash("block", 9, "b")},
		},
		{
			name: "nothing stored below",
			setup: func(st *mocks.MockStore) {
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(10)).Return(nil, nil)
				st.EXPECT().GetBlockByNumber(gomock.Any(), uint64(9)).Return(nil, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
			defer tearDownReorgTest(tm)

			tt.setup(tm.store)

			reorg, err := tm.handler.Check(context.Background(), incoming)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, reorg)
		})
	}
}

func TestReorgHandler_Check_ConfirmationDepth(t *testing.T) {
	tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8, ConfirmationDepth: 10})
	defer tearDownReorgTest(tm)

	// no store lookups at or below the confirmation depth
	reorg, err := tm.handler.Check(context.Background(), &domain.Block{Number: 10, Hash: testHash("x")})
	require.NoError(t, err)
	assert.Nil(t, reorg)
}

func TestReorgHandler_Check_StoreError(t *testing.T) {
	tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
	defer tearDownReorgTest(tm)

	tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(5)).Return(nil, errors.New("db down"))

	_, err := tm.handler.Check(context.Background(), &domain.Block{Number: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestReorgHandler_Resolve(t *testing.T) {
	t.Run("finds the common ancestor", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		// stored 8 and 9 are orphaned, 7 is shared
		for _, n := range []uint64{9, 8} {
			tm.store.EXPECT().GetBlockByNumber(gomock.Any(), n).Return(storedBlock(n, "a"), nil)
			tm.client.EXPECT().GetBlockHeader(gomock.Any(), n).Return(chainHeader(n, "b"), nil)
		}
		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(7)).Return(storedBlock(7, "a"), nil)
		tm.client.EXPECT().GetBlockHeader(gomock.Any(), uint64(7)).Return(chainHeader(7, "a"), nil)

		ancestor, err := tm.handler.Resolve(context.Background(), &indexer.Reorg{Height: 10})
		require.NoError(t, err)
		assert.Equal(t, uint64(7), ancestor)
	})

	t.Run("stops below the indexed range", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(4)).Return(storedBlock(4, "a"), nil)
		tm.client.EXPECT().GetBlockHeader(gomock.Any(), uint64(4)).Return(chainHeader(4, "b"), nil)
		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(3)).Return(nil, nil)

		ancestor, err := tm.handler.Resolve(context.Background(), &indexer.Reorg{Height: 5})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), ancestor)
	})

	t.Run("too deep", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 3})
		defer tearDownReorgTest(tm)

		for _, n := range []uint64{9, 8, 7} {
			tm.store.EXPECT().GetBlockByNumber(gomock.Any(), n).Return(storedBlock(n, "a"), nil)
			tm.client.EXPECT().GetBlockHeader(gomock.Any(), n).Return(chainHeader(n, "b"), nil)
		}

		_, err := tm.handler.Resolve(context.Background(), &indexer.Reorg{Height: 10})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrReorgTooDeep))
	})

	t.Run("genesis differs", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(0)).Return(storedBlock(0, "a"), nil)
		tm.client.EXPECT().GetBlockHeader(gomock.Any(), uint64(0)).Return(chainHeader(0, "b"), nil)

		_, err := tm.handler.Resolve(context.Background(), &indexer.Reorg{Height: 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrReorgTooDeep))
	})

	t.Run("conflict at genesis", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		_, err := tm.handler.Resolve(context.Background(), &indexer.Reorg{Height: 0})
		assert.True(t, errors.Is(err, domain.ErrReorgTooDeep))
	})

	t.Run("chain lookup fails", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(9)).Return(storedBlock(9, "a"), nil)
		tm.client.EXPECT().GetBlockHeader(gomock.Any(), uint64(9)).Return(nil, domain.ErrBlockNotFound)

		_, err := tm.handler.Resolve(context.Background(), &indexer.Reorg{Height: 10})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrBlockNotFound))
		assert.False(t, errors.Is(err, domain.ErrReorgTooDeep))
	})
}

func TestReorgHandler_Handle(t *testing.T) {
	t.Run("invalidates above the ancestor", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(9)).Return(storedBlock(9, "a"), nil)
		tm.client.EXPECT().GetBlockHeader(gomock.Any(), uint64(9)).Return(chainHeader(9, "a"), nil)
		tm.store.EXPECT().GetSyncCursor(gomock.Any()).Return(&schema.SyncState{CurrentBlock: 12}, nil)

		result := &store.InvalidationResult{FromBlock: 10, Blocks: 3, Transactions: 6, Logs: 3, TokenTransfers: 3}
		tm.store.EXPECT().InvalidateFrom(gomock.Any(), uint64(10)).Return(result, nil)

		reorg := &indexer.Reorg{Height: 10, StoredHash: testHash("block", 10, "a"), ChainHash: testHash("block", 10, "b")}
		outcome, err := tm.handler.Handle(context.Background(), reorg)
		require.NoError(t, err)
		assert.Equal(t, &indexer.ReorgOutcome{Reorg: reorg, Ancestor: 9, Depth: 1, Invalidated: result}, outcome)
	})

	t.Run("ancestor is clamped to the cursor", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		// a row at 14 was written ahead of the cursor
		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(13)).Return(nil, nil)
		tm.store.EXPECT().GetSyncCursor(gomock.Any()).Return(&schema.SyncState{CurrentBlock: 11}, nil)
		tm.store.EXPECT().InvalidateFrom(gomock.Any(), uint64(12)).Return(&store.InvalidationResult{FromBlock: 12}, nil)

		outcome, err := tm.handler.Handle(context.Background(), &indexer.Reorg{Height: 14})
		require.NoError(t, err)
		assert.Equal(t, uint64(11), outcome.Ancestor)
		assert.Equal(t, uint64(3), outcome.Depth)
	})

	t.Run("too deep leaves the store untouched", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 1})
		defer tearDownReorgTest(tm)

		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(4)).Return(storedBlock(4, "a"), nil)
		tm.client.EXPECT().GetBlockHeader(gomock.Any(), uint64(4)).Return(chainHeader(4, "b"), nil)
		tm.store.EXPECT().InvalidateFrom(gomock.Any(), gomock.Any()).Times(0)

		_, err := tm.handler.Handle(context.Background(), &indexer.Reorg{Height: 5})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrReorgTooDeep))
	})

	t.Run("invalidation fails", func(t *testing.T) {
		tm := setupReorgTest(t, indexer.ReorgConfig{MaxDepth: 8})
		defer tearDownReorgTest(tm)

		tm.store.EXPECT().GetBlockByNumber(gomock.Any(), uint64(4)).Return(nil, nil)
		tm.store.EXPECT().GetSyncCursor(gomock.Any()).Return(&schema.SyncState{CurrentBlock: 5}, nil)
		tm.store.EXPECT().InvalidateFrom(gomock.Any(), uint64(5)).Return(nil, errors.New("deadlock detected"))

		_, err := tm.handler.Handle(context.Background(), &indexer.Reorg{Height: 5})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to invalidate blocks above 4")
	})
}

func TestReorgError(t *testing.T) {
	err := error(&indexer.ReorgError{Reorg: &indexer.Reorg{Height: 12}})
	assert.True(t, errors.Is(err, domain.ErrReorgDetected))
	assert.Equal(t, "chain reorganization detected at block 12", err.Error())

	var reorgErr *indexer.ReorgError
	require.True(t, errors.As(err, &reorgErr))
	assert.Equal(t, uint64(12), reorgErr.Reorg.Height)
}
