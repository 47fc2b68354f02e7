package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/poa-ledger/internal/models"
	"github.com/thanhnp/poa-ledger/testing/mocks"
)

func appendBlocks(t *testing.T, store Store, n int) *Ledger {
	t.Helper()

	l, err := New(mocks.NoopLogger, mocks.GenericNode, store, WithClock(mocks.Clock()))
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		_, err := l.Append(models.NewBlock(models.Payload{"n": i, "metadata": "authentic"}, l.cfg.Clock()))
		require.NoError(t, err)
	}
	require.True(t, l.IsValid())

	return l
}

func TestLedger_ScenarioB(t *testing.T) {
	l := appendBlocks(t, mocks.BaselineStore(), 2)
	require.Len(t, l.chain, 3)

	l.chain[1].Data["metadata"] = "tampered"

	assert.False(t, l.IsValid())

	err := l.RejectInvalidBlocks()
	require.NoError(t, err)

	assert.Len(t, l.chain, 1)
	assert.Len(t, l.hashIndex, 1)
	assert.True(t, l.IsValid())
}

func TestLedger_TamperProperty(t *testing.T) {
	const n = 4

	fields := map[string]func(b *models.Block){
		"time":         func(b *models.Block) { b.Time = "0" },
		"data":         func(b *models.Block) { b.Data["metadata"] = "tampered" },
		"previousHash": func(b *models.Block) { b.PreviousHash = "0000" },
		"hash":         func(b *models.Block) { b.Hash = "0000" },
	}

	for field, mutate := range fields {
		for k := 1; k <= n; k++ {
			field, mutate, k := field, mutate, k
			t.Run(fmt.Sprintf("%s of block %d", field, k), func(t *testing.T) {
				store := mocks.BaselineStore()
				l := appendBlocks(t, store, n)

				mutate(&l.chain[k])
				assert.False(t, l.IsValid())

				require.NoError(t, l.RejectInvalidBlocks())
				assert.Len(t, l.chain, k)
				assert.Equal(t, models.IndexChain(l.chain), l.hashIndex)
				assert.True(t, l.IsValid())

				persisted, err := store.Load(mocks.GenericNode)
				require.NoError(t, err)
				assert.Len(t, persisted.Chain, k)
			})
		}
	}
}

func TestLedger_RejectInvalidBlocks_Idempotent(t *testing.T) {
	l := appendBlocks(t, mocks.BaselineStore(), 3)
	chain := append([]models.Block(nil), l.chain...)
	index := models.IndexChain(chain)

	require.NoError(t, l.RejectInvalidBlocks())
	require.NoError(t, l.RejectInvalidBlocks())

	assert.Equal(t, chain, l.chain)
	assert.Equal(t, index, l.hashIndex)
}

func TestLedger_RejectInvalidBlocks_PersistenceFailure(t *testing.T) {
	store := mocks.BaselineStore()
	l := appendBlocks(t, store, 3)
	l.chain[2].Data["metadata"] = "tampered"

	store.SaveFunc = func(string, *models.Snapshot) error {
		return mocks.GenericError
	}

	err := l.RejectInvalidBlocks()
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, l.chain, 4, "in-memory chain must not be truncated when the write failed")

	_, err = l.Height()
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestLedger_HealsBeforeOperations(t *testing.T) {
	t.Run("reads", func(t *testing.T) {
		l := appendBlocks(t, mocks.BaselineStore(), 3)
		l.chain[2].Data["metadata"] = "tampered"

		height, err := l.Height()
		require.NoError(t, err)
		assert.Equal(t, 2, height)
	})

	t.Run("propose", func(t *testing.T) {
		l := appendBlocks(t, mocks.BaselineStore(), 3)
		l.chain[1].Data["metadata"] = "tampered"
		genesis := l.chain[0]

		hash, err := l.Propose(mocks.GenericPayload)
		require.NoError(t, err)

		assert.Len(t, l.chain, 1)
		assert.Equal(t, l.pool.Front().Seal(genesis.Hash).Hash, hash)
	})

	t.Run("confirm", func(t *testing.T) {
		l := appendBlocks(t, mocks.BaselineStore(), 3)
		l.cfg.Authorizer = mocks.BaselineAuthorizer()
		_, err := l.Propose(mocks.GenericPayload)
		require.NoError(t, err)
		l.chain[3].PreviousHash = "0000"

		hashes, err := l.Confirm(mocks.GenericValidator)
		require.NoError(t, err)
		require.Len(t, hashes, 1)

		assert.Len(t, l.chain, 4)
		assert.Equal(t, l.chain[2].Hash, l.chain[3].PreviousHash)
		assert.True(t, l.IsValid())
	})

	t.Run("heal reports pruned count", func(t *testing.T) {
		l := appendBlocks(t, mocks.BaselineStore(), 5)
		l.chain[3].Time = "1"

		pruned, err := l.Heal()
		require.NoError(t, err)
		assert.Equal(t, 3, pruned)

		pruned, err = l.Heal()
		require.NoError(t, err)
		assert.Zero(t, pruned)
	})
}

func TestFirstInvalid(t *testing.T) {
	l := appendBlocks(t, mocks.BaselineStore(), 3)

	assert.Equal(t, 4, firstInvalid(l.chain))
	assert.Equal(t, 0, firstInvalid(nil))

	l.chain[0].Data = models.Payload{"genesis": "is not checked"}
	assert.Equal(t, 4, firstInvalid(l.chain))
}
