package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhnp/poa-ledger/internal/ledger"
	"github.com/thanhnp/poa-ledger/internal/models"
	"github.com/thanhnp/poa-ledger/testing/mocks"
)

func inMemoryStores(t *testing.T) *NodeStores {
	t.Helper()

	stores, err := Open(BackendPebble, "ledger", WithInMemory(), WithCacheSize(1<<20))
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	return stores
}

func genericSnapshot(t *testing.T) *models.Snapshot {
	t.Helper()

	var data models.Payload
	require.NoError(t, json.Unmarshal([]byte(`{"metadata":"authentic","amount":12345678901234567890,"ratio":0.10}`), &data))

	genesis := models.NewBlock(models.Payload{}, mocks.GenericTime)
	first := models.NewBlock(data, mocks.GenericTime.Add(time.Millisecond)).Seal(genesis.Hash)
	return models.NewSnapshot([]models.Block{genesis, first})
}

func TestSnapshotStore(t *testing.T) {
	stores := inMemoryStores(t)
	store := stores.Snapshots.(*SnapshotStore)
	snapshot := genericSnapshot(t)

	t.Run("load missing snapshot", func(t *testing.T) {
		got, err := store.Load("missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		height, err := store.Height("missing")
		require.NoError(t, err)
		assert.Equal(t, -1, height)
	})

	t.Run("save and load snapshot", func(t *testing.T) {
		require.NoError(t, store.Save("alpha", snapshot))

		got, err := store.Load("alpha")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, snapshot.HashIndex, got.HashIndex)
		require.Len(t, got.Chain, 2)
		assert.NoError(t, ledger.VerifySnapshot(got))

		height, err := store.Height("alpha")
		require.NoError(t, err)
		assert.Equal(t, 2, height)
	})

	t.Run("names are independent", func(t *testing.T) {
		require.NoError(t, store.Save("beta", models.NewSnapshot(snapshot.Chain[:1])))

		alpha, err := store.Load("alpha")
		require.NoError(t, err)
		beta, err := store.Load("beta")
		require.NoError(t, err)

		assert.Len(t, alpha.Chain, 2)
		assert.Len(t, beta.Chain, 1)
	})

	t.Run("save replaces previous snapshot", func(t *testing.T) {
		require.NoError(t, store.Save("alpha", models.NewSnapshot(snapshot.Chain[:1])))

		got, err := store.Load("alpha")
		require.NoError(t, err)
		assert.Len(t, got.Chain, 1)
	})
}

func TestSyncStore(t *testing.T) {
	stores := inMemoryStores(t)

	state, err := stores.Sync.GetSyncState("alpha")
	require.NoError(t, err)
	assert.Nil(t, state)

	want := SyncState{Peer: "http://localhost:3002", Height: 7, Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, stores.Sync.SetSyncState("alpha", want))

	state, err = stores.Sync.GetSyncState("alpha")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, want.Peer, state.Peer)
	assert.Equal(t, want.Height, state.Height)
	assert.True(t, want.Time.Equal(state.Time))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	stores, err := Open(BackendFile, dir)
	require.NoError(t, err)
	defer stores.Close()

	store := stores.Snapshots
	snapshot := genericSnapshot(t)

	t.Run("load missing snapshot", func(t *testing.T) {
		got, err := store.Load("alpha")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save and load snapshot", func(t *testing.T) {
		require.NoError(t, store.Save("alpha", snapshot))

		_, err := os.Stat(filepath.Join(dir, "alpha_chain.json"))
		require.NoError(t, err)

		got, err := store.Load("alpha")
		require.NoError(t, err)
		assert.NoError(t, ledger.VerifySnapshot(got))
		assert.Equal(t, snapshot.HashIndex, got.HashIndex)
	})

	t.Run("leaves no temporary files", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "alpha_chain.json", entries[0].Name())
	})

	t.Run("persisted record layout", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(dir, "alpha_chain.json"))
		require.NoError(t, err)

		var record map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &record))
		assert.Contains(t, record, "chain")
		assert.Contains(t, record, "hashIndex")

		var chain []map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(record["chain"], &chain))
		require.Len(t, chain, 2)
		for _, field := range []string{"time", "data", "previousHash", "hash"} {
			assert.Contains(t, chain[1], field)
		}
	})

	t.Run("rejects names that escape the directory", func(t *testing.T) {
		for _, name := range []string{"", "..", "a/b", `a\b`} {
			assert.Error(t, store.Save(name, snapshot), name)
			_, err := store.Load(name)
			assert.Error(t, err, name)
		}
	})

	t.Run("rejects corrupted files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_chain.json"), []byte("{"), 0644))

		_, err := store.Load("broken")
		assert.Error(t, err)
	})
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("stormdb", t.TempDir())
	assert.Error(t, err)
}

func backends() map[string]func(t *testing.T) *NodeStores {
	return map[string]func(t *testing.T) *NodeStores{
		BackendPebble: inMemoryStores,
		BackendFile: func(t *testing.T) *NodeStores {
			stores, err := Open(BackendFile, t.TempDir())
			require.NoError(t, err)
			return stores
		},
	}
}

func TestNodeStores_PersistedHeight(t *testing.T) {
	for name, open := range backends() {
		open := open
		t.Run(name, func(t *testing.T) {
			stores := open(t)

			height, err := stores.PersistedHeight(mocks.GenericNode)
			require.NoError(t, err)
			assert.Equal(t, -1, height)

			l, err := ledger.New(mocks.NoopLogger, mocks.GenericNode, stores.Snapshots)
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				_, err = l.Append(models.NewBlock(models.Payload{"n": i}, time.Now()))
				require.NoError(t, err)
			}

			height, err = stores.PersistedHeight(mocks.GenericNode)
			require.NoError(t, err)
			assert.Equal(t, 3, height)

			height, err = stores.PersistedHeight("other")
			require.NoError(t, err)
			assert.Equal(t, -1, height)
		})
	}
}

func TestLedgerOverStores(t *testing.T) {
	for name, open := range backends() {
		open := open
		t.Run(name, func(t *testing.T) {
			stores := open(t)

			first, err := ledger.New(mocks.NoopLogger, mocks.GenericNode, stores.Snapshots)
			require.NoError(t, err)

			var data models.Payload
			require.NoError(t, json.Unmarshal([]byte(`{"id":9007199254740993,"price":1.50}`), &data))
			_, err = first.Append(models.NewBlock(data, time.Now()))
			require.NoError(t, err)
			want, err := first.Snapshot()
			require.NoError(t, err)

			second, err := ledger.New(mocks.NoopLogger, mocks.GenericNode, stores.Snapshots)
			require.NoError(t, err)

			assert.True(t, second.IsValid(), "reloaded chain must verify")
			got, err := second.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, want.HashIndex, got.HashIndex)
			assert.Equal(t, want.Chain[1].Hash, got.Chain[1].Hash)
		})
	}
}
