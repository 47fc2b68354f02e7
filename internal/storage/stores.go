package storage

import (
	"fmt"

	"github.com/thanhnp/poa-ledger/internal/codec"
	"github.com/thanhnp/poa-ledger/internal/ledger"
)

// Storage backends
const (
	BackendPebble = "pebble"
	BackendFile   = "file"
)

// NodeStores holds all stores of a node. DB and Sync are only set for the
// Pebble backend.
type NodeStores struct {
	DB        *PebbleDB
	Snapshots ledger.Store
	Sync      *SyncStore
}

// Open opens the stores of the given backend rooted at path
func Open(backend, path string, options ...PebbleOption) (*NodeStores, error) {
	switch backend {
	case BackendPebble, "":
		db, err := NewPebbleDB(path, options...)
		if err != nil {
			return nil, err
		}
		return NewNodeStores(db), nil

	case BackendFile:
		files, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return &NodeStores{Snapshots: files}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// NewNodeStores creates all Pebble-backed stores using the given database
func NewNodeStores(db *PebbleDB) *NodeStores {
	c := codec.New()
	return &NodeStores{
		DB:        db,
		Snapshots: NewSnapshotStore(db, c),
		Sync:      NewSyncStore(db, c),
	}
}

// PersistedHeight returns the height persisted for name without building a
// ledger, or -1 if nothing is stored. Pebble keeps the height beside the
// chain; other backends load the snapshot.
func (s *NodeStores) PersistedHeight(name string) (int, error) {
	if heights, ok := s.Snapshots.(interface {
		Height(name string) (int, error)
	}); ok {
		return heights.Height(name)
	}

	snapshot, err := s.Snapshots.Load(name)
	if err != nil {
		return 0, err
	}
	if snapshot == nil {
		return -1, nil
	}
	return len(snapshot.Chain), nil
}

// Close closes the database, if any
func (s *NodeStores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
