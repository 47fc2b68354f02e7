package storage

import (
	"fmt"
	"strconv"

	"github.com/thanhnp/poa-ledger/internal/codec"
	"github.com/thanhnp/poa-ledger/internal/models"
)

// SnapshotStore persists one ledger snapshot per node name in Pebble
type SnapshotStore struct {
	db    *PebbleDB
	codec *codec.Codec
}

// NewSnapshotStore creates a new SnapshotStore
func NewSnapshotStore(db *PebbleDB, c *codec.Codec) *SnapshotStore {
	return &SnapshotStore{db: db, codec: c}
}

// Load retrieves the snapshot persisted under name, or nil if there is none
func (s *SnapshotStore) Load(name string) (*models.Snapshot, error) {
	data, err := s.db.Get(CFSnapshots, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var snapshot models.Snapshot
	if err := s.codec.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// Save replaces the snapshot persisted under name. The chain, its hash index
// and the height are committed in one batch.
func (s *SnapshotStore) Save(name string, snapshot *models.Snapshot) error {
	data, err := s.codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Destroy()

	if err := s.db.PutBatch(batch, CFSnapshots, []byte(name), data); err != nil {
		return err
	}

	// Height is kept separately so it can be read without decoding the chain
	height := []byte(strconv.Itoa(len(snapshot.Chain)))
	if err := s.db.PutBatch(batch, CFHeights, []byte(name), height); err != nil {
		return err
	}

	return s.db.WriteBatch(batch)
}

// Height returns the persisted height for name, or -1 if nothing is stored
func (s *SnapshotStore) Height(name string) (int, error) {
	data, err := s.db.Get(CFHeights, []byte(name))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return -1, nil
	}

	height, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("failed to parse height: %w", err)
	}
	return height, nil
}
