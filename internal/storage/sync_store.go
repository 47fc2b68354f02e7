package storage

import (
	"fmt"
	"time"

	"github.com/thanhnp/poa-ledger/internal/codec"
)

// SyncState records the last chain adopted from a peer
type SyncState struct {
	Peer   string    `json:"peer"`
	Height int       `json:"height"`
	Time   time.Time `json:"time"`
}

// SyncStore handles sync state storage operations
type SyncStore struct {
	db    *PebbleDB
	codec *codec.Codec
}

// NewSyncStore creates a new SyncStore
func NewSyncStore(db *PebbleDB, c *codec.Codec) *SyncStore {
	return &SyncStore{db: db, codec: c}
}

// GetSyncState retrieves the last sync state for a node, or nil if the node
// never adopted a peer chain
func (s *SyncStore) GetSyncState(name string) (*SyncState, error) {
	data, err := s.db.Get(CFSyncState, []byte(name))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var state SyncState
	if err := s.codec.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync state: %w", err)
	}
	return &state, nil
}

// SetSyncState records the last sync state for a node
func (s *SyncStore) SetSyncState(name string, state SyncState) error {
	data, err := s.codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}
	return s.db.Put(CFSyncState, []byte(name), data)
}
