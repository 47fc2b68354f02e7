package mocks

import (
	"sync"

	"github.com/thanhnp/poa-ledger/internal/models"
)

type Store struct {
	LoadFunc func(name string) (*models.Snapshot, error)
	SaveFunc func(name string, snapshot *models.Snapshot) error
}

// BaselineStore returns a store that keeps deep copies of saved snapshots
// in memory, keyed by node name.
func BaselineStore() *Store {
	var mu sync.Mutex
	snapshots := make(map[string]*models.Snapshot)

	s := Store{
		LoadFunc: func(name string) (*models.Snapshot, error) {
			mu.Lock()
			defer mu.Unlock()
			snapshot, ok := snapshots[name]
			if !ok {
				return nil, nil
			}
			return snapshot.Copy(), nil
		},
		SaveFunc: func(name string, snapshot *models.Snapshot) error {
			mu.Lock()
			defer mu.Unlock()
			snapshots[name] = snapshot.Copy()
			return nil
		},
	}

	return &s
}

func (s *Store) Load(name string) (*models.Snapshot, error) {
	return s.LoadFunc(name)
}

func (s *Store) Save(name string, snapshot *models.Snapshot) error {
	return s.SaveFunc(name, snapshot)
}
