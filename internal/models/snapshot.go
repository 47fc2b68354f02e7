package models

// Snapshot is the persisted state of a ledger: the chain and its hash index
type Snapshot struct {
	Chain     []Block        `json:"chain"`
	HashIndex map[string]int `json:"hashIndex"`
}

// NewSnapshot builds a snapshot for the given chain with a fresh hash index
func NewSnapshot(chain []Block) *Snapshot {
	return &Snapshot{
		Chain:     chain,
		HashIndex: IndexChain(chain),
	}
}

// IndexChain maps every block hash of the chain to its position
func IndexChain(chain []Block) map[string]int {
	index := make(map[string]int, len(chain))
	for i, b := range chain {
		index[b.Hash] = i
	}
	return index
}

// Copy returns a deep copy of the snapshot
func (s *Snapshot) Copy() *Snapshot {
	chain := make([]Block, len(s.Chain))
	for i, b := range s.Chain {
		chain[i] = b.Copy()
	}
	index := make(map[string]int, len(s.HashIndex))
	for h, i := range s.HashIndex {
		index[h] = i
	}
	return &Snapshot{Chain: chain, HashIndex: index}
}

// Height returns the number of blocks in the snapshot
func (s *Snapshot) Height() int {
	return len(s.Chain)
}
