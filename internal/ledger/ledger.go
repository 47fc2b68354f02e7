package ledger

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thanhnp/poa-ledger/internal/models"
)

// Ledger owns the hash-linked chain of a node, its hash index and the pool
// of pending proposals. All three are guarded by a single mutex, and every
// exported operation first checks the chain and prunes any invalid suffix
// inside the same critical section.
type Ledger struct {
	log   zerolog.Logger
	cfg   Config
	name  string
	store Store

	mu        sync.Mutex
	chain     []models.Block
	hashIndex map[string]int
	pool      *Pool
}

// New loads the ledger persisted under name, or seeds a fresh one holding
// only a genesis block when nothing (or an empty chain) was persisted.
func New(log zerolog.Logger, name string, store Store, options ...Option) (*Ledger, error) {
	cfg := DefaultConfig
	for _, option := range options {
		option(&cfg)
	}

	l := Ledger{
		log:   log.With().Str("component", "ledger").Str("node", name).Logger(),
		cfg:   cfg,
		name:  name,
		store: store,
		pool:  NewPool(),
	}

	snapshot, err := store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("could not load snapshot: %w: %w", ErrPersistence, err)
	}

	if snapshot == nil || len(snapshot.Chain) == 0 {
		genesis := models.NewBlock(models.Payload{}, cfg.Clock())
		l.chain = []models.Block{genesis}
		l.hashIndex = map[string]int{genesis.Hash: 0}
		l.log.Info().Str("genesis", genesis.Hash).Msg("seeded new chain")
	} else {
		l.chain = snapshot.Chain
		l.hashIndex = snapshot.HashIndex
		if !indexConsistent(l.chain, l.hashIndex) {
			l.log.Warn().Msg("persisted hash index inconsistent with chain, rebuilding")
			l.hashIndex = models.IndexChain(l.chain)
		}
		l.log.Info().Int("height", len(l.chain)).Msg("loaded persisted chain")
	}

	cfg.Metrics.Height(len(l.chain))

	return &l, nil
}

// Name returns the node name the ledger is persisted under.
func (l *Ledger) Name() string {
	return l.name
}

// Last returns the tail of the chain.
func (l *Ledger) Last() (models.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return models.Block{}, err
	}
	return l.last().Copy(), nil
}

// Latest returns the tail of the chain together with its height, read in
// the same critical section.
func (l *Ledger) Latest() (models.Block, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return models.Block{}, 0, err
	}
	return l.last().Copy(), len(l.chain) - 1, nil
}

// Height returns the number of blocks in the chain, genesis included.
func (l *Ledger) Height() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return 0, err
	}
	return len(l.chain), nil
}

// ByHeight returns the block at the given position.
func (l *Ledger) ByHeight(height int64) (models.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return models.Block{}, err
	}
	if height < 0 || height >= int64(len(l.chain)) {
		return models.Block{}, fmt.Errorf("height %d: %w", height, ErrNotFound)
	}
	return l.chain[height].Copy(), nil
}

// ByHash returns the block with the given hash together with its height.
func (l *Ledger) ByHash(hash string) (models.Block, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return models.Block{}, 0, err
	}
	height, ok := l.hashIndex[hash]
	if !ok {
		return models.Block{}, 0, fmt.Errorf("hash %s: %w", hash, ErrNotFound)
	}
	return l.chain[height].Copy(), height, nil
}

// Snapshot returns a deep copy of the chain and its hash index.
func (l *Ledger) Snapshot() (*models.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return nil, err
	}
	s := models.Snapshot{Chain: l.chain, HashIndex: l.hashIndex}
	return s.Copy(), nil
}

// Append seals the candidate against the current tail and persists the
// grown chain. It returns the hash of the sealed block.
func (l *Ledger) Append(candidate models.Block) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return "", err
	}
	return l.append(candidate)
}

// Replace adopts a peer snapshot if it verifies and is strictly taller than
// the local chain. It reports whether the snapshot was adopted.
func (l *Ledger) Replace(snapshot *models.Snapshot) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return false, err
	}

	err := VerifySnapshot(snapshot)
	if err != nil {
		return false, fmt.Errorf("could not verify snapshot: %w", err)
	}
	if len(snapshot.Chain) <= len(l.chain) {
		return false, nil
	}

	adopted := snapshot.Copy()
	err = l.persist(adopted.Chain, adopted.HashIndex)
	if err != nil {
		return false, err
	}

	l.log.Info().
		Int("previous_height", len(l.chain)).
		Int("height", len(adopted.Chain)).
		Msg("adopted peer chain")

	l.chain = adopted.Chain
	l.hashIndex = adopted.HashIndex
	l.cfg.Metrics.Height(len(l.chain))

	return true, nil
}

func (l *Ledger) last() models.Block {
	return l.chain[len(l.chain)-1]
}

// append is the only path that grows the chain. The caller holds the lock.
func (l *Ledger) append(candidate models.Block) (string, error) {
	sealed := candidate.Seal(l.last().Hash)

	n := len(l.chain)
	l.chain = append(l.chain, sealed)
	l.hashIndex[sealed.Hash] = n

	err := l.persist(l.chain, l.hashIndex)
	if err != nil {
		l.chain = l.chain[:n]
		delete(l.hashIndex, sealed.Hash)
		return "", err
	}

	l.cfg.Metrics.Height(len(l.chain))

	return sealed.Hash, nil
}

func (l *Ledger) persist(chain []models.Block, index map[string]int) error {
	err := l.store.Save(l.name, &models.Snapshot{Chain: chain, HashIndex: index})
	if err != nil {
		return fmt.Errorf("could not save snapshot: %w: %w", ErrPersistence, err)
	}
	return nil
}

func indexConsistent(chain []models.Block, index map[string]int) bool {
	if len(index) != len(chain) {
		return false
	}
	for i, b := range chain {
		position, ok := index[b.Hash]
		if !ok || position != i {
			return false
		}
	}
	return true
}
