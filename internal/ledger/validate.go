package ledger

import (
	"fmt"

	"github.com/thanhnp/poa-ledger/internal/models"
)

// IsValid scans the chain from the first block after genesis and reports
// whether every block's hash recomputes and links to its predecessor.
func (l *Ledger) IsValid() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return firstInvalid(l.chain) == len(l.chain)
}

// RejectInvalidBlocks truncates the chain at the first block that fails
// verification, discarding it and everything after it, and persists the
// result. Since each hash commits to its predecessor, nothing downstream of
// a broken link is kept, even if it looks well-formed on its own.
func (l *Ledger) RejectInvalidBlocks() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.rejectInvalidBlocks()
	return err
}

// Heal prunes the chain only when it is invalid, and returns the number of
// blocks that were discarded.
func (l *Ledger) Heal() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.heal()
}

func (l *Ledger) heal() (int, error) {
	if firstInvalid(l.chain) == len(l.chain) {
		return 0, nil
	}
	return l.rejectInvalidBlocks()
}

func (l *Ledger) rejectInvalidBlocks() (int, error) {
	n := firstInvalid(l.chain)

	valid := make([]models.Block, n)
	copy(valid, l.chain[:n])
	index := models.IndexChain(valid)

	err := l.persist(valid, index)
	if err != nil {
		return 0, err
	}

	pruned := len(l.chain) - n
	if pruned > 0 {
		l.log.Warn().
			Int("height", n).
			Int("pruned", pruned).
			Msg("rejected invalid blocks")
		l.cfg.Metrics.Pruned(pruned)
		l.cfg.Metrics.Height(n)
	}

	l.chain = valid
	l.hashIndex = index

	return pruned, nil
}

// firstInvalid returns the position of the first block that fails hash or
// link verification, or the chain length if there is none. Genesis is
// never checked.
func firstInvalid(chain []models.Block) int {
	for i := 1; i < len(chain); i++ {
		if !chain[i].Verify() || chain[i].PreviousHash != chain[i-1].Hash {
			return i
		}
	}
	return len(chain)
}

// VerifySnapshot checks a snapshot received from elsewhere. Unlike the local
// scan, it also requires a well-formed genesis block and a hash index that
// matches the chain exactly.
func VerifySnapshot(s *models.Snapshot) error {
	if s == nil || len(s.Chain) == 0 {
		return fmt.Errorf("empty chain: %w", ErrIntegrity)
	}

	genesis := s.Chain[0]
	if genesis.PreviousHash != "" {
		return fmt.Errorf("genesis has a previous hash: %w", ErrIntegrity)
	}
	if !genesis.Verify() {
		return fmt.Errorf("genesis hash mismatch: %w", ErrIntegrity)
	}

	n := firstInvalid(s.Chain)
	if n != len(s.Chain) {
		return fmt.Errorf("block %d invalid: %w", n, ErrIntegrity)
	}

	if !indexConsistent(s.Chain, s.HashIndex) {
		return fmt.Errorf("hash index does not match chain: %w", ErrIntegrity)
	}

	return nil
}
