package ledger

import (
	"fmt"
	"time"

	"github.com/thanhnp/poa-ledger/internal/models"
)

// ConfirmedByKey is the payload key stamped with the confirming identity.
const ConfirmedByKey = "confirmedBy"

// Propose stages a payload in the pending pool and returns the hash the
// block would have if it were sealed against the current tail. That hash
// goes stale as soon as another block is confirmed first, and confirmation
// stamps the validator into the payload, so the sealed hash always differs.
func (l *Ledger) Propose(data models.Payload) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.propose(data)
}

// ProposeAfter is Propose for a request signed at timestamp milliseconds.
// The proposal is rejected with ErrStaleTimestamp unless timestamp is newer
// than the chain tail at the moment it is staged.
func (l *Ledger) ProposeAfter(data models.Payload, timestamp int64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.heal(); err != nil {
		return "", err
	}

	tail, err := models.ParseMillis(l.last().Time)
	if err != nil {
		return "", fmt.Errorf("could not read tail time: %w: %w", ErrIntegrity, err)
	}
	if timestamp <= tail {
		return "", fmt.Errorf("timestamp %d not after %d: %w", timestamp, tail, ErrStaleTimestamp)
	}

	return l.propose(data)
}

func (l *Ledger) propose(data models.Payload) (string, error) {
	if data == nil {
		return "", fmt.Errorf("missing data: %w", ErrMalformedPayload)
	}
	_, err := data.Canonical()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if _, err := l.heal(); err != nil {
		return "", err
	}

	candidate := models.NewBlock(data.Clone(), time.UnixMilli(l.nextTime()))
	l.pool.Push(candidate)

	l.cfg.Metrics.Proposed()
	l.cfg.Metrics.Pending(l.pool.Len())

	prospective := candidate.Seal(l.last().Hash).Hash

	l.log.Debug().
		Str("hash", prospective).
		Int("pending", l.pool.Len()).
		Msg("block pending")

	return prospective, nil
}

// Confirm seals every pending block, oldest first, stamped with the given
// validator identity. Blocks are appended one at a time because each one
// links to the block appended just before it. If an append fails, the
// blocks already sealed stay sealed and the pool keeps exactly the blocks
// that were not, starting with the one that failed.
func (l *Ledger) Confirm(identity string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.cfg.Authorizer.Authorized(identity) {
		return nil, fmt.Errorf("confirm by %q: %w", identity, ErrUnauthorized)
	}

	if _, err := l.heal(); err != nil {
		return nil, err
	}

	total := l.pool.Len()
	hashes := make([]string, 0, total)
	for l.pool.Len() > 0 {
		draft := l.pool.Front().Copy()
		draft.Data = draft.Data.With(ConfirmedByKey, identity)

		hash, err := l.append(draft)
		if err != nil {
			l.cfg.Metrics.Confirmed(len(hashes))
			l.cfg.Metrics.Pending(l.pool.Len())
			return hashes, fmt.Errorf("could not confirm block %d of %d: %w", len(hashes)+1, total, err)
		}

		l.pool.PopFront()
		hashes = append(hashes, hash)

		l.log.Info().
			Str("hash", hash).
			Str("validator", identity).
			Msg("block confirmed")
	}

	l.cfg.Metrics.Confirmed(len(hashes))
	l.cfg.Metrics.Pending(0)

	return hashes, nil
}

// Pending returns copies of the blocks waiting for confirmation.
func (l *Ledger) Pending() []models.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.pool.Items()
}

// nextTime returns the current time in milliseconds, never earlier than the
// chain tail or the newest pending block.
func (l *Ledger) nextTime() int64 {
	now := l.cfg.Clock().UnixMilli()

	if ms, err := models.ParseMillis(l.last().Time); err == nil && ms > now {
		now = ms
	}
	if back, ok := l.pool.Back(); ok {
		if ms, err := models.ParseMillis(back.Time); err == nil && ms > now {
			now = ms
		}
	}

	return now
}
