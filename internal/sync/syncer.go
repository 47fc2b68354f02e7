package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/thanhnp/poa-ledger/internal/client"
	"github.com/thanhnp/poa-ledger/internal/models"
	"github.com/thanhnp/poa-ledger/internal/notifier"
	"github.com/thanhnp/poa-ledger/internal/storage"
)

// ErrNoPeers is returned when a sync round has nobody to sync from
var ErrNoPeers = errors.New("no peers configured")

// Ledger is the local chain the syncer replicates into
type Ledger interface {
	Name() string
	Height() (int, error)
	Replace(snapshot *models.Snapshot) (bool, error)
}

// StateStore records the last chain adopted from a peer
type StateStore interface {
	SetSyncState(name string, state storage.SyncState) error
}

// Metrics counts adopted chains
type Metrics interface {
	Adopted()
}

// Syncer replaces the local chain with the longest valid chain among its
// peers. It never overwrites the local chain with one that is not strictly
// taller or that fails verification.
type Syncer struct {
	log       zerolog.Logger
	ledger    Ledger
	peers     []string
	interval  time.Duration
	syncStore StateStore
	metrics   Metrics
	mu        sync.Mutex // serializes rounds and peer syncs
	state     sync.Mutex
	syncing   bool
	notifiers []*notifier.HeightNotifier
}

// Option configures a Syncer
type Option func(*Syncer)

// WithStateStore records every adoption in the given store
func WithStateStore(store StateStore) Option {
	return func(s *Syncer) {
		s.syncStore = store
	}
}

// WithMetrics counts adoptions
func WithMetrics(metrics Metrics) Option {
	return func(s *Syncer) {
		s.metrics = metrics
	}
}

// WithInterval sets how often peers are polled while the syncer runs
func WithInterval(interval time.Duration) Option {
	return func(s *Syncer) {
		s.interval = interval
	}
}

// NewSyncer creates a new Syncer
func NewSyncer(log zerolog.Logger, l Ledger, peers []string, options ...Option) *Syncer {
	s := Syncer{
		log:      log.With().Str("component", "syncer").Logger(),
		ledger:   l,
		peers:    peers,
		interval: notifier.DefaultPollInterval,
	}
	for _, option := range options {
		option(&s)
	}
	return &s
}

// RunOnce polls every peer concurrently and adopts the chain of each peer
// that is taller than the local one, in turn. Errors of individual peers
// are aggregated; they do not stop the round.
func (s *Syncer) RunOnce(ctx context.Context) error {
	if len(s.peers) == 0 {
		return ErrNoPeers
	}

	var (
		mu     sync.Mutex
		result *multierror.Error
	)

	var group errgroup.Group
	for _, peer := range s.peers {
		peer := peer
		group.Go(func() error {
			_, err := s.syncPeer(ctx, peer)
			if err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("peer %s: %w", peer, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()

	return result.ErrorOrNil()
}

// Start polls every peer on the configured interval and syncs from any peer
// whose chain is taller than the local one
func (s *Syncer) Start(ctx context.Context) error {
	s.state.Lock()
	defer s.state.Unlock()

	if s.syncing {
		return nil
	}

	var started []*notifier.HeightNotifier
	for _, peer := range s.peers {
		// Peers are compared with the local height on every poll, so a failed
		// sync or a pruned local chain is retried without waiting for the peer
		// to grow.
		n := notifier.NewHeightNotifier(s.log, client.New(peer), s.interval, s.ledger.Height)
		n.OnTaller(func(peer string, height int) {
			s.handleTaller(ctx, peer, height)
		})
		if err := n.Start(ctx); err != nil {
			for _, n := range started {
				_ = n.Stop()
			}
			return fmt.Errorf("failed to start notifier for %s: %w", peer, err)
		}
		started = append(started, n)
	}

	s.notifiers = started
	s.syncing = true

	s.log.Info().Int("peers", len(s.peers)).Dur("interval", s.interval).Msg("syncer started")
	return nil
}

// Stop stops polling peers
func (s *Syncer) Stop() error {
	s.state.Lock()
	defer s.state.Unlock()

	if !s.syncing {
		return nil
	}

	var result *multierror.Error
	for _, n := range s.notifiers {
		if err := n.Stop(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.notifiers = nil
	s.syncing = false

	s.log.Info().Msg("syncer stopped")
	return result.ErrorOrNil()
}

// IsSyncing returns whether the syncer is polling its peers
func (s *Syncer) IsSyncing() bool {
	s.state.Lock()
	defer s.state.Unlock()
	return s.syncing
}

// handleTaller syncs from a peer whose chain grew past the local height
func (s *Syncer) handleTaller(ctx context.Context, peer string, height int) {
	local, err := s.ledger.Height()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get local height")
		return
	}
	if height <= local {
		return
	}

	if _, err := s.syncPeer(ctx, peer); err != nil {
		s.log.Warn().Err(err).Str("peer", peer).Msg("failed to sync from peer")
	}
}

// syncPeer adopts the chain of peer if it is taller than the local chain and
// verifies. It reports whether the chain was adopted.
func (s *Syncer) syncPeer(ctx context.Context, peer string) (bool, error) {
	c, version, err := client.Connect(ctx, peer)
	if err != nil {
		return false, err
	}

	remote, err := c.Height(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get peer height: %w", err)
	}

	// Only one snapshot is fetched and adopted at a time
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.ledger.Height()
	if err != nil {
		return false, fmt.Errorf("failed to get local height: %w", err)
	}
	if remote <= local {
		s.log.Debug().Str("peer", peer).Int("height", remote).Int("local", local).Msg("peer not ahead")
		return false, nil
	}

	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch peer chain: %w", err)
	}

	adopted, err := s.ledger.Replace(snapshot)
	if err != nil {
		return false, fmt.Errorf("failed to adopt peer chain: %w", err)
	}
	if !adopted {
		return false, nil
	}

	s.log.Info().
		Str("peer", peer).
		Str("version", version.String()).
		Int("previous_height", local).
		Int("height", snapshot.Height()).
		Msg("adopted peer chain")

	if s.metrics != nil {
		s.metrics.Adopted()
	}

	if s.syncStore != nil {
		state := storage.SyncState{Peer: peer, Height: snapshot.Height(), Time: time.Now().UTC()}
		if err := s.syncStore.SetSyncState(s.ledger.Name(), state); err != nil {
			return true, fmt.Errorf("failed to record sync state: %w", err)
		}
	}

	return true, nil
}
