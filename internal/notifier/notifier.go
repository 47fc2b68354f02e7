package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is used when no interval is configured
const DefaultPollInterval = 10 * time.Second

// HeightHandler is called when a peer reports a taller chain than it did
// on the previous poll
type HeightHandler func(peer string, height int)

// Peer is a node whose chain height can be polled
type Peer interface {
	URL() string
	Height(ctx context.Context) (int, error)
}

// Baseline returns the height a peer must exceed to be reported
type Baseline func() (int, error)

// HeightNotifier polls the chain height of one peer
type HeightNotifier struct {
	log             zerolog.Logger
	peer            Peer
	pollInterval    time.Duration
	baseline        Baseline
	mu              sync.RWMutex
	handlers        []HeightHandler
	lastKnownHeight int
	running         bool
	cancel          context.CancelFunc
	queue           chan int
	done            sync.WaitGroup
}

// NewHeightNotifier creates a notifier for peer. A non-positive interval
// selects DefaultPollInterval.
//
// Without a baseline, a height is reported when it exceeds every height the
// peer reported before. With a baseline, every poll that finds the peer
// above the baseline is reported, so a handler that failed is retried on the
// next poll.
func NewHeightNotifier(log zerolog.Logger, peer Peer, interval time.Duration, baseline Baseline) *HeightNotifier {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &HeightNotifier{
		log:          log.With().Str("component", "notifier").Str("peer", peer.URL()).Logger(),
		peer:         peer,
		pollInterval: interval,
		baseline:     baseline,
		queue:        make(chan int, 16),
	}
}

// OnTaller registers a handler for reported heights
func (n *HeightNotifier) OnTaller(handler HeightHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, handler)
}

// LastKnownHeight returns the last height the peer reported
func (n *HeightNotifier) LastKnownHeight() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastKnownHeight
}

// Start polls the peer right away and then on every interval until Stop is
// called or ctx is done
func (n *HeightNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return fmt.Errorf("notifier already running")
	}

	ctx, n.cancel = context.WithCancel(ctx)
	n.running = true

	n.log.Debug().Dur("interval", n.pollInterval).Msg("starting height polling")

	n.done.Add(2)
	go n.superQueue(ctx)
	go n.pollHeights(ctx)

	return nil
}

// Stop stops the notifier and waits for its goroutines to exit
func (n *HeightNotifier) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.cancel()
	n.running = false
	n.mu.Unlock()

	n.done.Wait()
	n.log.Debug().Msg("height polling stopped")
	return nil
}

// pollHeights polls the peer periodically
func (n *HeightNotifier) pollHeights(ctx context.Context) {
	defer n.done.Done()

	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	n.checkForNewHeight(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.checkForNewHeight(ctx)
		}
	}
}

// checkForNewHeight queues the peer height if it is above the baseline, or
// if it grew since the last poll when there is no baseline
func (n *HeightNotifier) checkForNewHeight(ctx context.Context) {
	height, err := n.peer.Height(ctx)
	if err != nil {
		if ctx.Err() == nil {
			n.log.Warn().Err(err).Msg("failed to get peer height")
		}
		return
	}

	n.mu.Lock()
	taller := height > n.lastKnownHeight
	if taller {
		n.lastKnownHeight = height
	}
	n.mu.Unlock()

	if n.baseline != nil {
		local, err := n.baseline()
		if err != nil {
			n.log.Warn().Err(err).Msg("failed to get baseline height")
			return
		}
		taller = height > local
	}

	if !taller {
		return
	}

	n.log.Debug().Int("height", height).Msg("peer chain ahead")

	// A full queue already holds a pending report; the next poll retries.
	select {
	case n.queue <- height:
	default:
	}
}

// superQueue hands queued heights to the handlers one at a time
func (n *HeightNotifier) superQueue(ctx context.Context) {
	defer n.done.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case height := <-n.queue:
			n.mu.RLock()
			handlers := append([]HeightHandler(nil), n.handlers...)
			n.mu.RUnlock()

			for _, handler := range handlers {
				handler(n.peer.URL(), height)
			}
		}
	}
}
