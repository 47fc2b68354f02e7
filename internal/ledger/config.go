package ledger

import (
	"time"

	"github.com/thanhnp/poa-ledger/internal/models"
)

// Store is the persistence port of the ledger. Save must commit the chain
// and its hash index as a single atomic write. Load returns nil when nothing
// was persisted under the given name.
type Store interface {
	Load(name string) (*models.Snapshot, error)
	Save(name string, snapshot *models.Snapshot) error
}

// Authorizer decides whether an identity may confirm pending blocks.
type Authorizer interface {
	Authorized(identity string) bool
}

// Metrics receives ledger state changes.
type Metrics interface {
	Height(n int)
	Pending(n int)
	Proposed()
	Confirmed(n int)
	Pruned(n int)
}

// Config configures a ledger.
type Config struct {
	Clock      func() time.Time
	Authorizer Authorizer
	Metrics    Metrics
}

// Option is a function that modifies a configuration.
type Option func(*Config)

// DefaultConfig is the ledger's default configuration. Without an
// authorizer, nobody can confirm blocks.
var DefaultConfig = Config{
	Clock:      time.Now,
	Authorizer: denyAll{},
	Metrics:    nopMetrics{},
}

// WithClock sets the time source used to stamp proposals.
func WithClock(clock func() time.Time) Option {
	return func(cfg *Config) {
		cfg.Clock = clock
	}
}

// WithAuthorizer sets the validator allow-list.
func WithAuthorizer(authorizer Authorizer) Option {
	return func(cfg *Config) {
		cfg.Authorizer = authorizer
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(cfg *Config) {
		cfg.Metrics = metrics
	}
}

type denyAll struct{}

func (denyAll) Authorized(string) bool { return false }

type nopMetrics struct{}

func (nopMetrics) Height(int)    {}
func (nopMetrics) Pending(int)   {}
func (nopMetrics) Proposed()     {}
func (nopMetrics) Confirmed(int) {}
func (nopMetrics) Pruned(int)    {}
