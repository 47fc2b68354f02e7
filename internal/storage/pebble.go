package storage

import (
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Key prefixes (simulating column families)
const (
	PrefixSnapshots = "snp:"
	PrefixHeights   = "hgt:"
	PrefixSyncState = "syn:"
)

// Column family names
const (
	CFSnapshots = "snapshots"
	CFHeights   = "heights"
	CFSyncState = "sync_state"
)

// Column family name to prefix mapping
var cfPrefixes = map[string]string{
	CFSnapshots: PrefixSnapshots,
	CFHeights:   PrefixHeights,
	CFSyncState: PrefixSyncState,
}

// DefaultCacheSize is the block cache size used when none is configured
const DefaultCacheSize = 64 << 20

// PebbleDB wraps the Pebble database
type PebbleDB struct {
	db *pebble.DB
}

// PebbleOption modifies how a PebbleDB is opened
type PebbleOption func(*pebbleConfig)

type pebbleConfig struct {
	cacheSize int64
	inMemory  bool
}

// WithCacheSize sets the size of the block cache in bytes
func WithCacheSize(size int64) PebbleOption {
	return func(cfg *pebbleConfig) {
		cfg.cacheSize = size
	}
}

// WithInMemory keeps the whole database in memory; nothing touches disk
func WithInMemory() PebbleOption {
	return func(cfg *pebbleConfig) {
		cfg.inMemory = true
	}
}

// WriteBatch wraps Pebble's batch for atomic writes
type WriteBatch struct {
	batch *pebble.Batch
	db    *PebbleDB
}

// NewPebbleDB creates a new PebbleDB instance
func NewPebbleDB(path string, options ...PebbleOption) (*PebbleDB, error) {
	cfg := pebbleConfig{cacheSize: DefaultCacheSize}
	for _, option := range options {
		option(&cfg)
	}

	opts := &pebble.Options{
		Cache:        pebble.NewCache(cfg.cacheSize),
		MaxOpenFiles: 500,
	}

	if cfg.inMemory {
		opts.FS = vfs.NewMem()
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &PebbleDB{db: db}, nil
}

// Close closes the database
func (p *PebbleDB) Close() error {
	return p.db.Close()
}

// prefixKey creates a prefixed key for the given column family
func (p *PebbleDB) prefixKey(cf string, key []byte) ([]byte, error) {
	prefix, ok := cfPrefixes[cf]
	if !ok {
		return nil, fmt.Errorf("column family not found: %s", cf)
	}
	return append([]byte(prefix), key...), nil
}

// Put stores a key-value pair in the specified column family
func (p *PebbleDB) Put(cf string, key, value []byte) error {
	prefixedKey, err := p.prefixKey(cf, key)
	if err != nil {
		return err
	}
	return p.db.Set(prefixedKey, value, pebble.Sync)
}

// Get retrieves a value from the specified column family.
// A missing key yields a nil value and no error.
func (p *PebbleDB) Get(cf string, key []byte) ([]byte, error) {
	prefixedKey, err := p.prefixKey(cf, key)
	if err != nil {
		return nil, err
	}

	value, closer, err := p.db.Get(prefixedKey)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	// Copy the value since it's only valid until closer.Close()
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// NewBatch creates a new write batch
func (p *PebbleDB) NewBatch() *WriteBatch {
	return &WriteBatch{
		batch: p.db.NewBatch(),
		db:    p,
	}
}

// WriteBatch commits a batch to the database; either every operation in it
// becomes durable or none does
func (p *PebbleDB) WriteBatch(batch *WriteBatch) error {
	return batch.batch.Commit(pebble.Sync)
}

// PutBatch adds a put operation to the batch
func (p *PebbleDB) PutBatch(batch *WriteBatch, cf string, key, value []byte) error {
	prefixedKey, err := p.prefixKey(cf, key)
	if err != nil {
		return err
	}
	return batch.batch.Set(prefixedKey, value, nil)
}

// Destroy closes the batch and releases resources
func (b *WriteBatch) Destroy() {
	b.batch.Close()
}
