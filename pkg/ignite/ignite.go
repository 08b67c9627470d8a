// Package ignite provides a high-performance, embedded key/value data
// store built around a log-structured merge design, inspired by
// Bitcask. Writes land in an in-memory buffer before being flushed as
// immutable, key-sorted segment files on disk; a sparse index and bloom
// filter keep point lookups fast without requiring every key to live in
// memory. It is designed for applications requiring fast read and write
// operations, such as caching, session management, and real-time data
// processing, aiming to provide a simple, efficient, and reliable
// solution for embedded data storage in Go applications.
package ignite

import (
	"context"

	"github.com/kraytos17/kv-db/internal/engine"
	"github.com/kraytos17/kv-db/pkg/logger"
	"github.com/kraytos17/kv-db/pkg/options"
)

// Represents an instance of the Ignite key/value data store.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is the primary entry point for interacting with the Ignite store,
// providing methods for setting, getting, and deleting key-value pairs.
type Instance struct {
	engine  *engine.Engine   // The underlying database engine handling read/write operations.
	options *options.Options // Configuration options applied to this DB instance.
}

// Creates and initializes a new Ignite DB instance.
func NewInstance(context context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize a logger for the given service.
	log := logger.New(service)

	// Initialize default options.
	defaultOpts := options.NewDefaultOptions()

	// Apply any provided functional options to override defaults.
	if len(opts) > 0 {
		for _, opt := range opts {
			opt(&defaultOpts)
		}
	}

	// Create a new internal engine with the initialized logger.
	eng, err := engine.New(context, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Set stores a key-value pair in the database.
// If the key already exists, its value will be updated. The write lands
// in the in-memory buffer first; it becomes durable once that buffer is
// flushed to a segment file (on capacity, or on Close).
func (i *Instance) Set(ctx context.Context, key string, value []byte) error {
	return i.engine.Insert(ctx, key, string(value))
}

// Get retrieves the value associated with the given key. It returns
// false if the key is absent or has been deleted.
func (i *Instance) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := i.engine.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	return []byte(value), true, nil
}

// Delete removes a key-value pair from the database. The key is marked
// as deleted immediately by writing a tombstone record; merges carry
// tombstones forward and never reclaim them.
func (i *Instance) Delete(ctx context.Context, key string) error {
	return i.engine.Delete(ctx, key)
}

// Close gracefully shuts down the Ignite DB instance: it flushes the
// in-memory buffer to a segment so pending writes survive, closes every
// open segment handle, and releases the data directory.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
