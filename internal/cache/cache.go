// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache implements the persistent retrieval cache on BadgerDB.
//
// Entries are keyed by (candidate, stage, query) so one candidate's
// retrieval can never leak into another's. Badger transactions make each
// write atomic: a concurrent reader sees either the whole value or no
// value, which replaces the temp-file-and-rename scheme a file cache
// would need. Concurrent readers and writers on disjoint keys are safe.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Stage identifies the pipeline stage a cache entry belongs to.
type Stage string

const (
	StageSearch Stage = "search"
	StageFetch  Stage = "fetch"
	StageEmbed  Stage = "embed"
)

// Store is the persistent key-value cache shared by retrieval stages.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter routes Badger's logger onto slog.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens (or creates) the cache at dir. An in-memory cache is used
// when inMemory is set; tests rely on this mode.
func Open(dir string, inMemory bool) (*Store, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}

	logger := slog.Default().With("component", "cache")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// key builds the cache key: cache/{candidateID}/{stage}/{sha256(query)[:16]}.
// Hashing keeps arbitrary query strings out of the key space while still
// binding the entry to the exact query text.
func key(candidateID string, stage Stage, query string) []byte {
	sum := sha256.Sum256([]byte(query))
	return []byte(fmt.Sprintf("cache/%s/%s/%x", candidateID, stage, sum[:8]))
}

// Get looks up the entry for (candidateID, stage, query) and unmarshals
// it into v. The second return is false on a miss.
func (s *Store) Get(candidateID string, stage Stage, query string, v any) (bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(candidateID, stage, query))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// A corrupt entry is treated as a miss so retrieval can refill it.
		s.logger.Warn("discarding corrupt cache entry",
			"candidate", candidateID, "stage", string(stage), "err", err)
		return false, nil
	}
	return true, nil
}

// Put stores v under (candidateID, stage, query) as a single atomic write.
func (s *Store) Put(candidateID string, stage Stage, query string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache put: marshaling value: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(candidateID, stage, query), data)
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
