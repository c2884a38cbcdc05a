// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

package prefs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/JonKimbel/CatFeeder/internal/logging"
	"github.com/JonKimbel/CatFeeder/internal/metrics"
)

// prefsKey is the single BadgerDB key holding the Preferences record.
const prefsKey = "prefs:current"

// Store is the process-wide preference store: a lazily-loaded in-memory
// cache over BadgerDB. Every mutation goes through Update, which is one
// atomic read-modify-write-persist unit under a single mutex, so a user
// edit and a device check-in can never interleave and overwrite each other.
//
// Persistence is best-effort: a failed write keeps the updated in-memory
// record and logs a warning, so behavior continues correctly until the next
// successful write re-persists it.
type Store struct {
	db *badger.DB

	mu     sync.Mutex
	cached *Preferences // nil until first access
}

// NewStore creates a preference store backed by the given BadgerDB handle.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// OpenDB opens the BadgerDB instance backing the preference store. Badger's
// own logger is disabled; the store logs what matters through zerolog.
func OpenDB(path string, inMemory bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open preference database: %w", err)
	}
	return db, nil
}

// Snapshot returns a copy of the current preferences for display reads.
// Staleness of a few milliseconds is acceptable for rendering; mutations
// must go through Update instead.
func (s *Store) Snapshot() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked().Clone()
}

// Update applies fn to a copy of the current preferences, enforces the
// record invariants, persists the result, and installs it as the new cached
// value. The whole sequence holds the store mutex, making it the single
// serialization point for all writers.
//
// If fn returns an error the update is abandoned and nothing changes.
func (s *Store) Update(fn func(p *Preferences) error) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.loadLocked().Clone()
	if err := fn(&updated); err != nil {
		return Preferences{}, err
	}
	updated.normalize()

	s.cached = &updated
	s.persistLocked(updated)

	return updated.Clone(), nil
}

// loadLocked returns the cached preferences, reading them from disk on
// first access. Missing or unreadable persisted state falls back to
// defaults; the process must come up even with a corrupt data directory.
func (s *Store) loadLocked() *Preferences {
	if s.cached != nil {
		return s.cached
	}

	loaded := Default()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefsKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &loaded)
		})
	})

	switch {
	case err == nil:
		loaded.normalize()
	case errors.Is(err, badger.ErrKeyNotFound):
		logging.Info().Msg("No persisted preferences found, starting with defaults")
		loaded = Default()
	default:
		logging.Warn().Err(err).Msg("Failed to load persisted preferences, starting with defaults")
		loaded = Default()
	}

	s.cached = &loaded
	return s.cached
}

// persistLocked writes the record to BadgerDB. Write failures are logged
// and counted but not propagated; the in-memory state is already updated.
func (s *Store) persistLocked(p Preferences) {
	data, err := json.Marshal(&p)
	if err == nil {
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(prefsKey), data)
		})
	}

	metrics.RecordPrefWrite(err)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to persist preferences, keeping in-memory state")
	}
}
