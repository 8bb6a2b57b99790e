package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/arloliu/gridkey/coord"
	"github.com/arloliu/gridkey/errs"
	"github.com/arloliu/gridkey/key"
)

const (
	// blockPrefix namespaces block records inside the Badger keyspace.
	blockPrefix = 'b'

	// blockKeySize is prefix byte + big-endian encoded storage key.
	blockKeySize = 9
)

// metaSchemeKey holds the single-byte scheme tag for the whole database.
var metaSchemeKey = []byte("!gridkey!scheme")

// BadgerStore is a durable BlockStore backed by a Badger database.
//
// Every block record is stored under its encoded storage key; the codec in
// force is recorded once per database in a metadata entry. A database that
// already contains block rows but no metadata entry predates the phase
// axis and is treated as a legacy Scheme3 store: positions with a non-zero
// phase are rejected until MigrateLegacy has run.
type BadgerStore struct {
	db *badger.DB

	mu     sync.RWMutex
	scheme key.Scheme
	closed bool
}

var _ BlockStore = (*BadgerStore)(nil)

type badgerConfig struct {
	inMemory   bool
	syncWrites bool
	logger     badger.Logger
}

// Option configures a BadgerStore during OpenBadger.
type Option func(*badgerConfig)

// WithInMemory keeps the whole database in memory. The path argument of
// OpenBadger is ignored and nothing is persisted.
func WithInMemory() Option {
	return func(cfg *badgerConfig) { cfg.inMemory = true }
}

// WithSyncWrites makes every write wait for fsync before returning.
func WithSyncWrites(sync bool) Option {
	return func(cfg *badgerConfig) { cfg.syncWrites = sync }
}

// WithLogger routes Badger's internal logging to the given logger.
// By default the store silences it.
func WithLogger(logger badger.Logger) Option {
	return func(cfg *badgerConfig) { cfg.logger = logger }
}

// OpenBadger opens (or creates) a block store at path.
//
// On open the active scheme is resolved: an existing metadata entry wins;
// otherwise an empty database is initialized to Scheme4 and a non-empty one
// is classified as legacy Scheme3. The resolved scheme is written back so
// the classification happens at most once.
func OpenBadger(path string, opts ...Option) (*BadgerStore, error) {
	var cfg badgerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	badgerOpts := badger.DefaultOptions(path)
	if cfg.inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithSyncWrites(cfg.syncWrites)
	badgerOpts.Logger = cfg.logger

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	store := &BadgerStore{db: db}
	if err := store.resolveScheme(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// resolveScheme loads the scheme metadata entry, classifying and tagging
// databases written before the entry existed.
func (s *BadgerStore) resolveScheme() error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(metaSchemeKey)
		switch {
		case err == nil:
			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read scheme metadata: %w", err)
			}
			if len(value) != 1 || !key.Scheme(value[0]).IsValid() {
				return fmt.Errorf("scheme metadata %v: %w", value, errs.ErrUnknownScheme)
			}
			s.scheme = key.Scheme(value[0])

			return nil

		case errors.Is(err, badger.ErrKeyNotFound):
			s.scheme = key.Scheme4
			if hasBlocks(txn) {
				// Rows written before the phase axis existed.
				s.scheme = key.Scheme3
			}

			return txn.Set(metaSchemeKey, []byte{byte(s.scheme)})

		default:
			return fmt.Errorf("read scheme metadata: %w", err)
		}
	})
}

func hasBlocks(txn *badger.Txn) bool {
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.PrefetchValues = false
	it := txn.NewIterator(iterOpts)
	defer it.Close()

	prefix := []byte{blockPrefix}
	it.Seek(prefix)

	return it.ValidForPrefix(prefix)
}

// Scheme returns the codec currently in force for this database.
func (s *BadgerStore) Scheme() key.Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scheme
}

// Put stores payload under pos. On a legacy Scheme3 store the position must
// have Phase 0 and spatial axes inside the legacy domain.
func (s *BadgerStore) Put(ctx context.Context, pos coord.Pos4, payload []byte) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errs.ErrStoreClosed
	}

	bk, err := s.blockKey(pos)
	if err != nil {
		return err
	}

	value := packValue(payload)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bk, value)
	})
	if err != nil {
		return fmt.Errorf("write block %v: %w", pos, err)
	}

	return nil
}

// Get returns the payload stored under pos, verifying its integrity digest.
func (s *BadgerStore) Get(ctx context.Context, pos coord.Pos4) ([]byte, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errs.ErrStoreClosed
	}

	bk, err := s.blockKey(pos)
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bk)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("block %v: %w", pos, errs.ErrBlockNotFound)
		}
		if err != nil {
			return fmt.Errorf("read block %v: %w", pos, err)
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read block %v: %w", pos, err)
		}

		payload, err = unpackValue(value)
		if err != nil {
			return fmt.Errorf("block %v: %w", pos, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return payload, nil
}

// Delete removes the payload stored under pos. Deleting an absent block is
// a no-op.
func (s *BadgerStore) Delete(ctx context.Context, pos coord.Pos4) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errs.ErrStoreClosed
	}

	bk, err := s.blockKey(pos)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(bk)
	})
	if err != nil {
		return fmt.Errorf("delete block %v: %w", pos, err)
	}

	return nil
}

// ForEach iterates every stored block in key order, decoding each key with
// the active scheme. Legacy keys decode to their canonically embedded
// position (Phase = 0).
func (s *BadgerStore) ForEach(ctx context.Context, fn func(pos coord.Pos4, payload []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errs.ErrStoreClosed
	}

	scheme := s.scheme

	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte{blockPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctxErr(ctx); err != nil {
				return err
			}

			item := it.Item()
			pos, err := decodeBlockKey(scheme, item.Key())
			if err != nil {
				return err
			}

			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read block %v: %w", pos, err)
			}

			payload, err := unpackValue(value)
			if err != nil {
				return fmt.Errorf("block %v: %w", pos, err)
			}

			if err := fn(pos, payload); err != nil {
				return err
			}
		}

		return nil
	})
}

// Close flushes and closes the underlying database. Close is idempotent.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// blockKey encodes pos with the active scheme into a Badger key. The caller
// must hold s.mu.
func (s *BadgerStore) blockKey(pos coord.Pos4) ([]byte, error) {
	switch s.scheme {
	case key.Scheme4:
		return rawBlockKey(key.Encode4(pos)), nil

	case key.Scheme3:
		if pos.Phase != 0 {
			return nil, fmt.Errorf("position %v: %w", pos, errs.ErrPhaseUnsupported)
		}
		k, err := key.Encode3(pos.Pos3())
		if err != nil {
			return nil, err
		}

		return rawBlockKey(k), nil

	default:
		return nil, fmt.Errorf("scheme tag %d: %w", s.scheme, errs.ErrUnknownScheme)
	}
}

// rawBlockKey lays out a storage key as prefix byte + 8 bytes big-endian,
// so Badger iterates blocks in unsigned key order (negative keys sort
// after positive ones).
func rawBlockKey(k key.Key) []byte {
	var b [blockKeySize]byte
	b[0] = blockPrefix
	binary.BigEndian.PutUint64(b[1:], uint64(k))

	return b[:]
}

func decodeBlockKey(scheme key.Scheme, bk []byte) (coord.Pos4, error) {
	if len(bk) != blockKeySize || bk[0] != blockPrefix {
		return coord.Pos4{}, fmt.Errorf("block key %v: %w", bk, errs.ErrCorruptValue)
	}

	raw := key.Key(binary.BigEndian.Uint64(bk[1:]))

	return key.SpatialKey{Scheme: scheme, Raw: raw}.Pos()
}

// MigrateLegacy rewrites every legacy Scheme3 row under its canonically
// embedded Scheme4 key and flips the scheme metadata. It is a no-op on a
// store already running Scheme4.
//
// The rewrite is not crash-atomic: if the process dies mid-migration the
// database must be restored from backup before use. It also buffers every
// legacy row in memory before writing, which is fine for a run-once
// startup migration but means the process needs roughly as much free
// memory as the database holds in values. Run it once, at startup, before
// serving reads or writes.
func (s *BadgerStore) MigrateLegacy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.ErrStoreClosed
	}
	if s.scheme == key.Scheme4 {
		return nil
	}

	type rewrite struct {
		oldKey []byte
		newKey []byte
		value  []byte
	}

	var rewrites []rewrite
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte{blockPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctxErr(ctx); err != nil {
				return err
			}

			item := it.Item()
			oldKey := item.KeyCopy(nil)

			raw := key.Key(binary.BigEndian.Uint64(oldKey[1:]))
			lifted := key.Decode3(raw).Lift()

			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read legacy block %v: %w", lifted, err)
			}

			rewrites = append(rewrites, rewrite{
				oldKey: oldKey,
				newKey: rawBlockKey(key.Encode4(lifted)),
				value:  value,
			})
		}

		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	// A legacy key can coincide with the Scheme4 key of a *different* row
	// (and with its own, when X >= 0 and Y = Z = 0). All deletes go into
	// the batch before any set, so no delete can erase a rewritten row.
	for _, rw := range rewrites {
		if err := wb.Delete(rw.oldKey); err != nil {
			return fmt.Errorf("migrate block: %w", err)
		}
	}
	for _, rw := range rewrites {
		if err := wb.Set(rw.newKey, rw.value); err != nil {
			return fmt.Errorf("migrate block: %w", err)
		}
	}
	if err := wb.Set(metaSchemeKey, []byte{byte(key.Scheme4)}); err != nil {
		return fmt.Errorf("migrate scheme metadata: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush migration: %w", err)
	}

	s.scheme = key.Scheme4

	return nil
}
