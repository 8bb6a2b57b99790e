package store

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/gridkey/coord"
	"github.com/arloliu/gridkey/errs"
	"github.com/arloliu/gridkey/key"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	s, err := OpenBadger("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestBadgerStore_NewStoreRunsScheme4(t *testing.T) {
	s := newTestStore(t)
	require.Equal(t, key.Scheme4, s.Scheme())
}

func TestBadgerStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pos := coord.Pos4{X: 100, Y: 50, Z: 25, Phase: 3}
	payload := []byte("block payload")

	require.NoError(t, s.Put(ctx, pos, payload))

	got, err := s.Get(ctx, pos)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// Overwrite replaces the payload.
	require.NoError(t, s.Put(ctx, pos, []byte("updated")))
	got, err = s.Get(ctx, pos)
	require.NoError(t, err)
	require.Equal(t, []byte("updated"), got)
}

func TestBadgerStore_PhaseSeparation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := coord.NewPos4(7, -3, 12)
	phased := coord.Pos4{X: 7, Y: -3, Z: 12, Phase: 1}

	require.NoError(t, s.Put(ctx, base, []byte("phase0")))
	require.NoError(t, s.Put(ctx, phased, []byte("phase1")))

	got, err := s.Get(ctx, base)
	require.NoError(t, err)
	require.Equal(t, []byte("phase0"), got)

	got, err = s.Get(ctx, phased)
	require.NoError(t, err)
	require.Equal(t, []byte("phase1"), got)
}

func TestBadgerStore_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), coord.Pos4{X: 1})
	require.ErrorIs(t, err, errs.ErrBlockNotFound)
}

func TestBadgerStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pos := coord.Pos4{X: 1, Y: 2, Z: 3}

	// Deleting an absent block is a no-op.
	require.NoError(t, s.Delete(ctx, pos))

	require.NoError(t, s.Put(ctx, pos, []byte("data")))
	require.NoError(t, s.Delete(ctx, pos))

	_, err := s.Get(ctx, pos)
	require.ErrorIs(t, err, errs.ErrBlockNotFound)
}

func TestBadgerStore_ForEach(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := map[coord.Pos4]string{
		{X: 1}:                  "a",
		{Y: -2}:                 "b",
		{Z: 3, Phase: 1}:        "c",
		{X: -4, Y: 5, Phase: 2}: "d",
	}
	for pos, payload := range want {
		require.NoError(t, s.Put(ctx, pos, []byte(payload)))
	}

	got := make(map[coord.Pos4]string)
	err := s.ForEach(ctx, func(pos coord.Pos4, payload []byte) error {
		got[pos] = string(payload)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestBadgerStore_ForEachStopsOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, coord.Pos4{X: 1}, []byte("a")))
	require.NoError(t, s.Put(ctx, coord.Pos4{X: 2}, []byte("b")))

	calls := 0
	err := s.ForEach(ctx, func(coord.Pos4, []byte) error {
		calls++
		return errs.ErrCorruptValue
	})
	require.ErrorIs(t, err, errs.ErrCorruptValue)
	require.Equal(t, 1, calls)
}

func TestBadgerStore_ChecksumMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pos := coord.Pos4{X: 9, Y: 9, Z: 9}

	require.NoError(t, s.Put(ctx, pos, []byte("payload")))

	// Flip a payload byte behind the store's back.
	bk, err := s.blockKey(pos)
	require.NoError(t, err)
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(bk)
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value[len(value)-1] ^= 0xFF

		return txn.Set(bk, value)
	})
	require.NoError(t, err)

	_, err = s.Get(ctx, pos)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

func TestBadgerStore_CorruptValue(t *testing.T) {
	s := newTestStore(t)
	pos := coord.Pos4{X: 9}

	bk, err := s.blockKey(pos)
	require.NoError(t, err)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bk, []byte{0x01, 0x02}) // shorter than the checksum header
	})
	require.NoError(t, err)

	_, err = s.Get(context.Background(), pos)
	require.ErrorIs(t, err, errs.ErrCorruptValue)
}

// seedLegacyDB writes rows keyed with the legacy scheme and no scheme
// metadata, emulating a database created before the phase axis existed.
func seedLegacyDB(t *testing.T, path string, rows map[coord.Pos3]string) {
	t.Helper()

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)

	err = db.Update(func(txn *badger.Txn) error {
		for pos, payload := range rows {
			k, err := key.Encode3(pos)
			if err != nil {
				return err
			}
			if err := txn.Set(rawBlockKey(k), packValue([]byte(payload))); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestBadgerStore_LegacyDetection(t *testing.T) {
	path := t.TempDir()
	seedLegacyDB(t, path, map[coord.Pos3]string{
		{X: 5}: "row",
	})

	s, err := OpenBadger(path)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, key.Scheme3, s.Scheme())

	ctx := context.Background()

	// Legacy rows are reachable through the canonical embedding.
	got, err := s.Get(ctx, coord.Pos3{X: 5}.Lift())
	require.NoError(t, err)
	require.Equal(t, []byte("row"), got)

	// Non-zero phases stay locked out until migration.
	_, err = s.Get(ctx, coord.Pos4{X: 5, Phase: 1})
	require.ErrorIs(t, err, errs.ErrPhaseUnsupported)
	err = s.Put(ctx, coord.Pos4{X: 5, Phase: 1}, []byte("x"))
	require.ErrorIs(t, err, errs.ErrPhaseUnsupported)

	// The legacy codec's narrower axis domain still applies.
	err = s.Put(ctx, coord.NewPos4(4000, 0, 0), []byte("x"))
	require.ErrorIs(t, err, errs.ErrAxisOutOfRange)
}

func TestBadgerStore_MigrateLegacy(t *testing.T) {
	path := t.TempDir()
	rows := map[coord.Pos3]string{
		{X: 5}:                  "same raw key under both schemes",
		{X: -1, Y: 2, Z: -3}:    "negative axes",
		{X: 2047, Y: -2048}:     "domain corners",
		{X: 0, Y: 0, Z: 0}:      "origin",
		{X: 12, Y: -700, Z: 33}: "mixed",
	}
	seedLegacyDB(t, path, rows)

	s, err := OpenBadger(path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, key.Scheme3, s.Scheme())

	ctx := context.Background()
	require.NoError(t, s.MigrateLegacy(ctx))
	require.Equal(t, key.Scheme4, s.Scheme())

	// Every row is now addressed by its embedded four-axis position, and
	// nothing extra survived the rewrite.
	got := make(map[coord.Pos4]string)
	err = s.ForEach(ctx, func(pos coord.Pos4, payload []byte) error {
		got[pos] = string(payload)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, len(rows))
	for pos, payload := range rows {
		require.Equal(t, payload, got[pos.Lift()])
	}

	// The phase axis is open for writes after migration.
	phased := coord.Pos4{X: 5, Phase: 2}
	require.NoError(t, s.Put(ctx, phased, []byte("phase2")))

	fromPhase, err := s.Get(ctx, phased)
	require.NoError(t, err)
	require.Equal(t, []byte("phase2"), fromPhase)

	// Phase 0 row is untouched by the phase-2 write.
	fromZero, err := s.Get(ctx, coord.Pos3{X: 5}.Lift())
	require.NoError(t, err)
	require.Equal(t, []byte(rows[coord.Pos3{X: 5}]), fromZero)
}

func TestBadgerStore_MigrateLegacyCollidingKeys(t *testing.T) {
	// The rewritten Scheme4 key of one row can equal the legacy Scheme3
	// key of another: (5,7,0) lifts to raw key 7<<16|5, which is also the
	// legacy encoding of (5,112,0) = 112<<12+5. The migration must not let
	// the second row's delete erase the first row's rewrite.
	rowA := coord.Pos3{X: 5, Y: 7}
	rowB := coord.Pos3{X: 5, Y: 112}

	kA4 := key.Encode4(rowA.Lift())
	kB3, err := key.Encode3(rowB)
	require.NoError(t, err)
	require.Equal(t, kB3, kA4)

	path := t.TempDir()
	seedLegacyDB(t, path, map[coord.Pos3]string{
		rowA: "rowA",
		rowB: "rowB",
	})

	s, err := OpenBadger(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.MigrateLegacy(ctx))

	got, err := s.Get(ctx, rowA.Lift())
	require.NoError(t, err)
	require.Equal(t, []byte("rowA"), got)

	got, err = s.Get(ctx, rowB.Lift())
	require.NoError(t, err)
	require.Equal(t, []byte("rowB"), got)

	count := 0
	require.NoError(t, s.ForEach(ctx, func(coord.Pos4, []byte) error {
		count++
		return nil
	}))
	require.Equal(t, 2, count)
}

func TestBadgerStore_MigrateLegacyPersists(t *testing.T) {
	path := t.TempDir()
	seedLegacyDB(t, path, map[coord.Pos3]string{{X: -7, Z: 9}: "row"})

	s, err := OpenBadger(path)
	require.NoError(t, err)
	require.NoError(t, s.MigrateLegacy(context.Background()))
	require.NoError(t, s.Close())

	// The flipped scheme metadata survives a reopen.
	s, err = OpenBadger(path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, key.Scheme4, s.Scheme())

	got, err := s.Get(context.Background(), coord.Pos3{X: -7, Z: 9}.Lift())
	require.NoError(t, err)
	require.Equal(t, []byte("row"), got)
}

func TestBadgerStore_MigrateLegacyNoop(t *testing.T) {
	s := newTestStore(t)
	require.Equal(t, key.Scheme4, s.Scheme())
	require.NoError(t, s.MigrateLegacy(context.Background()))
	require.Equal(t, key.Scheme4, s.Scheme())
}

func TestBadgerStore_Closed(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	ctx := context.Background()
	pos := coord.Pos4{X: 1}

	require.ErrorIs(t, s.Put(ctx, pos, nil), errs.ErrStoreClosed)
	_, err := s.Get(ctx, pos)
	require.ErrorIs(t, err, errs.ErrStoreClosed)
	require.ErrorIs(t, s.Delete(ctx, pos), errs.ErrStoreClosed)
	require.ErrorIs(t, s.ForEach(ctx, nil), errs.ErrStoreClosed)
	require.ErrorIs(t, s.MigrateLegacy(ctx), errs.ErrStoreClosed)
}

func TestBadgerStore_ContextCancelled(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pos := coord.Pos4{X: 1}
	require.ErrorIs(t, s.Put(ctx, pos, nil), context.Canceled)
	_, err := s.Get(ctx, pos)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.Delete(ctx, pos), context.Canceled)
}
