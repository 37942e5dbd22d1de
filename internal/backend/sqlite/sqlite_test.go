package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/testutil"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "twins.db"), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twins.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twins.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_documents_updated_at",
	).Scan(&name)
	assert.NoError(t, err, "migration index exists")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/twins.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db returned error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := openTestStore(t)
	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	} {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Get(ctx, "urn:ex:sm1")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	require.NoError(t, s.Put(ctx, "urn:ex:sm1", []byte(`{"a":1}`)))
	got, err := s.Get(ctx, "urn:ex:sm1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.Put(ctx, "urn:ex:sm1", nil))
	got, err = s.Get(ctx, "urn:ex:sm1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Revision(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(time.Time{}, time.Minute)
	s := openTestStore(t, WithClock(clock.Now))

	_, _, err := s.Revision(ctx, "urn:ex:sm1")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, "urn:ex:sm1", []byte("x")))
	}
	rev, updated, err := s.Revision(ctx, "urn:ex:sm1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rev)
	assert.Equal(t, int64(3), clock.Ticks())
	assert.True(t, testutil.Epoch.Add(2*time.Minute).Equal(updated))
}

func TestStore_ListOrderingAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Bytewise order puts upper case before lower case.
	for _, id := range []string{"urn:b", "urn:B", "urn:a"} {
		require.NoError(t, s.Put(ctx, id, []byte(id)))
	}
	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:B", "urn:a", "urn:b"}, ids)

	require.NoError(t, s.Delete(ctx, "urn:a"))
	require.NoError(t, s.Delete(ctx, "urn:a"))
	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:B", "urn:b"}, ids)
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "twins.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, "urn:ex:sm1", []byte("kept")))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get(ctx, "urn:ex:sm1")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(got))
}
