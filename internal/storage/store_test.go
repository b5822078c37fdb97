package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the same contract checks against every backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, KeyManagers)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Load(ctx, DayKey("2024-01-01"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, KeyManagers, []byte(`[1,2]`)))
	require.NoError(t, s.Save(ctx, DayKey("2024-01-01"), []byte(`[{"text":"a","zone":1}]`)))
	require.NoError(t, s.Save(ctx, DayKey("2024-01-02"), []byte(`[]`)))
	require.NoError(t, s.Save(ctx, KeyManagers, []byte(`[2]`)))

	b, err := s.Load(ctx, KeyManagers)
	require.NoError(t, err)
	assert.JSONEq(t, `[2]`, string(b))

	b, err = s.Load(ctx, DayKey("2024-01-01"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"a","zone":1}]`, string(b))

	b, err = s.Load(ctx, DayKey("2024-01-02"))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	// layout stays compatible with {"managers": [...], "data": {day: [...]}}
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Managers []int64                    `json:"managers"`
		Data     map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []int64{2}, doc.Managers)
	assert.Len(t, doc.Data, 2)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"managers": [1,`), 0o644))
	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), KeyManagers)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = s.Save(context.Background(), KeyManagers, []byte(`[3]`))
	assert.ErrorIs(t, err, ErrUnavailable)

	// the corrupt document is left alone rather than replaced
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"managers": [1,`, string(raw))
}

func TestFileStoreRejectsInvalidJSON(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	assert.Error(t, s.Save(context.Background(), KeyManagers, []byte(`nope`)))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "taxi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)

	v, err := mr.Get("taxi:managers")
	require.NoError(t, err)
	assert.JSONEq(t, `[2]`, v)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), RedisOptions{Addr: mr.Addr(), Prefix: "t:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	mr.SetError("boom")
	_, err = s.Load(context.Background(), KeyManagers)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRebindPostgres(t *testing.T) {
	s := &SQLStore{dialect: DialectPostgres}
	assert.Equal(t, "a = $1 AND b = $2", s.rebind("a = ? AND b = ?"))
	s.dialect = DialectSQLite
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

type failingStore struct {
	Store
	saveErr error
}

func (f failingStore) Save(ctx context.Context, key string, value []byte) error {
	return f.saveErr
}

func TestGuardedUpdate(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	g := Guard(mem)

	var ids []int
	require.NoError(t, g.Update(ctx, KeyManagers, &ids, func(found bool) error {
		assert.False(t, found)
		ids = append(ids, 7)
		return nil
	}))

	var got []int
	found, err := g.Get(ctx, KeyManagers, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{7}, got)

	// fn error: nothing is written
	stop := errors.New("stop")
	var again []int
	err = g.Update(ctx, KeyManagers, &again, func(bool) error {
		again = append(again, 8)
		return stop
	})
	assert.ErrorIs(t, err, stop)
	got = nil
	_, err = g.Get(ctx, KeyManagers, &got)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
}

func TestGuardedSurfacesCorruptValues(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, mem.Save(ctx, KeyManagers, []byte(`{"not":"a list"}`)))

	var ids []int
	_, err := Guard(mem).Get(ctx, KeyManagers, &ids)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGuardedWrapsSaveFailure(t *testing.T) {
	g := Guard(failingStore{Store: NewMemoryStore(), saveErr: errors.New("disk full")})
	var ids []int
	err := g.Update(context.Background(), KeyManagers, &ids, func(bool) error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)
}
