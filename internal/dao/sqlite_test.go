package dao

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rowscope/rowscope/internal/model1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "people.db"))
	require.NoError(t, err)

	h := model1.Header{{Name: "name"}, {Name: "age", Attrs: model1.Attrs{Number: true}}}
	require.NoError(t, SeedSQLite(ctx, db, "people", h, model1.Rows{
		{Fields: model1.Fields{"carol", "41"}},
		{Fields: model1.Fields{"alice", "30"}},
		{Fields: model1.Fields{"bob", "30"}},
		{Fields: model1.Fields{"dave", "9"}},
	}))

	s, err := NewSQLite(ctx, db, "people")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func names(rr model1.Rows) []string {
	out := make([]string, 0, len(rr))
	for _, r := range rr {
		out = append(out, r.Fields[0])
	}
	return out
}

func TestSQLiteHeader(t *testing.T) {
	s := newTestSQLite(t)

	h := s.Header()
	require.Len(t, h, 2)
	assert.False(t, h[0].Number)
	assert.True(t, h[1].Number)
	assert.True(t, h[1].Editable)
	assert.True(t, s.SortsItself())
}

func TestSQLiteFetch(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	rr, err := s.FetchRange(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names(rr))
	assert.Equal(t, "2", rr[0].ID)
	assert.Equal(t, int64(2), rr[0].Seq)

	rr, err = s.FetchRange(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, names(rr))
}

func TestSQLiteSort(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Sort(ctx, model1.SortDescriptions{{Key: "age"}}))
	rr, err := s.FetchRange(ctx, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"dave", "alice", "bob", "carol"}, names(rr))

	require.NoError(t, s.Sort(ctx, model1.SortDescriptions{
		{Key: "age", Direction: model1.Descending},
		{Key: "name", Direction: model1.Descending},
	}))
	rr, err = s.FetchRange(ctx, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "alice", "dave"}, names(rr))

	require.NoError(t, s.Sort(ctx, nil))
	rr, err = s.FetchRange(ctx, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice", "bob", "dave"}, names(rr))

	assert.ErrorIs(t, s.Sort(ctx, model1.SortDescriptions{{Key: "nope"}}), ErrNoColumn)
}

func TestSQLiteSetValue(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Sort(ctx, model1.SortDescriptions{{Key: "name"}}))
	require.NoError(t, s.SetValue(ctx, 0, "age", "31"))
	assert.Equal(t, model1.ChangeEvent{Kind: model1.ChangeItemsReplaced, Start: 0, Count: 1}, <-s.Events())

	rr, err := s.FetchRange(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, model1.Fields{"alice", "31"}, rr[0].Fields)

	assert.ErrorIs(t, s.SetValue(ctx, 10, "age", "1"), ErrOutOfRange)
	assert.ErrorIs(t, s.SetValue(ctx, 0, "nope", "1"), ErrNoColumn)
}

func TestOpenSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, SeedSQLite(context.Background(), db, "things", model1.Header{{Name: "k"}}, model1.Rows{{Fields: model1.Fields{"x"}}}))
	require.NoError(t, db.Close())

	p, err := ProviderFor(context.Background(), nil, "sqlite://"+path)
	require.NoError(t, err)
	defer p.Close()

	n, err := p.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
