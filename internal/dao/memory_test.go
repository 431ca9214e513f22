package dao

import (
	"context"
	"testing"
	"time"

	"github.com/rowscope/rowscope/internal/model1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFetchRange(t *testing.T) {
	m := NewPeople(50, 7)
	defer m.Close()

	n, err := m.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	rr, err := m.FetchRange(context.Background(), 45, 10)
	require.NoError(t, err)
	require.Len(t, rr, 5)
	assert.Equal(t, "p45", rr[0].ID)
	assert.Equal(t, int64(49), rr[4].Seq)

	rr, err = m.FetchRange(context.Background(), 60, 10)
	require.NoError(t, err)
	assert.Empty(t, rr)

	_, err = m.FetchRange(context.Background(), -1, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMemoryDeterministic(t *testing.T) {
	a, b := NewPeople(20, 3), NewPeople(20, 3)
	for i := range 20 {
		assert.Equal(t, a.At(i), b.At(i))
	}
}

func TestMemoryFetchOwnership(t *testing.T) {
	m := NewPeople(3, 1)
	rr, err := m.FetchRange(context.Background(), 0, 1)
	require.NoError(t, err)
	rr[0].Fields[0] = "mutated"

	assert.NotEqual(t, "mutated", m.At(0).Fields[0])
}

func TestMemoryLatencyCancel(t *testing.T) {
	m := NewPeople(10, 1, WithLatency(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.FetchRange(ctx, 0, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryFailRate(t *testing.T) {
	m := NewPeople(10, 1, WithFailRate(1))

	_, err := m.FetchRange(context.Background(), 0, 5)
	assert.ErrorIs(t, err, errInjected)
}

func TestMemorySetValue(t *testing.T) {
	m := NewPeople(10, 1)

	require.NoError(t, m.SetValue(context.Background(), 4, "AGE", "99"))
	assert.Equal(t, "99", m.At(4).Fields[1])
	assert.Equal(t, model1.ChangeEvent{Kind: model1.ChangeItemsReplaced, Start: 4, Count: 1}, <-m.Events())

	assert.ErrorIs(t, m.SetValue(context.Background(), 4, "TENURE", "1d"), ErrReadOnly)
	assert.ErrorIs(t, m.SetValue(context.Background(), 4, "NOPE", "1"), ErrNoColumn)
	assert.ErrorIs(t, m.SetValue(context.Background(), 40, "AGE", "1"), ErrOutOfRange)
}

func TestMemoryStructuralEvents(t *testing.T) {
	m := NewMemory(model1.Header{{Name: "A"}}, model1.Rows{
		{Fields: model1.Fields{"a"}},
		{Fields: model1.Fields{"b"}},
	})

	m.Append(model1.Row{Fields: model1.Fields{"c"}})
	assert.Equal(t, model1.ChangeEvent{Kind: model1.ChangeItemsAdded, Start: 2, Count: 1}, <-m.Events())
	assert.Equal(t, int64(2), m.At(2).Seq)

	require.NoError(t, m.Remove(0, 1))
	assert.Equal(t, model1.ChangeEvent{Kind: model1.ChangeItemsRemoved, Start: 0, Count: 1}, <-m.Events())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "b", m.At(0).Fields[0])
	assert.ErrorIs(t, m.Remove(1, 5), ErrOutOfRange)

	m.Replace(model1.Rows{{Fields: model1.Fields{"z"}}})
	assert.Equal(t, model1.ChangeReset, (<-m.Events()).Kind)

	require.NoError(t, m.Close())
	_, ok := <-m.Events()
	assert.False(t, ok)
	_, err := m.Count(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryReorder(t *testing.T) {
	m := NewMemory(model1.Header{{Name: "A"}}, model1.Rows{
		{Fields: model1.Fields{"a"}},
		{Fields: model1.Fields{"b"}},
		{Fields: model1.Fields{"c"}},
	})

	require.NoError(t, m.Reorder([]int{2, 0, 1}))
	assert.Equal(t, "c", m.At(0).Fields[0])
	assert.Equal(t, "a", m.At(1).Fields[0])
	assert.Error(t, m.Reorder([]int{0, 0, 1}))
	assert.Error(t, m.Reorder([]int{0}))
}
