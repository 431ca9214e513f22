// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/model1"
)

type editRecorder struct {
	mx    sync.Mutex
	edits []model.EditEvent
}

func (r *editRecorder) CellEditCommitted(evt model.EditEvent) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.edits = append(r.edits, evt)
}

func newLoadedGrid(t *testing.T, n int) (*model.Grid, *editRecorder) {
	t.Helper()

	g := model.NewGrid(dao.NewPeople(n, 11), model.GridOptions{Workers: 1})
	t.Cleanup(g.Close)
	var rec editRecorder
	g.AddEditListener(&rec)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, g.Reset(ctx))
	require.NoError(t, g.SetViewport(0, n))
	for len(g.Cache().InFlight()) > 0 {
		require.NoError(t, g.Cache().Next(ctx))
	}

	return g, &rec
}

func TestGeneratePatch(t *testing.T) {
	uu := map[string]struct {
		o, m  map[string]any
		patch string
		err   error
	}{
		"replace": {
			o:     map[string]any{"NAME": "Ada"},
			m:     map[string]any{"NAME": "Grace"},
			patch: `[{"op":"replace","path":"/NAME","value":"Grace"}]`,
		},
		"same": {
			o:   map[string]any{"NAME": "Ada"},
			m:   map[string]any{"NAME": "Ada"},
			err: ErrNoChanges,
		},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			patch, err := GeneratePatch(u.o, u.m)
			if u.err != nil {
				assert.ErrorIs(t, err, u.err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, u.patch, patch)
		})
	}
}

func TestStripErrorComment(t *testing.T) {
	in := "// ERROR: boom\n// ---\n\n{\"NAME\": \"Ada\"}\n"
	assert.Equal(t, "{\"NAME\": \"Ada\"}\n", string(stripErrorComment([]byte(in))))
	assert.Equal(t, "{}", string(stripErrorComment([]byte("{}"))))
}

func TestCommitEdit(t *testing.T) {
	g, rec := newLoadedGrid(t, 5)
	old := g.Item(2).Row.Fields[0]

	evt, err := CommitEdit(context.Background(), g, 2, "NAME", "Grace Hopper")
	require.NoError(t, err)
	assert.Equal(t, old, evt.Old)
	assert.Equal(t, "Grace Hopper", evt.New)
	assert.JSONEq(t, `[{"op":"replace","path":"/NAME","value":"Grace Hopper"}]`, evt.Patch)
	assert.Equal(t, []model.EditEvent{evt}, rec.edits)

	_, err = CommitEdit(context.Background(), g, 2, "BOGUS", "x")
	assert.ErrorIs(t, err, dao.ErrNoColumn)
	assert.Len(t, rec.edits, 1)
}

func TestRowEditApply(t *testing.T) {
	g, rec := newLoadedGrid(t, 5)
	s := NewRowEdit(g, g.Item(1))
	defer s.Cleanup()
	require.NotEmpty(t, s.original)

	assert.ErrorIs(t, s.Apply(context.Background(), s.original), ErrNoChanges)

	modified := make(map[string]any, len(s.original))
	for k, v := range s.original {
		modified[k] = v
	}
	modified["NAME"] = "Edsger Dijkstra"
	require.NoError(t, s.Apply(context.Background(), modified))
	require.Len(t, rec.edits, 1)
	assert.Equal(t, "NAME", rec.edits[0].Column)
	assert.Equal(t, 1, rec.edits[0].Row)

	modified["BOGUS"] = "x"
	assert.Error(t, s.Apply(context.Background(), modified))
}

func TestNewRowEditReadOnly(t *testing.T) {
	m := dao.NewMemory(model1.Header{{Name: "KEY"}}, model1.Rows{{Fields: model1.Fields{"a"}}})
	g := model.NewGrid(m, model.GridOptions{Workers: 1})
	defer g.Close()

	s := NewRowEdit(g, model1.Item{Index: 0, State: model1.Present, Row: model1.Row{Fields: model1.Fields{"a"}}})
	assert.Empty(t, s.original)
	assert.Error(t, s.Run(context.Background(), nil))
}
