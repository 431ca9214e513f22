// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowscope/rowscope/internal/config"
	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/selection"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	aliases := config.NewAliases()
	aliases.Set("tiny", "mem://?rows=25")
	a := NewApp(config.NewConfig(), aliases, config.NewHotKeys(), dao.NewFactory(nil), "test")
	require.NoError(t, a.Init())
	t.Cleanup(a.Stop)

	return a
}

func TestCommandCompletions(t *testing.T) {
	a := newTestApp(t)

	cc := a.command.Completions()
	assert.Contains(t, cc, "tiny")
	assert.Contains(t, cc, "sort")
	assert.Contains(t, cc, "mem://")
}

func TestCommandOpen(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.command.Run(":tiny"))
	b, ok := a.Browser()
	require.True(t, ok)
	assert.Equal(t, "tiny", b.Name())
	assert.Equal(t, []string{"tiny"}, a.crumbs.Names())

	require.NoError(t, a.command.Run("sort age desc"))
	descs := b.Grid().Sorter().Descriptions()
	require.NotEmpty(t, descs)
	assert.Equal(t, model1.SortDescription{Key: "AGE", Direction: model1.Descending}, descs[0])

	require.NoError(t, a.command.Run("select single"))
	assert.Equal(t, selection.Single, b.Grid().Selection().Mode())

	require.NoError(t, a.command.Run("sort"))
	assert.Empty(t, b.Grid().Sorter().Descriptions())

	require.NoError(t, a.command.Run("mem://?rows=3"))
	assert.Equal(t, 2, a.Content.Len())
	a.popPage()
	assert.Equal(t, 1, a.Content.Len())
}

func TestCommandErrors(t *testing.T) {
	a := newTestApp(t)

	uu := map[string]string{
		"no-table":  "sort AGE",
		"unknown":   "bogus",
		"no-scheme": "nope://x",
	}

	for k := range uu {
		line := uu[k]
		t.Run(k, func(t *testing.T) {
			assert.Error(t, a.command.Run(line))
		})
	}

	require.NoError(t, a.command.Run("tiny"))
	assert.Error(t, a.command.Run("sort NOPE"))
	assert.Error(t, a.command.Run("sort AGE sideways"))
	assert.Error(t, a.command.Run("select"))
	assert.Error(t, a.command.Run("select many"))
}

func TestHelpSections(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.command.Run("tiny"))

	b, _ := a.Browser()
	h := NewHelp(a, b.Hints())
	ss := h.Sections()
	require.Len(t, ss, 4)
	assert.Contains(t, ss[0].Binds, HelpBind{Key: ":tiny", Desc: "mem://?rows=25"})
	assert.NotEmpty(t, ss[3].Binds)

	a.showHelp()
	_, ok := a.Top().(*Help)
	assert.True(t, ok)
	a.popPage()
	_, ok = a.Browser()
	assert.True(t, ok)
}
