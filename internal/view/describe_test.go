// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"context"
	"testing"

	"github.com/derailed/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	g, _ := newLoadedGrid(t, 3)
	it := g.Item(1)

	d := NewDescribe("people", g.Columns(), it)
	require.NoError(t, d.Init(context.Background()))
	d.Start()

	txt := d.GetText(true)
	assert.Contains(t, txt, "index: 1")
	assert.Contains(t, txt, "NAME: "+it.Row.Fields[0])
	assert.Equal(t, " yaml(people)[1] ", d.GetTitle())

	d.keyboard(tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone))
	txt = d.GetText(true)
	assert.Contains(t, txt, `"index": 1`)
	assert.Contains(t, txt, `"NAME": "`+it.Row.Fields[0]+`"`)
}

func TestColorizeValue(t *testing.T) {
	uu := map[string]struct {
		v, e string
	}{
		"true":   {v: "true", e: "[green::]true[-::]"},
		"false":  {v: "false", e: "[red::]false[-::]"},
		"number": {v: "42", e: "[fuchsia::]42[-::]"},
		"na":     {v: "n/a", e: "[gray::]n/a[-::]"},
		"plain":  {v: "Oslo", e: "Oslo"},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			assert.Equal(t, u.e, colorizeValue(u.v))
		})
	}
}
