package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/model1"
)

func newDumpGrid(t *testing.T) *model.Grid {
	t.Helper()

	m := dao.NewMemory(model1.Header{
		{Name: "NAME"},
		{Name: "CITY"},
	}, model1.Rows{
		{Fields: model1.Fields{"Ada", "London"}},
		{Fields: model1.Fields{"Grace", "New York"}},
		{Fields: model1.Fields{"Edsger", "Rotterdam"}},
		{Fields: model1.Fields{"Barbara", "Boston"}},
	})
	g := model.NewGrid(m, model.GridOptions{Workers: 2})
	t.Cleanup(g.Close)

	return g
}

func TestDumpWindowCSV(t *testing.T) {
	g := newDumpGrid(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var buf bytes.Buffer
	require.NoError(t, dumpWindow(ctx, g, dumpOptions{first: 1, rows: 2, format: formatCSV}, &buf))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"NAME", "CITY"},
		{"Grace", "New York"},
		{"Edsger", "Rotterdam"},
	}, recs)
}

func TestDumpWindowJSON(t *testing.T) {
	g := newDumpGrid(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var buf bytes.Buffer
	require.NoError(t, dumpWindow(ctx, g, dumpOptions{first: 3, rows: 10, format: formatJSON}, &buf))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, []map[string]string{{"NAME": "Barbara", "CITY": "Boston"}}, rows)
}

func TestDumpWindowBadFormat(t *testing.T) {
	g := newDumpGrid(t)

	var buf bytes.Buffer
	assert.Error(t, dumpWindow(context.Background(), g, dumpOptions{rows: 1, format: "xml"}, &buf))
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "rowscope version "+appVersion+"\n", buf.String())
}
