package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowscope/rowscope/internal/aws"
	"github.com/rowscope/rowscope/internal/config/data"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/selection"
)

func TestNewRowscopeDefaults(t *testing.T) {
	r := NewRowscope()

	assert.Equal(t, float32(DefaultRefreshRate), r.RefreshRate)
	assert.Equal(t, DefaultOverscan, r.Overscan)
	assert.Equal(t, DefaultRowHeight, r.RowHeight)
	assert.Equal(t, "30s", r.FetchTimeout)
	assert.Equal(t, DefaultSelectionMode, r.SelectionMode)
	assert.Equal(t, DefaultSource, r.Source())
	assert.Equal(t, data.DefaultLogLevel, r.Logger.Level)
}

func TestRowscopeValidate(t *testing.T) {
	r := Rowscope{
		RefreshRate:   -1,
		Overscan:      0,
		Prefetch:      -5,
		FetchTimeout:  "soon",
		SelectionMode: "many",
	}
	r.Validate()

	assert.Equal(t, float32(DefaultRefreshRate), r.RefreshRate)
	assert.Equal(t, DefaultOverscan, r.Overscan)
	assert.Zero(t, r.Prefetch)
	assert.Equal(t, DefaultFetchTimeout.String(), r.FetchTimeout)
	assert.Equal(t, DefaultSelectionMode, r.SelectionMode)
}

func TestRowscopeOverride(t *testing.T) {
	uu := map[string]struct {
		set func(*data.Flags)
		chk func(*testing.T, *Rowscope)
	}{
		"nothing": {
			set: func(*data.Flags) {},
			chk: func(t *testing.T, r *Rowscope) {
				assert.Equal(t, DefaultOverscan, r.Overscan)
				assert.False(t, r.IsHeadless())
			},
		},
		"overscan": {
			set: func(f *data.Flags) { *f.Overscan = 5 },
			chk: func(t *testing.T, r *Rowscope) {
				assert.Equal(t, 5, r.Overscan)
			},
		},
		"source": {
			set: func(f *data.Flags) { *f.Source = "sqlite:///tmp/x.db?table=t" },
			chk: func(t *testing.T, r *Rowscope) {
				assert.Equal(t, "sqlite:///tmp/x.db?table=t", r.Source())
			},
		},
		"bad-mode": {
			set: func(f *data.Flags) { *f.SelectionMode = "lots" },
			chk: func(t *testing.T, r *Rowscope) {
				assert.Equal(t, DefaultSelectionMode, r.SelectionMode)
			},
		},
		"headless": {
			set: func(f *data.Flags) { *f.Headless = true },
			chk: func(t *testing.T, r *Rowscope) {
				assert.True(t, r.IsHeadless())
			},
		},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			f := data.NewFlags()
			u.set(f)
			r := NewRowscope()
			r.Override(f)
			u.chk(t, r)
		})
	}
}

func TestGridOptions(t *testing.T) {
	r := NewRowscope()
	r.Overscan, r.Prefetch, r.FetchWorkers = 3, 40, 2
	r.FetchTimeout, r.SelectionMode, r.RefreshRate = "5s", "single", 0.5

	o, err := r.GridOptions()
	require.NoError(t, err)
	assert.Equal(t, 3, o.Overscan)
	assert.Equal(t, 40, o.Prefetch)
	assert.Equal(t, 2, o.Workers)
	assert.Equal(t, 5*time.Second, o.FetchTimeout)
	assert.Equal(t, 500*time.Millisecond, o.RefreshRate)
	assert.Equal(t, selection.Single, o.SelectionMode)
}

func TestCustomColumns(t *testing.T) {
	h := model1.Header{{Name: "NAME"}, {Name: "AGE"}}
	r := NewRowscope()
	r.Columns = []data.CustomColumn{{Name: "LABEL", Template: "{{.NAME}} ({{.AGE}})", Align: "right"}}

	cc, err := r.CustomColumns(h)
	require.NoError(t, err)
	require.Len(t, cc, 1)
	assert.Equal(t, "LABEL", cc[0].Key())

	r.Columns = []data.CustomColumn{{Template: "x"}}
	_, err = r.CustomColumns(h)
	assert.Error(t, err)
}

func TestConfigLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	c := NewConfig()
	require.NoError(t, c.Load(path, false))
	assert.Error(t, c.Load(path, true))

	c.Rowscope.Prefetch = 77
	c.Rowscope.DefaultSource = "people"
	require.NoError(t, c.Save(path, true))

	c2 := NewConfig()
	require.NoError(t, c2.Load(path, true))
	assert.Equal(t, 77, c2.Rowscope.Prefetch)
	assert.Equal(t, "people", c2.Rowscope.Source())
	assert.Equal(t, DefaultOverscan, c2.Rowscope.Overscan)
}

func TestConfigRefine(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config"), []byte(`
[default]
region = us-west-2

[profile dev]
region = eu-west-1
`), 0600))
	pm, err := aws.NewProfileManager(dir)
	require.NoError(t, err)

	c := NewConfig()
	f := data.NewFlags()
	*f.Profile = "dev"
	require.NoError(t, c.Refine(f, pm))
	assert.Equal(t, "dev", c.Rowscope.AWS.Profile)
	assert.Equal(t, "eu-west-1", c.Rowscope.AWS.Region)

	c = NewConfig()
	*f.Profile, *f.Region = "", "ap-south-1"
	require.NoError(t, c.Refine(f, pm))
	assert.Equal(t, "default", c.Rowscope.AWS.Profile)
	assert.Equal(t, "ap-south-1", c.Rowscope.AWS.Region)

	*f.Profile = "ghost"
	assert.Error(t, NewConfig().Refine(f, pm))
}

func TestAliases(t *testing.T) {
	a := NewAliases()
	assert.Equal(t, "mem://?rows=100000", a.Resolve("people"))
	assert.Equal(t, "s3://bucket/prefix", a.Resolve("s3://bucket/prefix"))
	assert.Equal(t, "nope", a.Resolve("nope"))

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	b := Aliases{Alias: map[string]string{"people": "mem://?rows=5", "db": "sqlite:///x.db?table=t"}}
	require.NoError(t, b.SaveTo(path))
	require.NoError(t, a.LoadFrom(path))
	assert.Equal(t, "mem://?rows=5", a.Resolve("people"))
	assert.Contains(t, a.Names(), "db")
	assert.Contains(t, a.Names(), "slow")
}

func TestHotKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotkeys.yaml")
	h := NewHotKeys()
	require.NoError(t, h.LoadFrom(path))
	assert.Empty(t, h.Names())

	h.Set("people", HotKey{ShortCut: "Shift-1", Source: "people"})
	require.NoError(t, data.SaveYAML(path, h))

	h2 := NewHotKeys()
	require.NoError(t, h2.LoadFrom(path))
	require.NotNil(t, h2.Get("people"))
	assert.Equal(t, "Shift-1", h2.Get("people").ShortCut)
	assert.Nil(t, h2.Get("nope"))
}

func TestParseLevel(t *testing.T) {
	uu := map[string]struct {
		in  string
		lvl slog.Level
		err bool
	}{
		"empty": {lvl: slog.LevelInfo},
		"debug": {in: "DEBUG", lvl: slog.LevelDebug},
		"warn":  {in: "warning", lvl: slog.LevelWarn},
		"error": {in: "error", lvl: slog.LevelError},
		"bad":   {in: "loud", lvl: slog.LevelInfo, err: true},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			lvl, err := ParseLevel(u.in)
			assert.Equal(t, u.err, err != nil)
			assert.Equal(t, u.lvl, lvl)
		})
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowscope.log")
	l, closer, err := NewLogger(data.Logger{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	l.Debug("hello", "k", 1)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "msg=hello")
	assert.Contains(t, string(raw), "app=rowscope")
}

func TestInitLocs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, filepath.Join(dir, "cfg"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	require.NoError(t, InitLocs())
	assert.Equal(t, filepath.Join(dir, "cfg", "config.yaml"), AppConfigFile)
	assert.Equal(t, filepath.Join(dir, "state", AppName, AppName+".log"), AppLogFile)
	assert.DirExists(t, AppDumpsDir)
}
