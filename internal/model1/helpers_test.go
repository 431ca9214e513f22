package model1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	uu := map[string]struct {
		attrs  Attrs
		v1, v2 string
		e      int
	}{
		"natural":       {v1: "file2", v2: "file10", e: -1},
		"same":          {v1: "a", v2: "a", e: 0},
		"number":        {attrs: Attrs{Number: true}, v1: "1,200", v2: "900", e: 1},
		"number-float":  {attrs: Attrs{Number: true}, v1: "1.5", v2: "1.25", e: 1},
		"duration":      {attrs: Attrs{Time: true}, v1: "2d", v2: "3h", e: 1},
		"duration-tie":  {attrs: Attrs{Time: true}, v1: "60m", v2: "1h", e: 0},
		"capacity":      {attrs: Attrs{Capacity: true}, v1: "2KiB", v2: "1MiB", e: -1},
		"capacity-raw":  {attrs: Attrs{Capacity: true}, v1: "10", v2: "9", e: 1},
		"number-nonnum": {attrs: Attrs{Number: true}, v1: "n/a", v2: "3", e: 1},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			assert.Equal(t, u.e, Compare(u.attrs, u.v1, u.v2))
			assert.Equal(t, -u.e, Compare(u.attrs, u.v2, u.v1))
		})
	}
}

func TestDurationToSeconds(t *testing.T) {
	assert.Equal(t, int64(0), durationToSeconds(NAValue))
	assert.Equal(t, int64(90061), durationToSeconds("1d1h1m1s"))
}

func TestSortDescriptions(t *testing.T) {
	dd := SortDescriptions{{Key: "age", Direction: Descending}, {Key: "name"}}

	assert.Equal(t, 1, dd.IndexOf("name"))
	assert.Equal(t, -1, dd.IndexOf("city"))
	c := dd.Clone()
	c[0].Direction = Ascending
	assert.Equal(t, Descending, dd[0].Direction)
	assert.Equal(t, "age:desc", dd[0].String())
}

func TestItemColor(t *testing.T) {
	assert.Equal(t, PendingColor, ItemColor(Item{State: Loading}, false))
	assert.Equal(t, ErrColor, ItemColor(Item{State: Absent, Failed: true}, true))
	assert.Equal(t, SelectedColor, ItemColor(Item{State: Present}, true))
	assert.Equal(t, StdColor, ItemColor(Item{State: Present}, false))
}

func TestParseSortDirection(t *testing.T) {
	uu := map[string]struct {
		s   string
		dir SortDirection
		err bool
	}{
		"empty": {dir: Ascending},
		"asc":   {s: "ASC", dir: Ascending},
		"desc":  {s: "descending", dir: Descending},
		"bad":   {s: "up", err: true},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			dir, err := ParseSortDirection(u.s)
			if u.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, u.dir, dir)
		})
	}
}
