package dao

import (
	"context"
	"testing"
	"time"

	"github.com/rowscope/rowscope/internal/model1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderFor(t *testing.T) {
	uu := map[string]struct {
		uri   string
		count int
		err   error
	}{
		"mem":         {uri: "mem://?rows=42&seed=9", count: 42},
		"mem-default": {uri: "mem://", count: defaultMemoryRows},
		"mem-latency": {uri: "mem://?rows=3&latency=1ms&fail=0", count: 3},
		"unknown":     {uri: "ftp://host/file", err: ErrUnknownSource},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			p, err := ProviderFor(context.Background(), nil, u.uri)
			if u.err != nil {
				assert.ErrorIs(t, err, u.err)
				return
			}
			require.NoError(t, err)
			defer p.Close()
			n, err := p.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, u.count, n)
		})
	}
}

func TestProviderForBadParams(t *testing.T) {
	for _, uri := range []string{"mem://?rows=x", "mem://?latency=soon", "mem://?fail=2", "sqlite://"} {
		_, err := ProviderFor(context.Background(), nil, uri)
		assert.Error(t, err, uri)
	}
}

func TestSchemes(t *testing.T) {
	assert.Equal(t, []string{"mem", "s3", "sqlite"}, Schemes())
}

func TestResourceCache(t *testing.T) {
	c := NewResourceCache(time.Minute)
	c.Set("b/a", model1.Rows{{ID: "1"}})
	c.Set("b/c", model1.Rows{{ID: "2"}})

	rr, ok := c.Get("b/a")
	require.True(t, ok)
	assert.Equal(t, "1", rr[0].ID)

	c.Invalidate("b/a")
	_, ok = c.Get("b/a")
	assert.False(t, ok)

	c.Set("x", nil)
	c.InvalidatePrefix("b/")
	_, ok = c.Get("b/c")
	assert.False(t, ok)
	_, ok = c.Get("x")
	assert.True(t, ok)

	c.Clear()
	_, ok = c.Get("x")
	assert.False(t, ok)

	expired := NewResourceCache(0)
	expired.Set("k", model1.Rows{})
	time.Sleep(time.Millisecond)
	_, ok = expired.Get("k")
	assert.False(t, ok)
}
