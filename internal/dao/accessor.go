package dao

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// SourceFunc opens a provider for a parsed source URI.
type SourceFunc func(ctx context.Context, f Factory, u *url.URL) (Provider, error)

var (
	sources   = make(map[string]SourceFunc)
	sourcesMx sync.RWMutex
)

// RegisterSource adds a provider constructor for a URI scheme.
func RegisterSource(scheme string, fn SourceFunc) {
	sourcesMx.Lock()
	defer sourcesMx.Unlock()
	sources[scheme] = fn
}

// ProviderFor opens the provider matching the URI scheme,
// e.g. mem://?rows=1000, sqlite:///tmp/db.sqlite?table=people, s3://bucket/prefix.
func ProviderFor(ctx context.Context, f Factory, uri string) (Provider, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid source %q: %w", uri, err)
	}

	sourcesMx.RLock()
	fn, ok := sources[u.Scheme]
	sourcesMx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, u.Scheme)
	}

	return fn(ctx, f, u)
}

// Schemes returns all registered source schemes.
func Schemes() []string {
	sourcesMx.RLock()
	defer sourcesMx.RUnlock()

	ss := make([]string, 0, len(sources))
	for s := range sources {
		ss = append(ss, s)
	}
	sort.Strings(ss)

	return ss
}
