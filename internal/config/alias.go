package config

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rowscope/rowscope/internal/config/data"
)

// Aliases maps short names to source URIs.
type Aliases struct {
	Alias map[string]string `yaml:"aliases"`
	mx    sync.RWMutex      `yaml:"-"`
}

// DefaultAliases are the built-in source aliases.
var DefaultAliases = map[string]string{
	"people": "mem://?rows=100000",
	"mem":    "mem://",
	"big":    "mem://?rows=10000000",
	"slow":   "mem://?rows=100000&latency=250ms",
	"flaky":  "mem://?rows=100000&latency=50ms&fail=0.2",
}

// NewAliases creates an Aliases with default aliases loaded.
func NewAliases() *Aliases {
	a := &Aliases{
		Alias: make(map[string]string, len(DefaultAliases)),
	}
	for k, v := range DefaultAliases {
		a.Alias[k] = v
	}

	return a
}

// Load loads aliases from the default config file.
// File aliases take precedence over the defaults.
func (a *Aliases) Load() error {
	return a.LoadFrom(AppAliasesFile)
}

// LoadFrom loads aliases from a specific file path.
func (a *Aliases) LoadFrom(path string) error {
	a.mx.Lock()
	defer a.mx.Unlock()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded Aliases
	if err := data.LoadYAML(path, &loaded); err != nil {
		return err
	}
	for k, v := range loaded.Alias {
		a.Alias[k] = v
	}

	return nil
}

// SaveTo saves aliases to a specific file path.
func (a *Aliases) SaveTo(path string) error {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return data.SaveYAML(path, a)
}

// Resolve expands an alias into a source URI.
// Anything that already looks like a URI is returned as is.
func (a *Aliases) Resolve(s string) string {
	if strings.Contains(s, "://") {
		return s
	}

	a.mx.RLock()
	defer a.mx.RUnlock()

	if uri, ok := a.Alias[s]; ok {
		return uri
	}

	return s
}

// Set sets an alias.
func (a *Aliases) Set(alias, uri string) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.Alias[alias] = uri
}

// Delete removes an alias.
func (a *Aliases) Delete(alias string) {
	a.mx.Lock()
	defer a.mx.Unlock()

	delete(a.Alias, alias)
}

// Names returns all alias names sorted.
func (a *Aliases) Names() []string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	nn := make([]string, 0, len(a.Alias))
	for k := range a.Alias {
		nn = append(nn, k)
	}
	sort.Strings(nn)

	return nn
}
