package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/derailed/tview"
	"github.com/rowscope/rowscope/internal/config/data"
	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
	"github.com/rowscope/rowscope/internal/selection"
)

// Default values
const (
	DefaultOverscan      = 2
	DefaultRowHeight     = 1
	DefaultFetchTimeout  = 30 * time.Second
	DefaultSelectionMode = "multiple"
	DefaultSource        = "mem://"
)

// Rowscope represents the rowscope global configuration.
type Rowscope struct {
	RefreshRate   float32             `yaml:"refreshRate"`
	Overscan      int                 `yaml:"overscan"`
	Prefetch      int                 `yaml:"prefetch"`
	RowHeight     int                 `yaml:"rowHeight"`
	FetchWorkers  int                 `yaml:"fetchWorkers"`
	FetchTimeout  string              `yaml:"fetchTimeout"`
	SelectionMode string              `yaml:"selectionMode"`
	DefaultSource string              `yaml:"defaultSource"`
	UI            data.UI             `yaml:"ui"`
	Logger        data.Logger         `yaml:"logger"`
	AWS           data.AWS            `yaml:"aws"`
	Columns       []data.CustomColumn `yaml:"columns,omitempty"`

	mx sync.RWMutex
}

// NewRowscope creates a Rowscope with default settings.
func NewRowscope() *Rowscope {
	r := Rowscope{}
	r.Validate()

	return &r
}

// Validate ensures Rowscope has valid settings.
func (r *Rowscope) Validate() {
	r.mx.Lock()
	defer r.mx.Unlock()

	if r.RefreshRate <= 0 {
		r.RefreshRate = DefaultRefreshRate
	}
	if r.Overscan < 1 {
		r.Overscan = DefaultOverscan
	}
	if r.Prefetch < 0 {
		r.Prefetch = 0
	}
	if r.RowHeight <= 0 {
		r.RowHeight = DefaultRowHeight
	}
	if r.FetchWorkers <= 0 {
		r.FetchWorkers = model.DefaultFetchWorkers
	}
	if _, err := time.ParseDuration(r.FetchTimeout); err != nil {
		r.FetchTimeout = DefaultFetchTimeout.String()
	}
	if _, err := selection.ParseMode(r.SelectionMode); err != nil || r.SelectionMode == "" {
		r.SelectionMode = DefaultSelectionMode
	}
	if r.DefaultSource == "" {
		r.DefaultSource = DefaultSource
	}
	if r.Logger.Level == "" {
		r.Logger.Level = data.DefaultLogLevel
	}
	if r.Logger.MaxSizeMB <= 0 {
		r.Logger.MaxSizeMB = data.DefaultLogMaxSizeMB
	}
	if r.Logger.MaxBackups <= 0 {
		r.Logger.MaxBackups = data.DefaultLogMaxBackups
	}
}

// Override applies CLI flag overrides to the configuration.
func (r *Rowscope) Override(flags *data.Flags) {
	if flags == nil {
		return
	}

	r.mx.Lock()
	if flags.RefreshRate != nil && *flags.RefreshRate > 0 {
		r.RefreshRate = *flags.RefreshRate
	}
	if flags.Overscan != nil && *flags.Overscan > 0 {
		r.Overscan = *flags.Overscan
	}
	if flags.Prefetch != nil && *flags.Prefetch > 0 {
		r.Prefetch = *flags.Prefetch
	}
	if flags.FetchWorkers != nil && *flags.FetchWorkers > 0 {
		r.FetchWorkers = *flags.FetchWorkers
	}
	if IsStringSet(flags.FetchTimeout) {
		r.FetchTimeout = *flags.FetchTimeout
	}
	if IsStringSet(flags.SelectionMode) {
		r.SelectionMode = *flags.SelectionMode
	}
	if IsStringSet(flags.Source) {
		r.DefaultSource = *flags.Source
	}
	if IsStringSet(flags.LogLevel) {
		r.Logger.Level = *flags.LogLevel
	}
	if IsStringSet(flags.LogFile) {
		r.Logger.File = *flags.LogFile
	}
	if IsBoolSet(flags.Headless) {
		r.UI.Headless = true
	}
	if IsStringSet(flags.Profile) {
		r.AWS.Profile = *flags.Profile
	}
	if IsStringSet(flags.Region) {
		r.AWS.Region = *flags.Region
	}
	r.mx.Unlock()

	r.Validate()
}

// Source returns the source to open when none is given.
func (r *Rowscope) Source() string {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.DefaultSource
}

// IsHeadless checks if the UI is disabled.
func (r *Rowscope) IsHeadless() bool {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.UI.Headless
}

// GetFetchTimeout returns the parsed fetch timeout.
func (r *Rowscope) GetFetchTimeout() (time.Duration, error) {
	r.mx.RLock()
	s := r.FetchTimeout
	r.mx.RUnlock()

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch timeout %q: %w", s, err)
	}

	return d, nil
}

// GetRefreshRate returns the count retry interval.
func (r *Rowscope) GetRefreshRate() time.Duration {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return time.Duration(r.RefreshRate * float32(time.Second))
}

// GridOptions converts the settings into grid options.
func (r *Rowscope) GridOptions() (model.GridOptions, error) {
	timeout, err := r.GetFetchTimeout()
	if err != nil {
		return model.GridOptions{}, err
	}
	refresh := r.GetRefreshRate()

	r.mx.RLock()
	defer r.mx.RUnlock()

	mode, err := selection.ParseMode(r.SelectionMode)
	if err != nil {
		return model.GridOptions{}, err
	}

	return model.GridOptions{
		Overscan:      r.Overscan,
		Prefetch:      r.Prefetch,
		RowHeight:     r.RowHeight,
		Workers:       r.FetchWorkers,
		FetchTimeout:  timeout,
		RefreshRate:   refresh,
		SelectionMode: mode,
	}, nil
}

// CustomColumns builds the configured template columns against h.
func (r *Rowscope) CustomColumns(h model1.Header) ([]render.Column, error) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	cc := make([]render.Column, 0, len(r.Columns))
	for _, c := range r.Columns {
		if c.Name == "" {
			return nil, fmt.Errorf("custom column: missing name")
		}
		attrs := model1.Attrs{
			Number:   c.Number,
			Sortable: c.Sortable,
			Wide:     c.Wide,
			Align:    parseAlign(c.Align),
		}
		col, err := render.NewTemplateColumn(c.Name, c.Template, h, attrs)
		if err != nil {
			return nil, err
		}
		cc = append(cc, col)
	}

	return cc, nil
}

func parseAlign(s string) int {
	switch strings.ToLower(s) {
	case "right":
		return tview.AlignRight
	case "center":
		return tview.AlignCenter
	default:
		return tview.AlignLeft
	}
}
