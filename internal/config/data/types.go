// Package data provides configuration data types for rowscope.
package data

// Flags represents CLI command-line flags.
type Flags struct {
	Source        *string  // Source URI or alias
	RefreshRate   *float32 // Count retry rate in seconds
	Overscan      *int     // Extra rows per viewport edge
	Prefetch      *int     // Lookahead rows
	FetchWorkers  *int     // Concurrent fetches
	FetchTimeout  *string  // Per-fetch timeout
	SelectionMode *string  // none, single or multiple
	LogLevel      *string  // Log level (e.g., debug, info, warn, error)
	LogFile       *string  // Path to log file
	Headless      *bool    // Run in headless mode (no TUI)
	Profile       *string  // AWS profile to use
	Region        *string  // AWS region to use
}

// UI represents user interface configuration settings.
type UI struct {
	EnableMouse bool `yaml:"enableMouse"`
	Headless    bool `yaml:"headless"`
	Crumbsless  bool `yaml:"crumbsless"`
}

// Logger represents logging configuration settings.
type Logger struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// Logger configuration constants.
const (
	DefaultLogLevel      = "info"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
)

// AWS holds the default AWS profile and region.
type AWS struct {
	Profile string `yaml:"profile"`
	Region  string `yaml:"region"`
}

// CustomColumn declares a computed column rendered from a Go template
// over the row fields, e.g. "{{.NAME}} ({{.AGE}})".
type CustomColumn struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
	Align    string `yaml:"align"`
	Number   bool   `yaml:"number"`
	Sortable bool   `yaml:"sortable"`
	Wide     bool   `yaml:"wide"`
}

// NewFlags creates a new Flags instance with all pointer fields initialized.
// All pointers are allocated but their values are not set.
func NewFlags() *Flags {
	return &Flags{
		Source:        new(string),
		RefreshRate:   new(float32),
		Overscan:      new(int),
		Prefetch:      new(int),
		FetchWorkers:  new(int),
		FetchTimeout:  new(string),
		SelectionMode: new(string),
		LogLevel:      new(string),
		LogFile:       new(string),
		Headless:      new(bool),
		Profile:       new(string),
		Region:        new(string),
	}
}
