package config

import (
	"github.com/rowscope/rowscope/internal/config/data"
)

// DefaultRefreshRate is the default count retry interval in seconds.
const DefaultRefreshRate = 2.0

// NewFlags creates a new Flags instance with default values set.
func NewFlags() *data.Flags {
	refreshRate := float32(DefaultRefreshRate)
	logLevel := data.DefaultLogLevel
	logFile := AppLogFile

	f := data.NewFlags()
	f.RefreshRate, f.LogLevel, f.LogFile = &refreshRate, &logLevel, &logFile

	return f
}

// IsBoolSet returns true if a bool pointer is non-nil and true.
func IsBoolSet(b *bool) bool {
	return b != nil && *b
}

// IsStringSet returns true if a string pointer is non-nil and non-empty.
func IsStringSet(s *string) bool {
	return s != nil && *s != ""
}
