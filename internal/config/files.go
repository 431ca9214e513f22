package config

import (
	"os"
	"path/filepath"
)

const AppName = "rowscope"

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "ROWSCOPE_CONFIG_DIR"

var (
	// AppConfigDir is ~/.config/rowscope
	AppConfigDir string

	// AppStateDir is ~/.local/state/rowscope
	AppStateDir string

	// AppConfigFile is ~/.config/rowscope/config.yaml
	AppConfigFile string

	// AppHotkeysFile is ~/.config/rowscope/hotkeys.yaml
	AppHotkeysFile string

	// AppAliasesFile is ~/.config/rowscope/aliases.yaml
	AppAliasesFile string

	// AppLogFile is ~/.local/state/rowscope/rowscope.log
	AppLogFile string

	// AppDumpsDir is ~/.local/state/rowscope/dumps
	AppDumpsDir string
)

// InitLocs initializes all application directory paths.
// It respects ROWSCOPE_CONFIG_DIR and the XDG variables if set.
func InitLocs() error {
	home := userHomeDir()

	AppConfigDir = os.Getenv(EnvConfigDir)
	if AppConfigDir == "" {
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		AppConfigDir = filepath.Join(configHome, AppName)
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}
	AppStateDir = filepath.Join(stateHome, AppName)

	AppConfigFile = filepath.Join(AppConfigDir, "config.yaml")
	AppHotkeysFile = filepath.Join(AppConfigDir, "hotkeys.yaml")
	AppAliasesFile = filepath.Join(AppConfigDir, "aliases.yaml")
	AppLogFile = filepath.Join(AppStateDir, AppName+".log")
	AppDumpsDir = filepath.Join(AppStateDir, "dumps")

	for _, dir := range []string{AppConfigDir, AppStateDir, AppDumpsDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	return nil
}

// userHomeDir returns the user's home directory
func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}
