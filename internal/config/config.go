// ABOUTME: Settings loading and saving for freakotp
// ABOUTME: Supports a TOML settings file with defaults and XDG path resolution

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultSpinner is the glyph set used for the code countdown display.
const DefaultSpinner = "◯◔◐◕●"

// Settings holds the user-adjustable display and behavior options.
type Settings struct {
	CopyToClipboard bool   `toml:"copy_to_clipboard"`
	ShowCodes       bool   `toml:"show_codes"`
	ShowTimeLeft    bool   `toml:"show_time_left"`
	SpinnerStyle    string `toml:"spinner_style"`
}

// Default returns the settings used when no settings file exists.
func Default() Settings {
	return Settings{
		CopyToClipboard: true,
		ShowCodes:       true,
		ShowTimeLeft:    true,
		SpinnerStyle:    DefaultSpinner,
	}
}

// Load reads settings from a TOML file. A missing file yields the
// defaults without error; a malformed file is an error.
func Load(path string) (Settings, error) {
	settings := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("reading settings: %w", err)
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parsing settings: %w", err)
	}
	return settings, nil
}

// Save writes settings to a TOML file, creating parent directories as
// needed.
func Save(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(settings); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return f.Close()
}

// Set assigns a settings key by its TOML name from a string value.
// Boolean keys accept the forms strconv.ParseBool accepts.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "copy_to_clipboard", "show_codes", "show_time_left":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q for %s", value, key)
		}
		switch key {
		case "copy_to_clipboard":
			s.CopyToClipboard = b
		case "show_codes":
			s.ShowCodes = b
		case "show_time_left":
			s.ShowTimeLeft = b
		}
	case "spinner_style":
		s.SpinnerStyle = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// DefaultDatabasePath returns the default token database location
// under the user's config directory.
func DefaultDatabasePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "freakotp", "freakotp.db"), nil
}

// DefaultSettingsPath returns the default settings file location under
// the user's config directory.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "freakotp", "freakotp.toml"), nil
}
