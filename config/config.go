// Package config holds the settings shared by the command line tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"pvztk/process"
)

// Config defines all options that can be set through the config file.
type Config struct {
	Target Target `yaml:"target"`

	// PointerWidth is the size in bytes of a pointer inside the target
	// process, 4 for a 32-bit game.
	PointerWidth int `yaml:"pointer-width"`

	Poll    Poll    `yaml:"poll"`
	Archive Archive `yaml:"archive"`
}

// Target identifies the game process.
type Target struct {
	WindowClass string `yaml:"window-class"`
	WindowTitle string `yaml:"window-title"`
	Executable  string `yaml:"executable"`

	// MainWindowClass is preferred when the executable owns several
	// top-level windows.
	MainWindowClass string `yaml:"main-window-class"`
}

// Poll sets how often liveness is checked while the game is running and
// while it is not.
type Poll struct {
	Online  time.Duration `yaml:"online"`
	Offline time.Duration `yaml:"offline"`
}

type Archive struct {
	IgnoreNames []string `yaml:"ignore-names"`
}

func Default() *Config {
	return &Config{
		Target: Target{
			WindowClass:     "MainWindow",
			WindowTitle:     "Plants vs. Zombies",
			Executable:      "PlantsVsZombies.exe",
			MainWindowClass: "MainWindow",
		},
		PointerWidth: int(process.PointerWidth32),
		Poll: Poll{
			Online:  400 * time.Millisecond,
			Offline: 200 * time.Millisecond,
		},
		Archive: Archive{
			IgnoreNames: []string{"thumbs.db"},
		},
	}
}

// Width returns PointerWidth as a process.PointerWidth.
func (c *Config) Width() process.PointerWidth {
	return process.PointerWidth(c.PointerWidth)
}

func (c *Config) Validate() error {
	if !c.Width().Valid() {
		return fmt.Errorf("pointer-width must be 4 or 8, got %d", c.PointerWidth)
	}
	if c.Poll.Online <= 0 || c.Poll.Offline <= 0 {
		return fmt.Errorf("poll intervals must be positive, got online %s offline %s", c.Poll.Online, c.Poll.Offline)
	}
	return nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}

	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("unable to decode config file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
