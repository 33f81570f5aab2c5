package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/illarion/diaria/internal/crypto"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvKeys    = "DIARIA_KEYS"
	EnvEntries = "DIARIA_ENTRIES"
	EnvEditor  = "DIARIA_EDITOR"
)

const fallbackEditor = "vi %"

// Config is the resolved configuration.
type Config struct {
	// Keys is the directory holding the key files.
	Keys string `yaml:"keys"`

	// Entries is the directory holding the .diaria files.
	Entries string `yaml:"entries"`

	// Editor is a shell template; % is replaced by the entry path.
	Editor string `yaml:"editor"`

	// Sandbox runs the editor under bubblewrap.
	Sandbox bool `yaml:"sandbox"`

	// Keyring enables the OS keyring passphrase cache.
	Keyring bool `yaml:"keyring"`

	Summarize SummarizeConfig `yaml:"summarize"`

	// KDF tunes Argon2id for init and passwd. Zero means default.
	KDF KDFConfig `yaml:"kdf"`
}

// SummarizeConfig configures the summarize command.
type SummarizeConfig struct {
	// Offsets are the look-back windows in days.
	Offsets []int `yaml:"offsets"`
}

// KDFConfig holds Argon2id costs.
type KDFConfig struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	data := DataDir()
	return &Config{
		Keys:    filepath.Join(data, "keys"),
		Entries: filepath.Join(data, "entries"),
		Editor:  DefaultEditor(os.Getenv),
		Sandbox: true,
		Keyring: true,
		Summarize: SummarizeConfig{
			Offsets: []int{1, 7, 31, 365, 730, 1461, 2922, 5844},
		},
	}
}

// DefaultEditor builds an editor template from $VISUAL or $EDITOR.
func DefaultEditor(getenv func(string) string) string {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if editor := strings.TrimSpace(getenv(name)); editor != "" {
			return editor + " %"
		}
	}
	return fallbackEditor
}

// DataDir returns $XDG_DATA_HOME/diaria, defaulting to ~/.local/share.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// DefaultPath returns $XDG_CONFIG_HOME/diaria/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.yaml")
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return filepath.Join(dir, "diaria")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, fallback, "diaria")
}

// Load reads the file at path over the defaults. A missing file is only
// an error when explicit is set, i.e. the path came from --config.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides values from DIARIA_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvKeys); v != "" {
		c.Keys = expandHome(v)
	}
	if v := getenv(EnvEntries); v != "" {
		c.Entries = expandHome(v)
	}
	if v := getenv(EnvEditor); v != "" {
		c.Editor = v
	}
}

func (c *Config) normalize() error {
	c.Keys = expandHome(c.Keys)
	c.Entries = expandHome(c.Entries)
	if c.Keys == "" || c.Entries == "" {
		return errors.New("keys and entries must not be empty")
	}
	if err := crypto.CheckCosts(c.KDF.Time, c.KDF.MemoryKiB, c.KDF.Threads); err != nil {
		return fmt.Errorf("kdf: %w", err)
	}
	for _, off := range c.Summarize.Offsets {
		if off <= 0 {
			return fmt.Errorf("summarize offsets must be positive, got %d", off)
		}
	}
	return nil
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
