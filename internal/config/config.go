package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// EnvVar overrides the config file location.
const EnvVar = "D2TOOL_CONFIG"

// Config is the in-memory representation of ~/.d2tool/d2tool.yaml.
type Config struct {
	GameDir    string `yaml:"game_dir,omitempty"`
	Lang       string `yaml:"lang,omitempty"`
	LoadLinked bool   `yaml:"load_linked,omitempty"`
	Format     string `yaml:"format,omitempty"`
	Store      string `yaml:"store,omitempty"`
}

// Dir returns the absolute path to ~/.d2tool/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".d2tool"), nil
}

// Path returns $D2TOOL_CONFIG, or ~/.d2tool/d2tool.yaml if unset.
func Path() (string, error) {
	if p := os.Getenv(EnvVar); p != "" {
		return ExpandPath(p)
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "d2tool.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

func Default() *Config {
	return &Config{
		Lang:   "fr",
		Format: "json",
		Store:  filepath.Join("~", ".d2tool", "export.db"),
	}
}

// Load reads the config file at Path. A missing file yields Default.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing file yields Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, cfg.expand()
	} else if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	switch cfg.Format {
	case "json", "msgpack":
	default:
		return nil, fmt.Errorf("%s: unknown format %q", path, cfg.Format)
	}
	return cfg, cfg.expand()
}

func (cfg *Config) expand() error {
	var err error
	if cfg.GameDir, err = ExpandPath(cfg.GameDir); err != nil {
		return err
	}
	cfg.Store, err = ExpandPath(cfg.Store)
	return err
}

// LockTimeout bounds how long Save waits for another writer.
var LockTimeout = 5 * time.Second

// Save writes cfg to path, creating the directory if needed. Concurrent
// savers are serialized through path + ".lock".
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	unlock, err := acquireLock(path+".lock", LockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func acquireLock(lockPath string, timeout time.Duration) (func(), error) {
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire config lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("config is locked by another process (lock: %s)", lockPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Resolve makes p absolute relative to the game directory. Absolute paths and
// paths starting with ~ are left to ExpandPath.
func (cfg *Config) Resolve(p string) (string, error) {
	p, err := ExpandPath(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) || cfg.GameDir == "" {
		return p, nil
	}
	return filepath.Join(cfg.GameDir, p), nil
}

// TextPath returns the localization table for the configured language, e.g.
// data/i18n/i18n_fr.d2i under the game directory.
func (cfg *Config) TextPath() (string, error) {
	if cfg.Lang == "" {
		return "", errors.New("no lang configured")
	}
	return cfg.Resolve(filepath.Join("data", "i18n", "i18n_"+cfg.Lang+".d2i"))
}
