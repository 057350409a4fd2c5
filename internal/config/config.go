package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultBaudRate    = 115200
	DefaultSettleDelay = 5 * time.Second

	// EnvPrefix prefixes environment overrides, e.g. ESPFLEET_BAUD.
	EnvPrefix = "ESPFLEET"
)

// Keys shared by config files, environment variables and flags.
const (
	KeyBaud        = "baud"
	KeyTool        = "tool"
	KeyVenv        = "venv"
	KeySettleDelay = "settle-delay"
	KeyHistoryDir  = "history-dir"
	KeyMetricsFile = "metrics-file"
)

var keys = []string{KeyBaud, KeyTool, KeyVenv, KeySettleDelay, KeyHistoryDir, KeyMetricsFile}

// configExts are the file formats looked for, in order.
var configExts = []string{"yaml", "yml", "json", "toml"}

// Config holds all espfleet configuration.
type Config struct {
	BaudRate    int
	Tool        string
	Venv        string
	SettleDelay time.Duration
	HistoryDir  string
	MetricsFile string
}

// Paths tells Load where to look for config files.
type Paths struct {
	GlobalDir string // holds config.<ext>
	LocalDir  string // holds .espfleet.<ext>
	File      string // explicit file; replaces both lookups when set
}

// DefaultPaths uses ~/.config/espfleet and the working directory.
func DefaultPaths() Paths {
	var p Paths
	if home, err := os.UserHomeDir(); err == nil {
		p.GlobalDir = filepath.Join(home, ".config", "espfleet")
	}
	if wd, err := os.Getwd(); err == nil {
		p.LocalDir = wd
	}
	return p
}

// Defaults returns a Config with default values. History goes next to
// the global config.
func Defaults(paths Paths) Config {
	cfg := Config{
		BaudRate:    DefaultBaudRate,
		SettleDelay: DefaultSettleDelay,
	}
	if paths.GlobalDir != "" {
		cfg.HistoryDir = filepath.Join(paths.GlobalDir, "history")
	}
	return cfg
}

// Load reads and merges configuration.
// Order: defaults → global file → local file (or the explicit file) →
// ESPFLEET_* environment → flags set on fs.
// Nothing is ever written back.
func Load(paths Paths, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	def := Defaults(paths)
	v.SetDefault(KeyBaud, def.BaudRate)
	v.SetDefault(KeySettleDelay, def.SettleDelay)
	v.SetDefault(KeyHistoryDir, def.HistoryDir)
	v.SetDefault(KeyTool, "")
	v.SetDefault(KeyVenv, "")
	v.SetDefault(KeyMetricsFile, "")

	if paths.File != "" {
		v.SetConfigFile(paths.File)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", paths.File, err)
		}
	} else {
		if err := mergeFromDir(v, paths.GlobalDir, "config"); err != nil {
			return Config{}, err
		}
		if err := mergeFromDir(v, paths.LocalDir, ".espfleet"); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range keys {
			if f := fs.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	cfg := Config{
		BaudRate:    v.GetInt(KeyBaud),
		Tool:        v.GetString(KeyTool),
		Venv:        v.GetString(KeyVenv),
		SettleDelay: v.GetDuration(KeySettleDelay),
		HistoryDir:  v.GetString(KeyHistoryDir),
		MetricsFile: v.GetString(KeyMetricsFile),
	}
	return cfg, cfg.Validate()
}

// mergeFromDir merges the first <name>.<ext> found in dir. A missing
// file is not an error; a malformed one is.
func mergeFromDir(v *viper.Viper, dir, name string) error {
	if dir == "" {
		return nil
	}
	for _, ext := range configExts {
		path := filepath.Join(dir, name+"."+ext)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	return nil
}

// Validate reports values no run can use.
func (c Config) Validate() error {
	var errs []error
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud rate must be positive, got %d", c.BaudRate))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay))
	}
	return errors.Join(errs...)
}
