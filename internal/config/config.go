// Package config loads CLI settings.
//
// Sources are applied in priority order, each overriding the previous one:
//
//  1. Built-in defaults
//  2. User config file ($XDG_CONFIG_HOME/tada/config.toml, the OS config
//     dir, or ~/.tada/config.toml)
//  3. Project config file (./tada.toml or ./.tada.toml), or the file named
//     by --config / TADA_CONFIG instead of 2 and 3
//  4. Environment variables (TADA_*, NO_COLOR)
//  5. Root flags that were actually set on the command line
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/Makepad-fr/tada/internal/liststore"
	"github.com/Makepad-fr/tada/internal/logging"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Config holds everything the CLI needs to open storage and render output.
type Config struct {
	Backend    string `toml:"backend"`
	Path       string `toml:"path"` // file/sqlite location; "" means the backend default in the working dir
	DSN        string `toml:"dsn"`
	Theme      string `toml:"theme"`
	Group      bool   `toml:"group"`
	IDPolicy   string `toml:"id_policy"`
	StrictLoad bool   `toml:"strict_load"`
	Color      bool   `toml:"color"` // force color even when output is not a terminal
	NoColor    bool   `toml:"no_color"`
	LogLevel   string `toml:"log_level"`
	LogFile    string `toml:"log_file"`

	// Files lists the config files that were applied, in order.
	Files []string `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend:  BackendFile,
		Theme:    "classic",
		IDPolicy: "sequence",
		LogLevel: "info",
	}
}

// AddFlags registers the root flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (TOML)")
	fs.String("backend", "", "storage backend: file, sqlite, mysql or memory")
	fs.String("path", "", "data file for the file and sqlite backends")
	fs.String("dsn", "", "MySQL data source name")
	fs.String("theme", "", "output theme: classic, neon or mono")
	fs.Bool("group", false, "group ls output by pending/done")
	fs.String("id-policy", "", "how new ids are chosen: sequence or count")
	fs.Bool("strict", false, "fail instead of starting over when stored data is unreadable")
	fs.Bool("color", false, "force colored output")
	fs.Bool("no-color", false, "disable colored output (wins over --color)")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("log-file", "", "append logs to this file instead of stderr")
}

// Load parses args with fs and merges every source. Parsing stops at the
// first non-flag argument; the rest is returned for the subcommand.
// AddFlags is called for fs if it has not been already.
func Load(fs *pflag.FlagSet, args []string) (*Config, []string, error) {
	if fs.Lookup("backend") == nil {
		AddFlags(fs)
	}
	fs.SetInterspersed(false)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg := Default()

	explicit, _ := fs.GetString("config")
	if explicit == "" {
		explicit = os.Getenv("TADA_CONFIG")
	}
	if explicit != "" {
		if err := loadFile(cfg, explicit); err != nil {
			return nil, nil, err
		}
	} else {
		for _, p := range []string{findUserConfigFile(), findProjectConfigFile()} {
			if p == "" {
				continue
			}
			if err := loadFile(cfg, p); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, nil, err
	}
	applyFlags(cfg, fs)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// Validate checks that the settings can be acted on.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendMySQL:
		if c.DSN == "" {
			return errors.New("config: backend mysql needs a dsn")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := liststore.ParseIDPolicy(c.IDPolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("config: unknown theme %q", c.Theme)
	}
	return nil
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("loading config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}

func findUserConfigFile() string {
	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "tada", "config.toml"))
	} else if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "tada", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".tada", "config.toml"))
	}
	return firstExisting(candidates)
}

func findProjectConfigFile() string {
	return firstExisting([]string{"tada.toml", ".tada.toml"})
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func loadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"TADA_BACKEND":   &cfg.Backend,
		"TADA_PATH":      &cfg.Path,
		"TADA_DSN":       &cfg.DSN,
		"TADA_THEME":     &cfg.Theme,
		"TADA_ID_POLICY": &cfg.IDPolicy,
		"TADA_LOG_LEVEL": &cfg.LogLevel,
		"TADA_LOG_FILE":  &cfg.LogFile,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"TADA_GROUP":       &cfg.Group,
		"TADA_STRICT_LOAD": &cfg.StrictLoad,
		"TADA_COLOR":       &cfg.Color,
		"TADA_NO_COLOR":    &cfg.NoColor,
	}
	for name, dst := range bools {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*dst = b
	}

	// https://no-color.org: any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	return nil
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	strs := map[string]*string{
		"backend":   &cfg.Backend,
		"path":      &cfg.Path,
		"dsn":       &cfg.DSN,
		"theme":     &cfg.Theme,
		"id-policy": &cfg.IDPolicy,
		"log-level": &cfg.LogLevel,
		"log-file":  &cfg.LogFile,
	}
	for name, dst := range strs {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}

	bools := map[string]*bool{
		"group":    &cfg.Group,
		"strict":   &cfg.StrictLoad,
		"color":    &cfg.Color,
		"no-color": &cfg.NoColor,
	}
	for name, dst := range bools {
		if fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}
}
