// Package appconfig manages application configuration and runtime file paths.
//
// Values are layered: Default(), then config.yaml from the config directory,
// then .env files, then the process environment (AUTH_* variables).
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/treykane/auth-helper/internal/util"
)

const appName = "auth-helper"

// Directory backends.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// UIConfig contains listing display settings.
type UIConfig struct {
	PrintFields    []string `yaml:"print_fields"`
	FieldSeparator string   `yaml:"field_separator"`
	Colors         bool     `yaml:"colors"`
	Pick           bool     `yaml:"pick"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	KeyPattern string `yaml:"key_pattern"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

// DirectoryConfig selects where host records are read from.
type DirectoryConfig struct {
	Backend string       `yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	File    FileConfig   `yaml:"file"`
}

// Config holds application-level configuration.
type Config struct {
	DataRoot    string          `yaml:"data_root"`
	Debug       bool            `yaml:"debug"`
	Blind       bool            `yaml:"blind"`
	Exec        bool            `yaml:"exec"`
	Journal     bool            `yaml:"journal"`
	Wrapper     string          `yaml:"wrapper"`
	SessionFile string          `yaml:"session_file"`
	UI          UIConfig        `yaml:"ui"`
	Directory   DirectoryConfig `yaml:"directory"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataRoot: "/opt/auth",
		Journal:  true,
		Wrapper:  util.DefaultWrapper,
		UI: UIConfig{
			PrintFields:    append([]string(nil), util.DefaultPrintFields...),
			FieldSeparator: util.DefaultFieldSeparator,
		},
		Directory: DirectoryConfig{
			Backend: BackendRedis,
			Redis: RedisConfig{
				Addr:       util.DefaultRedisAddr,
				KeyPattern: util.DefaultRedisKeyPattern,
			},
		},
	}
}

// ConfigDir returns the application config directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/auth-helper.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigFilePath returns the full path to config.yaml.
func ConfigFilePath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// JournalFilePath returns the full path to the decision journal.
func JournalFilePath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "journal.jsonl"), nil
}

// Load reads config.yaml from the config directory, creating it with
// defaults when missing, and applies .env files and AUTH_* variables on top.
func Load() (Config, error) {
	path, err := ConfigFilePath()
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return Config{}, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	env, err := environment(cfg)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	normalize(&cfg)
	return cfg, nil
}

// Save writes config to config.yaml.
func Save(cfg Config) error {
	path, err := ConfigFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// environment merges .env files under the config dir and data root with the
// process environment. The process environment wins.
func environment(cfg Config) (map[string]string, error) {
	merged := map[string]string{}
	dataRoot := cfg.DataRoot
	if v, ok := os.LookupEnv("AUTH_DATA_ROOT"); ok && v != "" {
		dataRoot = v
	}
	var candidates []string
	if d, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(d, ".env"))
	}
	if dataRoot != "" {
		candidates = append(candidates, filepath.Join(dataRoot, ".env"))
	}
	for _, p := range candidates {
		vals, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		for k, v := range vals {
			merged[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "AUTH_") {
			merged[k] = v
		}
	}
	return merged, nil
}

func applyEnv(cfg *Config, env map[string]string) error {
	str := func(key string, dst *string) {
		if v, ok := env[key]; ok {
			*dst = v
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := env[key]; ok {
			*dst = util.Str2Bool(v)
		}
	}

	str("AUTH_DATA_ROOT", &cfg.DataRoot)
	flag("AUTH_DEBUG", &cfg.Debug)
	flag("AUTH_BLINDE", &cfg.Blind)
	flag("AUTH_BLIND", &cfg.Blind)
	flag("AUTH_EXEC", &cfg.Exec)
	flag("AUTH_JOURNAL", &cfg.Journal)
	str("AUTH_WRAPPER", &cfg.Wrapper)
	str("AUTH_SESSION", &cfg.SessionFile)

	flag("AUTH_COLORS", &cfg.UI.Colors)
	flag("AUTH_PICK", &cfg.UI.Pick)
	str("AUTH_SPF_SEP", &cfg.UI.FieldSeparator)
	if v, ok := env["AUTH_SPF"]; ok {
		cfg.UI.PrintFields = strings.Fields(v)
	}

	str("AUTH_DIRECTORY", &cfg.Directory.Backend)
	str("AUTH_REDIS_PASS", &cfg.Directory.Redis.Password)
	str("AUTH_REDIS_KEYS", &cfg.Directory.Redis.KeyPattern)
	str("AUTH_SQLITE_PATH", &cfg.Directory.SQLite.Path)
	str("AUTH_DIRECTORY_FILE", &cfg.Directory.File.Path)

	host, port := splitAddr(cfg.Directory.Redis.Addr)
	str("AUTH_REDIS_IP", &host)
	str("AUTH_REDIS_PORT", &port)
	cfg.Directory.Redis.Addr = host + ":" + port
	if v, ok := env["AUTH_REDIS_DB"]; ok {
		db, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("AUTH_REDIS_DB: %w", err)
		}
		cfg.Directory.Redis.DB = db
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Directory.Backend = strings.ToLower(strings.TrimSpace(cfg.Directory.Backend))
	if cfg.Directory.Backend == "" {
		cfg.Directory.Backend = BackendRedis
	}
	if cfg.Directory.Redis.KeyPattern == "" {
		cfg.Directory.Redis.KeyPattern = util.DefaultRedisKeyPattern
	}
	if strings.TrimSpace(cfg.Wrapper) == "" {
		cfg.Wrapper = util.DefaultWrapper
	}
	if len(cfg.UI.PrintFields) == 0 {
		cfg.UI.PrintFields = append([]string(nil), util.DefaultPrintFields...)
	}
	if cfg.UI.FieldSeparator == "" {
		cfg.UI.FieldSeparator = util.DefaultFieldSeparator
	}
}

func splitAddr(addr string) (string, string) {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i], addr[i+1:]
	}
	return addr, "6379"
}
