// Package config loads the daemon configuration from a YAML file merged
// with environment overrides and command-line flags. Flags win over env,
// env wins over file, file wins over defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Sync    SyncConfig    `yaml:"sync"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the local API listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// StorageConfig holds local mirror settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// RemoteConfig holds the remote collaborator endpoints.
type RemoteConfig struct {
	NexusURL       string `yaml:"nexus_url"`
	HomeserverURL  string `yaml:"homeserver_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the remote request timeout.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// SyncConfig drives the background sync scheduler.
type SyncConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Cron     string `yaml:"cron"`
	PageSize int    `yaml:"page_size"`
	// BackfillRPS and BackfillBurst bound the detail backfill request
	// rate against the index service.
	BackfillRPS   float64 `yaml:"backfill_rps"`
	BackfillBurst int     `yaml:"backfill_burst"`
}

// SessionConfig identifies the signed-in user.
type SessionConfig struct {
	Owner string `yaml:"owner"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server:  ServerConfig{Address: "127.0.0.1", Port: 8310},
		Storage: StorageConfig{DBPath: "./.franky"},
		Remote:  RemoteConfig{TimeoutSeconds: 10},
		Sync: SyncConfig{
			Enabled:       true,
			Cron:          "*/5 * * * *",
			PageSize:      30,
			BackfillRPS:   5,
			BackfillBurst: 10,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Owner  string
	Set    map[string]bool
}

// ParseCommandFlags parses command-line flags.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", "", "local API listen address (host:port)")
	dbPtr := flag.String("db", "", "local mirror path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	ownerPtr := flag.String("owner", "", "signed-in owner public key")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Owner: *ownerPtr, Set: set}
}

// Load reads the YAML file at path into the defaults and applies env
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FRANKY_ADDR"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("FRANKY_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("FRANKY_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("FRANKY_NEXUS_URL"); v != "" {
		cfg.Remote.NexusURL = v
	}
	if v := os.Getenv("FRANKY_HOMESERVER_URL"); v != "" {
		cfg.Remote.HomeserverURL = v
	}
	if v := os.Getenv("FRANKY_OWNER"); v != "" {
		cfg.Session.Owner = v
	}
	if v := os.Getenv("FRANKY_SYNC_CRON"); v != "" {
		cfg.Sync.Cron = v
	}
	if v := os.Getenv("FRANKY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	if c.Session.Owner == "" {
		return fmt.Errorf("session.owner is required")
	}
	if c.Remote.NexusURL == "" {
		return fmt.Errorf("remote.nexus_url is required")
	}
	if c.Remote.HomeserverURL == "" {
		return fmt.Errorf("remote.homeserver_url is required")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	return nil
}
